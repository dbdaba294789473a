package domain

import "time"

// Branch is a physical office location. Every user has one active branch and
// a set of branches they are authorized to operate from; the authorized set
// always contains the active branch.
type Branch struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
