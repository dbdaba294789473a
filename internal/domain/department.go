package domain

import "time"

// Department represents an organizational routing unit. It owns categories
// and tickets and has a many-to-many set of assigned agents.
type Department struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
