package domain

import "time"

// Comment is an append-only note on a ticket thread. Comments are never
// edited or deleted individually; they go away only when their ticket does.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}
