package domain

import "time"

// App is an internal application a user can be entitled to.
type App struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}
