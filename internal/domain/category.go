package domain

import "time"

// Category is a department-scoped ticket classification. OwnerAgentID, when
// set, names the agent that new tickets in this category route to; the owner
// must be assigned to the category's department.
type Category struct {
	ID           string
	Name         string
	DepartmentID string
	OwnerAgentID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
