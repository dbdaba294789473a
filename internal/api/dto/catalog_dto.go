package dto

import "time"

// CreateDepartmentRequest payload.
type CreateDepartmentRequest struct {
	Name string `json:"name"`
}

// DepartmentResponse wire representation.
type DepartmentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCategoryRequest payload.
type CreateCategoryRequest struct {
	Name         string  `json:"name"`
	DepartmentID string  `json:"department_id"`
	OwnerAgentID *string `json:"owner_agent_id"`
}

// UpdateCategoryRequest payload. ClearOwner removes the owner override so
// tickets in the category fall back to random routing.
type UpdateCategoryRequest struct {
	Name         *string `json:"name"`
	OwnerAgentID *string `json:"owner_agent_id"`
	ClearOwner   bool    `json:"clear_owner"`
}

// CategoryResponse wire representation.
type CategoryResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	DepartmentID string    `json:"department_id"`
	OwnerAgentID *string   `json:"owner_agent_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateBranchRequest payload.
type CreateBranchRequest struct {
	Name string `json:"name"`
}

// BranchResponse wire representation.
type BranchResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateAppRequest payload.
type CreateAppRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AppResponse wire representation.
type AppResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
