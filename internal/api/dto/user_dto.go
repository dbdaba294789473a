package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries a bearer token and its expiry.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// CreateUserRequest payload for administrative account creation.
type CreateUserRequest struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Password      string   `json:"password"`
	Role          string   `json:"role"`
	BranchID      string   `json:"branch_id"`
	BranchIDs     []string `json:"branch_ids"`
	DepartmentIDs []string `json:"department_ids"`
	AppIDs        []string `json:"app_ids"`
}

// UpdateUserRequest payload; nil fields are left untouched.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Status   *string `json:"status"`
	Role     *string `json:"role"`
	BranchID *string `json:"branch_id"`
}

// SetIDsRequest replaces a relation set (branches, departments, apps).
type SetIDsRequest struct {
	IDs []string `json:"ids"`
}

// SwitchBranchRequest payload.
type SwitchBranchRequest struct {
	BranchID string `json:"branch_id"`
}

// UserResponse is the wire representation of a principal.
type UserResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Role      domain.Role       `json:"role"`
	Status    domain.UserStatus `json:"status"`
	BranchID  string            `json:"branch_id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// UserProfileResponse is a principal with its relation sets.
type UserProfileResponse struct {
	UserResponse
	BranchIDs     []string `json:"branch_ids"`
	DepartmentIDs []string `json:"department_ids"`
	AppIDs        []string `json:"app_ids"`
}
