package domain

import "time"

// Role enumerates principal roles. The role decides the blast radius of
// every ticket operation: global for admins, department-scoped for agents,
// self-scoped for end-users.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleAgent Role = "AGENT"
	RoleUser  Role = "USER"
)

// ParseRole validates a role string against the closed set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleAgent, RoleUser:
		return Role(s), true
	}
	return "", false
}

// UserStatus represents lifecycle states for a principal.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

// User is the domain model for every authenticated principal: end-users,
// agents and administrators share one table and differ by Role.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       UserStatus
	BranchID     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive reports whether the principal may act at all.
func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}
