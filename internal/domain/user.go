package domain

import "time"

// UserRole separates agents (admins) from customer success partners.
type UserRole string

const (
	RoleAgent UserRole = "agent"
	RoleCSP   UserRole = "csp"
)

// User is an authenticated identity. Only active agents are assignable
// and counted in per-agent metrics.
type User struct {
	ID           string
	Name         string
	Email        string
	Role         UserRole
	Active       bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAgent reports whether the user holds the agent/admin role.
func (u *User) IsAgent() bool {
	return u != nil && u.Role == RoleAgent
}
