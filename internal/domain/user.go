// Package domain contains core domain types for the Fluxo application.
package domain

import (
	"time"
)

// Role determines which dashboard a user lands on after login.
type Role string

const (
	// RoleModeler users create and edit process definitions.
	RoleModeler Role = "modeler"
	// RoleExecutor users start instances of saved processes and fill forms.
	RoleExecutor Role = "executor"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	return r == RoleModeler || r == RoleExecutor
}

// User represents a logged-in session user. There is no password; login is
// a trivial session flag carrying an email and a role.
type User struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CanModel returns true if the user may save or delete process definitions.
func (u *User) CanModel() bool {
	return u.Role == RoleModeler
}
