package domain

import "errors"

// Role represents a caller's access level
type Role string

const (
	// RoleAdmin may credit, debit and manage the catalog
	RoleAdmin Role = "admin"

	// RoleMember may use every non-privileged command
	RoleMember Role = "member"
)

// Valid roles
var validRoles = map[Role]bool{
	RoleAdmin:  true,
	RoleMember: true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// IsPrivileged reports whether the role may run privileged commands.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin
}

// Authentication errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
