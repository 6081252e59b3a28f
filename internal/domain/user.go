package domain

import "strings"

// Role enumerates the roles a user may hold.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// NormalizeRole upper-cases a stored role so comparisons are case-insensitive.
func NormalizeRole(raw string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(raw)))
}

// User is a provisioned account. The classroom service never writes users.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Salt         string
	FirstName    string
	LastName     string
	Role         string
}

// Exists reports whether the record represents a real row. Rows with an
// empty email are treated as absent everywhere.
func (u *User) Exists() bool {
	return u != nil && u.Email != ""
}
