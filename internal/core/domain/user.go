package domain

import (
	"errors"
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// MsgUserRegistered is returned by a successful registration.
const MsgUserRegistered = "User registered successfully"

// Workflow errors. Their messages are part of the HTTP contract and are
// returned verbatim to clients.
var (
	ErrUserAlreadyExists  = errors.New("User already exists")
	ErrRoleNotFound       = errors.New("Role not found")
	ErrInvalidCredentials = errors.New("Invalid credentials")
)

// ErrUserNotFound is the repository signal for an absent user. It never
// leaves the core.
var ErrUserNotFound = errors.New("user not found")

// IsValidationError reports whether err is one of the workflow errors a
// client is allowed to see.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUserAlreadyExists) ||
		errors.Is(err, ErrRoleNotFound) ||
		errors.Is(err, ErrInvalidCredentials)
}

// Role is a pre-existing authority a user can be granted.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User models a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	Roles        []Role    `json:"roles"`
}
