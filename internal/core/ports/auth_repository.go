package ports

import (
	"context"

	"github.com/springshield/auth-service/internal/core/domain"
)

// UserRepository defines the credential store operations on users.
// Lookups return domain.ErrUserNotFound when no user matches.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Save inserts a new user. A username or email collision detected by the
	// store is reported as domain.ErrUserAlreadyExists.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
}

// RoleRepository resolves roles by name. Returns domain.ErrRoleNotFound when
// no role matches.
type RoleRepository interface {
	FindByName(ctx context.Context, name string) (*domain.Role, error)
}
