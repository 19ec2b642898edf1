package ports

import "context"

// RegisterInput is the DTO passed from the transport layer to AuthService.Register.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	Role     string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (string, error)
	Authenticate(ctx context.Context, username, password string) (string, error)
}
