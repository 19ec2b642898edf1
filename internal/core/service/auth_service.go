package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/springshield/auth-service/internal/core/domain"
	"github.com/springshield/auth-service/internal/core/ports"
)

// AuthService implements registration and authentication.
type AuthService struct {
	users  ports.UserRepository
	roles  ports.RoleRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		roles:  roles,
		hasher: hasher,
		tokens: tokens,
		log:    log,
		now:    time.Now,
	}
}

// Register creates a user holding exactly the requested role.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (string, error) {
	// 1. Uniqueness: username first, then email.
	taken, err := s.exists(ctx, s.users.FindByUsername, in.Username)
	if err != nil {
		return "", err
	}
	if !taken {
		if taken, err = s.exists(ctx, s.users.FindByEmail, in.Email); err != nil {
			return "", err
		}
	}
	if taken {
		s.log.Warn().Str("username", in.Username).Msg("registration rejected: user exists")
		return "", domain.ErrUserAlreadyExists
	}

	// 2. Role must already exist.
	role, err := s.roles.FindByName(ctx, in.Role)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			s.log.Warn().Str("username", in.Username).Str("role", in.Role).Msg("registration rejected: unknown role")
		}
		return "", err
	}

	hash, err := s.hasher.Encode(in.Password)
	if err != nil {
		return "", err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
		Roles:        []domain.Role{*role},
	}

	// The store is the last word on uniqueness: a concurrent registration
	// that slipped past the checks above surfaces here as ErrUserAlreadyExists.
	if _, err := s.users.Save(ctx, user); err != nil {
		return "", err
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Str("role", role.Name).
		Msg("user registered")

	return domain.MsgUserRegistered, nil
}

// Authenticate verifies the credentials and returns a signed token for the
// username. Unknown users and wrong passwords fail identically.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Warn().Str("username", username).Msg("authentication rejected")
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if !s.hasher.Matches(password, user.PasswordHash) {
		s.log.Warn().Str("username", username).Msg("authentication rejected")
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", err
	}

	s.log.Info().Str("username", user.Username).Msg("user authenticated")
	return token, nil
}

// exists runs a lookup and folds ErrUserNotFound into a false result.
func (s *AuthService) exists(
	ctx context.Context,
	find func(context.Context, string) (*domain.User, error),
	key string,
) (bool, error) {
	_, err := find(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}
