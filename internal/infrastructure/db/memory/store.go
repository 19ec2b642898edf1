// Package memory provides a process-local credential store. It enforces
// the same uniqueness rules as the database-backed stores and is used for
// development and tests.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/springshield/auth-service/internal/core/domain"
)

type Store struct {
	mu      sync.RWMutex
	users   map[string]*domain.User // keyed by username
	byEmail map[string]string       // email -> username
	roles   map[string]*domain.Role // keyed by name
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]*domain.User),
		byEmail: make(map[string]string),
		roles:   make(map[string]*domain.Role),
	}
}

func (s *Store) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	username, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(s.users[username]), nil
}

// Save inserts user. The uniqueness check and the insert happen under one
// lock, so concurrent saves of the same username or email cannot both win.
func (s *Store) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(user.Email)
	if _, taken := s.users[user.Username]; taken {
		return nil, domain.ErrUserAlreadyExists
	}
	if _, taken := s.byEmail[email]; taken {
		return nil, domain.ErrUserAlreadyExists
	}

	stored := cloneUser(user)
	s.users[stored.Username] = stored
	s.byEmail[email] = stored.Username
	return cloneUser(stored), nil
}

func (s *Store) FindByName(_ context.Context, name string) (*domain.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.roles[name]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	clone := *r
	return &clone, nil
}

// SeedRoles creates any of the named roles that do not exist yet.
func (s *Store) SeedRoles(_ context.Context, names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := s.roles[name]; ok {
			continue
		}
		s.roles[name] = &domain.Role{ID: uuid.NewString(), Name: name}
	}
	return nil
}

// Ping always succeeds; it lets the readiness probe treat every store alike.
func (s *Store) Ping(context.Context) error {
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	clone.Roles = append([]domain.Role(nil), u.Roles...)
	return &clone
}
