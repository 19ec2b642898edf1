package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/springshield/auth-service/internal/core/domain"
)

const uniqueViolation = "23505"

const (
	selectUserByUsername = `SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1`
	selectUserByEmail    = `SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`
	selectUserRoles      = `SELECT r.id, r.name FROM roles r JOIN user_roles ur ON ur.role_id = r.id WHERE ur.user_id = $1 ORDER BY r.name`
	selectRoleByName     = `SELECT id, name FROM roles WHERE name = $1`
	insertUser           = `INSERT INTO users (id, username, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`
	insertUserRole       = `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`
	insertRole           = `INSERT INTO roles (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
)

// CredentialStore implements ports.UserRepository and ports.RoleRepository
// on PostgreSQL. Uniqueness of usernames and emails comes from the table
// constraints.
type CredentialStore struct {
	db *sql.DB
}

func NewCredentialStore(db *sql.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findUser(ctx, selectUserByUsername, username)
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, selectUserByEmail, normalizeEmail(email))
}

func (s *CredentialStore) findUser(ctx context.Context, query, key string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var u domain.User
	err := s.db.QueryRowContext(ctx, query, key).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()

	rows, err := s.db.QueryContext(ctx, selectUserRoles, u.ID)
	if err != nil {
		return nil, fmt.Errorf("find user roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scan user role: %w", err)
		}
		u.Roles = append(u.Roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user roles: %w", err)
	}
	return &u, nil
}

// Save inserts the user and its role links in a single transaction.
func (s *CredentialStore) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	saved := *user
	saved.Email = normalizeEmail(user.Email)
	saved.CreatedAt = user.CreatedAt.UTC()
	saved.Roles = append([]domain.Role(nil), user.Roles...)

	if _, err := tx.ExecContext(ctx, insertUser,
		saved.ID, saved.Username, saved.Email, saved.PasswordHash, saved.CreatedAt,
	); err != nil {
		return nil, mapInsertError("insert user", err)
	}
	for _, role := range saved.Roles {
		if _, err := tx.ExecContext(ctx, insertUserRole, saved.ID, role.ID); err != nil {
			return nil, mapInsertError("insert user role", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &saved, nil
}

func (s *CredentialStore) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var r domain.Role
	if err := s.db.QueryRowContext(ctx, selectRoleByName, name).Scan(&r.ID, &r.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &r, nil
}

// SeedRoles creates any of the named roles that do not exist yet.
func (s *CredentialStore) SeedRoles(ctx context.Context, names ...string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, insertRole, uuid.NewString(), name); err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func mapInsertError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrUserAlreadyExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
