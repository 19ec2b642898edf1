package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/springshield/auth-service/internal/core/domain"
	"github.com/springshield/auth-service/internal/core/ports"
)

const (
	DefaultRoleTTL = 10 * time.Minute
	roleKeyPrefix  = "role:"
)

// CachedRoleRepository is a read-through cache in front of a RoleRepository.
// Key format: role:<name>. Redis failures are logged and the lookup falls
// through to the wrapped repository. Missing roles are never cached.
type CachedRoleRepository struct {
	next   ports.RoleRepository
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewCachedRoleRepository(next ports.RoleRepository, client *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedRoleRepository {
	if ttl <= 0 {
		ttl = DefaultRoleTTL
	}
	return &CachedRoleRepository{next: next, client: client, ttl: ttl, log: log}
}

type cachedRole struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *CachedRoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	key := roleKeyPrefix + name

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cr cachedRole
		if jerr := json.Unmarshal(raw, &cr); jerr == nil {
			return &domain.Role{ID: cr.ID, Name: cr.Name}, nil
		}
		c.log.Warn().Str("key", key).Msg("role cache: corrupt entry")
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn().Err(err).Str("key", key).Msg("role cache: get failed")
	}

	role, err := c.next.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(cachedRole{ID: role.ID, Name: role.Name})
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("role cache: set failed")
	}
	return role, nil
}
