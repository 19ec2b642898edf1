// @title        SpringShield auth API
// @version      1.0
// @description  User registration and token issuance.
// @BasePath     /
// @schemes      http
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/springshield/auth-service/internal/api"
	"github.com/springshield/auth-service/internal/core/ports"
	"github.com/springshield/auth-service/internal/core/service"
	"github.com/springshield/auth-service/internal/infrastructure/config"
	"github.com/springshield/auth-service/internal/infrastructure/db/memory"
	mongostore "github.com/springshield/auth-service/internal/infrastructure/db/mongo"
	pgstore "github.com/springshield/auth-service/internal/infrastructure/db/postgres"
	rediscache "github.com/springshield/auth-service/internal/infrastructure/db/redis"
	"github.com/springshield/auth-service/internal/infrastructure/http/handlers"
	"github.com/springshield/auth-service/internal/infrastructure/security"
	"github.com/springshield/auth-service/pkg/logger"
)

const serviceName = "springshield"

// credentialStore is what every store driver provides.
type credentialStore interface {
	ports.UserRepository
	ports.RoleRepository
	handlers.Pinger
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Pretty(),
		Service: serviceName,
	})

	key, err := cfg.JWT.Key()
	if err != nil {
		return err
	}
	issuer, err := security.NewTokenIssuer(key, cfg.JWT.ValidityDuration())
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	log.Info().
		Str("alg", issuer.Algorithm()).
		Dur("validity", issuer.Validity()).
		Int("bcrypt_cost", hasher.Cost()).
		Msg("security configured")

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	readiness := map[string]handlers.Pinger{cfg.StoreDriver: store}

	var roles ports.RoleRepository = store
	if cfg.Redis.Addr != "" {
		rdb, err := rediscache.Connect(ctx, rediscache.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()

		roles = rediscache.NewCachedRoleRepository(store, rdb, cfg.Redis.RoleTTL, logger.Component("role_cache"))
		readiness["redis"] = handlers.PingerFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.RoleTTL).Msg("role cache enabled")
	}

	authService := service.NewAuthService(store, roles, hasher, issuer, logger.Component("auth"))

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		Readiness:   readiness,
		Logger:      logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// openStore connects the configured driver, prepares its schema and seeds
// the roles. The returned func releases the connection.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (credentialStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, store, err := mongostore.Open(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		}, cfg.SeedRoles...)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("db", cfg.Mongo.Database).Msg("mongodb store ready")
		return store, func() { _ = client.Disconnect(context.Background()) }, nil

	case config.DriverPostgres:
		db, store, err := pgstore.Open(ctx, pgstore.Config{DSN: cfg.Postgres.DSN}, cfg.SeedRoles...)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("postgres store ready")
		return store, func() { _ = db.Close() }, nil

	default:
		store := memory.NewStore()
		if err := store.SeedRoles(ctx, cfg.SeedRoles...); err != nil {
			return nil, nil, err
		}
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return store, func() {}, nil
	}
}
