// Package app assembles the locker's backend from configuration. Both the HTTP
// server and the terminal client build on it.
package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"digilocker/internal/auth"
	"digilocker/internal/config"
	"digilocker/internal/database"
	"digilocker/internal/database/migration"
	"digilocker/internal/gateway"
	"digilocker/internal/identity"
	"digilocker/internal/repository"
	"digilocker/internal/repository/inmemory"
	"digilocker/internal/repository/postgres"
	"digilocker/internal/storage"
)

// Backend is everything behind the document gateway plus the account and
// identity stores.
type Backend struct {
	// DB is nil when metadata is kept in memory.
	DB        *sql.DB
	Storage   storage.Storage
	Documents repository.DocumentRepository
	Users     repository.UserRepository
	URLs      gateway.URLScheme
	Gateway   gateway.Gateway
	Auth      auth.Service
	Slots     identity.Slots

	closers []func() error
}

// NewBackend connects to the configured storage, metadata and identity
// backends. Collectors are registered on reg when it is not nil.
func NewBackend(ctx context.Context, cfg *config.AppConfig, reg prometheus.Registerer, log *slog.Logger) (*Backend, error) {
	b := &Backend{
		URLs: gateway.URLScheme{BaseURL: cfg.Locker.PublicBaseURL, Bucket: cfg.Locker.Bucket},
	}

	var err error
	if b.Storage, err = NewStorage(ctx, cfg.Storage); err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}
	if err = b.openMetadata(ctx, cfg, log); err != nil {
		b.Close()
		return nil, fmt.Errorf("metadata: %w", err)
	}
	if err = b.openSlots(cfg.Redis); err != nil {
		b.Close()
		return nil, fmt.Errorf("identity slots: %w", err)
	}

	var metrics *gateway.Metrics
	if reg != nil {
		if metrics, err = gateway.NewMetrics(reg); err != nil {
			b.Close()
			return nil, err
		}
	}
	b.Gateway = gateway.New(b.Storage, b.Documents, b.URLs, gateway.Options{
		Timeout:      cfg.Locker.GatewayTimeout(),
		MaxFileBytes: int64(cfg.Locker.MaxFileBytes),
		Logger:       log.With("component", "gateway"),
		Metrics:      metrics,
	})

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = randomSecret()
		log.Warn("auth_secret_generated", "reason", "AUTH_JWT_SECRET is empty; tokens will not survive a restart")
	}
	if b.Auth, err = auth.NewService(b.Users, secret, cfg.Auth.TokenTTL()); err != nil {
		b.Close()
		return nil, err
	}

	log.Info("backend_ready",
		"storage_driver", cfg.Storage.Driver,
		"metadata_backend", cfg.Locker.Backend,
		"identity_slots", slotsKind(cfg.Redis),
		"public_base_url", cfg.Locker.PublicBaseURL,
	)
	return b, nil
}

// NewStorage builds the object storage named by cfg.Driver.
func NewStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case "", "minio":
		return storage.NewMinIO(ctx, cfg.MinIO)
	case "s3":
		return storage.NewS3(ctx, cfg.S3)
	case "memory":
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func (b *Backend) openMetadata(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) error {
	switch cfg.Locker.Backend {
	case "", "postgres":
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return err
		}
		b.closers = append(b.closers, db.Close)
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			return err
		}
		b.DB = db
		b.Documents = postgres.NewDocumentPostgres(db)
		b.Users = postgres.NewUserPostgres(db)
	case "memory":
		mem, err := inmemory.New()
		if err != nil {
			return err
		}
		b.Documents = mem.Documents()
		b.Users = mem.Users()
	default:
		return fmt.Errorf("unsupported locker backend %q", cfg.Locker.Backend)
	}
	return nil
}

func (b *Backend) openSlots(cfg config.RedisConfig) error {
	if cfg.Addr == "" {
		b.Slots = identity.NewMemorySlots()
		return nil
	}
	client, err := identity.NewRedisClient(cfg)
	if err != nil {
		return err
	}
	b.closers = append(b.closers, client.Close)
	b.Slots = identity.NewRedisSlots(client)
	return nil
}

func slotsKind(cfg config.RedisConfig) string {
	if cfg.Addr == "" {
		return "memory"
	}
	return "redis"
}

// Close releases connections in reverse order of opening.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

func randomSecret() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
