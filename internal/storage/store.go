package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// ErrNotFound is returned when a blob does not exist in the store.
var ErrNotFound = errors.New("blob not found")

// BlobStore is the narrow attachment-store interface the lifecycle engine
// depends on. Implementations are interchangeable; the engine never cares
// whether bytes live on local disk or in an object store.
type BlobStore interface {
	Exists(ctx context.Context, name string) (bool, error)
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
	// PublicURL returns a browsable URL for the blob when the backend has
	// one; ok is false otherwise.
	PublicURL(name string) (url string, ok bool)
}

// New selects a backend from configuration.
func New(cfg config.StorageConfig, redis *persistence.Redis, logger *zap.Logger) (BlobStore, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL, logger)
	case "redis":
		if redis == nil || redis.Client == nil {
			return nil, fmt.Errorf("storage backend %q requires a redis connection", cfg.Backend)
		}
		return NewRedisStore(redis.Client, cfg.RedisKeyPrefix, cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
