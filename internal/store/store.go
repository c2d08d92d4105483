package store

import (
	"context"
	"errors"
	"fmt"

	"cartsync/internal/config"
	"cartsync/internal/database"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("store: key not found")

// Store is a key-value blob store used to mirror cart state between runs.
// Persistence is best-effort: the engine treats the server as the source of
// truth for cart line items, so a failed write is logged and ignored.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error
}

// New builds the store adapter selected by the configuration.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.Store.FileDir, logger)
	case "redis":
		return NewRedisStore(ctx, cfg.Store, logger)
	case "postgres":
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		return NewPostgresStore(ctx, pool, logger)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}
