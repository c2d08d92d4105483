package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS cart_snapshots (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertSnapshot = `
INSERT INTO cart_snapshots (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

const selectSnapshot = `SELECT value FROM cart_snapshots WHERE key = $1`

// PostgresStore keeps cart snapshots in a single key-value table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore ensures the snapshot table exists and returns the store.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, createSnapshotsTable); err != nil {
		return nil, fmt.Errorf("failed to create cart_snapshots table: %w", err)
	}

	return &PostgresStore{
		pool:   pool,
		logger: logger.With().Str("component", "postgres-store").Logger(),
	}, nil
}

// Get returns the value stored under key, or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, selectSnapshot, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, overwriting any previous value.
func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.pool.Exec(ctx, upsertSnapshot, key, value); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
