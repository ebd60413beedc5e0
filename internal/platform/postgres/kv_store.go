package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/store"
)

// KVStore implements store.KeyValue on a single kv_entries table.
type KVStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure KVStore satisfies the interface.
var _ store.KeyValue = (*KVStore)(nil)

// NewKVStore creates a Postgres-backed key-value store.
func NewKVStore(db *sql.DB, logger *slog.Logger) *KVStore {
	return &KVStore{
		db:     db,
		logger: logger.With("component", "postgres_kv_store"),
	}
}

// Get returns the value stored under key, or store.ErrKeyNotFound.
func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv_entries WHERE key = $1", key,
	).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("failed to get key %q: %w", key, MapError(err))
	}
	return value, nil
}

// Set stores value under key, replacing any existing value.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, MapError(err))
	}
	return nil
}
