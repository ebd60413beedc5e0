// Package store defines the persistence interfaces consumed by the
// application core. The only durable state this system keeps is simple
// key-value data (prompt history, pinned prompts, the daily counter);
// internal/platform/postgres supplies the real implementation and
// MemoryKV backs tests and database-less runs.
package store

import (
	"context"
	"errors"
)

// Common store errors.
var (
	// ErrKeyNotFound is returned when the requested key does not exist.
	ErrKeyNotFound = errors.New("key not found")
)

// KeyValue is a minimal persistent key-value store.
type KeyValue interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key, value string) error
}
