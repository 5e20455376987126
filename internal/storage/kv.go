// Package storage holds the key-value persistence port the ledger store
// writes through and its SQLite implementation.
package storage

import (
	"context"
	"errors"

	"denaro/internal/core"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// ErrConflict is returned by Put when the expected version is stale.
var ErrConflict = core.ErrVersionConflict

// Record is a stored value and the version it was written at.
// Versions start at 1; zero means the key is absent.
type Record struct {
	Value   []byte
	Version int64
}

// KV is a string-keyed store with a per-key version counter.
type KV interface {
	Get(ctx context.Context, key string) (Record, error)
	// Put writes value if the key's current version equals expect and
	// returns the new version. Pass 0 to create a key that must not exist.
	Put(ctx context.Context, key string, value []byte, expect int64) (int64, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
