// Package storage provides the durable client-side key/value store used to
// persist the guest cart token and cart snapshots across sessions. It is the
// localStorage analogue for non-browser deployments: a small string store
// with pluggable backends and an explicit error contract.
package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key has never been set or has
// been deleted.
var ErrKeyNotFound = errors.New("storage: key not found")

// Store is a durable string key/value store.
//
// All methods return an error rather than swallowing failures; callers that
// must degrade gracefully (token persistence, snapshot writes) do so
// explicitly, typically via Fallback.
type Store interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores the value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
