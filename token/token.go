// Package token manages the guest cart token: the opaque identifier that
// correlates an unauthenticated session with its server-side cart.
package token

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/utafrali/storefront-go/storage"
)

// StorageKey is the fixed key under which the guest token is persisted.
const StorageKey = "guest_cart_token"

// Manager persists and caches the guest cart token. A storage failure never
// propagates to callers; the manager degrades to its in-memory cache so cart
// flows keep working within the current process.
type Manager struct {
	store  storage.Store
	logger *slog.Logger

	mu     sync.Mutex
	cached string
}

// NewManager creates a token manager backed by the given store.
func NewManager(store storage.Store, logger *slog.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// GetOrCreate returns the persisted guest token, generating and persisting a
// new one if none exists. Repeated calls return the identical token until
// Clear is called.
func (m *Manager) GetOrCreate(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != "" {
		return m.cached
	}

	tok, err := m.store.Get(ctx, StorageKey)
	if err == nil && tok != "" {
		m.cached = tok
		return tok
	}
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		m.logger.WarnContext(ctx, "guest token read failed, generating in-memory token",
			slog.String("error", err.Error()),
		)
	}

	tok = uuid.NewString()
	m.cached = tok
	m.persist(ctx, tok)
	return tok
}

// Get returns the current token without creating one. Returns empty string
// when no token exists.
func (m *Manager) Get(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != "" {
		return m.cached
	}

	tok, err := m.store.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			m.logger.WarnContext(ctx, "guest token read failed",
				slog.String("error", err.Error()),
			)
		}
		return ""
	}
	m.cached = tok
	return tok
}

// Set overwrites the stored token, used when the server issues one. Empty
// input is a no-op.
func (m *Manager) Set(ctx context.Context, tok string) {
	if tok == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if tok == m.cached {
		return
	}
	m.cached = tok
	m.persist(ctx, tok)
}

// Clear removes the persisted token. Called after a successful merge into an
// authenticated account's cart.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cached = ""
	if err := m.store.Delete(ctx, StorageKey); err != nil {
		m.logger.WarnContext(ctx, "guest token delete failed",
			slog.String("error", err.Error()),
		)
	}
}

// persist writes the token, logging and swallowing failures. Callers hold m.mu.
func (m *Manager) persist(ctx context.Context, tok string) {
	if err := m.store.Set(ctx, StorageKey, tok); err != nil {
		m.logger.WarnContext(ctx, "guest token write failed, token kept in memory only",
			slog.String("error", err.Error()),
		)
	}
}
