package storage

import (
	"context"
	"errors"
	"log/slog"
)

// Fallback wraps a primary Store and degrades to an in-memory store when the
// primary fails. The failure is logged once per operation and never surfaced
// to callers, matching the policy that storage problems must not break cart
// flows. Values written during degraded operation live only in memory.
type Fallback struct {
	primary Store
	memory  *MemoryStore
	logger  *slog.Logger
}

// NewFallback wraps primary with in-memory degradation.
func NewFallback(primary Store, logger *slog.Logger) *Fallback {
	return &Fallback{
		primary: primary,
		memory:  NewMemoryStore(),
		logger:  logger,
	}
}

// Get reads from the primary store, falling back to memory on failure.
func (f *Fallback) Get(ctx context.Context, key string) (string, error) {
	val, err := f.primary.Get(ctx, key)
	if err == nil {
		return val, nil
	}
	if errors.Is(err, ErrKeyNotFound) {
		// Absent in the primary; a degraded write may still be in memory.
		return f.memory.Get(ctx, key)
	}

	f.logger.WarnContext(ctx, "durable storage read failed, using in-memory value",
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
	return f.memory.Get(ctx, key)
}

// Set writes to memory always and to the primary store best-effort.
func (f *Fallback) Set(ctx context.Context, key, value string) error {
	_ = f.memory.Set(ctx, key, value)

	if err := f.primary.Set(ctx, key, value); err != nil {
		f.logger.WarnContext(ctx, "durable storage write failed, value kept in memory only",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// Delete removes the key from both stores, logging primary failures.
func (f *Fallback) Delete(ctx context.Context, key string) error {
	_ = f.memory.Delete(ctx, key)

	if err := f.primary.Delete(ctx, key); err != nil {
		f.logger.WarnContext(ctx, "durable storage delete failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
