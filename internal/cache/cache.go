// Package cache provides a TTL key/value store abstraction and the
// remember-or-compute helper used in front of external lookups.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Store persists opaque values until their TTL elapses.
type Store interface {
	// Get returns the value for key and whether an unexpired entry exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl, replacing any previous entry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache wraps a Store with JSON encoding and failure logging.
type Cache struct {
	store Store
	log   *slog.Logger
}

// New builds a Cache over store.
func New(store Store, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Cache{store: store, log: log}
}

// Remember returns the cached value for key, or calls compute and caches its
// result for ttl. A compute error is returned unchanged and nothing is
// cached, so a failure is never served later as a hit. Store errors degrade
// to a miss on read and a skipped write on store.
//
// Concurrent first access may run compute more than once; the last
// successful result wins.
func Remember[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	if raw, ok, err := c.store.Get(ctx, key); err != nil {
		c.log.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.Any("error", err))
	} else if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.log.WarnContext(ctx, "cache entry undecodable", slog.String("key", key))
	}

	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.log.WarnContext(ctx, "cache encode failed", slog.String("key", key), slog.Any("error", err))
		return value, nil
	}
	if err := c.store.Set(ctx, key, raw, ttl); err != nil {
		c.log.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.Any("error", err))
	}
	return value, nil
}
