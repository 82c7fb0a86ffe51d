package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/eventhub/internal/clock"
)

// CacheRepository is a cache.Store backed by the cache_entries table, shared
// by every instance of the service.
type CacheRepository struct {
	db    *pgxpool.Pool
	clock clock.Clock
}

// NewCacheRepository constructs a CacheRepository.
func NewCacheRepository(db *pgxpool.Pool, clk clock.Clock) *CacheRepository {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &CacheRepository{db: db, clock: clk}
}

// Get returns the unexpired value stored under key.
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRow(ctx,
		`SELECT value FROM cache_entries WHERE key = $1 AND expires_at > $2`,
		key, r.clock.Now(),
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cache entry: %w", err)
	}
	return value, true, nil
}

// Set upserts value under key. value must be valid JSON.
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO cache_entries (key, value, expires_at)
		 VALUES ($1, $2::jsonb, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		key, string(value), r.clock.Now().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("set cache entry: %w", err)
	}
	return nil
}

// DeleteExpired removes expired entries and returns how many were dropped.
func (r *CacheRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM cache_entries WHERE expires_at <= $1`, r.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("delete expired cache entries: %w", err)
	}
	return tag.RowsAffected(), nil
}
