package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// CacheRepo stores fetched response bodies keyed by request.
type CacheRepo struct {
	db *sql.DB
}

func NewCacheRepo(db *sql.DB) *CacheRepo { return &CacheRepo{db: db} }

// Get returns the cached entry for key when it is younger than maxAge.
// A zero maxAge accepts any age.
func (r *CacheRepo) Get(ctx context.Context, key string, maxAge time.Duration) (*CacheEntry, error) {
	var e CacheEntry
	err := r.db.QueryRowContext(ctx, `SELECT key, body, fetched_at FROM response_cache WHERE key = ?`, key).
		Scan(&e.Key, &e.Body, &e.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(e.FetchedAt) > maxAge {
		return nil, nil
	}
	return &e, nil
}

func (r *CacheRepo) Put(ctx context.Context, key string, body []byte) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO response_cache(key, body, fetched_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
	 body=excluded.body,
	 fetched_at=excluded.fetched_at;
	`, key, body, time.Now().UTC())
	return err
}

// Purge drops every cached response and returns how many were removed.
func (r *CacheRepo) Purge(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM response_cache`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *CacheRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM response_cache`).Scan(&n)
	return n, err
}
