package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Well-known local_state keys.
const (
	KeyAppliedVersion = "applied_version"
	KeyForcedLocale   = "forced_locale"
	KeyDebugMode      = "debug_mode"
	KeyInstallID      = "install_id"
)

// StateRepo handles the durable key/value store.
type StateRepo struct {
	db *sql.DB
}

func NewStateRepo(db *sql.DB) *StateRepo { return &StateRepo{db: db} }

// Get returns the value for key and whether it exists.
func (r *StateRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM local_state WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *StateRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO local_state(key, value, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET
	 value=excluded.value,
	 updated_at=CURRENT_TIMESTAMP;
	`, key, value)
	return err
}

// SetIfAbsent stores value only when key has no row yet. Returns whether it wrote.
func (r *StateRepo) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO local_state(key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`, key, value)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *StateRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM local_state WHERE key = ?`, key)
	return err
}

func (r *StateRepo) List(ctx context.Context) ([]StateEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, updated_at FROM local_state ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StateEntry
	for rows.Next() {
		var e StateEntry
		if err := rows.Scan(&e.Key, &e.Value, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
