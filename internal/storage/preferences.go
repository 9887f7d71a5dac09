package storage

import (
	"context"
	"database/sql"
	"errors"

	"expensetracker/internal/core"
)

// PreferencesKV is the SQLite preferences table exposed as a KV.
type PreferencesKV struct {
	db *sql.DB
}

// Preferences returns the KV sharing this repository's connection.
func (r *SQLiteRepository) Preferences() *PreferencesKV {
	return &PreferencesKV{db: r.db}
}

func (p *PreferencesKV) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := p.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &core.StoreError{Op: "get preference", Err: err}
	}
	return v, true, nil
}

func (p *PreferencesKV) Set(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return &core.StoreError{Op: "set preference", Err: err}
	}
	return nil
}
