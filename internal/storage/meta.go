package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/claude/repregret/internal/models"
)

// GetMeta reads a store-level flag. ok is false when the key is absent.
func (db *DB) GetMeta(ctx context.Context, key string) (value string, ok bool, err error) {
	err = db.sql.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying meta %q: %w", key, err)
	}
	return value, true, nil
}

// SetMeta writes a store-level flag, replacing any existing value.
func (db *DB) SetMeta(ctx context.Context, key, value string) error {
	_, err := db.sql.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("writing meta %q: %w", key, err)
	}
	db.notify("meta")
	return nil
}

// ListMeta returns every meta entry.
func (db *DB) ListMeta(ctx context.Context) ([]models.MetaEntry, error) {
	rows, err := db.sql.QueryContext(ctx, `SELECT key, value FROM meta ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying meta: %w", err)
	}
	defer rows.Close()

	var result []models.MetaEntry
	for rows.Next() {
		var m models.MetaEntry
		if err := rows.Scan(&m.Key, &m.Value); err != nil {
			return nil, fmt.Errorf("scanning meta: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
