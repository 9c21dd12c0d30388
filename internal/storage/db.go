package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/claude/repregret/internal/storage/migrations"
)

// DB wraps the on-device SQLite database and provides repository methods.
type DB struct {
	sql  *sql.DB
	subs subscribers
}

// Open opens (or creates) the SQLite database at path and applies pending
// migrations. Pass ":memory:" for an ephemeral store.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Single writer matches the store's concurrency model and keeps an
	// in-memory database on one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{sql: db}, nil
}

// Close closes the underlying database.
func (db *DB) Close() error {
	return db.sql.Close()
}

// runMigrations applies all pending schema versions from the embedded
// migration files. Versions are additive: adding a table never rewrites rows
// stored by an earlier version.
func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// withTx runs fn inside one transaction. Multi-table read-modify-writes go
// through here so a concurrent reader never observes a partial application.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Counts holds per-table row counts for the stats surface.
type Counts struct {
	Templates int `json:"templates"`
	Exercises int `json:"exercises"`
	Sessions  int `json:"sessions"`
	Sets      int `json:"sets"`
	Meta      int `json:"meta"`
}

// GetCounts returns the row count of every table.
func (db *DB) GetCounts(ctx context.Context) (Counts, error) {
	var c Counts
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"workout_templates", &c.Templates},
		{"exercises", &c.Exercises},
		{"sessions", &c.Sessions},
		{"set_logs", &c.Sets},
		{"meta", &c.Meta},
	} {
		if err := db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+q.table).Scan(q.dst); err != nil {
			return Counts{}, fmt.Errorf("counting %s: %w", q.table, err)
		}
	}
	return c, nil
}
