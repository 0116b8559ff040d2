// Package database opens the libSQL-backed SQLite handle shared by the
// store and the migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/tursodatabase/go-libsql"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const defaultBusyTimeout = 5 * time.Second

// Option tunes Open.
type Option func(*settings)

type settings struct {
	busyTimeout time.Duration
}

// WithBusyTimeout sets how long a writer waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *settings) { s.busyTimeout = d }
}

// Open connects to the database at path with WAL journaling and foreign
// keys enforced. An in-memory database is pinned to a single connection
// because each connection would otherwise see its own empty schema.
func Open(ctx context.Context, path string, opts ...Option) (*sql.DB, error) {
	cfg := settings{busyTimeout: defaultBusyTimeout}
	for _, o := range opts {
		o(&cfg)
	}

	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := applyPragmas(ctx, db, cfg); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// applyPragmas goes through QueryContext: libSQL refuses Exec for pragmas
// that return a row.
func applyPragmas(ctx context.Context, db *sql.DB, cfg settings) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		rows, err := db.QueryContext(ctx, p)
		if err != nil {
			return fmt.Errorf("executing %s: %w", p, err)
		}
		for rows.Next() {
		}
		rows.Close()
	}
	return nil
}

// WithTx runs fn in a transaction. It commits when fn returns nil and
// rolls back on error or panic.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
