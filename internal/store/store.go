// Package store keeps the CPI tables in a single SQLite file.
package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/xerrors"

	// database/sql driver "sqlite"
	_ "modernc.org/sqlite"

	"go.nownabe.dev/blsloader/schema"
)

// Store wraps the connection to the SQLite database.
// A Store is owned by one run and must be closed by it.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database described by cfg.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	cfg.applyDefaults()

	abs, err := filepath.Abs(strings.TrimSpace(cfg.Path))
	if err != nil {
		return nil, xerrors.Errorf("resolve sqlite path: %w", err)
	}

	db, err := sqlx.Open("sqlite", dsn(abs, cfg.BusyTimeout))
	if err != nil {
		return nil, xerrors.Errorf("open sqlite %s: %w", abs, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.BusyTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, xerrors.Errorf("ping sqlite %s: %w", abs, err)
	}

	return &Store{db: db}, nil
}

// Reference tables are joined with LEFT JOIN and carry no foreign keys, so the
// foreign_keys pragma is left at its default.
func dsn(path string, busy time.Duration) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, busy/time.Millisecond)
}

// Close releases the connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureSchema creates missing tables and indexes and re-creates the views.
// It runs in a single transaction and never drops data.
func (s *Store) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return xerrors.Errorf("begin schema transaction: %w", err)
	}

	for i, stmt := range schema.Statements() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return xerrors.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return xerrors.Errorf("commit schema: %w", err)
	}

	return nil
}

// Count returns the number of rows in table.
func (s *Store) Count(ctx context.Context, table *schema.Table) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table.Name); err != nil {
		return 0, xerrors.Errorf("count %s: %w", table.Name, err)
	}
	return n, nil
}
