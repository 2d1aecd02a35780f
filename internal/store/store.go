// Package store provides the SQLite-backed persistence layer for members,
// their ledger records and the shared catalogs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrConflict marks a write that kept failing on storage-level contention
// after the retry budget was spent.
var ErrConflict = errors.New("storage conflict")

const (
	txRetries    = 3
	txRetryDelay = 25 * time.Millisecond
)

// Store wraps a SQLite database holding the club ledger. Reads can run
// concurrently under WAL; write transactions are serialized by mu.
type Store struct {
	db *sql.DB
	mu sync.Mutex
	queries
}

// Tx exposes the store operations inside a single database transaction.
type Tx struct {
	queries
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection, so the pool must not
	// hand out a second one.
	if strings.Contains(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	store.queries = queries{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		nickname TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		balance TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS fines (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES members(id),
		reason TEXT NOT NULL,
		amount TEXT NOT NULL,
		paid BOOLEAN NOT NULL DEFAULT FALSE,
		amount_paid TEXT,
		paid_at TEXT,
		date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_fines_member ON fines(member_id);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES members(id),
		amount TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_payments_member ON payments(member_id);

	CREATE TABLE IF NOT EXISTS due_payments (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES members(id),
		due_id TEXT NOT NULL REFERENCES dues(id),
		amount TEXT NOT NULL,
		paid BOOLEAN NOT NULL DEFAULT FALSE,
		amount_paid TEXT,
		paid_at TEXT,
		exempt BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_due_payments_member ON due_payments(member_id);
	CREATE INDEX IF NOT EXISTS idx_due_payments_due ON due_payments(due_id);

	CREATE TABLE IF NOT EXISTS beverage_consumptions (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES members(id),
		beverage_id TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		paid BOOLEAN NOT NULL DEFAULT FALSE,
		amount_paid TEXT,
		paid_at TEXT,
		date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_consumptions_member ON beverage_consumptions(member_id);

	CREATE TABLE IF NOT EXISTS dues (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		amount TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		due_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS beverages (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		price TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS predefined_fines (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		amount TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// WithTx executes fn within a single database transaction. Conflicting
// writes are retried a bounded number of times; when the budget is spent
// the error wraps ErrConflict.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < txRetries; attempt++ {
		err := s.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isBusyError(err) {
			return err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(txRetryDelay):
		}
	}

	return fmt.Errorf("%w: %v", ErrConflict, lastErr)
}

func (s *Store) runTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{queries: queries{db: sqlTx}}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}
