// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface for deployments with more than one server instance.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/lib/pq"

	"github.com/mmynk/familysync/internal/storage"
)

// Ensure PostgresStore implements storage.Store
var _ storage.Store = (*PostgresStore)(nil)

// PostgresStore implements storage.Store using PostgreSQL.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a PostgresStore.
type Option func(*PostgresStore)

// WithClock overrides the clock used to stamp created_at columns.
func WithClock(now func() time.Time) Option {
	return func(s *PostgresStore) {
		if now != nil {
			s.now = now
		}
	}
}

// Open connects to databaseURL, verifies the connection and runs migrations.
func Open(ctx context.Context, databaseURL string, opts ...Option) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	s, err := New(ctx, db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and runs migrations. The store takes ownership
// of db and closes it on Close.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*PostgresStore, error) {
	if err := runMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	s := &PostgresStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a transaction and commits if fn returns nil.
func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classifyCommit(err))
	}
	return nil
}

// stamp returns the current time truncated to milliseconds, the resolution
// shared with the SQLite store.
func (s *PostgresStore) stamp() time.Time {
	return time.UnixMilli(s.now().UnixMilli()).UTC()
}

// transientClasses are SQLSTATE classes worth retrying: connection
// exceptions, transaction rollbacks (serialization, deadlock), insufficient
// resources and operator intervention.
var transientClasses = map[pq.ErrorClass]bool{
	"08": true,
	"40": true,
	"53": true,
	"57": true,
}

// classify marks connection loss and retryable SQLSTATEs as transient.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if transientClasses[pqErr.Code.Class()] {
			return fmt.Errorf("%w: %w", storage.ErrTransient, err)
		}
		return err
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", storage.ErrTransient, err)
	}
	return err
}

// classifyCommit is classify for errors returned by COMMIT. A rollback class
// SQLSTATE means nothing was applied. A lost connection leaves the outcome
// unknown, so it is reported as unavailable and never marked for a replay.
func classifyCommit(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "40" {
		return classify(err)
	}
	if storage.IsTransient(classify(err)) {
		return fmt.Errorf("%w: commit outcome unknown: %w", storage.ErrUnavailable, err)
	}
	return err
}
