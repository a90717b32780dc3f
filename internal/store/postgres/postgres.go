// Package postgres implements store.PlanStore using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"fletcher/internal/store"
)

// Store provides PostgreSQL-backed implementations of the store interfaces.
type Store struct {
	db *sql.DB
}

// New opens a connection pool against databaseURL and verifies it with a
// ping. maxConns bounds the pool size (spec.md §5's MAX_CONNECTIONS).
func New(ctx context.Context, databaseURL string, maxConns int) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an already-open *sql.DB, used by tests to inject go-sqlmock.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying connection pool, used by Migrate at startup.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping reports whether the database connection is alive, for /readyz.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// BeginTx opens a new serializable transaction. The planner and state
// engines run their multi-statement sequences inside one so a concurrent
// submission can never observe a half-written plan (I3).
func (s *Store) BeginTx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &txWrapper{tx}, nil
}

// getExecutor returns tx if non-nil, otherwise the pool itself — the
// standard pattern for repository methods that may run inside or outside
// an explicit transaction.
func (s *Store) getExecutor(tx store.DBTransaction) store.DBTransaction {
	if tx != nil {
		return tx
	}
	return s.db
}
