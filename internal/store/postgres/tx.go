package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"fletcher/internal/store"
)

// txWrapper adapts *sql.Tx to store.Tx, classifying the Postgres error on
// Commit so callers can distinguish a serialization conflict from any
// other failure without depending on github.com/lib/pq themselves.
type txWrapper struct {
	*sql.Tx
}

func (t *txWrapper) Commit() error {
	if err := t.Tx.Commit(); err != nil {
		return classifyPQError(err)
	}
	return nil
}

// classifyPQError maps a Postgres SQLSTATE to the store sentinel error a
// caller can act on: 23505 (unique_violation) to ErrUniqueViolation,
// 23502/23503/23514 (not_null/foreign_key/check violation) to
// ErrIntegrity, and 40001/40P01 (serialization_failure/deadlock_detected)
// to ErrTransient (spec.md §4.1). Errors that are not a *pq.Error, or
// carry a code this mapping doesn't recognize, pass through unchanged.
func classifyPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505":
		return fmt.Errorf("%w: %s", store.ErrUniqueViolation, pqErr.Message)
	case "23502", "23503", "23514":
		return fmt.Errorf("%w: %s", store.ErrIntegrity, pqErr.Message)
	case "40001", "40P01":
		return fmt.Errorf("%w: %s", store.ErrTransient, pqErr.Message)
	default:
		return err
	}
}
