package store

import (
	"context"
	"errors"
	"fmt"
)

// WithRetry runs fn inside a freshly opened transaction. Transactions run
// at SERIALIZABLE isolation (see postgres.Store.BeginTx), so a concurrent
// writer can cause fn's statements or the final commit to fail with
// ErrTransient; WithRetry runs the whole body again exactly once before
// giving up and surfacing ErrConflict (spec.md §5/§7).
func WithRetry(ctx context.Context, s PlanStore, fn func(ctx context.Context, tx Tx) error) error {
	var lastTransient error
	for attempt := 0; attempt < 2; attempt++ {
		tx, err := s.BeginTx(ctx)
		if err != nil {
			return err
		}

		err = func() error {
			defer tx.Rollback()
			if ferr := fn(ctx, tx); ferr != nil {
				return ferr
			}
			return tx.Commit()
		}()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrTransient) {
			return err
		}
		lastTransient = err
	}
	return fmt.Errorf("%w: %v", ErrConflict, lastTransient)
}
