package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"fletcher/internal/model"
)

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx.
// This allows repository methods to accept either a connection pool or
// an active transaction interchangeably.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Tx is a DBTransaction that can be committed or rolled back.
type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// PlanStore handles the persistence of datasets, their data products,
// and the dependency edges between them.
type PlanStore interface {
	// BeginTx opens a new transaction against the underlying pool.
	BeginTx(ctx context.Context) (Tx, error)

	// GetDataset returns a dataset by ID, or ErrNotFound.
	GetDataset(ctx context.Context, tx DBTransaction, id uuid.UUID) (*model.Dataset, error)

	// UpsertDataset inserts or updates a dataset row.
	UpsertDataset(ctx context.Context, tx DBTransaction, ds model.Dataset) error

	// SetDatasetPaused flips a dataset's paused flag.
	SetDatasetPaused(ctx context.Context, tx DBTransaction, id uuid.UUID, paused bool, modifiedBy string) error

	// GetPlan returns a dataset together with its data products and
	// dependency edges.
	GetPlan(ctx context.Context, tx DBTransaction, datasetID uuid.UUID) (*model.Plan, error)

	// ListDataProducts returns every product of a dataset, including
	// disabled (pruned) ones.
	ListDataProducts(ctx context.Context, tx DBTransaction, datasetID uuid.UUID) ([]model.DataProduct, error)

	// GetDataProduct returns one data product by ID, or ErrNotFound.
	GetDataProduct(ctx context.Context, tx DBTransaction, id uuid.UUID) (*model.DataProduct, error)

	// UpsertDataProduct inserts a new product or updates an existing one
	// in place, preserving its current State/RunID/Link/Passback (dp.State
	// is only written when the row is inserted).
	UpsertDataProduct(ctx context.Context, tx DBTransaction, dp model.DataProduct) error

	// DisableDataProduct marks a product disabled without deleting its row.
	DisableDataProduct(ctx context.Context, tx DBTransaction, id uuid.UUID, modifiedBy string) error

	// ApplyStateUpdate persists a new state/run/link/passback for a product.
	ApplyStateUpdate(ctx context.Context, tx DBTransaction, u model.StateUpdate, modifiedBy string) error

	// ListDependencies returns the dependency edges for a dataset.
	ListDependencies(ctx context.Context, tx DBTransaction, datasetID uuid.UUID) ([]model.Dependency, error)

	// UpsertDependency inserts or updates a dependency edge.
	UpsertDependency(ctx context.Context, tx DBTransaction, dep model.Dependency) error

	// DeleteDependency removes a dependency edge.
	DeleteDependency(ctx context.Context, tx DBTransaction, datasetID, parentID, childID uuid.UUID) error

	// SearchDataProducts returns products across all datasets matching a
	// name/version/state filter, for the search endpoint (§6.8).
	SearchDataProducts(ctx context.Context, tx DBTransaction, f SearchFilter) ([]model.DataProduct, error)
}

// SearchFilter narrows SearchDataProducts. Zero-value Name, Version and
// State are not applied as predicates; a Limit of zero (or one above 500)
// is replaced by 100.
type SearchFilter struct {
	Name    string
	Version string
	State   model.State
	Limit   int
}

