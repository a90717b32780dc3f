package postgres

import (
	"context"

	"github.com/google/uuid"

	"fletcher/internal/model"
	"fletcher/internal/store"
)

// GetPlan assembles a dataset's full plan: its row, its products, and its
// dependency edges. Used by the DAG/Plan/State engines to build an
// in-memory graph snapshot before recomputing readiness (I3: state
// transitions only happen inside a transaction the caller already holds).
func (s *Store) GetPlan(ctx context.Context, tx store.DBTransaction, datasetID uuid.UUID) (*model.Plan, error) {
	ds, err := s.GetDataset(ctx, tx, datasetID)
	if err != nil {
		return nil, err
	}

	products, err := s.ListDataProducts(ctx, tx, datasetID)
	if err != nil {
		return nil, err
	}

	deps, err := s.ListDependencies(ctx, tx, datasetID)
	if err != nil {
		return nil, err
	}

	return &model.Plan{
		Dataset:      *ds,
		DataProducts: products,
		Dependencies: deps,
	}, nil
}
