package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fletcher/internal/model"
	"fletcher/internal/store"
)

func (s *Store) ListDependencies(ctx context.Context, tx store.DBTransaction, datasetID uuid.UUID) ([]model.Dependency, error) {
	executor := s.getExecutor(tx)

	rows, err := executor.QueryContext(ctx, `
		SELECT dataset_id, parent_id, child_id, extra, modified_by, modified_date
		FROM dependencies WHERE dataset_id = $1
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("list dependencies for dataset %s: %w", datasetID, err)
	}
	defer rows.Close()

	var out []model.Dependency
	for rows.Next() {
		var dep model.Dependency
		if err := rows.Scan(&dep.DatasetID, &dep.ParentID, &dep.ChildID, &dep.Extra, &dep.ModifiedBy, &dep.ModifiedDate); err != nil {
			return nil, err
		}
		out = append(out, dep)
	}
	return out, rows.Err()
}

func (s *Store) UpsertDependency(ctx context.Context, tx store.DBTransaction, dep model.Dependency) error {
	executor := s.getExecutor(tx)

	_, err := executor.ExecContext(ctx, `
		INSERT INTO dependencies (dataset_id, parent_id, child_id, extra, modified_by, modified_date)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (parent_id, child_id) DO UPDATE SET
			extra         = EXCLUDED.extra,
			modified_by   = EXCLUDED.modified_by,
			modified_date = now()
	`, dep.DatasetID, dep.ParentID, dep.ChildID, dep.Extra, dep.ModifiedBy)
	if err != nil {
		return fmt.Errorf("upsert dependency %s->%s: %w", dep.ParentID, dep.ChildID, classifyPQError(err))
	}
	return nil
}

func (s *Store) DeleteDependency(ctx context.Context, tx store.DBTransaction, datasetID, parentID, childID uuid.UUID) error {
	executor := s.getExecutor(tx)

	_, err := executor.ExecContext(ctx, `
		DELETE FROM dependencies WHERE dataset_id = $1 AND parent_id = $2 AND child_id = $3
	`, datasetID, parentID, childID)
	if err != nil {
		return fmt.Errorf("delete dependency %s->%s: %w", parentID, childID, classifyPQError(err))
	}
	return nil
}
