package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fletcher/internal/model"
	"fletcher/internal/store"
)

func (s *Store) GetDataset(ctx context.Context, tx store.DBTransaction, id uuid.UUID) (*model.Dataset, error) {
	executor := s.getExecutor(tx)

	var ds model.Dataset
	var extra []byte
	err := executor.QueryRowContext(ctx, `
		SELECT dataset_id, paused, extra, modified_by, modified_date
		FROM datasets WHERE dataset_id = $1
	`, id).Scan(&ds.DatasetID, &ds.Paused, &extra, &ds.ModifiedBy, &ds.ModifiedDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset %s: %w", id, err)
	}
	ds.Extra = extra
	return &ds, nil
}

func (s *Store) UpsertDataset(ctx context.Context, tx store.DBTransaction, ds model.Dataset) error {
	executor := s.getExecutor(tx)

	var extra any
	if len(ds.Extra) > 0 {
		extra = []byte(ds.Extra)
	}

	_, err := executor.ExecContext(ctx, `
		INSERT INTO datasets (dataset_id, paused, extra, modified_by, modified_date)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (dataset_id) DO UPDATE SET
			extra         = EXCLUDED.extra,
			modified_by   = EXCLUDED.modified_by,
			modified_date = now()
	`, ds.DatasetID, ds.Paused, extra, ds.ModifiedBy)
	if err != nil {
		return fmt.Errorf("upsert dataset %s: %w", ds.DatasetID, classifyPQError(err))
	}
	return nil
}

func (s *Store) SetDatasetPaused(ctx context.Context, tx store.DBTransaction, id uuid.UUID, paused bool, modifiedBy string) error {
	executor := s.getExecutor(tx)

	res, err := executor.ExecContext(ctx, `
		UPDATE datasets SET paused = $1, modified_by = $2, modified_date = now()
		WHERE dataset_id = $3
	`, paused, modifiedBy, id)
	if err != nil {
		return fmt.Errorf("set dataset paused %s: %w", id, classifyPQError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
