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

func (s *Store) ListDataProducts(ctx context.Context, tx store.DBTransaction, datasetID uuid.UUID) ([]model.DataProduct, error) {
	executor := s.getExecutor(tx)

	rows, err := executor.QueryContext(ctx, `
		SELECT dataset_id, data_product_id, compute, name, version, eager,
		       passthrough, state, run_id, link, passback, extra, modified_by, modified_date
		FROM data_products WHERE dataset_id = $1
		ORDER BY data_product_id
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("list data products for dataset %s: %w", datasetID, err)
	}
	defer rows.Close()

	var out []model.DataProduct
	for rows.Next() {
		dp, err := scanDataProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, dp)
	}
	return out, rows.Err()
}

func (s *Store) GetDataProduct(ctx context.Context, tx store.DBTransaction, id uuid.UUID) (*model.DataProduct, error) {
	executor := s.getExecutor(tx)

	row := executor.QueryRowContext(ctx, `
		SELECT dataset_id, data_product_id, compute, name, version, eager,
		       passthrough, state, run_id, link, passback, extra, modified_by, modified_date
		FROM data_products WHERE data_product_id = $1
	`, id)

	dp, err := scanDataProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get data product %s: %w", id, err)
	}
	return &dp, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDataProduct(sc scanner) (model.DataProduct, error) {
	var dp model.DataProduct
	var passthrough, passback, extra []byte
	err := sc.Scan(
		&dp.DatasetID, &dp.DataProductID, &dp.Compute, &dp.Name, &dp.Version, &dp.Eager,
		&passthrough, &dp.State, &dp.RunID, &dp.Link, &passback, &extra,
		&dp.ModifiedBy, &dp.ModifiedDate,
	)
	dp.Passthrough = passthrough
	dp.Passback = passback
	dp.Extra = extra
	return dp, err
}

func (s *Store) UpsertDataProduct(ctx context.Context, tx store.DBTransaction, dp model.DataProduct) error {
	executor := s.getExecutor(tx)

	_, err := executor.ExecContext(ctx, `
		INSERT INTO data_products (
			dataset_id, data_product_id, compute, name, version, eager,
			passthrough, state, run_id, link, passback, extra, modified_by, modified_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		ON CONFLICT (data_product_id) DO UPDATE SET
			compute       = EXCLUDED.compute,
			name          = EXCLUDED.name,
			version       = EXCLUDED.version,
			eager         = EXCLUDED.eager,
			passthrough   = EXCLUDED.passthrough,
			extra         = EXCLUDED.extra,
			modified_by   = EXCLUDED.modified_by,
			modified_date = now()
	`,
		dp.DatasetID, dp.DataProductID, dp.Compute, dp.Name, dp.Version, dp.Eager,
		dp.Passthrough, dp.State, dp.RunID, dp.Link, dp.Passback, dp.Extra, dp.ModifiedBy,
	)
	if err != nil {
		return fmt.Errorf("upsert data product %s: %w", dp.DataProductID, classifyPQError(err))
	}
	return nil
}

func (s *Store) DisableDataProduct(ctx context.Context, tx store.DBTransaction, id uuid.UUID, modifiedBy string) error {
	executor := s.getExecutor(tx)

	res, err := executor.ExecContext(ctx, `
		UPDATE data_products SET state = $1, modified_by = $2, modified_date = now()
		WHERE data_product_id = $3
	`, model.StateDisabled, modifiedBy, id)
	if err != nil {
		return fmt.Errorf("disable data product %s: %w", id, classifyPQError(err))
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

func (s *Store) ApplyStateUpdate(ctx context.Context, tx store.DBTransaction, u model.StateUpdate, modifiedBy string) error {
	executor := s.getExecutor(tx)

	var passback any
	if len(u.Passback) > 0 {
		passback = []byte(u.Passback)
	}

	res, err := executor.ExecContext(ctx, `
		UPDATE data_products
		SET state = $1, run_id = $2, link = $3, passback = $4, modified_by = $5, modified_date = now()
		WHERE data_product_id = $6
	`, u.State, u.RunID, u.Link, passback, modifiedBy, u.DataProductID)
	if err != nil {
		return fmt.Errorf("apply state update %s: %w", u.DataProductID, classifyPQError(err))
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

func (s *Store) SearchDataProducts(ctx context.Context, tx store.DBTransaction, f store.SearchFilter) ([]model.DataProduct, error) {
	executor := s.getExecutor(tx)

	query := `
		SELECT dataset_id, data_product_id, compute, name, version, eager,
		       passthrough, state, run_id, link, passback, extra, modified_by, modified_date
		FROM data_products WHERE 1 = 1
	`
	var args []any
	if f.Name != "" {
		args = append(args, "%"+f.Name+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if f.Version != "" {
		args = append(args, f.Version)
		query += fmt.Sprintf(" AND version = $%d", len(args))
	}
	if f.State != "" {
		args = append(args, f.State)
		query += fmt.Sprintf(" AND state = $%d", len(args))
	}
	query += " ORDER BY modified_date DESC"
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search data products: %w", err)
	}
	defer rows.Close()

	var out []model.DataProduct
	for rows.Next() {
		dp, err := scanDataProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, dp)
	}
	return out, rows.Err()
}
