package stateengine

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"fletcher/internal/model"
	"fletcher/internal/store"
)

type fakeTx struct{}

func (fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (fakeTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (fakeTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}
func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

type fakeStore struct {
	datasets     map[uuid.UUID]model.Dataset
	dataProducts map[uuid.UUID]model.DataProduct
	dependencies map[[2]uuid.UUID]model.Dependency
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		datasets:     map[uuid.UUID]model.Dataset{},
		dataProducts: map[uuid.UUID]model.DataProduct{},
		dependencies: map[[2]uuid.UUID]model.Dependency{},
	}
}

func (f *fakeStore) BeginTx(ctx context.Context) (store.Tx, error) { return fakeTx{}, nil }

func (f *fakeStore) GetDataset(ctx context.Context, tx store.DBTransaction, id uuid.UUID) (*model.Dataset, error) {
	ds, ok := f.datasets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &ds, nil
}

func (f *fakeStore) UpsertDataset(ctx context.Context, tx store.DBTransaction, ds model.Dataset) error {
	f.datasets[ds.DatasetID] = ds
	return nil
}

func (f *fakeStore) SetDatasetPaused(ctx context.Context, tx store.DBTransaction, id uuid.UUID, paused bool, modifiedBy string) error {
	ds, ok := f.datasets[id]
	if !ok {
		return store.ErrNotFound
	}
	ds.Paused = paused
	f.datasets[id] = ds
	return nil
}

func (f *fakeStore) GetPlan(ctx context.Context, tx store.DBTransaction, datasetID uuid.UUID) (*model.Plan, error) {
	ds, err := f.GetDataset(ctx, tx, datasetID)
	if err != nil {
		return nil, err
	}
	products, _ := f.ListDataProducts(ctx, tx, datasetID)
	deps, _ := f.ListDependencies(ctx, tx, datasetID)
	return &model.Plan{Dataset: *ds, DataProducts: products, Dependencies: deps}, nil
}

func (f *fakeStore) ListDataProducts(ctx context.Context, tx store.DBTransaction, datasetID uuid.UUID) ([]model.DataProduct, error) {
	var out []model.DataProduct
	for _, dp := range f.dataProducts {
		if dp.DatasetID == datasetID {
			out = append(out, dp)
		}
	}
	return out, nil
}

func (f *fakeStore) GetDataProduct(ctx context.Context, tx store.DBTransaction, id uuid.UUID) (*model.DataProduct, error) {
	dp, ok := f.dataProducts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &dp, nil
}

func (f *fakeStore) UpsertDataProduct(ctx context.Context, tx store.DBTransaction, dp model.DataProduct) error {
	f.dataProducts[dp.DataProductID] = dp
	return nil
}

func (f *fakeStore) DisableDataProduct(ctx context.Context, tx store.DBTransaction, id uuid.UUID, modifiedBy string) error {
	dp, ok := f.dataProducts[id]
	if !ok {
		return store.ErrNotFound
	}
	dp.State = model.StateDisabled
	dp.ModifiedBy = modifiedBy
	f.dataProducts[id] = dp
	return nil
}

func (f *fakeStore) ApplyStateUpdate(ctx context.Context, tx store.DBTransaction, u model.StateUpdate, modifiedBy string) error {
	dp, ok := f.dataProducts[u.DataProductID]
	if !ok {
		return store.ErrNotFound
	}
	dp.State = u.State
	dp.RunID = u.RunID
	dp.Link = u.Link
	dp.Passback = u.Passback
	dp.ModifiedBy = modifiedBy
	f.dataProducts[u.DataProductID] = dp
	return nil
}

func (f *fakeStore) ListDependencies(ctx context.Context, tx store.DBTransaction, datasetID uuid.UUID) ([]model.Dependency, error) {
	var out []model.Dependency
	for _, dep := range f.dependencies {
		if dep.DatasetID == datasetID {
			out = append(out, dep)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertDependency(ctx context.Context, tx store.DBTransaction, dep model.Dependency) error {
	f.dependencies[[2]uuid.UUID{dep.ParentID, dep.ChildID}] = dep
	return nil
}

func (f *fakeStore) DeleteDependency(ctx context.Context, tx store.DBTransaction, datasetID, parentID, childID uuid.UUID) error {
	delete(f.dependencies, [2]uuid.UUID{parentID, childID})
	return nil
}

func (f *fakeStore) SearchDataProducts(ctx context.Context, tx store.DBTransaction, filter store.SearchFilter) ([]model.DataProduct, error) {
	var out []model.DataProduct
	for _, dp := range f.dataProducts {
		out = append(out, dp)
	}
	return out, nil
}

// fakeDispatcher records dispatches and can be configured to fail by name.
type fakeDispatcher struct {
	dispatched []uuid.UUID
	failFor    map[uuid.UUID]bool
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, dp model.DataProduct) error {
	f.dispatched = append(f.dispatched, dp.DataProductID)
	if f.failFor != nil && f.failFor[dp.DataProductID] {
		return errDispatchFailed
	}
	return nil
}

var errDispatchFailed = &dispatchError{"dispatch failed"}

type dispatchError struct{ msg string }

func (e *dispatchError) Error() string { return e.msg }
