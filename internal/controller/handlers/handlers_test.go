package handlers

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"fletcher/internal/auth"
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
	plans   map[uuid.UUID]*model.Plan
	paused  map[uuid.UUID]bool
	pingErr error

	searchResp []model.DataProduct
	searchErr  error

	setPausedErr error
}

func (f *fakeStore) BeginTx(ctx context.Context) (store.Tx, error) { return fakeTx{}, nil }

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeStore) GetDataset(ctx context.Context, tx store.DBTransaction, id uuid.UUID) (*model.Dataset, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p.Dataset, nil
}

func (f *fakeStore) UpsertDataset(ctx context.Context, tx store.DBTransaction, ds model.Dataset) error {
	return nil
}

func (f *fakeStore) SetDatasetPaused(ctx context.Context, tx store.DBTransaction, id uuid.UUID, paused bool, modifiedBy string) error {
	if f.setPausedErr != nil {
		return f.setPausedErr
	}
	if _, ok := f.plans[id]; !ok {
		return store.ErrNotFound
	}
	f.paused[id] = paused
	return nil
}

func (f *fakeStore) GetPlan(ctx context.Context, tx store.DBTransaction, datasetID uuid.UUID) (*model.Plan, error) {
	p, ok := f.plans[datasetID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) ListDataProducts(ctx context.Context, tx store.DBTransaction, datasetID uuid.UUID) ([]model.DataProduct, error) {
	p, ok := f.plans[datasetID]
	if !ok {
		return nil, nil
	}
	return p.DataProducts, nil
}

func (f *fakeStore) GetDataProduct(ctx context.Context, tx store.DBTransaction, id uuid.UUID) (*model.DataProduct, error) {
	for _, p := range f.plans {
		for _, dp := range p.DataProducts {
			if dp.DataProductID == id {
				return &dp, nil
			}
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) UpsertDataProduct(ctx context.Context, tx store.DBTransaction, dp model.DataProduct) error {
	return nil
}
func (f *fakeStore) DisableDataProduct(ctx context.Context, tx store.DBTransaction, id uuid.UUID, modifiedBy string) error {
	return nil
}
func (f *fakeStore) ApplyStateUpdate(ctx context.Context, tx store.DBTransaction, u model.StateUpdate, modifiedBy string) error {
	return nil
}
func (f *fakeStore) ListDependencies(ctx context.Context, tx store.DBTransaction, datasetID uuid.UUID) ([]model.Dependency, error) {
	return nil, nil
}
func (f *fakeStore) UpsertDependency(ctx context.Context, tx store.DBTransaction, dep model.Dependency) error {
	return nil
}
func (f *fakeStore) DeleteDependency(ctx context.Context, tx store.DBTransaction, datasetID, parentID, childID uuid.UUID) error {
	return nil
}
func (f *fakeStore) SearchDataProducts(ctx context.Context, tx store.DBTransaction, filter store.SearchFilter) ([]model.DataProduct, error) {
	return f.searchResp, f.searchErr
}

type fakePlanEngine struct {
	resp *model.Plan
	err  error
}

func (f fakePlanEngine) SubmitPlan(ctx context.Context, p model.PlanParam, actor string) (*model.Plan, error) {
	return f.resp, f.err
}

type fakeStateEngine struct {
	updateResp    []model.DataProduct
	updateErr     error
	clearResp     []model.DataProduct
	clearErr      error
	disableResp   []model.DataProduct
	disableErr    error
	recomputeErr  error
	recomputeCall int
}

func (f *fakeStateEngine) Update(ctx context.Context, datasetID uuid.UUID, updates []model.StateUpdate, actor string) ([]model.DataProduct, error) {
	return f.updateResp, f.updateErr
}
func (f *fakeStateEngine) Clear(ctx context.Context, datasetID uuid.UUID, seeds []uuid.UUID, actor string) ([]model.DataProduct, error) {
	return f.clearResp, f.clearErr
}
func (f *fakeStateEngine) Disable(ctx context.Context, datasetID uuid.UUID, ids []uuid.UUID, actor string) ([]model.DataProduct, error) {
	return f.disableResp, f.disableErr
}
func (f *fakeStateEngine) Recompute(ctx context.Context, datasetID uuid.UUID) error {
	f.recomputeCall++
	return f.recomputeErr
}

type fakeAuthenticator struct {
	resp *auth.Authenticated
	err  error
}

func (f fakeAuthenticator) Authenticate(service, key string) (*auth.Authenticated, error) {
	return f.resp, f.err
}

func newTestHandlers(s *fakeStore, plan PlanEngine, state StateEngine, authSvc Authenticator) *Handlers {
	return New(s, s, plan, state, authSvc)
}

func samplePlan(datasetID uuid.UUID) *model.Plan {
	return &model.Plan{
		Dataset: model.Dataset{DatasetID: datasetID, ModifiedDate: time.Now()},
		DataProducts: []model.DataProduct{
			{DatasetID: datasetID, DataProductID: uuid.New(), Name: "a", State: model.StateWaiting, ModifiedDate: time.Now()},
		},
	}
}
