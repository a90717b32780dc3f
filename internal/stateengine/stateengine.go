// Package stateengine applies state transitions to individual data
// products, computes newly-eligible downstream products, and emits
// trigger requests through the dispatcher.
package stateengine

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"fletcher/internal/apierr"
	"fletcher/internal/dag"
	"fletcher/internal/model"
	"fletcher/internal/store"
)

// Dispatcher is the subset of internal/dispatcher the State Engine needs.
// Declared here so that internal/stateengine does not import
// internal/dispatcher directly.
type Dispatcher interface {
	Dispatch(ctx context.Context, dp model.DataProduct) error
}

// legalTransitions is the table in spec.md §4.4. A transition not listed
// here is illegal.
var legalTransitions = map[model.State]map[model.State]bool{
	model.StateWaiting: {
		model.StateQueued:   true,
		model.StateDisabled: true,
		model.StateWaiting:  true,
	},
	model.StateQueued: {
		model.StateRunning:  true,
		model.StateFailed:   true,
		model.StateSuccess:  true,
		model.StateWaiting:  true,
		model.StateDisabled: true,
	},
	model.StateRunning: {
		model.StateSuccess:  true,
		model.StateFailed:   true,
		model.StateWaiting:  true,
		model.StateDisabled: true,
	},
	model.StateSuccess: {
		model.StateWaiting:  true,
		model.StateDisabled: true,
	},
	model.StateFailed: {
		model.StateWaiting:  true,
		model.StateQueued:   true,
		model.StateDisabled: true,
	},
	model.StateDisabled: {
		model.StateWaiting: true,
	},
}

func legal(from, to model.State) bool {
	if from == to {
		// no-op self-transitions are only explicitly legal for waiting
		// in the table; treat every other same-state report as a no-op too.
		return true
	}
	allowed, ok := legalTransitions[from]
	return ok && allowed[to]
}

// Engine applies state transitions and drives recompute.
type Engine struct {
	Store      store.PlanStore
	Dispatcher Dispatcher
}

func New(s store.PlanStore, d Dispatcher) *Engine {
	return &Engine{Store: s, Dispatcher: d}
}

// errAlreadyQueued signals queueAndDispatch found its target no longer
// waiting (claimed by a concurrent recompute) — not a failure, just
// nothing left for this call to do.
var errAlreadyQueued = errors.New("stateengine: already queued")

// Update applies a batch of compute-reported transitions atomically:
// every entry must be legal or the whole batch aborts with no side
// effects (spec.md §4.4). The legality check and the writes run inside
// the same retried transaction, so a retry re-reads current state fresh
// rather than replaying decisions made against a stale snapshot.
func (e *Engine) Update(ctx context.Context, datasetID uuid.UUID, updates []model.StateUpdate, actor string) ([]model.DataProduct, error) {
	var updated []model.DataProduct
	var succeeded []uuid.UUID
	var queued []uuid.UUID

	err := store.WithRetry(ctx, e.Store, func(ctx context.Context, tx store.Tx) error {
		updated, succeeded, queued = nil, nil, nil

		current := make(map[uuid.UUID]model.DataProduct, len(updates))
		for _, u := range updates {
			dp, err := e.Store.GetDataProduct(ctx, tx, u.DataProductID)
			if err == store.ErrNotFound {
				return apierr.NotFound("data product %s not found", u.DataProductID)
			}
			if err != nil {
				return apierr.Wrap(apierr.KindInternal, "load data product for update", err)
			}
			if !legal(dp.State, u.State) {
				return apierr.IllegalTransition(string(dp.State), string(u.State))
			}
			current[u.DataProductID] = *dp
		}

		for _, u := range updates {
			if err := e.Store.ApplyStateUpdate(ctx, tx, u, actor); err != nil {
				return apierr.Wrap(apierr.KindInternal, "apply state update", err)
			}
			dp := current[u.DataProductID]
			dp.State = u.State
			dp.RunID = u.RunID
			dp.Link = u.Link
			dp.Passback = u.Passback
			updated = append(updated, dp)
			if u.State == model.StateSuccess {
				succeeded = append(succeeded, u.DataProductID)
			}
			if u.State == model.StateQueued {
				queued = append(queued, u.DataProductID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapCommitErr(err, "commit state update")
	}

	// §4.5: waiting->queued is the commit point that records a dispatch is
	// owed, whether the transition was produced by recompute or, as here,
	// requested directly through the update endpoint.
	for _, id := range queued {
		if err := e.dispatch(ctx, id); err != nil {
			return nil, err
		}
	}

	for _, id := range succeeded {
		if err := e.recomputeFrom(ctx, datasetID, id); err != nil {
			return nil, err
		}
	}

	return updated, nil
}

// Clear transitions the given seeds and their full descendant closure
// back to waiting, clearing run_id/link/passback (spec.md §4.4, S6).
func (e *Engine) Clear(ctx context.Context, datasetID uuid.UUID, seeds []uuid.UUID, actor string) ([]model.DataProduct, error) {
	var updated []model.DataProduct

	err := store.WithRetry(ctx, e.Store, func(ctx context.Context, tx store.Tx) error {
		updated = nil

		plan, err := e.Store.GetPlan(ctx, tx, datasetID)
		if err != nil {
			return apierr.Wrap(apierr.KindInternal, "load plan for clear", err)
		}
		edges := planEdges(*plan)

		descendants := dag.Descendants(edges, seeds)
		targets := append([]uuid.UUID{}, seeds...)
		for id := range descendants {
			targets = append(targets, id)
		}

		for _, id := range targets {
			if err := e.Store.ApplyStateUpdate(ctx, tx, model.StateUpdate{
				DataProductID: id,
				State:         model.StateWaiting,
			}, actor); err != nil {
				if err == store.ErrNotFound {
					return apierr.NotFound("data product %s not found", id)
				}
				return apierr.Wrap(apierr.KindInternal, "clear data product", err)
			}
			updated = append(updated, model.DataProduct{DataProductID: id, State: model.StateWaiting})
		}
		return nil
	})
	if err != nil {
		return nil, wrapCommitErr(err, "commit clear")
	}
	return updated, nil
}

// Disable transitions the given products to disabled without cascading
// to descendants (spec.md §4.4).
func (e *Engine) Disable(ctx context.Context, datasetID uuid.UUID, ids []uuid.UUID, actor string) ([]model.DataProduct, error) {
	var updated []model.DataProduct

	err := store.WithRetry(ctx, e.Store, func(ctx context.Context, tx store.Tx) error {
		updated = nil

		for _, id := range ids {
			dp, err := e.Store.GetDataProduct(ctx, tx, id)
			if err == store.ErrNotFound {
				return apierr.NotFound("data product %s not found", id)
			}
			if err != nil {
				return apierr.Wrap(apierr.KindInternal, "load data product for disable", err)
			}
			if !legal(dp.State, model.StateDisabled) {
				return apierr.IllegalTransition(string(dp.State), string(model.StateDisabled))
			}
			if err := e.Store.DisableDataProduct(ctx, tx, id, actor); err != nil {
				return apierr.Wrap(apierr.KindInternal, "disable data product", err)
			}
			dp.State = model.StateDisabled
			updated = append(updated, *dp)
		}
		return nil
	})
	if err != nil {
		return nil, wrapCommitErr(err, "commit disable")
	}
	return updated, nil
}

// Recompute scans a dataset for eager waiting products whose parents are
// all success and queues/dispatches them, subject to pause gating. It is
// invoked after plan submission and after a dataset is unpaused; a success
// report goes through recomputeFrom instead.
func (e *Engine) Recompute(ctx context.Context, datasetID uuid.UUID) error {
	plan, err := e.Store.GetPlan(ctx, nil, datasetID)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "load plan for recompute", err)
	}
	if plan.Dataset.Paused {
		return nil
	}

	edges := planEdges(*plan)
	stateOf := stateLookup(*plan)

	for _, dp := range plan.DataProducts {
		if dp.State != model.StateWaiting || !dp.Eager {
			continue
		}
		if !allParentsSuccess(dp.DataProductID, edges, stateOf) {
			continue
		}
		if err := e.queueAndDispatch(ctx, dp.DataProductID); err != nil {
			return err
		}
	}
	return nil
}

// recomputeFrom queues and dispatches the ready children of a single
// product that just succeeded, honoring pause gating.
func (e *Engine) recomputeFrom(ctx context.Context, datasetID, succeededID uuid.UUID) error {
	plan, err := e.Store.GetPlan(ctx, nil, datasetID)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "load plan for recompute", err)
	}
	if plan.Dataset.Paused {
		return nil
	}

	edges := planEdges(*plan)
	stateOf := stateLookup(*plan)
	eagerOf := eagerLookup(*plan)

	ready := dag.ReadyChildren(succeededID, edges, stateOf, eagerOf)
	for _, childID := range ready {
		if err := e.queueAndDispatch(ctx, childID); err != nil {
			return err
		}
	}
	return nil
}

// queueAndDispatch transitions a product from waiting to queued in its
// own retried transaction, conditional on its current state still being
// waiting (guards against a duplicate queue from concurrent sibling
// successes — spec.md §5), then hands it to the dispatcher.
func (e *Engine) queueAndDispatch(ctx context.Context, dataProductID uuid.UUID) error {
	err := store.WithRetry(ctx, e.Store, func(ctx context.Context, tx store.Tx) error {
		dp, err := e.Store.GetDataProduct(ctx, tx, dataProductID)
		if err != nil {
			return apierr.Wrap(apierr.KindInternal, "reload data product before queueing", err)
		}
		if dp.State != model.StateWaiting {
			return errAlreadyQueued
		}
		if err := e.Store.ApplyStateUpdate(ctx, tx, model.StateUpdate{
			DataProductID: dataProductID,
			State:         model.StateQueued,
		}, "fletcher"); err != nil {
			return apierr.Wrap(apierr.KindInternal, "queue data product", err)
		}
		return nil
	})
	if errors.Is(err, errAlreadyQueued) {
		return nil
	}
	if err != nil {
		return wrapCommitErr(err, "commit queue")
	}

	return e.dispatch(ctx, dataProductID)
}

// dispatch hands an already-queued product to the dispatcher, reloading it
// fresh so the payload reflects the commit that just queued it. On dispatch
// failure the product goes straight to failed with the reason in passback,
// and downstream propagation never runs for it (spec.md §4.5).
func (e *Engine) dispatch(ctx context.Context, dataProductID uuid.UUID) error {
	if e.Dispatcher == nil {
		return nil
	}

	dp, err := e.Store.GetDataProduct(ctx, nil, dataProductID)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "reload data product before dispatch", err)
	}

	if dispatchErr := e.Dispatcher.Dispatch(ctx, *dp); dispatchErr != nil {
		reason := marshalFailureReason(dispatchErr)
		if err := e.markFailed(ctx, dataProductID, reason); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) markFailed(ctx context.Context, dataProductID uuid.UUID, passback []byte) error {
	err := store.WithRetry(ctx, e.Store, func(ctx context.Context, tx store.Tx) error {
		if err := e.Store.ApplyStateUpdate(ctx, tx, model.StateUpdate{
			DataProductID: dataProductID,
			State:         model.StateFailed,
			Passback:      passback,
		}, "fletcher"); err != nil {
			return apierr.Wrap(apierr.KindInternal, "mark data product failed after dispatch error", err)
		}
		return nil
	})
	if err != nil {
		return wrapCommitErr(err, "commit dispatch failure")
	}
	return nil
}

func marshalFailureReason(err error) []byte {
	b, marshalErr := json.Marshal(map[string]string{"dispatch_error": err.Error()})
	if marshalErr != nil {
		return []byte(`{"dispatch_error":"unknown"}`)
	}
	return b
}

// wrapCommitErr maps a store.WithRetry failure to an apierr.Error: an
// error already carrying an apierr.Kind passes through unchanged; a
// store.ErrConflict surfacing after the one retry becomes KindConflict
// (§5, §7); anything else is an unexpected transient store failure.
func wrapCommitErr(err error, msg string) error {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		return err
	}
	if errors.Is(err, store.ErrConflict) {
		return apierr.Wrap(apierr.KindConflict, msg, err)
	}
	return apierr.Wrap(apierr.KindTransient, msg, err)
}

func planEdges(p model.Plan) []dag.Edge {
	edges := make([]dag.Edge, len(p.Dependencies))
	for i, d := range p.Dependencies {
		edges[i] = dag.Edge{ParentID: d.ParentID, ChildID: d.ChildID}
	}
	return edges
}

func stateLookup(p model.Plan) dag.StateLookup {
	states := make(map[uuid.UUID]model.State, len(p.DataProducts))
	for _, dp := range p.DataProducts {
		states[dp.DataProductID] = dp.State
	}
	return func(id uuid.UUID) (string, bool) {
		s, ok := states[id]
		return string(s), ok
	}
}

func eagerLookup(p model.Plan) dag.EagerLookup {
	eager := make(map[uuid.UUID]bool, len(p.DataProducts))
	for _, dp := range p.DataProducts {
		eager[dp.DataProductID] = dp.Eager
	}
	return func(id uuid.UUID) bool { return eager[id] }
}

func allParentsSuccess(id uuid.UUID, edges []dag.Edge, stateOf dag.StateLookup) bool {
	for _, parent := range dag.Parents(edges, id) {
		s, ok := stateOf(parent)
		if !ok || s != string(model.StateSuccess) {
			return false
		}
	}
	return true
}
