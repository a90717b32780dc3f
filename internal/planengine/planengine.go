// Package planengine admits and upserts whole plans: a dataset plus its
// data products and dependency edges, validated and written atomically.
package planengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fletcher/internal/apierr"
	"fletcher/internal/dag"
	"fletcher/internal/model"
	"fletcher/internal/store"
)

// Recomputer is the subset of the State Engine the Plan Engine calls
// after a commit. Declared here so that internal/planengine does not
// import internal/stateengine directly.
type Recomputer interface {
	Recompute(ctx context.Context, datasetID uuid.UUID) error
}

// Engine submits plans against a Store and triggers a post-commit recompute.
type Engine struct {
	Store      store.PlanStore
	Recomputer Recomputer
}

func New(s store.PlanStore, r Recomputer) *Engine {
	return &Engine{Store: s, Recomputer: r}
}

// SubmitPlan validates and upserts a whole plan, per spec.md §4.3.
func (e *Engine) SubmitPlan(ctx context.Context, p model.PlanParam, actor string) (*model.Plan, error) {
	if err := validateSyntax(p); err != nil {
		return nil, err
	}

	nodes := p.DataProductIDs()
	edges := make([]dag.Edge, len(p.Dependencies))
	for i, d := range p.Dependencies {
		edges[i] = dag.Edge{ParentID: d.ParentID, ChildID: d.ChildID}
	}
	if report := dag.HasCycle(nodes, edges); !report.Acyclic {
		return nil, apierr.CycleDetected(report.Path)
	}

	for _, dp := range p.DataProducts {
		if !dp.Compute.Valid() {
			return nil, apierr.Validation("unrecognized compute %q for product %s", dp.Compute, dp.ID)
		}
	}

	if err := store.WithRetry(ctx, e.Store, func(ctx context.Context, tx store.Tx) error {
		return e.writePlan(ctx, tx, p, actor)
	}); err != nil {
		return nil, wrapCommitErr(err, "commit plan")
	}

	if e.Recomputer != nil {
		if err := e.Recomputer.Recompute(ctx, p.Dataset.ID); err != nil {
			return nil, err
		}
	}

	plan, err := e.Store.GetPlan(ctx, nil, p.Dataset.ID)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "reload plan after submit", err)
	}
	return plan, nil
}

func (e *Engine) writePlan(ctx context.Context, tx store.Tx, p model.PlanParam, actor string) error {
	if err := e.Store.UpsertDataset(ctx, tx, model.Dataset{
		DatasetID:  p.Dataset.ID,
		Extra:      p.Dataset.Extra,
		ModifiedBy: actor,
	}); err != nil {
		return apierr.Wrap(apierr.KindInternal, "upsert dataset", err)
	}

	existing, err := e.Store.ListDataProducts(ctx, tx, p.Dataset.ID)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "list existing data products", err)
	}
	existingByID := make(map[uuid.UUID]model.DataProduct, len(existing))
	for _, dp := range existing {
		existingByID[dp.DataProductID] = dp
	}

	submitted := make(map[uuid.UUID]struct{}, len(p.DataProducts))
	for _, dp := range p.DataProducts {
		submitted[dp.ID] = struct{}{}

		prior, wasPresent := existingByID[dp.ID]
		state := model.StateWaiting
		if wasPresent && prior.State != model.StateDisabled {
			// preserve runtime state for an active product being redefined
			state = prior.State
		}

		if err := e.Store.UpsertDataProduct(ctx, tx, model.DataProduct{
			DatasetID:     p.Dataset.ID,
			DataProductID: dp.ID,
			Compute:       dp.Compute,
			Name:          dp.Name,
			Version:       dp.Version,
			Eager:         dp.Eager,
			Passthrough:   dp.Passthrough,
			Extra:         dp.Extra,
			State:         state,
			ModifiedBy:    actor,
		}); err != nil {
			return apierr.Wrap(apierr.KindInternal, fmt.Sprintf("upsert data product %s", dp.ID), err)
		}

		// UpsertDataProduct's ON CONFLICT clause deliberately leaves state
		// untouched for an existing row, so resurrecting a disabled product
		// to waiting (§4.3) needs its own runtime-state write.
		if wasPresent && prior.State == model.StateDisabled {
			if err := e.Store.ApplyStateUpdate(ctx, tx, model.StateUpdate{
				DataProductID: dp.ID,
				State:         model.StateWaiting,
			}, actor); err != nil {
				return apierr.Wrap(apierr.KindInternal, fmt.Sprintf("resurrect data product %s", dp.ID), err)
			}
		}
	}

	existingDeps, err := e.Store.ListDependencies(ctx, tx, p.Dataset.ID)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "list existing dependencies", err)
	}
	submittedDeps := make(map[[2]uuid.UUID]struct{}, len(p.Dependencies))
	for _, d := range p.Dependencies {
		submittedDeps[[2]uuid.UUID{d.ParentID, d.ChildID}] = struct{}{}

		if err := e.Store.UpsertDependency(ctx, tx, model.Dependency{
			DatasetID:  p.Dataset.ID,
			ParentID:   d.ParentID,
			ChildID:    d.ChildID,
			Extra:      d.Extra,
			ModifiedBy: actor,
		}); err != nil {
			return apierr.Wrap(apierr.KindInternal, fmt.Sprintf("upsert dependency %s->%s", d.ParentID, d.ChildID), err)
		}
	}

	// Prune: products present in the store but absent from the submission
	// are disabled, not deleted (I5). Dependencies absent from the
	// submission are deleted outright — §4.3's pruning policy.
	for _, dp := range existing {
		if _, ok := submitted[dp.DataProductID]; ok {
			continue
		}
		if dp.State == model.StateDisabled {
			continue
		}
		if err := e.Store.DisableDataProduct(ctx, tx, dp.DataProductID, actor); err != nil {
			return apierr.Wrap(apierr.KindInternal, fmt.Sprintf("prune data product %s", dp.DataProductID), err)
		}
	}
	for _, dep := range existingDeps {
		if _, ok := submittedDeps[[2]uuid.UUID{dep.ParentID, dep.ChildID}]; ok {
			continue
		}
		if err := e.Store.DeleteDependency(ctx, tx, p.Dataset.ID, dep.ParentID, dep.ChildID); err != nil {
			return apierr.Wrap(apierr.KindInternal, fmt.Sprintf("prune dependency %s->%s", dep.ParentID, dep.ChildID), err)
		}
	}

	return nil
}

// validateSyntax checks the submission-shape preconditions of spec.md
// §4.3 step 1, before any DAG or storage work runs.
func validateSyntax(p model.PlanParam) error {
	if p.Dataset.ID == uuid.Nil {
		return apierr.Validation("dataset id is required")
	}

	seenProducts := make(map[uuid.UUID]struct{}, len(p.DataProducts))
	for _, dp := range p.DataProducts {
		if dp.ID == uuid.Nil {
			return apierr.Validation("data product id is required")
		}
		if _, dup := seenProducts[dp.ID]; dup {
			return apierr.Validation("duplicate data product id %s", dp.ID)
		}
		seenProducts[dp.ID] = struct{}{}
	}

	// Self-loops are left to dag.HasCycle, which reports them as a
	// length-1 CycleDetected path per spec.md §8's boundary behavior.
	seenDeps := make(map[[2]uuid.UUID]struct{}, len(p.Dependencies))
	for _, d := range p.Dependencies {
		if _, ok := seenProducts[d.ParentID]; !ok {
			return apierr.Validation("dependency parent %s not present in submitted products", d.ParentID)
		}
		if _, ok := seenProducts[d.ChildID]; !ok {
			return apierr.Validation("dependency child %s not present in submitted products", d.ChildID)
		}
		key := [2]uuid.UUID{d.ParentID, d.ChildID}
		if _, dup := seenDeps[key]; dup {
			return apierr.Validation("duplicate dependency %s->%s", d.ParentID, d.ChildID)
		}
		seenDeps[key] = struct{}{}
	}

	return nil
}

// wrapCommitErr maps a store.WithRetry failure to an apierr.Error: an
// error already carrying an apierr.Kind (produced inside writePlan itself)
// passes through unchanged; a store.ErrConflict surfacing after the one
// retry becomes KindConflict (§5, §7); anything else is an unexpected
// transient store failure.
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
