// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"fletcher/internal/apierr"
	"fletcher/internal/auth"
	"fletcher/internal/model"
	"fletcher/internal/store"
	"fletcher/pkg/api"
)

// PlanEngine is the subset of internal/planengine the handlers need.
type PlanEngine interface {
	SubmitPlan(ctx context.Context, p model.PlanParam, actor string) (*model.Plan, error)
}

// StateEngine is the subset of internal/stateengine the handlers need.
type StateEngine interface {
	Update(ctx context.Context, datasetID uuid.UUID, updates []model.StateUpdate, actor string) ([]model.DataProduct, error)
	Clear(ctx context.Context, datasetID uuid.UUID, seeds []uuid.UUID, actor string) ([]model.DataProduct, error)
	Disable(ctx context.Context, datasetID uuid.UUID, ids []uuid.UUID, actor string) ([]model.DataProduct, error)
	Recompute(ctx context.Context, datasetID uuid.UUID) error
}

// Authenticator is the subset of internal/auth the handlers need.
type Authenticator interface {
	Authenticate(service, key string) (*auth.Authenticated, error)
}

// Pinger reports whether the backing store is reachable, for /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	Store  store.PlanStore
	Pinger Pinger
	Plan   PlanEngine
	State  StateEngine
	Auth   Authenticator
}

// New creates a new Handlers instance with the given dependencies.
func New(s store.PlanStore, pinger Pinger, plan PlanEngine, state StateEngine, authSvc Authenticator) *Handlers {
	return &Handlers{Store: s, Pinger: pinger, Plan: plan, State: state, Auth: authSvc}
}

// respondJSON writes a standard JSON response.
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// httpError maps err to the HTTP status and body spec.md §7 prescribes,
// using apierr.Kind where available and falling back to 500 otherwise.
func (h *Handlers) httpError(w http.ResponseWriter, err error) {
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		h.respondJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
		return
	}

	status := statusForKind(apiErr.Kind)
	h.respondJSON(w, status, api.ErrorResponse{
		Error:   string(apiErr.Kind),
		Details: apiErr.Message,
		Path:    apiErr.Path,
	})
}

func statusForKind(kind apierr.Kind) int {
	switch kind {
	case apierr.KindValidation, apierr.KindCycleDetected:
		return http.StatusBadRequest
	case apierr.KindNotFound:
		return http.StatusNotFound
	case apierr.KindIllegalTransition, apierr.KindConflict:
		return http.StatusConflict
	case apierr.KindUnauthorized:
		return http.StatusUnauthorized
	case apierr.KindForbidden:
		return http.StatusForbidden
	case apierr.KindUnavailable, apierr.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
