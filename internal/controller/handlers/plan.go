package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"fletcher/internal/apierr"
	"fletcher/internal/controller/middleware"
	"fletcher/internal/model"
	"fletcher/internal/store"
	"fletcher/pkg/api"
)

// SubmitPlan handles POST /api/plan. Requires role publish.
func (h *Handlers) SubmitPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	principal, _ := middleware.PrincipalFromContext(ctx)
	actor := ""
	if principal != nil {
		actor = principal.Service
	}

	plan, err := h.Plan.SubmitPlan(ctx, req.ToModel(), actor)
	if err != nil {
		h.httpError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, api.PlanResponseFromModel(*plan))
}

// GetPlan handles GET /api/plan/{dataset_id}.
func (h *Handlers) GetPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	datasetID, err := uuid.Parse(r.PathValue("dataset_id"))
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid dataset id"})
		return
	}

	plan, err := h.Store.GetPlan(ctx, nil, datasetID)
	if err == store.ErrNotFound {
		h.httpError(w, apierr.NotFound("dataset %s not found", datasetID))
		return
	}
	if err != nil {
		h.httpError(w, apierr.Wrap(apierr.KindInternal, "load plan", err))
		return
	}

	h.respondJSON(w, http.StatusOK, api.PlanResponseFromModel(*plan))
}

// SearchPlans handles GET /api/plan/search?q=&limit=&offset=. It matches
// products by name and returns the distinct datasets they belong to,
// most recently modified first (spec.md §6).
func (h *Handlers) SearchPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query().Get("q")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			h.respondJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			h.respondJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid offset"})
			return
		}
		offset = parsed
	}

	// Limit is applied at the product level here, before the dedup to one
	// row per dataset below, so a page can come back short of limit even
	// when more matching datasets exist. Best-effort search per spec §6/§9.
	products, err := h.Store.SearchDataProducts(ctx, nil, store.SearchFilter{Name: q, Limit: limit})
	if err != nil {
		h.httpError(w, apierr.Wrap(apierr.KindInternal, "search data products", err))
		return
	}

	latest := make(map[uuid.UUID]model.DataProduct)
	for _, dp := range products {
		if prior, ok := latest[dp.DatasetID]; !ok || dp.ModifiedDate.After(prior.ModifiedDate) {
			latest[dp.DatasetID] = dp
		}
	}

	results := make([]api.SearchResult, 0, len(latest))
	for datasetID, dp := range latest {
		results = append(results, api.SearchResult{DatasetID: datasetID, ModifiedDate: dp.ModifiedDate})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ModifiedDate.After(results[j].ModifiedDate)
	})

	if offset > len(results) {
		offset = len(results)
	}
	results = results[offset:]
	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	h.respondJSON(w, http.StatusOK, results)
}

// PauseDataset handles PUT /api/plan/{dataset_id}/pause. Requires role pause.
func (h *Handlers) PauseDataset(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, true)
}

// UnpauseDataset handles PUT /api/plan/{dataset_id}/unpause. Requires role pause.
func (h *Handlers) UnpauseDataset(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, false)
}

func (h *Handlers) setPaused(w http.ResponseWriter, r *http.Request, paused bool) {
	ctx := r.Context()

	datasetID, err := uuid.Parse(r.PathValue("dataset_id"))
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid dataset id"})
		return
	}

	principal, _ := middleware.PrincipalFromContext(ctx)
	actor := ""
	if principal != nil {
		actor = principal.Service
	}

	tx, err := h.Store.BeginTx(ctx)
	if err != nil {
		h.httpError(w, apierr.Wrap(apierr.KindUnavailable, "begin transaction", err))
		return
	}
	defer tx.Rollback()

	if err := h.Store.SetDatasetPaused(ctx, tx, datasetID, paused, actor); err == store.ErrNotFound {
		h.httpError(w, apierr.NotFound("dataset %s not found", datasetID))
		return
	} else if err != nil {
		h.httpError(w, apierr.Wrap(apierr.KindInternal, "set dataset paused", err))
		return
	}

	if err := tx.Commit(); err != nil {
		h.httpError(w, apierr.Wrap(apierr.KindTransient, "commit pause", err))
		return
	}

	if !paused {
		// Unpausing may make already-eligible eager products ready to
		// queue immediately, rather than waiting on the next success.
		if err := h.State.Recompute(ctx, datasetID); err != nil {
			h.httpError(w, err)
			return
		}
	}

	plan, err := h.Store.GetPlan(ctx, nil, datasetID)
	if err != nil {
		h.httpError(w, apierr.Wrap(apierr.KindInternal, "load plan", err))
		return
	}

	h.respondJSON(w, http.StatusOK, api.PlanResponseFromModel(*plan))
}
