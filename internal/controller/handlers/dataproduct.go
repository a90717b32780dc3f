package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"fletcher/internal/controller/middleware"
	"fletcher/internal/model"
	"fletcher/pkg/api"
)

func actorFromContext(r *http.Request) string {
	if principal, ok := middleware.PrincipalFromContext(r.Context()); ok {
		return principal.Service
	}
	return ""
}

func pathDatasetID(w http.ResponseWriter, h *Handlers, r *http.Request) (uuid.UUID, bool) {
	datasetID, err := uuid.Parse(r.PathValue("dataset_id"))
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid dataset id"})
		return uuid.Nil, false
	}
	return datasetID, true
}

// UpdateDataProducts handles PUT /api/data_product/{dataset_id}/update.
// Requires role update. The batch is applied all-or-nothing (spec.md §4.4).
func (h *Handlers) UpdateDataProducts(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := pathDatasetID(w, h, r)
	if !ok {
		return
	}

	var req []api.StateUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	updates := make([]model.StateUpdate, len(req))
	for i, u := range req {
		updates[i] = u.ToModel()
	}

	updated, err := h.State.Update(r.Context(), datasetID, updates, actorFromContext(r))
	if err != nil {
		h.httpError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, dataProductResponses(updated))
}

// ClearDataProducts handles PUT /api/data_product/{dataset_id}/clear.
// Requires role update.
func (h *Handlers) ClearDataProducts(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := pathDatasetID(w, h, r)
	if !ok {
		return
	}

	var ids []uuid.UUID
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
		h.respondJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	cleared, err := h.State.Clear(r.Context(), datasetID, ids, actorFromContext(r))
	if err != nil {
		h.httpError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, dataProductResponses(cleared))
}

// DisableDataProducts handles DELETE /api/data_product/{dataset_id}.
// Requires role disable.
func (h *Handlers) DisableDataProducts(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := pathDatasetID(w, h, r)
	if !ok {
		return
	}

	var ids []uuid.UUID
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
		h.respondJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	disabled, err := h.State.Disable(r.Context(), datasetID, ids, actorFromContext(r))
	if err != nil {
		h.httpError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, dataProductResponses(disabled))
}

func dataProductResponses(dps []model.DataProduct) []api.DataProductResponse {
	out := make([]api.DataProductResponse, len(dps))
	for i, dp := range dps {
		out[i] = api.DataProductResponse{
			ID:          dp.DataProductID,
			Compute:     string(dp.Compute),
			Name:        dp.Name,
			Version:     dp.Version,
			Eager:       dp.Eager,
			Passthrough: dp.Passthrough,
			State:       string(dp.State),
			RunID:       dp.RunID,
			Link:        dp.Link,
			Passback:    dp.Passback,
			Extra:       dp.Extra,
			ModifiedBy:  dp.ModifiedBy,
			ModifiedAt:  dp.ModifiedDate,
		}
	}
	return out
}
