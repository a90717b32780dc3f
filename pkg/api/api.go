// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"fletcher/internal/model"
)

// AuthenticateRequest is the request body for POST /api/authenticate.
type AuthenticateRequest struct {
	Service string `json:"service"`
	Key     string `json:"key"`
}

// AuthenticateResponse is the response body after a successful
// authentication, carrying the original implementation's exact
// response shape (issued_by, ttl, token_type verbatim).
type AuthenticateResponse struct {
	AccessToken string   `json:"access_token"`
	Issued      int64    `json:"issued"`
	IssuedBy    string   `json:"issued_by"`
	Expires     int64    `json:"expires"`
	Roles       []string `json:"roles"`
	Service     string   `json:"service"`
	TokenType   string   `json:"token_type"`
	TTL         int64    `json:"ttl"`
}

// DatasetParam is the dataset portion of a plan submission.
type DatasetParam struct {
	ID    uuid.UUID       `json:"id"`
	Extra json.RawMessage `json:"extra,omitempty"`
}

// DataProductParam is one data product definition in a plan submission.
type DataProductParam struct {
	ID          uuid.UUID       `json:"id"`
	Compute     string          `json:"compute"`
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Eager       bool            `json:"eager"`
	Passthrough json.RawMessage `json:"passthrough,omitempty"`
	Extra       json.RawMessage `json:"extra,omitempty"`
}

// DependencyParam is one dependency edge in a plan submission.
type DependencyParam struct {
	ParentID uuid.UUID       `json:"parent_id"`
	ChildID  uuid.UUID       `json:"child_id"`
	Extra    json.RawMessage `json:"extra,omitempty"`
}

// PlanRequest is the request body for POST /api/plan, per spec.md §6's
// informal plan JSON schema.
type PlanRequest struct {
	Dataset      DatasetParam       `json:"dataset"`
	DataProducts []DataProductParam `json:"data_products"`
	Dependencies []DependencyParam  `json:"dependencies"`
}

// ToModel converts the wire request into the engine's PlanParam input.
func (r PlanRequest) ToModel() model.PlanParam {
	dps := make([]model.DataProductParam, len(r.DataProducts))
	for i, dp := range r.DataProducts {
		dps[i] = model.DataProductParam{
			ID:          dp.ID,
			Compute:     model.Compute(dp.Compute),
			Name:        dp.Name,
			Version:     dp.Version,
			Eager:       dp.Eager,
			Passthrough: dp.Passthrough,
			Extra:       dp.Extra,
		}
	}
	deps := make([]model.DependencyParam, len(r.Dependencies))
	for i, d := range r.Dependencies {
		deps[i] = model.DependencyParam{
			ParentID: d.ParentID,
			ChildID:  d.ChildID,
			Extra:    d.Extra,
		}
	}
	return model.PlanParam{
		Dataset:      model.DatasetParam{ID: r.Dataset.ID, Extra: r.Dataset.Extra},
		DataProducts: dps,
		Dependencies: deps,
	}
}

// DataProductResponse is one data product as returned in a plan response.
type DataProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Compute     string          `json:"compute"`
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Eager       bool            `json:"eager"`
	Passthrough json.RawMessage `json:"passthrough,omitempty"`
	State       string          `json:"state"`
	RunID       *uuid.UUID      `json:"run_id,omitempty"`
	Link        *string         `json:"link,omitempty"`
	Passback    json.RawMessage `json:"passback,omitempty"`
	Extra       json.RawMessage `json:"extra,omitempty"`
	ModifiedBy  string          `json:"modified_by,omitempty"`
	ModifiedAt  time.Time       `json:"modified_date"`
}

// DependencyResponse is one dependency edge as returned in a plan response.
type DependencyResponse struct {
	ParentID   uuid.UUID       `json:"parent_id"`
	ChildID    uuid.UUID       `json:"child_id"`
	Extra      json.RawMessage `json:"extra,omitempty"`
	ModifiedBy string          `json:"modified_by,omitempty"`
	ModifiedAt time.Time       `json:"modified_date"`
}

// PlanResponse is the response body for POST /api/plan, GET
// /api/plan/{dataset_id}, and PUT /api/plan/{dataset_id}/pause|unpause.
type PlanResponse struct {
	DatasetID    uuid.UUID             `json:"dataset_id"`
	Paused       bool                  `json:"paused"`
	Extra        json.RawMessage       `json:"extra,omitempty"`
	ModifiedBy   string                `json:"modified_by,omitempty"`
	ModifiedAt   time.Time             `json:"modified_date"`
	DataProducts []DataProductResponse `json:"data_products"`
	Dependencies []DependencyResponse  `json:"dependencies"`
}

// PlanResponseFromModel builds the wire response from a stored plan.
func PlanResponseFromModel(p model.Plan) PlanResponse {
	dps := make([]DataProductResponse, len(p.DataProducts))
	for i, dp := range p.DataProducts {
		dps[i] = DataProductResponse{
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
	deps := make([]DependencyResponse, len(p.Dependencies))
	for i, d := range p.Dependencies {
		deps[i] = DependencyResponse{
			ParentID:   d.ParentID,
			ChildID:    d.ChildID,
			Extra:      d.Extra,
			ModifiedBy: d.ModifiedBy,
			ModifiedAt: d.ModifiedDate,
		}
	}
	return PlanResponse{
		DatasetID:    p.Dataset.DatasetID,
		Paused:       p.Dataset.Paused,
		Extra:        p.Dataset.Extra,
		ModifiedBy:   p.Dataset.ModifiedBy,
		ModifiedAt:   p.Dataset.ModifiedDate,
		DataProducts: dps,
		Dependencies: deps,
	}
}

// StateUpdateRequest is one entry of the PUT .../update batch body.
type StateUpdateRequest struct {
	ID       uuid.UUID       `json:"id"`
	State    string          `json:"state"`
	RunID    *uuid.UUID      `json:"run_id,omitempty"`
	Link     *string         `json:"link,omitempty"`
	Passback json.RawMessage `json:"passback,omitempty"`
}

// ToModel converts the wire update entry into the engine's StateUpdate input.
func (u StateUpdateRequest) ToModel() model.StateUpdate {
	return model.StateUpdate{
		DataProductID: u.ID,
		State:         model.State(u.State),
		RunID:         u.RunID,
		Link:          u.Link,
		Passback:      u.Passback,
	}
}

// SearchResult is one entry of the GET /api/plan/search response.
type SearchResult struct {
	DatasetID    uuid.UUID `json:"dataset_id"`
	ModifiedDate time.Time `json:"modified_date"`
}

// ErrorResponse is the standard error response format (spec.md §7).
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details string      `json:"details,omitempty"`
	Path    []uuid.UUID `json:"path,omitempty"`
}
