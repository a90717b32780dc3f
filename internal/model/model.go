// Package model contains the Fletcher data model shared by the store,
// engines, and API surface: datasets, data products, dependencies, and
// the plan aggregates built from them.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Compute identifies the external platform a data product is submitted to.
type Compute string

const (
	ComputeCAMS   Compute = "cams"
	ComputeDBXaaS Compute = "dbxaas"
)

// Valid reports whether c is a recognized compute enum value.
func (c Compute) Valid() bool {
	switch c {
	case ComputeCAMS, ComputeDBXaaS:
		return true
	default:
		return false
	}
}

// State is the closed set of lifecycle states a data product can occupy.
type State string

const (
	StateWaiting  State = "waiting"
	StateQueued   State = "queued"
	StateRunning  State = "running"
	StateSuccess  State = "success"
	StateFailed   State = "failed"
	StateDisabled State = "disabled"
)

// Valid reports whether s is a recognized state enum value.
func (s State) Valid() bool {
	switch s {
	case StateWaiting, StateQueued, StateRunning, StateSuccess, StateFailed, StateDisabled:
		return true
	default:
		return false
	}
}

// Dataset is a named container holding one plan (a DAG of data products).
type Dataset struct {
	DatasetID    uuid.UUID
	Paused       bool
	Extra        json.RawMessage
	ModifiedBy   string
	ModifiedDate time.Time
}

// DataProduct is a node in a dataset's DAG: one compute job executed externally.
type DataProduct struct {
	DatasetID     uuid.UUID
	DataProductID uuid.UUID
	Compute       Compute
	Name          string
	Version       string
	Eager         bool
	Passthrough   json.RawMessage
	State         State
	RunID         *uuid.UUID
	Link          *string
	Passback      json.RawMessage
	Extra         json.RawMessage
	ModifiedBy    string
	ModifiedDate  time.Time
}

// Active reports whether the product is logically present for scheduling
// purposes. A disabled product's row and history remain, but it no
// longer participates in readiness computation (I5).
func (dp DataProduct) Active() bool {
	return dp.State != StateDisabled
}

// Dependency is a directed edge: parent must succeed before child may queue.
type Dependency struct {
	DatasetID    uuid.UUID
	ParentID     uuid.UUID
	ChildID      uuid.UUID
	Extra        json.RawMessage
	ModifiedBy   string
	ModifiedDate time.Time
}

// Plan is the full, persisted view of a dataset: its row, its products,
// and the dependency edges between them.
type Plan struct {
	Dataset      Dataset
	DataProducts []DataProduct
	Dependencies []Dependency
}

// DataProductIDs returns the IDs of every product in the plan.
func (p Plan) DataProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(p.DataProducts))
	for i, dp := range p.DataProducts {
		ids[i] = dp.DataProductID
	}
	return ids
}

// PlanParam is the input shape for a plan submission (§4.3): a dataset
// descriptor, a list of data products, and a list of dependencies.
type PlanParam struct {
	Dataset      DatasetParam
	DataProducts []DataProductParam
	Dependencies []DependencyParam
}

// DatasetParam is the caller-supplied dataset portion of a plan.
type DatasetParam struct {
	ID    uuid.UUID
	Extra json.RawMessage
}

// DataProductParam is the caller-supplied definition of one data product.
type DataProductParam struct {
	ID          uuid.UUID
	Compute     Compute
	Name        string
	Version     string
	Eager       bool
	Passthrough json.RawMessage
	Extra       json.RawMessage
}

// DependencyParam is the caller-supplied definition of one dependency edge.
type DependencyParam struct {
	ParentID uuid.UUID
	ChildID  uuid.UUID
	Extra    json.RawMessage
}

// DataProductIDs returns the IDs of every product in the submission.
func (p PlanParam) DataProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(p.DataProducts))
	for i, dp := range p.DataProducts {
		ids[i] = dp.ID
	}
	return ids
}

// StateUpdate is one entry of a compute-callback batch (§4.4 Update).
type StateUpdate struct {
	DataProductID uuid.UUID
	State         State
	RunID         *uuid.UUID
	Link          *string
	Passback      json.RawMessage
}
