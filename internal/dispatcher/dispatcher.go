// Package dispatcher routes outbound trigger requests to the compute
// adapter selected by a data product's compute field. Dispatch is
// fire-and-forget: Fletcher never waits for job completion, only for the
// initial hand-off to succeed.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fletcher/internal/model"
)

// SubmissionPayload is what gets handed to a compute platform when a
// product enters queued (spec.md §4.5).
type SubmissionPayload struct {
	DatasetID     string          `json:"dataset_id"`
	DataProductID string          `json:"data_product_id"`
	Name          string          `json:"name"`
	Version       string          `json:"version"`
	Passthrough   json.RawMessage `json:"passthrough,omitempty"`
}

// Adapter submits a payload to one compute platform.
type Adapter interface {
	Submit(ctx context.Context, payload SubmissionPayload) error
}

// Dispatcher selects an Adapter by Compute and retries the outbound call
// at most once on a transient failure, per the at-most-once semantics of
// spec.md §4.5.
type Dispatcher struct {
	adapters map[model.Compute]Adapter
}

func New(adapters map[model.Compute]Adapter) *Dispatcher {
	return &Dispatcher{adapters: adapters}
}

// Dispatch sends dp's submission payload to its compute adapter. A first
// attempt that fails with ErrTransient is retried once; any other failure
// (including a compute with no registered adapter) is returned at once
// without a retry. The caller (State Engine) is responsible for
// transitioning dp to failed when an error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, dp model.DataProduct) error {
	adapter, ok := d.adapters[dp.Compute]
	if !ok {
		return fmt.Errorf("dispatcher: no adapter registered for compute %q", dp.Compute)
	}

	payload := SubmissionPayload{
		DatasetID:     dp.DatasetID.String(),
		DataProductID: dp.DataProductID.String(),
		Name:          dp.Name,
		Version:       dp.Version,
		Passthrough:   dp.Passthrough,
	}

	err := adapter.Submit(ctx, payload)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrTransient) {
		return fmt.Errorf("dispatcher: submit %s to %s: %w", dp.DataProductID, dp.Compute, err)
	}

	// one retry on a transient adapter error before giving up
	err = adapter.Submit(ctx, payload)
	if err == nil {
		return nil
	}

	return fmt.Errorf("dispatcher: submit %s to %s after retry: %w", dp.DataProductID, dp.Compute, err)
}
