package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrTransient marks a Submit failure that is worth retrying once: a
// network-level failure reaching the compute platform, or a 5xx response
// from it. A 4xx response means the platform rejected the payload itself
// and retrying it unchanged would only fail the same way (spec.md §4.5).
var ErrTransient = errors.New("dispatcher: transient adapter error")

// HTTPAdapter POSTs a submission payload to a fixed base URL. It is the
// concrete Adapter for both compute platforms: the wire shape is
// identical, only the base URL differs (§4.5 — Fletcher never runs,
// schedules, or otherwise touches the job itself, only the HTTP handoff).
type HTTPAdapter struct {
	Name    string
	BaseURL string
	Client  *http.Client
}

func NewHTTPAdapter(name, baseURL string) *HTTPAdapter {
	return &HTTPAdapter{
		Name:    name,
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *HTTPAdapter) Submit(ctx context.Context, payload SubmissionPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s adapter: marshal payload: %w", a.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/submit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s adapter: build request: %w", a.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s adapter: submit %s: %w: %v", a.Name, payload.DataProductID, ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%s adapter: submit %s: %w: status %d", a.Name, payload.DataProductID, ErrTransient, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s adapter: submit %s: unexpected status %d", a.Name, payload.DataProductID, resp.StatusCode)
	}
	return nil
}
