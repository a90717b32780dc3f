package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fletcher/pkg/api"
)

// FletcherClient handles API calls to the Fletcher controller.
type FletcherClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewFletcherClient creates a new client with the given base URL and token.
func NewFletcherClient(baseURL, token string) *FletcherClient {
	return &FletcherClient{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (c *FletcherClient) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// SubmitPlan sends POST /api/plan to register or update a dataset's DAG.
func (c *FletcherClient) SubmitPlan(req api.PlanRequest) (*api.PlanResponse, error) {
	var result api.PlanResponse
	if err := c.do(http.MethodPost, "/api/plan", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPlan sends GET /api/plan/{dataset_id} to retrieve a dataset's full plan.
func (c *FletcherClient) GetPlan(datasetID uuid.UUID) (*api.PlanResponse, error) {
	var result api.PlanResponse
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/plan/%s", datasetID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchPlans sends GET /api/plan/search to find datasets by data product name.
func (c *FletcherClient) SearchPlans(name string, limit, offset int) ([]api.SearchResult, error) {
	endpoint := fmt.Sprintf("/api/plan/search?q=%s&limit=%d&offset=%d", name, limit, offset)
	var result []api.SearchResult
	if err := c.do(http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SetPaused sends PUT /api/plan/{dataset_id}/pause or .../unpause.
func (c *FletcherClient) SetPaused(datasetID uuid.UUID, paused bool) (*api.PlanResponse, error) {
	verb := "unpause"
	if paused {
		verb = "pause"
	}
	var result api.PlanResponse
	if err := c.do(http.MethodPut, fmt.Sprintf("/api/plan/%s/%s", datasetID, verb), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateDataProducts sends PUT /api/data_product/{dataset_id}/update with a
// batch of compute-callback state transitions.
func (c *FletcherClient) UpdateDataProducts(datasetID uuid.UUID, updates []api.StateUpdateRequest) ([]api.DataProductResponse, error) {
	var result []api.DataProductResponse
	if err := c.do(http.MethodPut, fmt.Sprintf("/api/data_product/%s/update", datasetID), updates, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ClearDataProducts sends PUT /api/data_product/{dataset_id}/clear to reset
// the given products back to waiting.
func (c *FletcherClient) ClearDataProducts(datasetID uuid.UUID, ids []uuid.UUID) ([]api.DataProductResponse, error) {
	var result []api.DataProductResponse
	if err := c.do(http.MethodPut, fmt.Sprintf("/api/data_product/%s/clear", datasetID), ids, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DisableDataProducts sends DELETE /api/data_product/{dataset_id} to remove
// the given products from scheduling.
func (c *FletcherClient) DisableDataProducts(datasetID uuid.UUID, ids []uuid.UUID) ([]api.DataProductResponse, error) {
	var result []api.DataProductResponse
	if err := c.do(http.MethodDelete, fmt.Sprintf("/api/data_product/%s", datasetID), ids, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Authenticate sends POST /api/authenticate to exchange a service key for an
// access token.
func (c *FletcherClient) Authenticate(service, key string) (*api.AuthenticateResponse, error) {
	var result api.AuthenticateResponse
	if err := c.do(http.MethodPost, "/api/authenticate", api.AuthenticateRequest{Service: service, Key: key}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
