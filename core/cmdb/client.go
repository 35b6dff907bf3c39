package cmdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cmdb-sync/core/state"
)

// APIError is a non-2xx response from the record store.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("record store returned status %d: %s", e.StatusCode, body)
}

// Retryable reports whether the response is a rate-limit or server error.
// Other 4xx responses are rejected requests and must not be retried.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// HTTPClient implements Client against the record-store REST API.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	authHeader string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	pageSize   int
}

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a record-store client from configuration.
// A missing base URL or API key is a configuration error and fails here,
// before any remote call is attempted.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("cmdb base_url is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("cmdb api_key is required")
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	backoff := cfg.RetryBackoffSeconds
	if backoff <= 0 {
		backoff = 1
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	authHeader := cfg.AuthHeader
	if strings.TrimSpace(authHeader) == "" {
		authHeader = "Authorization"
	}

	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		authHeader: authHeader,
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(backoff) * time.Second,
		pageSize:   pageSize,
	}, nil
}

// kindPath maps a store kind to its API collection segment
// (asset -> assets, business-service -> business-services).
func kindPath(kind state.Kind) string {
	return string(kind) + "s"
}

// page is the envelope of paged list responses.
type page struct {
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
	Total int      `json:"total"`
	Data  []Record `json:"data"`
}

// Search returns the record whose name matches exactly, or nil when the
// store has no such record. Matching is not fuzzy; callers probe name
// variants themselves.
func (c *HTTPClient) Search(ctx context.Context, kind state.Kind, name string) (*Record, error) {
	query := url.Values{}
	query.Set("name", name)
	query.Set("limit", "10")

	var result page
	if err := c.do(ctx, http.MethodGet, "/api/v1/"+kindPath(kind), query, nil, &result); err != nil {
		return nil, err
	}
	for i := range result.Data {
		if strings.EqualFold(result.Data[i].Name, name) {
			return &result.Data[i], nil
		}
	}
	return nil, nil
}

// Create creates a record and returns its remote ID.
func (c *HTTPClient) Create(ctx context.Context, kind state.Kind, payload map[string]any) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/"+kindPath(kind), nil, payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("create response missing record id")
	}
	return result.ID, nil
}

// Update applies the payload to an existing record.
func (c *HTTPClient) Update(ctx context.Context, kind state.Kind, id string, payload map[string]any) error {
	return c.do(ctx, http.MethodPatch, "/api/v1/"+kindPath(kind)+"/"+url.PathEscape(id), nil, payload, nil)
}

// List returns every record of the kind, following the page/limit/total
// envelope until the collection is exhausted.
func (c *HTTPClient) List(ctx context.Context, kind state.Kind, typeFilter string) ([]Record, error) {
	var records []Record
	pageNo := 1
	for {
		query := url.Values{}
		query.Set("page", strconv.Itoa(pageNo))
		query.Set("limit", strconv.Itoa(c.pageSize))
		if typeFilter != "" {
			query.Set("type", typeFilter)
		}

		var result page
		if err := c.do(ctx, http.MethodGet, "/api/v1/"+kindPath(kind), query, nil, &result); err != nil {
			return nil, err
		}
		if len(result.Data) == 0 {
			break
		}
		records = append(records, result.Data...)

		if result.Limit > 0 && result.Total > 0 && pageNo*result.Limit >= result.Total {
			break
		}
		pageNo++
	}
	return records, nil
}

// CreateRelationshipsBulk submits a batch of edges and returns the job
// handle the store assigned to them.
func (c *HTTPClient) CreateRelationshipsBulk(ctx context.Context, rels []RelationshipPayload) (string, error) {
	body := map[string]any{"relationships": rels}
	var result struct {
		JobID string `json:"job_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/relationships/bulk", nil, body, &result); err != nil {
		return "", err
	}
	if result.JobID == "" {
		return "", errors.New("bulk response missing job id")
	}
	return result.JobID, nil
}

// GetJob returns the current state of a bulk relationship job.
func (c *HTTPClient) GetJob(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs/"+url.PathEscape(jobID), nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// do performs one API call with bounded retry. Rate-limit (429) and server
// (5xx) responses retry with doubling backoff up to maxRetries; any other
// 4xx surfaces immediately.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	attempts := c.maxRetries + 1
	if attempts < 1 {
		attempts = 1
	}
	backoff := c.backoff

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
		}

		lastErr = c.doOnce(ctx, method, endpoint, payload, out)
		if lastErr == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(lastErr, &apiErr) && !apiErr.Retryable() {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *HTTPClient) doOnce(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(c.authHeader, "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("record store request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read record store response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to parse record store response: %w", err)
		}
	}
	return nil
}
