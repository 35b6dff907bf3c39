package cmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cmdb-sync/core/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(Config{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		MaxRetries: 2,
		PageSize:   2,
	})
	require.NoError(t, err)
	// Keep retry tests fast
	client.backoff = time.Millisecond
	return client, server
}

// TestNewHTTPClient_ConfigErrors tests that missing identifiers fail before
// any remote call.
func TestNewHTTPClient_ConfigErrors(t *testing.T) {
	_, err := NewHTTPClient(Config{APIKey: "k"})
	assert.Error(t, err)

	_, err = NewHTTPClient(Config{BaseURL: "http://cmdb.local"})
	assert.Error(t, err)
}

// TestHTTPClient_SearchExactMatch tests that search returns only the exact
// name match, never a fuzzy hit.
func TestHTTPClient_SearchExactMatch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/assets", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(page{
			Page: 1, Limit: 10, Total: 2,
			Data: []Record{
				{ID: "rec-1", Name: "web01-old", Type: TypePhysicalServer},
				{ID: "rec-2", Name: "WEB01", Type: TypePhysicalServer},
			},
		})
	}))

	rec, err := client.Search(context.Background(), state.KindAsset, "web01")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "rec-2", rec.ID)

	rec, err = client.Search(context.Background(), state.KindAsset, "web02")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

// TestHTTPClient_ListPagination tests the page/limit/total loop.
func TestHTTPClient_ListPagination(t *testing.T) {
	requests := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, TypeVirtualServer, r.URL.Query().Get("type"))
		switch r.URL.Query().Get("page") {
		case "1":
			_ = json.NewEncoder(w).Encode(page{Page: 1, Limit: 2, Total: 3, Data: []Record{{ID: "a"}, {ID: "b"}}})
		case "2":
			_ = json.NewEncoder(w).Encode(page{Page: 2, Limit: 2, Total: 3, Data: []Record{{ID: "c"}}})
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))

	records, err := client.List(context.Background(), state.KindAsset, TypeVirtualServer)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 2, requests)
}

// TestHTTPClient_RetryOnRateLimit tests bounded retry on 429 responses.
func TestHTTPClient_RetryOnRateLimit(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = fmt.Fprint(w, `{"id":"rec-9"}`)
	}))

	id, err := client.Create(context.Background(), state.KindAsset, map[string]any{"name": "db01"})
	require.NoError(t, err)
	assert.Equal(t, "rec-9", id)
	assert.Equal(t, 2, attempts)
}

// TestHTTPClient_NoRetryOnRejected tests that non-429 4xx responses surface
// immediately.
func TestHTTPClient_NoRetryOnRejected(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = fmt.Fprint(w, `{"error":"type is immutable"}`)
	}))

	err := client.Update(context.Background(), state.KindAsset, "rec-1", map[string]any{"ip": "10.0.0.1"})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.False(t, apiErr.Retryable())
}

// TestHTTPClient_BulkAndJob tests the bulk submission and job status calls.
func TestHTTPClient_BulkAndJob(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/relationships/bulk":
			var body struct {
				Relationships []RelationshipPayload `json:"relationships"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Len(t, body.Relationships, 2)
			_, _ = fmt.Fprint(w, `{"job_id":"job-42"}`)
		case "/api/v1/jobs/job-42":
			_ = json.NewEncoder(w).Encode(Job{
				ID:    "job-42",
				State: JobSuccess,
				Items: []JobItem{{Index: 0, Status: "created"}, {Index: 1, Status: "failed", Error: "already exists"}},
			})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))

	jobID, err := client.CreateRelationshipsBulk(context.Background(), []RelationshipPayload{
		{SourceID: "a", TypeID: "depends-on", TargetID: "b"},
		{SourceID: "b", TypeID: "depends-on", TargetID: "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, "job-42", jobID)

	job, err := client.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, JobSuccess, job.State)
	require.Len(t, job.Items, 2)
	assert.Equal(t, "already exists", job.Items[1].Error)
}
