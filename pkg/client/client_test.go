package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/internal/validation"
	"github.com/akeren/klyr-waitlist/pkg/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ capture.Submitter = (*Client)(nil)

func newTestClient(t *testing.T, key string, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(&Config{BaseURL: server.URL + "/", APIKey: key})
	require.NoError(t, err)
	return c
}

func writeEnvelope(w http.ResponseWriter, code int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "data": data, "message": message})
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)

	_, err = New(&Config{BaseURL: "ftp://example.com"})
	assert.Error(t, err)
}

func TestClient_SubmitSendsOneRequestWithKeyAndCorrelationID(t *testing.T) {
	var calls atomic.Int32
	var got validation.Input

	c := newTestClient(t, "pk_live_123", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/waitlist", r.URL.Path)
		assert.Equal(t, "pk_live_123", r.Header.Get(APIKeyHeader))
		assert.Equal(t, "corr-1", r.Header.Get(log.CorrelationIDHeader))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeEnvelope(w, http.StatusCreated, nil, "Waitlist submission created successfully")
	})

	sub, err := validation.NewSubmission(validation.Input{Email: "a@b.com", Role: "engineer", Source: "hero-primary"})
	require.NoError(t, err)

	ctx := log.ContextWithCorrelationID(context.Background(), "corr-1")
	require.NoError(t, c.Submit(ctx, sub))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, validation.Input{Email: "a@b.com", Role: "engineer", Source: "hero-primary"}, got)
}

func TestClient_SubmitSurfacesAPIError(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(APIKeyHeader))
		writeEnvelope(w, http.StatusBadRequest, []map[string]string{{"field": "email", "message": "Invalid email address"}}, "Validation failed")
	})

	sub, err := validation.NewSubmission(validation.Input{Email: "a@b.com"})
	require.NoError(t, err)

	err = c.Submit(context.Background(), sub)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Validation failed", apiErr.Message)
	assert.Contains(t, string(apiErr.Details), "Invalid email address")
	assert.True(t, IsStatus(err, http.StatusBadRequest))
}

func TestClient_NonJSONErrorUsesStatusText(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := c.Count(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestClient_Count(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/waitlist/count", r.URL.Path)
		writeEnvelope(w, http.StatusOK, Count{Count: 128, Display: "128+"}, "Waitlist count retrieved")
	})

	n, err := c.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(128), n)
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("KLYR_API_URL", " https://api.klyr.app ")
	t.Setenv("KLYR_API_KEY", "pk_test")

	cfg := NewConfigFromEnv()
	assert.Equal(t, "https://api.klyr.app", cfg.BaseURL)
	assert.Equal(t, "pk_test", cfg.APIKey)
	assert.Positive(t, cfg.Timeout)
}
