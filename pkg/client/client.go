// Package client talks to the waitlist HTTP API. It is the only place the
// endpoint URL and publishable key are used.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/internal/validation"
	"github.com/akeren/klyr-waitlist/pkg/utils"
)

const (
	APIKeyHeader = "X-Api-Key"

	submitPath = "/v1/waitlist"
	countPath  = "/v1/waitlist/count"

	defaultTimeout = 10 * time.Second
)

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewConfigFromEnv reads KLYR_API_URL and KLYR_API_KEY.
func NewConfigFromEnv() *Config {
	return &Config{
		BaseURL: utils.GetEnvTrimmedOrDefault("KLYR_API_URL", "http://localhost:8080"),
		APIKey:  utils.GetEnvTrimmed("KLYR_API_KEY"),
		Timeout: defaultTimeout,
	}
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("waitlist api: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type envelope struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Count is the body of a count response.
type Count struct {
	Count   int64  `json:"count"`
	Display string `json:"display"`
}

type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
}

func New(cfg *Config) (*Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("client: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("client: unsupported scheme %q", base.Scheme)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	transport := httpClient.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	wrapped := *httpClient
	wrapped.Transport = log.NewCorrelationTransport(transport, cfg.Logger)

	return &Client{baseURL: base, apiKey: cfg.APIKey, http: &wrapped}, nil
}

// Submit sends one insert request. It is never retried.
func (c *Client) Submit(ctx context.Context, submission validation.Submission) error {
	body, err := json.Marshal(submission.Input())
	if err != nil {
		return fmt.Errorf("client: encode submission: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, submitPath, bytes.NewReader(body))
	return err
}

// Count fetches the number of waitlist submissions.
func (c *Client) Count(ctx context.Context) (int64, error) {
	data, err := c.do(ctx, http.MethodGet, countPath, nil)
	if err != nil {
		return 0, err
	}
	var out Count
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("client: decode count: %w", err)
	}
	return out.Count, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (json.RawMessage, error) {
	endpoint := c.baseURL.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("client: read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil {
			if env.Message != "" {
				apiErr.Message = env.Message
			}
			apiErr.Details = env.Data
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("client: decode response: %w", decodeErr)
	}
	return env.Data, nil
}
