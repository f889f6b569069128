// Package remote fetches the authoritative usage report from the
// Anthropic Admin API. The billing system of record is the second source
// of truth the budget engine reconciles against.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable marks any failure to obtain the remote report: transport
// errors, timeouts, auth failures, non-2xx responses. Callers degrade to
// local-only figures; the wrapped cause is kept for telemetry.
var ErrUnavailable = errors.New("remote usage report unavailable")

// Client talks to the Admin API usage report endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Config configures the remote client.
type Config struct {
	BaseURL string // default https://api.anthropic.com
	APIKey  string
	Timeout time.Duration // default 10s, bounds every fetch
}

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultTimeout   = 10 * time.Second
	anthropicVersion = "2023-06-01"
)

// NewClient creates an Admin API client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
	}
}

// get performs an authenticated GET and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}
	return nil
}
