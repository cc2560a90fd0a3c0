// Package api wraps the runtime's admin REST API: bearer authentication with
// a single retry after a token refresh, typed resource methods, and the
// failure classification the status panels present.
package api

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

	"github.com/ares-console/ares/internal/auth"
	"github.com/ares-console/ares/internal/config"
)

const maxResponseBytes = 8 << 20

// ErrUnauthorized is returned when the backend rejects the token even after a
// forced refresh.
var ErrUnauthorized = errors.New("backend rejected credentials, run 'ares login'")

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.Status, http.StatusText(e.Status))
}

// Client talks to the runtime's /api/v1 surface.
type Client struct {
	baseURL    string
	tokens     *auth.TokenSource
	httpClient *http.Client
}

// NewClient creates a client for the configured backend.
func NewClient(cfg config.BackendConfig, tokens *auth.TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

// Tokens returns the session slot backing this client, for commands that run
// the background refresh daemon alongside their polling.
func (c *Client) Tokens() *auth.TokenSource {
	return c.tokens
}

// do performs an authenticated request and decodes the JSON response into out
// (out may be nil). On a 401 it invalidates the token slot and retries exactly
// once with a fresh token; a second 401 returns ErrUnauthorized. The request
// body is buffered up front so the retry can re-send it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = data
	}

	resp, err := c.send(ctx, method, path, query, payload)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drainBody(resp)
		c.tokens.Invalidate()
		resp, err = c.send(ctx, method, path, query, payload)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drainBody(resp)
			return ErrUnauthorized
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func decodeAPIError(status int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			apiErr.Message = payload.Error
		} else if payload.Message != "" {
			apiErr.Message = payload.Message
		}
	}
	return apiErr
}

func drainBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

// Healthy performs the lightweight health probe and reports round-trip
// latency. This is the poller check function for the backend component.
func (c *Client) Healthy(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, nil, nil); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// CheckAdmin reports whether the signed-in operator holds the admin role.
func (c *Client) CheckAdmin(ctx context.Context) (AdminStatus, error) {
	var status AdminStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/check-admin", nil, nil, &status); err != nil {
		return AdminStatus{}, err
	}
	return status, nil
}

// RequireAdmin returns auth.ErrNotAdmin unless the signed-in operator holds
// the admin role. Every panel runs this gate before its first call.
func (c *Client) RequireAdmin(ctx context.Context) error {
	status, err := c.CheckAdmin(ctx)
	if err != nil {
		return err
	}
	if !status.Admin {
		return auth.ErrNotAdmin
	}
	return nil
}
