// Package transport issues requests to the AgentCore orchestration service
// and exposes the raw response stream. One request is opened per turn.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripagent/tripagent/internal/identity"
	"github.com/tripagent/tripagent/internal/logging"
	"github.com/tripagent/tripagent/pkg/types"
)

// Header names on every turn request.
const (
	HeaderSession   = "X-Session-Id"
	HeaderRequestID = "X-Request-Id"
)

// StatusError is a non-2xx response from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("agentcore returned %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("agentcore returned %d", e.Code)
}

// ClientError reports whether the status is a 4xx. Client errors are never
// retried.
func (e *StatusError) ClientError() bool {
	return e.Code >= 400 && e.Code < 500
}

// promptRequest is the outbound turn body.
type promptRequest struct {
	Prompt string `json:"prompt"`
}

// Client talks to one AgentCore endpoint. Construct it explicitly and inject
// it; there is no package-level instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying *http.Client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Streaming bodies stay open for minutes; the per-turn ceiling is
		// enforced with a request context, not a client timeout.
		httpClient: &http.Client{Timeout: 0},
		log:        logging.With().Str("component", "transport").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Stream opens one streaming turn request and returns the response body.
// The caller owns the body and must close it.
func (c *Client) Stream(ctx context.Context, prompt, sessionID string, auth *identity.AuthContext) (io.ReadCloser, error) {
	req, err := c.newTurnRequest(ctx, prompt, sessionID, auth)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agentcore request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, drainStatusError(resp)
	}
	return resp.Body, nil
}

// Invoke performs the non-streaming variant: one synchronous JSON response
// with the same field set as a final_response payload.
func (c *Client) Invoke(ctx context.Context, prompt, sessionID string, auth *identity.AuthContext) (*types.FinalResponsePayload, error) {
	req, err := c.newTurnRequest(ctx, prompt, sessionID, auth)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agentcore request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, drainStatusError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("agentcore response: %w", err)
	}

	var payload types.FinalResponsePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		// Same double-encoding quirk as the stream: a JSON string whose
		// content is the payload document.
		var inner string
		if serr := json.Unmarshal(data, &inner); serr != nil {
			return nil, fmt.Errorf("agentcore response: %w", err)
		}
		if err := json.Unmarshal([]byte(inner), &payload); err != nil {
			return nil, fmt.Errorf("agentcore response: %w", err)
		}
	}
	return &payload, nil
}

// Health checks the service health endpoint. Any 2xx is healthy.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return drainStatusError(resp)
	}
	return nil
}

func (c *Client) newTurnRequest(ctx context.Context, prompt, sessionID string, auth *identity.AuthContext) (*http.Request, error) {
	body, err := json.Marshal(promptRequest{Prompt: prompt})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	requestID := identity.NewTurnID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	req.Header.Set(HeaderSession, sessionID)
	req.Header.Set(HeaderRequestID, requestID)

	c.log.Debug().
		Str("requestID", requestID).
		Str("sessionID", sessionID).
		Msg("opening turn request")

	return req, nil
}

// drainStatusError reads a bounded slice of the error body and closes it.
func drainStatusError(resp *http.Response) error {
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
}

// WaitHealthy polls the health endpoint until it succeeds or the deadline
// passes.
func (c *Client) WaitHealthy(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if err := c.Health(ctx); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("service not healthy after %s", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
