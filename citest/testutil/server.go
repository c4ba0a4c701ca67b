// Package testutil provides helpers for the citest suites: a mock
// AgentCore server plus a fully wired client stack pointed at it.
package testutil

import (
	"context"
	"net/http/httptest"
	"time"

	"github.com/tripagent/tripagent/internal/event"
	"github.com/tripagent/tripagent/internal/identity"
	"github.com/tripagent/tripagent/internal/mockcore"
	"github.com/tripagent/tripagent/internal/store"
	"github.com/tripagent/tripagent/internal/transport"
	"github.com/tripagent/tripagent/internal/turn"
)

// TestServer wraps a mock AgentCore instance for testing.
type TestServer struct {
	BaseURL string
	Options mockcore.Options

	srv *httptest.Server
}

// TestServerOption configures TestServer.
type TestServerOption func(*mockcore.Options)

// WithSSEFraming makes the mock wrap frames in SSE "data: " fields.
func WithSSEFraming() TestServerOption {
	return func(o *mockcore.Options) {
		o.SSEFramed = true
	}
}

// WithDoubleEncoding makes the mock JSON-string-wrap every frame.
func WithDoubleEncoding() TestServerOption {
	return func(o *mockcore.Options) {
		o.DoubleEncode = true
	}
}

// WithFrameDelay adds a pause between frames.
func WithFrameDelay(d time.Duration) TestServerOption {
	return func(o *mockcore.Options) {
		o.FrameDelay = d
	}
}

// StartTestServer starts a mock AgentCore that enforces auth headers.
func StartTestServer(opts ...TestServerOption) *TestServer {
	options := mockcore.Options{RequireAuth: true}
	for _, opt := range opts {
		opt(&options)
	}

	srv := httptest.NewServer(mockcore.Handler(options))

	// Block until the health endpoint answers so suites never race startup.
	client := transport.NewClient(srv.URL)
	if err := client.WaitHealthy(context.Background(), 5*time.Second); err != nil {
		srv.Close()
		panic("mock agentcore did not become healthy: " + err.Error())
	}

	return &TestServer{
		BaseURL: srv.URL,
		Options: options,
		srv:     srv,
	}
}

// Stop shuts the server down.
func (s *TestServer) Stop() {
	s.srv.Close()
}

// NewStore builds a store wired to this server with a private event bus,
// signed in as a test traveler.
func (s *TestServer) NewStore() *store.Store {
	client := transport.NewClient(s.BaseURL)
	controller := turn.NewController(client, turn.Settings{
		MaxAttempts:    3,
		InitialBackoff: 10 * time.Millisecond,
		Timeout:        30 * time.Second,
	})

	st := store.New(controller, event.NewBus())
	st.SetAuth(&identity.AuthContext{AccessToken: "citest-token", UserID: "citest-traveler"})
	return st
}
