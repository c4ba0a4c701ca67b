package turn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripagent/tripagent/internal/identity"
	"github.com/tripagent/tripagent/internal/transport"
	"github.com/tripagent/tripagent/pkg/types"
)

const successStream = `{"type":"status","data":{"message":"thinking"}}
{"type":"tool_start","data":{"tool_id":"search_flights"}}
{"type":"tool_complete","data":{"tool_id":"search_flights","result_preview":"2 flights found"}}
{"type":"final_response","data":{"message":"done","response_type":"flights","flight_results":[{"airline":"AF"},{"airline":"DL"}]}}
`

func testAuth() *identity.AuthContext {
	return &identity.AuthContext{AccessToken: "test-token"}
}

func testSettings(notify func(error, time.Duration)) Settings {
	return Settings{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		Timeout:        5 * time.Second,
		Notify:         notify,
	}
}

func newTestController(t *testing.T, handler http.HandlerFunc, notify func(error, time.Duration)) (*Controller, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := transport.NewClient(srv.URL)
	return NewController(client, testSettings(notify)), srv
}

func TestController_SuccessfulTurn(t *testing.T) {
	ctrl, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(transport.HeaderSession))
		fmt.Fprint(w, successStream)
	}, nil)

	res, err := ctrl.Run(context.Background(), "Find flights from JFK to CDG", "travel-session-1-x", testAuth(), Hooks{})
	require.NoError(t, err)

	assert.Equal(t, "done", res.Outcome.Message)
	require.NotNil(t, res.Outcome.Result)
	assert.Equal(t, types.ResultFlights, res.Outcome.Result.Kind)
	assert.Equal(t, 2, res.Outcome.Result.Len())
	require.Len(t, res.Tools, 1)
	assert.Equal(t, types.ToolCompleted, res.Tools[0].Status)
	assert.Equal(t, "thinking", res.Thinking)
}

func TestController_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	var delays atomic.Int32

	ctrl, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, successStream)
	}, func(err error, d time.Duration) {
		delays.Add(1)
	})

	res, err := ctrl.Run(context.Background(), "flights please", "travel-session-1-x", testAuth(), Hooks{})
	require.NoError(t, err)
	require.NotNil(t, res.Outcome.Result)

	assert.Equal(t, int32(3), attempts.Load())
	// Exactly 2 backoff delays for 2 failed attempts.
	assert.Equal(t, int32(2), delays.Load())
}

func TestController_NoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	ctrl, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "bad prompt", http.StatusBadRequest)
	}, nil)

	_, err := ctrl.Run(context.Background(), "flights", "travel-session-1-x", testAuth(), Hooks{})
	require.Error(t, err)

	var se *transport.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestController_RetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	ctrl, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}, nil)

	_, err := ctrl.Run(context.Background(), "flights", "travel-session-1-x", testAuth(), Hooks{})
	require.Error(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestController_ProtocolErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	ctrl, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		fmt.Fprintln(w, `{"type":"error","data":{"message":"no agents available"}}`)
	}, nil)

	_, err := ctrl.Run(context.Background(), "flights", "travel-session-1-x", testAuth(), Hooks{})

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "no agents available", pe.Message)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestController_IncompleteStreamRetried(t *testing.T) {
	var attempts atomic.Int32
	ctrl, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			// Stream that ends before any terminal event.
			fmt.Fprintln(w, `{"type":"status","data":{"message":"thinking"}}`)
			return
		}
		fmt.Fprint(w, successStream)
	}, nil)

	res, err := ctrl.Run(context.Background(), "flights", "travel-session-1-x", testAuth(), Hooks{})
	require.NoError(t, err)
	require.NotNil(t, res.Outcome.Result)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestController_ValidationBeforeNetwork(t *testing.T) {
	var attempts atomic.Int32
	ctrl, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
	}, nil)

	var ve *ValidationError

	_, err := ctrl.Run(context.Background(), "   ", "travel-session-1-x", testAuth(), Hooks{})
	require.ErrorAs(t, err, &ve)

	_, err = ctrl.Run(context.Background(), "hello", "travel-session-1-x", &identity.AuthContext{}, Hooks{})
	require.ErrorAs(t, err, &ve)

	assert.Equal(t, int32(0), attempts.Load())
}

func TestController_RunInvoke(t *testing.T) {
	ctrl, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "application/json")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"message":"done","response_type":"restaurants","restaurant_results":[{"name":"Breizh"}]}`)
	}, nil)

	res, err := ctrl.RunInvoke(context.Background(), "restaurants", "travel-session-1-x", testAuth())
	require.NoError(t, err)
	require.NotNil(t, res.Outcome.Result)
	assert.Equal(t, types.ResultRestaurants, res.Outcome.Result.Kind)
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(&ValidationError{Reason: "x"}))
	assert.False(t, Retryable(&ProtocolError{Message: "x"}))
	assert.False(t, Retryable(&transport.StatusError{Code: 404}))
	assert.True(t, Retryable(&transport.StatusError{Code: 502}))
	assert.True(t, Retryable(&TransportError{Err: errors.New("conn reset")}))
	assert.True(t, Retryable(errors.New("anything else")))
}

func TestUserFacingMessage(t *testing.T) {
	assert.Contains(t, UserFacingMessage(&ValidationError{Reason: "message is empty"}), "message is empty")
	assert.Equal(t, "boom", UserFacingMessage(&ProtocolError{Message: "boom"}))
	assert.Contains(t, UserFacingMessage(&transport.StatusError{Code: 400}), "rejected")
	assert.Contains(t, UserFacingMessage(context.DeadlineExceeded), "too long")
	assert.Contains(t, UserFacingMessage(errors.New("dial tcp: refused")), "try again")
}
