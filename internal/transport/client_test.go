package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripagent/tripagent/internal/identity"
)

func testAuth() *identity.AuthContext {
	return &identity.AuthContext{AccessToken: "tok", UserID: "traveler-1"}
}

func TestClient_StreamSendsHeadersAndBody(t *testing.T) {
	var got struct {
		auth, session, accept, contentType, requestID string
		body                                          map[string]string
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.auth = r.Header.Get("Authorization")
		got.session = r.Header.Get(HeaderSession)
		got.accept = r.Header.Get("Accept")
		got.contentType = r.Header.Get("Content-Type")
		got.requestID = r.Header.Get(HeaderRequestID)
		json.NewDecoder(r.Body).Decode(&got.body)
		fmt.Fprintln(w, `{"type":"status","data":{"message":"ok"}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	body, err := client.Stream(context.Background(), "find flights", "travel-session-1-abc", testAuth())
	require.NoError(t, err)
	defer body.Close()

	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, "travel-session-1-abc", got.session)
	assert.Equal(t, "application/x-ndjson", got.accept)
	assert.Equal(t, "application/json", got.contentType)
	assert.NotEmpty(t, got.requestID)
	assert.Equal(t, map[string]string{"prompt": "find flights"}, got.body)

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status"`)
}

func TestClient_StreamNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Stream(context.Background(), "hi", "s", testAuth())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
	assert.True(t, se.ClientError())
	assert.Contains(t, se.Error(), "403")
}

func TestStatusError_Classes(t *testing.T) {
	assert.True(t, (&StatusError{Code: 400}).ClientError())
	assert.True(t, (&StatusError{Code: 499}).ClientError())
	assert.False(t, (&StatusError{Code: 500}).ClientError())
	assert.False(t, (&StatusError{Code: 302}).ClientError())
}

func TestClient_Invoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json, text/event-stream", r.Header.Get("Accept"))
		fmt.Fprint(w, `{"message":"hello","response_type":"conversation"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	payload, err := client.Invoke(context.Background(), "hi", "s", testAuth())
	require.NoError(t, err)
	assert.Equal(t, "hello", payload.Message)
	assert.Equal(t, "conversation", payload.ResponseType)
}

func TestClient_InvokeDoubleEncoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner := `{"message":"wrapped","response_type":"conversation"}`
		data, _ := json.Marshal(inner)
		w.Write(data)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	payload, err := client.Invoke(context.Background(), "hi", "s", testAuth())
	require.NoError(t, err)
	assert.Equal(t, "wrapped", payload.Message)
}

func TestClient_Health(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if healthy {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	assert.NoError(t, client.Health(context.Background()))

	healthy = false
	assert.Error(t, client.Health(context.Background()))
}

func TestClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient("http://example.com/")
	assert.Equal(t, "http://example.com", client.BaseURL())
}
