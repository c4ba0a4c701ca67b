// Package mockcore is an in-process stand-in for the AgentCore orchestration
// service. It speaks the same wire protocol - NDJSON event frames, optionally
// SSE-framed - and is used by the e2e suite and the `tripagent mock` command
// for development against no backend.
package mockcore

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tripagent/tripagent/internal/logging"
	"github.com/tripagent/tripagent/internal/transport"
	"github.com/tripagent/tripagent/pkg/types"
)

// Options configure the mock's wire behavior.
type Options struct {
	// SSEFramed wraps every frame in an SSE "data: " field.
	SSEFramed bool
	// DoubleEncode emits each frame as a JSON string containing the JSON
	// envelope, reproducing the upstream quirk.
	DoubleEncode bool
	// FrameDelay is the pause between frames.
	FrameDelay time.Duration
	// RequireAuth rejects requests without a bearer token (401) or session
	// header (400).
	RequireAuth bool
}

// Handler returns the mock service as an http.Handler.
func Handler(opts Options) http.Handler {
	s := &server{opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", s.health)
	r.Post("/", s.turn)
	return r
}

type server struct {
	opts Options
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, `{"status":"ok"}`)
}

func (s *server) turn(w http.ResponseWriter, r *http.Request) {
	if s.opts.RequireAuth {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			http.Error(w, `{"message":"missing bearer token"}`, http.StatusUnauthorized)
			return
		}
		if len(r.Header.Get(transport.HeaderSession)) < types.MinSessionIDLength {
			http.Error(w, `{"message":"invalid session id"}`, http.StatusBadRequest)
			return
		}
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		http.Error(w, `{"message":"prompt required"}`, http.StatusBadRequest)
		return
	}

	sessionID := r.Header.Get(transport.HeaderSession)
	script := ScriptFor(req.Prompt, sessionID)

	if strings.Contains(r.Header.Get("Accept"), "application/x-ndjson") {
		s.streamTurn(w, r, script)
		return
	}
	s.invokeTurn(w, script)
}

// streamTurn writes the script as an NDJSON event stream.
func (s *server) streamTurn(w http.ResponseWriter, r *http.Request, script []types.Envelope) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for _, env := range script {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		frame, err := s.encodeFrame(env)
		if err != nil {
			logging.Error().Err(err).Msg("mockcore: encode frame")
			return
		}
		if s.opts.SSEFramed {
			fmt.Fprintf(w, "data: %s\n\n", frame)
		} else {
			fmt.Fprintf(w, "%s\n", frame)
		}
		if flusher != nil {
			flusher.Flush()
		}

		if s.opts.FrameDelay > 0 {
			time.Sleep(s.opts.FrameDelay)
		}
	}
}

// invokeTurn returns the script's terminal payload as one JSON document,
// matching the non-streaming endpoint variant.
func (s *server) invokeTurn(w http.ResponseWriter, script []types.Envelope) {
	for _, env := range script {
		if env.Type != types.EventFinalResponse {
			continue
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(env.Data)
		return
	}
	http.Error(w, `{"message":"no terminal frame in script"}`, http.StatusInternalServerError)
}

func (s *server) encodeFrame(env types.Envelope) ([]byte, error) {
	frame, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	if s.opts.DoubleEncode {
		return json.Marshal(string(frame))
	}
	return frame, nil
}
