// Package mockserver is a stand-in for the heat-map backend, used by
// cmd/feeheat-mock during development and by end-to-end tests.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/drake/feeheat/frame"
	"github.com/drake/feeheat/network"
)

// NotReadyDetail is the error detail served before the first snapshot.
const NotReadyDetail = "Heat-map not ready"

// Response is one scripted reply to GET /api/heatmap.
// A zero Status means 200. Body, when set, is sent verbatim; otherwise
// Frame is encoded as JSON.
type Response struct {
	Status int
	Body   string
	Frame  *frame.Frame
	Delay  time.Duration
}

// OK returns a 200 response carrying f.
func OK(f frame.Frame) Response {
	return Response{Status: http.StatusOK, Frame: &f}
}

// Fail returns an error response with the backend's JSON error shape.
func Fail(status int, detail string) Response {
	body, _ := json.Marshal(map[string]string{"detail": detail})
	return Response{Status: status, Body: string(body)}
}

// Option configures a Server.
type Option func(*Server)

// WithScript makes the server replay responses in order, repeating the
// last one once the script is exhausted.
func WithScript(responses ...Response) Option {
	return func(s *Server) { s.script = responses }
}

// WithGenerator serves frames from g. Call Run to refresh them.
func WithGenerator(g *Generator) Option {
	return func(s *Server) { s.gen = g }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server serves the heat-map API.
type Server struct {
	router *mux.Router
	logger *slog.Logger
	gen    *Generator

	mu      sync.Mutex
	script  []Response
	calls   int
	current *frame.Frame
}

// New creates a server. Without a script or a published frame it answers
// 404 until SetFrame or Run provides a snapshot.
func New(opts ...Option) *Server {
	s := &Server{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc(network.HeatmapPath, s.handleHeatmap).Methods(http.MethodGet)
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Calls returns how many heat-map requests were served.
func (s *Server) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// SetFrame publishes f as the current snapshot.
func (s *Server) SetFrame(f frame.Frame) {
	c := f.Clone()
	s.mu.Lock()
	s.current = &c
	s.mu.Unlock()
}

// Run publishes a new generated frame every interval until ctx is done.
// The first frame is published after one interval, so clients see the
// not-ready reply first, as with the real backend after a restart.
func (s *Server) Run(ctx context.Context, interval time.Duration) error {
	if s.gen == nil {
		return fmt.Errorf("mockserver: no generator configured")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.SetFrame(s.gen.Next())
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "OK")
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	resp := s.next()

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if resp.Body != "" || resp.Frame == nil {
		fmt.Fprint(w, resp.Body)
		return
	}
	if err := json.NewEncoder(w).Encode(resp.Frame); err != nil {
		s.logger.Warn("encode frame", "error", err)
	}
}

// next picks the reply for one request.
func (s *Server) next() Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.calls
	s.calls++

	if len(s.script) > 0 {
		if n >= len(s.script) {
			n = len(s.script) - 1
		}
		return s.script[n]
	}
	if s.current == nil {
		return Fail(http.StatusNotFound, NotReadyDetail)
	}
	return Response{Status: http.StatusOK, Frame: s.current}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", r.Header.Get("X-Request-ID"),
			"duration", time.Since(start),
		)
	})
}
