// Package httpstatus is the optional read-only status surface the runner
// exposes alongside a scenario run: health (shallow and deep, the latter
// probing each provider's REST reachability), Prometheus metrics, and the
// most recent batch of execution results. Adapted from
// infrastructure/service's mux-router + promhttp.Handler() wiring and its
// healthcheck.go's deep-health-checker, trimmed to this domain's routes —
// no Marble/chain/gasbank dependencies carried over. The router runs the
// trimmed infrastructure/middleware chain (recovery, request logging,
// security headers, body/time limits) ahead of its handlers.
package httpstatus

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/R3E-Network/scenario-engine/infrastructure/logging"
	"github.com/R3E-Network/scenario-engine/infrastructure/middleware"
	"github.com/R3E-Network/scenario-engine/internal/scenario"
)

// Server holds the most recent scenario run's results and serves them
// alongside health and metrics endpoints.
type Server struct {
	mu      sync.RWMutex
	results []scenario.ExecutionResult
	started time.Time
	router  *mux.Router
	deepChk *DeepHealthChecker
	service string
}

// New constructs a Server with its routes and middleware chain wired and
// its uptime clock started. log is used by the recovery and request
// logging middleware; a nil log disables both.
func New(log *logging.Logger) *Server {
	s := &Server{
		started: time.Now(),
		router:  mux.NewRouter(),
		deepChk: NewDeepHealthChecker(10 * time.Second),
		service: "scenario-runner",
	}
	if log != nil {
		s.router.Use(middleware.NewRecoveryMiddleware(log).Handler)
		s.router.Use(middleware.LoggingMiddleware(log))
	}
	s.router.Use(middleware.NewSecurityHeadersMiddleware(nil).Handler)
	s.router.Use(middleware.NewTimeoutMiddleware(10 * time.Second).Handler)
	s.router.Use(middleware.NewBodyLimitMiddleware(0).Handler)
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz/deep", s.handleDeepHealthz).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/results", s.handleResults).Methods(http.MethodGet)
	return s
}

// RegisterHealthCheck adds a named connectivity check (typically
// HTTPHealthCheck against a provider's REST base URL) to /healthz/deep.
func (s *Server) RegisterHealthCheck(name string, check HealthCheckFunc) {
	s.deepChk.Register(name, check)
}

// Router returns the underlying mux.Router for use with http.ListenAndServe.
func (s *Server) Router() *mux.Router {
	return s.router
}

// SetResults replaces the results the /results endpoint serves. Called by
// the runner after each batch of scenarios completes.
func (s *Server) SetResults(results []scenario.ExecutionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = results
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).String(),
	})
}

func (s *Server) handleDeepHealthz(w http.ResponseWriter, r *http.Request) {
	resp := s.deepChk.Check(r.Context(), s.service, time.Since(s.started))
	writeDeepHealth(w, resp)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	results := s.results
	s.mu.RUnlock()

	passed, failed, skipped := 0, 0, 0
	for _, r := range results {
		switch {
		case isSkipped(r):
			skipped++
		case r.Passed:
			passed++
		default:
			failed++
		}
	}

	body := NewStatsCollector().
		Add("count", len(results)).
		Add("passed", passed).
		Add("failed", failed).
		Add("skipped", skipped).
		AddIf(len(results) > 0, "results", results).
		Build()
	writeJSON(w, http.StatusOK, body)
}

// isSkipped reports whether result represents a skipped scenario: the
// engine marks skips as Passed with a single "skip" ValidationDetail
// rather than a distinct status (§4.5 step 2).
func isSkipped(r scenario.ExecutionResult) bool {
	return len(r.ValidationDetails) == 1 && r.ValidationDetails[0].Field == "skip"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
