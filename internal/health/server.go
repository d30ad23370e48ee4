package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// Report is the agent's self-assessment exposed on /health.
type Report struct {
	Status        Status               `json:"status"`
	Backend       string               `json:"backend"` // "ok" or "unreachable"
	SessionActive bool                 `json:"session_active"`
	Sites         map[string]SiteState `json:"sites,omitempty"`
}

// SiteState describes polling progress for one site.
type SiteState struct {
	LastPollAt   time.Time `json:"last_poll_at"`
	LastPollOK   bool      `json:"last_poll_ok"`
	AlertsStored int64     `json:"alerts_stored"`
}

// CheckFunc produces the current report.
type CheckFunc func(ctx context.Context) Report

// Server provides HTTP endpoints for health monitoring and metrics.
type Server struct {
	check  CheckFunc
	server *http.Server
}

// NewServer creates a new health server.
func NewServer(check CheckFunc, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		check: check,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if report.Status == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(report)
}
