// Package server is the HTTP front of the export service: routing, the
// middleware chain and the health endpoint.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/scheduler"
)

// AdminPath is where the admin tool pages are served.
const AdminPath = "/admin/tools.php"

// HealthReporter exposes the dependency health monitor.
type HealthReporter interface {
	Healthy() bool
	Snapshot() []scheduler.Status
}

// Server owns the router and the http.Server.
type Server struct {
	router *mux.Router
	health HealthReporter
	log    zerolog.Logger
	http   *http.Server
}

// New mounts admin under AdminPath. health may be nil, in which case
// /health always reports ok.
func New(addr string, admin http.Handler, health HealthReporter, log zerolog.Logger) *Server {
	s := &Server{
		router: mux.NewRouter(),
		health: health,
		log:    log.With().Str("component", "http").Logger(),
	}
	s.routes(admin)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(admin http.Handler) {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	s.router.Handle(AdminPath, admin).Methods(http.MethodGet, http.MethodHead, http.MethodPost)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.withMiddleware(s.router)
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed is
// returned after Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type healthResponse struct {
	Status  string             `json:"status"`
	Service string             `json:"service"`
	Checks  []scheduler.Status `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Service: "export-service"}
	code := http.StatusOK
	if s.health != nil {
		resp.Checks = s.health.Snapshot()
		if !s.health.Healthy() {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
