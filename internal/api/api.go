// Package api provides the HTTP surface of ussdcare.
//
// It exposes the USSD gateway webhook (plain-text CON/END replies), a health
// probe, and a small JSON lookup endpoint for operations dashboards.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/lafiya-uwa/ussdcare/internal/flow"
	"github.com/lafiya-uwa/ussdcare/internal/store"
)

// DefaultAddr is the listen address used when no override is configured.
const DefaultAddr = ":8080"

// Shutdown and request timeouts for the HTTP server.
const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

// Opts holds configuration options for the API server.
type Opts struct {
	// Addr is the listen address (e.g. ":8080").
	Addr string
}

// Option defines a functional option for server configuration.
type Option func(*Opts)

// WithAddr overrides the default listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server hosts the HTTP endpoints.
type Server struct {
	orchestrator *flow.Orchestrator
	st           store.Store
	addr         string
}

// NewServer creates an API server around the dialog orchestrator and store.
func NewServer(orchestrator *flow.Orchestrator, st store.Store, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{orchestrator: orchestrator, st: st, addr: cfg.Addr}
}

// Handler returns the route table. Split out from Run so tests can drive the
// full mux through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ussd", s.ussdHandler)
	mux.HandleFunc("/api/users", s.userHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run serves HTTP until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("API server shutdown failed", "error", err)
			return err
		}
		slog.Info("API server stopped")
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("API server failed", "error", err)
			return err
		}
		return nil
	}
}
