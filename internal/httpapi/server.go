// Package httpapi is the driving HTTP surface: a net/http ServeMux router
// (Go 1.22+ method-pattern routes) with a small middleware chain, serving
// read-only work/scene/chunk/search endpoints, ingest/resegment writes, and
// a Prometheus /metrics endpoint.
//
// Grounded on internal/adapters/driving/http/server.go's router/middleware
// shape (narrowed to this domain's unauthenticated surface — spec.md names
// no auth requirement) and service/http_app.py for the exact route table
// and request/response semantics.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ljramones/lore-ingest-go/internal/events"
	"github.com/ljramones/lore-ingest-go/internal/ingest"
	"github.com/ljramones/lore-ingest-go/internal/parsers"
	"github.com/ljramones/lore-ingest-go/internal/store/sqlite"
)

// Config holds server-level tunables.
type Config struct {
	Addr           string
	CORSOrigins    []string
	MaxUploadBytes int64
}

func DefaultConfig() Config {
	return Config{Addr: ":8088", CORSOrigins: []string{"*"}, MaxUploadBytes: 32 << 20}
}

// Server wires the store, orchestrator, parser registry, and event manager
// behind the HTTP surface.
type Server struct {
	cfg    Config
	router *http.ServeMux
	http   *http.Server
	log    *slog.Logger

	store   *sqlite.WorkStore
	orch    *ingest.Orchestrator
	parsers *parsers.Registry
	events  *events.Manager
}

// New builds a Server and registers all routes.
func New(cfg Config, log *slog.Logger, store *sqlite.WorkStore, orch *ingest.Orchestrator, reg *parsers.Registry, ev *events.Manager) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		router:  http.NewServeMux(),
		log:     log,
		store:   store,
		orch:    orch,
		parsers: reg,
		events:  ev,
	}
	s.routes()

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.chain(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /v1/healthz", s.handleHealthz)
	s.router.HandleFunc("GET /v1/readyz", s.handleReadyz)
	s.router.HandleFunc("GET /v1/parsers", s.handleParsers)
	s.router.HandleFunc("GET /v1/profiles", s.handleProfiles)

	s.router.HandleFunc("GET /v1/works", s.handleListWorks)
	s.router.HandleFunc("GET /v1/works/ids", s.handleWorkIDs)
	s.router.HandleFunc("GET /v1/works/summary", s.handleWorksSummary)
	s.router.HandleFunc("GET /v1/works/{id}", s.handleGetWork)
	s.router.HandleFunc("GET /v1/works/{id}/scenes", s.handleGetScenes)
	s.router.HandleFunc("GET /v1/works/{id}/chunks", s.handleGetChunks)
	s.router.HandleFunc("GET /v1/works/{id}/slice", s.handleSlice)
	s.router.HandleFunc("POST /v1/works/{id}/resegment", s.handleResegment)

	s.router.HandleFunc("GET /v1/search", s.handleSearch)
	s.router.HandleFunc("POST /v1/ingest", s.handleIngest)

	s.router.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns the fully wrapped (middleware-chained) HTTP handler, for
// embedding in a test server without binding a port.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start runs ListenAndServe in a goroutine and blocks until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}
