package api

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/lsearchy/internal/config"
	"github.com/dgallion1/lsearchy/internal/pipeline"
)

// Server is the HTTP API server for lsearchy.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
	serveRoot    string
}

// NewServer creates and configures the HTTP server. Scan roots submitted
// over the API are confined to cfg.ServeRoot.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	serveRoot, err := filepath.Abs(cfg.ServeRoot)
	if err != nil {
		serveRoot = filepath.Clean(cfg.ServeRoot)
	}
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
		serveRoot:    serveRoot,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)

		r.Post("/api/scans", s.handleCreateScan)
		r.Post("/api/scans/batch", s.handleBatchScan)
		r.Get("/api/scans/{scanID}", s.handleScanStatus)
		r.Get("/api/scans/{scanID}/report", s.handleScanReport)
		r.Get("/api/stats/extract", s.handleExtractStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
