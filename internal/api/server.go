package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docparse/internal/config"
	"github.com/dgallion1/docparse/internal/metrics"
	"github.com/dgallion1/docparse/internal/parser"
	"github.com/dgallion1/docparse/internal/pipeline"
)

// Server is the HTTP API server for docparse.
type Server struct {
	router chi.Router
	svc    parser.Service
	runner *pipeline.Runner
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(svc parser.Service, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		svc:    svc,
		runner: pipeline.NewRunner(svc, log, cfg.BatchWorkers),
		log:    log,
		cfg:    cfg,
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
	r.Use(accessLog(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(requireAPIKey(s.cfg.APIKey, s.log))
		}

		r.Post("/api/docs/crawl", s.handleCrawl)
		r.Post("/api/docs/markdown", s.handleMarkdown)
		r.Post("/api/docs/ids", s.handleDocIDs)
		r.Post("/api/docs/batch/crawl", s.handleBatchCrawl)
		r.Get("/api/stats/parse", s.handleParseStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
