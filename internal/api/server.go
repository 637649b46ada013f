package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/stepdoc/internal/config"
	"github.com/dgallion1/stepdoc/internal/pipeline"
)

// Server is the HTTP API server for stepdoc.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
	outputDir    string
}

// NewServer creates and configures the HTTP server. Generated pages under
// outputDir are served at /docs/.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config, outputDir string) *Server {
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
		outputDir:    outputDir,
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
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/api/modules", s.handleListModules)
	r.Get("/api/modules/{module}/steps", s.handleModuleSteps)
	r.Get("/api/modules/{module}/sourcemap", s.handleSourceMap)
	r.Get("/api/links", s.handleLinks)
	r.Get("/api/builds/{buildID}", s.handleBuildStatus)
	r.Get("/api/stats/extract", s.handleExtractStats)

	r.Handle("/docs/*", http.StripPrefix("/docs/", http.FileServer(http.Dir(s.outputDir))))
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
	})

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/builds", s.handleTriggerBuild)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
