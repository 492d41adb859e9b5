package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docxedit/internal/config"
	"github.com/dgallion1/docxedit/internal/pipeline"
	"github.com/dgallion1/docxedit/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docxedit.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	converter    *pipeline.Worker
	store        *store.Store
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. Synchronous endpoints
// convert on the request goroutine; /api/jobs goes through the pipeline.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	s := &Server{
		orchestrator: orch,
		store:        orch.Store(),
		log:          log,
		cfg:          cfg,
	}
	s.converter = pipeline.NewWorker(s.store, log, pipeline.SettingsFromConfig(cfg))
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

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/render", s.handleRender)
		r.Post("/api/export", s.handleExport)
		r.Post("/api/probe", s.handleProbe)

		r.Post("/api/jobs", s.handleSubmitJob)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/result", s.handleJobResult)
		r.Get("/api/stats", s.handleStats)

		r.Get("/api/documents", s.handleListDocuments)
		r.Post("/api/documents", s.handleCreateDocument)
		r.Get("/api/documents/{docID}", s.handleDownloadDocument)
		r.Get("/api/documents/{docID}/html", s.handleDocumentHTML)
		r.Put("/api/documents/{docID}", s.handlePutDocument)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
