package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/reportforge/internal/compose"
	"github.com/dgallion1/reportforge/internal/config"
	"github.com/dgallion1/reportforge/internal/layout"
	"github.com/dgallion1/reportforge/internal/pipeline"
	"github.com/dgallion1/reportforge/internal/store"
)

// ArtifactAdmin is the mutable artifact backend behind the artifact
// endpoints. The memory and sqlite stores implement it; a remote source
// does not, in which case those endpoints report the store as read-only.
type ArtifactAdmin interface {
	store.Source
	PutTable(ctx context.Context, name string, a compose.TableArtifact) error
	PutChart(ctx context.Context, name string, a compose.ChartArtifact) error
	DeleteTable(ctx context.Context, name string) error
	DeleteChart(ctx context.Context, name string) error
	List(ctx context.Context) ([]store.ArtifactInfo, error)
}

// Server is the HTTP API server for reportforge.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	artifacts    ArtifactAdmin
	layouts      map[string]*layout.Definition
	log          *slog.Logger
	cfg          config.Config
	started      time.Time
}

// NewServer creates and configures the HTTP server. artifacts may be nil
// when the backing store cannot be mutated through the API.
func NewServer(orch *pipeline.Orchestrator, artifacts ArtifactAdmin, layouts map[string]*layout.Definition, log *slog.Logger, cfg config.Config) *Server {
	if layouts == nil {
		layouts = map[string]*layout.Definition{}
	}
	s := &Server{
		orchestrator: orch,
		artifacts:    artifacts,
		layouts:      layouts,
		log:          log,
		cfg:          cfg,
		started:      time.Now(),
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
	r.Get("/v1/healthz", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/v1/reports", s.handleSubmitReport)
		r.Get("/v1/reports", s.handleListReports)
		r.Get("/v1/reports/{jobID}", s.handleReportStatus)
		r.Get("/v1/reports/{jobID}/files/{name}", s.handleReportFile)
		r.Delete("/v1/reports/{jobID}", s.handleDeleteReport)

		r.Post("/v1/artifacts/tables/{name}", s.handleUpsertTable)
		r.Post("/v1/artifacts/charts/{name}", s.handleUpsertChart)
		r.Delete("/v1/artifacts/tables/{name}", s.handleDeleteTable)
		r.Delete("/v1/artifacts/charts/{name}", s.handleDeleteChart)
		r.Get("/v1/artifacts", s.handleListArtifacts)

		r.Get("/v1/layouts", s.handleListLayouts)
		r.Post("/v1/layouts/validate", s.handleValidateLayout)

		r.Get("/v1/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
