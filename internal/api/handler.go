// Package api provides the HTTP seam over the curation core: queue
// control, catalog discovery, the dataset registry, and a progress
// stream. All pipeline logic lives below this layer.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"econ-curator/internal/catalog"
	"econ-curator/internal/domain"
	"econ-curator/internal/storage"
)

// JobQueue is the orchestrator surface the API consumes.
type JobQueue interface {
	Enqueue(spec domain.JobSpec) (*domain.Job, error)
	Dequeue(jobID string) error
	Clear() int
	Cancel(jobID string) error
	Queue() []*domain.Job
	History(limit int) []*domain.Job
	Job(jobID string) (*domain.Job, error)
	RunQueue(ctx context.Context) bool
}

// Handler carries the API's collaborators. Datasets and Audit may be nil
// when the metastore is disabled; their routes then answer 404.
type Handler struct {
	queue    JobQueue
	catalog  *catalog.Catalog
	store    *storage.Store
	datasets domain.DatasetRepository
	audit    domain.AuditRepository
	progress *progressHub
	logger   *slog.Logger
}

// NewHandler creates an API handler. The returned handler's Progress
// method must be registered as the orchestrator progress callback for
// the event stream to carry data.
func NewHandler(queue JobQueue, cat *catalog.Catalog, store *storage.Store,
	datasets domain.DatasetRepository, audit domain.AuditRepository, logger *slog.Logger) *Handler {
	return &Handler{
		queue:    queue,
		catalog:  cat,
		store:    store,
		datasets: datasets,
		audit:    audit,
		progress: newProgressHub(),
		logger:   logger,
	}
}

// Router builds the chi router with all API routes mounted under /v1.
func (h *Handler) Router(corsOrigins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", h.handleEnqueue)
			r.Get("/", h.handleQueue)
			r.Delete("/", h.handleClear)
			r.Get("/history", h.handleHistory)
			r.Get("/{jobID}", h.handleGetJob)
			r.Delete("/{jobID}", h.handleDequeue)
			r.Post("/{jobID}/cancel", h.handleCancel)
		})
		r.Post("/queue/run", h.handleRunQueue)
		r.Get("/progress", h.handleProgress)

		r.Route("/indicators", func(r chi.Router) {
			r.Get("/", h.handleIndicators)
			r.Get("/tags", h.handleTags)
			r.Get("/sources", h.handleSources)
		})

		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", h.handleListDatasets)
			r.Get("/{name}", h.handleGetDataset)
			r.Get("/{name}/rows", h.handleDatasetRows)
		})
		r.Get("/audit", h.handleAudit)
	})

	return r
}
