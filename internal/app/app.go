// Package app provides application-level wiring shared by the server and
// CLI entrypoints: one constructor that turns configuration into a fully
// connected curation core.
package app

import (
	"database/sql"
	"log/slog"

	"econ-curator/internal/adapter"
	"econ-curator/internal/api"
	"econ-curator/internal/catalog"
	"econ-curator/internal/config"
	"econ-curator/internal/db"
	"econ-curator/internal/db/repository"
	"econ-curator/internal/document"
	"econ-curator/internal/domain"
	"econ-curator/internal/normalize"
	"econ-curator/internal/orchestrator"
	"econ-curator/internal/storage"
)

// App is the wired curation core.
type App struct {
	Cfg          *config.Config
	Catalog      *catalog.Catalog
	Registry     *adapter.Registry
	Normalizer   *normalize.Normalizer
	Documenter   *document.Documenter
	Store        *storage.Store
	Orchestrator *orchestrator.Orchestrator
	Scheduler    *orchestrator.Scheduler
	Handler      *api.Handler
	Logger       *slog.Logger

	metaDB *sql.DB
}

// New wires the whole application from configuration. The metastore is
// opened and migrated here; Close releases it.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := storage.New(cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}

	descriptors, err := config.LoadFile(cfg.ConfigFile, cfg)
	if err != nil {
		return nil, err
	}
	cat := catalog.New(descriptors, logger)

	registry := adapter.NewDefaultRegistry(adapter.Options{
		FetchTimeout: cfg.FetchTimeout,
		FetchRPS:     cfg.FetchRPS,
		LocalRoot:    cfg.DataDir,
	}, logger)

	normalizer := normalize.New(cfg.Rules, logger)

	cache, err := document.NewCache(store.CacheDir(), logger)
	if err != nil {
		return nil, err
	}
	var generator document.TextGenerator
	if cfg.Documenter.Mode == "model" {
		generator = document.NewModelClient(cfg.Documenter.ModelEndpoint,
			cfg.Documenter.Model, cfg.Documenter.APIKey, cfg.Documenter.Timeout, logger)
	}
	documenter := document.New(generator, cache, logger)

	metaDB, err := db.Open(cfg.MetaDBPath)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(metaDB); err != nil {
		_ = metaDB.Close()
		return nil, err
	}
	datasetRepo := repository.NewDatasetRepo(metaDB)
	auditRepo := repository.NewAuditRepo(metaDB)

	// The handler consumes the orchestrator and the orchestrator reports
	// progress to the handler; the closure breaks the construction cycle.
	// No job runs before both exist.
	var handler *api.Handler
	deps := orchestrator.Deps{
		Store:        orchestrator.NewFileQueueStore(store.QueuePath(), logger),
		Fetcher:      registry,
		Cleaner:      normalizer,
		Documenter:   documenter,
		Artifacts:    store,
		Datasets:     datasetRepo,
		Audit:        auditRepo,
		HistoryLimit: cfg.HistoryLimit,
		OnProgress: func(jobID string, step domain.JobStatus, percent int) {
			handler.Progress(jobID, step, percent)
		},
		Logger: logger,
	}

	orch, err := orchestrator.New(deps)
	if err != nil {
		_ = metaDB.Close()
		return nil, err
	}
	handler = api.NewHandler(orch, cat, store, datasetRepo, auditRepo, logger)

	scheduler, err := orchestrator.NewScheduler(orch, cfg.RefreshCron, logger)
	if err != nil {
		_ = metaDB.Close()
		return nil, err
	}

	return &App{
		Cfg:          cfg,
		Catalog:      cat,
		Registry:     registry,
		Normalizer:   normalizer,
		Documenter:   documenter,
		Store:        store,
		Orchestrator: orch,
		Scheduler:    scheduler,
		Handler:      handler,
		Logger:       logger,
		metaDB:       metaDB,
	}, nil
}

// Close releases the metastore connection.
func (a *App) Close() error {
	return a.metaDB.Close()
}
