package adapter

import (
	"context"
	"log/slog"
	"time"

	"econ-curator/internal/domain"
)

// Registry dispatches fetches to the adapter registered for a source.
// Adding a source is a registration, not a conditional chain.
type Registry struct {
	adapters map[domain.Source]SourceAdapter
	logger   *slog.Logger
}

// NewRegistry builds a registry over the given adapters.
func NewRegistry(logger *slog.Logger, adapters ...SourceAdapter) *Registry {
	r := &Registry{
		adapters: make(map[domain.Source]SourceAdapter, len(adapters)),
		logger:   logger,
	}
	for _, a := range adapters {
		r.adapters[a.Source()] = a
	}
	return r
}

// Options configures the default adapter set.
type Options struct {
	FetchTimeout time.Duration
	FetchRPS     float64

	// Base URL overrides, primarily for tests; empty uses the public APIs.
	WorldBankBaseURL string
	IMFBaseURL       string
	OECDBaseURL      string
	CEPALBaseURL     string
	DataHubBaseURL   string

	// LocalRoot confines local-file references when non-empty.
	LocalRoot string
}

// NewDefaultRegistry builds the full six-adapter registry with a shared
// rate-limited HTTP client.
func NewDefaultRegistry(opts Options, logger *slog.Logger) *Registry {
	client := newFetchClient(opts.FetchTimeout, opts.FetchRPS, logger)
	return NewRegistry(logger,
		NewWorldBankAdapter(client, opts.WorldBankBaseURL, logger),
		NewIMFAdapter(client, opts.IMFBaseURL, logger),
		NewOECDAdapter(client, opts.OECDBaseURL, logger),
		NewCEPALAdapter(client, opts.CEPALBaseURL, logger),
		NewDataHubAdapter(client, opts.DataHubBaseURL, logger),
		NewLocalFileAdapter(opts.LocalRoot, logger),
	)
}

// Adapter returns the adapter registered for a source.
func (r *Registry) Adapter(source domain.Source) (SourceAdapter, error) {
	a, ok := r.adapters[source]
	if !ok {
		return nil, domain.ErrNotFound("no adapter registered for source %q", source)
	}
	return a, nil
}

// Sources returns the registered sources in the fixed known-source order.
func (r *Registry) Sources() []domain.Source {
	var out []domain.Source
	for _, s := range domain.KnownSources() {
		if _, ok := r.adapters[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Fetch is the adapter boundary: a fetch that fails at the transport or
// parse layer never raises past it. Failures log a warning and return an
// empty table tagged with an error annotation, so ingestion failure for
// one job cannot abort a multi-job queue.
func (r *Registry) Fetch(ctx context.Context, source domain.Source, req FetchRequest) *domain.RawTable {
	a, err := r.Adapter(source)
	if err != nil {
		r.logger.Warn("fetch dispatch failed", "source", source, "error", err)
		return domain.EmptyTable(source, req.Params(), err.Error())
	}

	table, err := a.Fetch(ctx, req)
	if err != nil {
		r.logger.Warn("fetch degraded to empty table",
			"source", source,
			"reference", req.Reference,
			"error", err,
		)
		return domain.EmptyTable(source, req.Params(), err.Error())
	}
	return table
}
