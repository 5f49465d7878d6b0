// Package adapter implements the source-adapter family: one adapter per
// upstream API wire format, behind a single fetch contract and a registry.
package adapter

import (
	"context"
	"strconv"
	"strings"

	"econ-curator/internal/domain"
)

// FetchRequest carries the parameters for one fetch call. Country and year
// filters are advisory: an adapter narrows its upstream query when the API
// supports server-side filtering, but the normalizer remains the single
// source of truth for post-fetch filtering.
type FetchRequest struct {
	// Reference is either a combined "FAMILY.CODE" string or a bare code.
	// Dataset carries the family part when the configuration splits them.
	Reference string
	Dataset   string

	Countries []string
	StartYear int
	EndYear   int
}

// Resolve returns the dataset family and indicator code, accepting both the
// combined and the split reference conventions.
func (r *FetchRequest) Resolve() (dataset, code string) {
	if r.Dataset != "" {
		return r.Dataset, r.Reference
	}
	return domain.SplitReference(r.Reference)
}

// Params renders the request as provenance parameters for the raw table.
func (r *FetchRequest) Params() map[string]string {
	p := map[string]string{"reference": r.Reference}
	if r.Dataset != "" {
		p["dataset"] = r.Dataset
	}
	if len(r.Countries) > 0 {
		p["countries"] = strings.Join(r.Countries, ",")
	}
	if r.StartYear != 0 {
		p["start_year"] = strconv.Itoa(r.StartYear)
	}
	if r.EndYear != 0 {
		p["end_year"] = strconv.Itoa(r.EndYear)
	}
	return p
}

// SourceAdapter wraps one upstream wire format. Implementations own their
// parsing and return typed errors; the registry converts failures into
// annotated empty tables so one bad fetch never aborts a multi-job queue.
type SourceAdapter interface {
	Source() domain.Source
	Fetch(ctx context.Context, req FetchRequest) (*domain.RawTable, error)
}

// Standard column names emitted by the network adapters.
const (
	ColCountry = "country"
	ColYear    = "year"
	ColValue   = "value"
)

// formatValue renders an observation value, with "" for missing.
func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
