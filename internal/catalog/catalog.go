// Package catalog implements the in-memory, tag-searchable indicator index.
package catalog

import (
	"log/slog"
	"sort"
	"strings"

	"econ-curator/internal/domain"
)

// Catalog indexes the known indicator descriptors. The collection is
// immutable after construction and rebuilt on startup from configuration.
type Catalog struct {
	descriptors []domain.IndicatorDescriptor
	logger      *slog.Logger
}

// New builds a catalog over the given descriptors, preserving source order.
func New(descriptors []domain.IndicatorDescriptor, logger *slog.Logger) *Catalog {
	c := &Catalog{
		descriptors: append([]domain.IndicatorDescriptor(nil), descriptors...),
		logger:      logger,
	}
	c.logger.Info("indicator catalog loaded", "indicators", len(c.descriptors))
	return c
}

// All returns every descriptor in source order.
func (c *Catalog) All() []domain.IndicatorDescriptor {
	return append([]domain.IndicatorDescriptor(nil), c.descriptors...)
}

// Get returns the descriptor with the given id.
func (c *Catalog) Get(id string) (*domain.IndicatorDescriptor, error) {
	for i := range c.descriptors {
		if c.descriptors[i].ID == id {
			d := c.descriptors[i]
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound("indicator %q not found", id)
}

// Search performs a case-insensitive substring match over id, name,
// description, and tags (OR across fields). Matches are de-duplicated and
// returned in source order — first match wins for display purposes.
func (c *Catalog) Search(query string) []domain.IndicatorDescriptor {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.All()
	}

	var out []domain.IndicatorDescriptor
	seen := make(map[string]bool)
	for _, d := range c.descriptors {
		if seen[d.ID] {
			continue
		}
		if matchesQuery(d, q) {
			seen[d.ID] = true
			out = append(out, d)
		}
	}
	return out
}

// BySource returns descriptors with the exact source.
func (c *Catalog) BySource(source domain.Source) []domain.IndicatorDescriptor {
	var out []domain.IndicatorDescriptor
	for _, d := range c.descriptors {
		if d.Source == source {
			out = append(out, d)
		}
	}
	return out
}

// ByTag returns descriptors carrying the exact tag (case-insensitive).
func (c *Catalog) ByTag(tag string) []domain.IndicatorDescriptor {
	t := strings.ToLower(strings.TrimSpace(tag))
	var out []domain.IndicatorDescriptor
	for _, d := range c.descriptors {
		for _, dt := range d.Tags {
			if strings.ToLower(dt) == t {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// Tags returns the sorted set of distinct tags across all descriptors.
func (c *Catalog) Tags() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range c.descriptors {
		for _, t := range d.Tags {
			t = strings.ToLower(t)
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Sources returns the distinct sources present in the catalog, in the
// fixed known-source order.
func (c *Catalog) Sources() []domain.Source {
	present := make(map[domain.Source]bool)
	for _, d := range c.descriptors {
		present[d.Source] = true
	}
	var out []domain.Source
	for _, s := range domain.KnownSources() {
		if present[s] {
			out = append(out, s)
		}
	}
	return out
}

func matchesQuery(d domain.IndicatorDescriptor, q string) bool {
	if strings.Contains(strings.ToLower(d.ID), q) ||
		strings.Contains(strings.ToLower(d.Name), q) ||
		strings.Contains(strings.ToLower(d.Description), q) {
		return true
	}
	for _, t := range d.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
