package document

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"econ-curator/internal/domain"
)

// Documenter produces metadata documents from dataset summaries. Model
// mode is used when a generator is configured; any backend failure falls
// back to template mode — metadata generation never aborts a job.
type Documenter struct {
	generator TextGenerator // nil in template mode
	cache     *Cache
	logger    *slog.Logger
	group     singleflight.Group
}

// New creates a Documenter. Pass a nil generator for template mode.
func New(generator TextGenerator, cache *Cache, logger *slog.Logger) *Documenter {
	return &Documenter{generator: generator, cache: cache, logger: logger}
}

// Document produces the metadata document for a summary. Identical cache
// keys never re-invoke the model: the second call is a cache hit. A true
// force flag bypasses the cache read but still writes the new result under
// the same key.
func (d *Documenter) Document(ctx context.Context, topic string, source domain.Source,
	summary domain.DataSummary, force bool) *domain.MetadataDocument {

	key := Key(topic, source, summary)

	if !force {
		if body, origin, ok := d.cache.Get(key); ok {
			d.logger.Debug("documentation cache hit", "key", key)
			return &domain.MetadataDocument{
				Markdown:    body,
				CacheKey:    key,
				GeneratedBy: origin,
				CacheHit:    true,
			}
		}
	}

	// Concurrent requests for the same key generate once.
	result, _, _ := d.group.Do(key, func() (interface{}, error) {
		return d.generate(ctx, topic, source, summary), nil
	})
	doc := result.(*domain.MetadataDocument)
	doc.CacheKey = key

	if err := d.cache.Put(key, doc.Markdown, doc.GeneratedBy); err != nil {
		d.logger.Warn("documentation cache write failed", "key", key, "error", err)
	}
	return doc
}

func (d *Documenter) generate(ctx context.Context, topic string, source domain.Source,
	summary domain.DataSummary) *domain.MetadataDocument {

	if d.generator != nil {
		body, err := d.generator.Generate(ctx, buildPrompt(topic, source, summary))
		if err == nil {
			return &domain.MetadataDocument{Markdown: body, GeneratedBy: domain.GeneratedByModel}
		}
		d.logger.Warn("model documentation failed, falling back to template",
			"topic", topic, "error", err)
	}

	return &domain.MetadataDocument{
		Markdown:    renderTemplate(topic, source, summary),
		GeneratedBy: domain.GeneratedByTemplate,
	}
}
