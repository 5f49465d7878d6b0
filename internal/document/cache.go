// Package document produces metadata documents from dataset summaries,
// via a language-model backend or a deterministic template, behind a
// content-addressed cache.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"econ-curator/internal/domain"
)

// Cache is a content-addressed documentation cache: a directory of
// hash-named markdown files. It is constructed explicitly and injected
// into the Documenter so tests can substitute it.
type Cache struct {
	dir    string
	logger *slog.Logger
}

// NewCache creates the cache directory if needed.
func NewCache(dir string, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, domain.ErrPersistence("create cache dir %s: %v", dir, err)
	}
	return &Cache{dir: dir, logger: logger}, nil
}

// cacheKeyFields are the DataSummary fields that affect the narrative.
// Null counts and fetch timestamps are excluded deliberately: they change
// between runs without changing what the document says.
type cacheKeyFields struct {
	Topic           string   `json:"topic"`
	Source          string   `json:"source"`
	RowCount        int      `json:"row_count"`
	Columns         []string `json:"columns"`
	CountryCount    int      `json:"country_count"`
	MinYear         int      `json:"min_year"`
	MaxYear         int      `json:"max_year"`
	Transformations []string `json:"transformations"`
}

// Key computes the deterministic cache key for a topic/source/summary
// triple: sha256 over the canonical JSON of the narrative-affecting fields.
func Key(topic string, source domain.Source, summary domain.DataSummary) string {
	fields := cacheKeyFields{
		Topic:           topic,
		Source:          string(source),
		RowCount:        summary.RowCount,
		Columns:         summary.Columns,
		CountryCount:    len(summary.Countries),
		MinYear:         summary.MinYear,
		MaxYear:         summary.MaxYear,
		Transformations: summary.Transformations,
	}
	data, err := json.Marshal(fields)
	if err != nil {
		// Marshalling a struct of strings and ints cannot fail.
		panic(fmt.Sprintf("marshal cache key fields: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached document body and its generation origin for a
// key, if present. Entries written before origins were recorded report
// the template origin.
func (c *Cache) Get(key string) (body, origin string, ok bool) {
	data, err := os.ReadFile(c.path(key)) //nolint:gosec // key is a hex hash
	if err != nil {
		return "", "", false
	}
	origin = domain.GeneratedByTemplate
	if src, err := os.ReadFile(c.originPath(key)); err == nil { //nolint:gosec // key is a hex hash
		if s := strings.TrimSpace(string(src)); s == domain.GeneratedByModel || s == domain.GeneratedByTemplate {
			origin = s
		}
	}
	return string(data), origin, true
}

// Put stores a document body and its origin under a key. The origin lives
// in a sidecar file so the cached markdown stays verbatim on disk.
func (c *Cache) Put(key, markdown, origin string) error {
	if err := os.WriteFile(c.path(key), []byte(markdown), 0o600); err != nil {
		return domain.ErrPersistence("write cache entry %s: %v", key, err)
	}
	if err := os.WriteFile(c.originPath(key), []byte(origin+"\n"), 0o600); err != nil {
		return domain.ErrPersistence("write cache origin %s: %v", key, err)
	}
	return nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".md")
}

func (c *Cache) originPath(key string) string {
	return filepath.Join(c.dir, key+".src")
}
