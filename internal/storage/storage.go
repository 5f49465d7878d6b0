// Package storage owns the on-disk layout of curated artifacts under a
// single data directory:
//
//	datasets/<topic>/<name>.csv   cleaned tables
//	docs/<topic>/<name>.md        metadata documents
//	raw/<source>/<name>.json      raw fetch archive
//	cache/<hash>.md               documentation cache
//	queue/queue.json              orchestrator state
package storage

import (
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"econ-curator/internal/domain"
)

// Store writes and reads curated artifacts relative to a root data
// directory. All paths handed to callers are absolute.
type Store struct {
	root   string
	logger *slog.Logger
}

// New creates the data directory skeleton under root.
func New(root string, logger *slog.Logger) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, domain.ErrPersistence("resolve data dir %s: %v", root, err)
	}
	for _, dir := range []string{"datasets", "docs", "raw", "cache", "queue"} {
		if err := os.MkdirAll(filepath.Join(abs, dir), 0o750); err != nil {
			return nil, domain.ErrPersistence("create %s dir: %v", dir, err)
		}
	}
	return &Store{root: abs, logger: logger}, nil
}

// Root returns the absolute data directory.
func (s *Store) Root() string { return s.root }

// CacheDir returns the documentation cache directory.
func (s *Store) CacheDir() string { return filepath.Join(s.root, "cache") }

// QueuePath returns the orchestrator queue file path.
func (s *Store) QueuePath() string { return filepath.Join(s.root, "queue", "queue.json") }

// SaveDataset writes the cleaned table as CSV under the topic directory
// and returns the file path.
func (s *Store) SaveDataset(ds *domain.CleanedDataset) (string, error) {
	dir := filepath.Join(s.root, "datasets", domain.Slug(ds.Topic))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", domain.ErrPersistence("create dataset dir %s: %v", dir, err)
	}
	path := filepath.Join(dir, ds.Name+".csv")

	f, err := os.Create(path) //nolint:gosec // path built from slugged name
	if err != nil {
		return "", domain.ErrPersistence("create dataset file %s: %v", path, err)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(ds.Table.Columns); err != nil {
		return "", domain.ErrPersistence("write dataset header: %v", err)
	}
	for _, row := range ds.Table.Rows {
		if err := w.Write(row); err != nil {
			return "", domain.ErrPersistence("write dataset row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", domain.ErrPersistence("flush dataset %s: %v", ds.Name, err)
	}
	if err := f.Close(); err != nil {
		return "", domain.ErrPersistence("close dataset %s: %v", ds.Name, err)
	}

	s.logger.Info("dataset written", "name", ds.Name, "rows", len(ds.Table.Rows), "path", path)
	return path, nil
}

// SaveDocument writes the metadata document next to the dataset layout,
// under docs/<topic>/<name>.md, and returns the file path.
func (s *Store) SaveDocument(topic, name, markdown string) (string, error) {
	dir := filepath.Join(s.root, "docs", domain.Slug(topic))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", domain.ErrPersistence("create docs dir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name+".md")
	if err := os.WriteFile(path, []byte(markdown), 0o600); err != nil {
		return "", domain.ErrPersistence("write document %s: %v", name, err)
	}
	return path, nil
}

// ArchiveRaw snapshots a fetched table under raw/<source>/<name>.json for
// provenance, before any cleaning touches it. Archive failures are not
// fatal to a job; callers log and continue.
func (s *Store) ArchiveRaw(name string, table *domain.RawTable) (string, error) {
	dir := filepath.Join(s.root, "raw", string(table.Source))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", domain.ErrPersistence("create raw dir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name+".json")

	payload := rawArchive{
		Source:    string(table.Source),
		FetchedAt: table.FetchedAt.Format("2006-01-02T15:04:05Z07:00"),
		Params:    table.Params,
		Columns:   table.Columns,
		Rows:      table.Rows,
		ErrorNote: table.ErrorNote,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", domain.ErrPersistence("marshal raw archive %s: %v", name, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", domain.ErrPersistence("write raw archive %s: %v", name, err)
	}
	return path, nil
}

type rawArchive struct {
	Source    string            `json:"source"`
	FetchedAt string            `json:"fetched_at"`
	Params    map[string]string `json:"params,omitempty"`
	Columns   []string          `json:"columns"`
	Rows      [][]string        `json:"rows"`
	ErrorNote string            `json:"error_note,omitempty"`
}

// ListDatasets walks datasets/ and returns the stored dataset names per
// topic slug, sorted for stable output.
func (s *Store) ListDatasets() (map[string][]string, error) {
	base := filepath.Join(s.root, "datasets")
	topics, err := os.ReadDir(base)
	if err != nil {
		return nil, domain.ErrPersistence("read datasets dir: %v", err)
	}

	out := make(map[string][]string, len(topics))
	for _, topic := range topics {
		if !topic.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(base, topic.Name()))
		if err != nil {
			return nil, domain.ErrPersistence("read topic dir %s: %v", topic.Name(), err)
		}
		var names []string
		for _, f := range files {
			if strings.HasSuffix(f.Name(), ".csv") {
				names = append(names, strings.TrimSuffix(f.Name(), ".csv"))
			}
		}
		sort.Strings(names)
		out[topic.Name()] = names
	}
	return out, nil
}

// ReadDataset loads a stored CSV back into a table shape. Used by the API
// dataset endpoint and by refresh runs that need the prior row count.
func (s *Store) ReadDataset(topic, name string) ([]string, [][]string, error) {
	path := filepath.Join(s.root, "datasets", domain.Slug(topic), name+".csv")
	f, err := os.Open(path) //nolint:gosec // path built from slugged name
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, domain.ErrNotFound("dataset %s/%s not found", topic, name)
		}
		return nil, nil, domain.ErrPersistence("open dataset %s: %v", name, err)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, domain.ErrPersistence("read dataset %s: %v", name, err)
	}
	if len(records) == 0 {
		return []string{}, [][]string{}, nil
	}
	return records[0], records[1:], nil
}
