package adapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"econ-curator/internal/domain"
)

// LocalFileAdapter is the pass-through adapter for user-supplied files.
// The reference is a path to a CSV or JSON file; no network I/O happens.
type LocalFileAdapter struct {
	// root confines references to a directory when non-empty.
	root   string
	logger *slog.Logger
}

// NewLocalFileAdapter creates a local-file adapter. When root is non-empty,
// relative references resolve under it and any path outside it, absolute
// included, is rejected.
func NewLocalFileAdapter(root string, logger *slog.Logger) *LocalFileAdapter {
	return &LocalFileAdapter{root: root, logger: logger}
}

// Source implements SourceAdapter.
func (a *LocalFileAdapter) Source() domain.Source { return domain.SourceLocal }

// Fetch implements SourceAdapter.
func (a *LocalFileAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.RawTable, error) {
	path := req.Reference
	if a.root != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.root, path)
		}
		rel, err := filepath.Rel(a.root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, domain.ErrValidation("local: reference %q escapes the data root", req.Reference)
		}
	}

	data, err := os.ReadFile(path) //nolint:gosec // path confined above
	if err != nil {
		return nil, domain.ErrSourceUnavailable("local: read %s: %v", path, err)
	}

	var columns []string
	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		columns, rows, err = parseJSONRows(data)
	default:
		columns, rows, err = parseCSV(data)
	}
	if err != nil {
		return nil, domain.ErrParse("local: malformed file %s: %v", path, err)
	}

	a.logger.Debug("local file loaded", "path", path, "rows", len(rows))
	return newRawTable(a.Source(), req, columns, rows), nil
}

// parseJSONRows flattens a JSON array of flat objects into a table. Columns
// are the sorted union of keys so the output is deterministic.
func parseJSONRows(data []byte) ([]string, [][]string, error) {
	var items []map[string]interface{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool)
	var columns []string
	for _, item := range items {
		for k := range item {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = stringifyCell(item[c])
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

var _ SourceAdapter = (*LocalFileAdapter)(nil)
