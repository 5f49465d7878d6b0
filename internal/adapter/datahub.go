package adapter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"econ-curator/internal/domain"
)

const defaultDataHubBaseURL = "https://datahub.io/core"

// DataHubAdapter wraps the CSV-over-HTTP convention: a resource slug names
// a companion datapackage.json metadata document, which in turn points at
// the CSV payload.
type DataHubAdapter struct {
	client  *fetchClient
	baseURL string
	logger  *slog.Logger
}

// NewDataHubAdapter creates a DataHub adapter. An empty baseURL uses the
// public registry.
func NewDataHubAdapter(client *fetchClient, baseURL string, logger *slog.Logger) *DataHubAdapter {
	if baseURL == "" {
		baseURL = defaultDataHubBaseURL
	}
	return &DataHubAdapter{client: client, baseURL: baseURL, logger: logger}
}

// Source implements SourceAdapter.
func (a *DataHubAdapter) Source() domain.Source { return domain.SourceDataHub }

type dataPackage struct {
	Name      string `json:"name"`
	Resources []struct {
		Name   string `json:"name"`
		Format string `json:"format"`
		Path   string `json:"path"`
	} `json:"resources"`
}

// Fetch implements SourceAdapter. The reference is the package slug; a
// combined "slug.resource" reference selects a named resource, otherwise
// the first CSV resource is used.
func (a *DataHubAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.RawTable, error) {
	slug, resource := req.Resolve()
	if slug == "" {
		slug, resource = resource, ""
	}

	metaURL := fmt.Sprintf("%s/%s/datapackage.json", a.baseURL, url.PathEscape(slug))
	var pkg dataPackage
	if err := a.client.getJSON(ctx, a.Source(), metaURL, &pkg); err != nil {
		return nil, err
	}

	csvPath := ""
	for _, r := range pkg.Resources {
		if !strings.EqualFold(r.Format, "csv") {
			continue
		}
		if resource == "" || r.Name == resource {
			csvPath = r.Path
			break
		}
	}
	if csvPath == "" {
		return nil, domain.ErrParse("datahub: package %q has no matching csv resource", slug)
	}

	csvURL := csvPath
	if !strings.HasPrefix(csvPath, "http://") && !strings.HasPrefix(csvPath, "https://") {
		csvURL = fmt.Sprintf("%s/%s/%s", a.baseURL, url.PathEscape(slug), csvPath)
	}

	body, err := a.client.get(ctx, a.Source(), csvURL)
	if err != nil {
		return nil, err
	}

	columns, rows, err := parseCSV(body)
	if err != nil {
		return nil, domain.ErrParse("datahub: malformed csv from %s: %v", csvURL, err)
	}

	a.logger.Debug("datahub fetch complete", "package", slug, "rows", len(rows))
	return newRawTable(a.Source(), req, columns, rows), nil
}

// parseCSV splits a CSV payload into a header and data rows. Ragged rows
// are tolerated — short rows are padded so every row matches the header.
func parseCSV(data []byte) ([]string, [][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return []string{}, nil, nil
	}

	columns := records[0]
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < len(columns) {
			padded := make([]string, len(columns))
			copy(padded, rec)
			rec = padded
		}
		rows = append(rows, rec[:len(columns)])
	}
	return columns, rows, nil
}

var _ SourceAdapter = (*DataHubAdapter)(nil)
