package domain

import (
	"fmt"
	"strings"
)

// UnknownCountry is the explicit marker for values that could not be mapped
// to an ISO-3166-1 alpha-3 code. Unmappable names are never silently
// dropped — the marker surfaces them as a data-quality signal.
const UnknownCountry = "ZZZ"

// DataSummary is the structural summary of a cleaned dataset. It is the
// only input the documenter sees, so it must carry everything the
// narrative needs.
type DataSummary struct {
	RowCount         int      `json:"row_count"`
	Columns          []string `json:"columns"`
	Countries        []string `json:"countries"`
	UnknownCountries int      `json:"unknown_countries"`
	MinYear          int      `json:"min_year"`
	MaxYear          int      `json:"max_year"`
	NullCount        int      `json:"null_count"`

	// Transformations is append-only and reflects every cleaning rule that
	// actually changed the data, in application order.
	Transformations []string `json:"transformations"`
}

// CleanedDataset is a RawTable after standardization, plus its summary and
// deterministic name.
type CleanedDataset struct {
	Name     string
	Topic    string
	Coverage string
	Table    *RawTable
	Summary  DataSummary
}

// DatasetName builds the deterministic dataset name from its four logical
// inputs. Identical inputs always yield the identical name; the
// orchestrator and documenter rely on this for idempotent re-runs and
// cache correctness.
func DatasetName(topic string, source Source, coverage string, startYear, endYear int) string {
	return fmt.Sprintf("%s_%s_%s_%d_%d",
		Slug(topic), source, Slug(coverage), startYear, endYear)
}

// Slug lowercases and replaces whitespace and path separators so names
// are safe as file and directory names.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	repl := strings.NewReplacer(" ", "-", "\t", "-", "/", "-", "\\", "-")
	return repl.Replace(s)
}
