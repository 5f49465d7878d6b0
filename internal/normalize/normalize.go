// Package normalize turns raw tables into cleaned datasets under a fixed,
// source-independent rule set.
package normalize

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"econ-curator/internal/config"
	"econ-curator/internal/domain"
)

// CleanOptions carries the caller-supplied context for one cleaning run.
// Country and year filters are enforced here regardless of whether the
// adapter already narrowed its upstream query.
type CleanOptions struct {
	Topic     string
	Coverage  string
	Countries []string
	StartYear int
	EndYear   int
}

// Normalizer applies the standardization rules in a fixed order. Each rule
// is individually toggleable via configuration.
type Normalizer struct {
	rules  config.CleaningRules
	logger *slog.Logger
}

// New creates a Normalizer.
func New(rules config.CleaningRules, logger *slog.Logger) *Normalizer {
	return &Normalizer{rules: rules, logger: logger}
}

// Clean standardizes a raw table into a cleaned dataset. The input table is
// never mutated — all work happens on a copy. Every rule that actually
// changed the data is appended to the summary's transformation list, in
// application order, so a second pass over already-clean data records
// nothing.
func (n *Normalizer) Clean(table *domain.RawTable, opts CleanOptions) *domain.CleanedDataset {
	work := table.Clone()
	summary := domain.DataSummary{}

	if n.rules.DropEmptyRows {
		if removed := dropEmptyRows(work); removed > 0 {
			summary.Transformations = append(summary.Transformations,
				fmt.Sprintf("drop_empty_rows: removed %d rows", removed))
		}
	}
	if n.rules.DropEmptyColumns {
		if removed := dropEmptyColumns(work); len(removed) > 0 {
			summary.Transformations = append(summary.Transformations,
				fmt.Sprintf("drop_empty_columns: removed %s", strings.Join(removed, ", ")))
		}
	}

	countryCol := findCountryColumn(work)
	if n.rules.StandardizeCountries && countryCol >= 0 {
		mapped, unknown := standardizeCountries(work, countryCol)
		if mapped > 0 || unknown > 0 {
			summary.Transformations = append(summary.Transformations,
				fmt.Sprintf("standardize_countries: mapped %d values, %d unknown", mapped, unknown))
		}
		if unknown > 0 {
			n.logger.Warn("unmappable country names replaced with unknown marker",
				"source", work.Source, "count", unknown)
		}
	}

	yearCol := findYearColumn(work)
	if n.rules.NormalizeDates && yearCol >= 0 {
		if changed := normalizeDates(work, yearCol); changed > 0 {
			summary.Transformations = append(summary.Transformations,
				fmt.Sprintf("normalize_dates: canonicalized %d values", changed))
		}
	}

	// Post-fetch filters: the normalizer is the single source of truth —
	// it cannot assume the adapter applied them server-side.
	if len(opts.Countries) > 0 && countryCol >= 0 {
		if removed := filterCountries(work, countryCol, opts.Countries); removed > 0 {
			summary.Transformations = append(summary.Transformations,
				fmt.Sprintf("filter_countries: removed %d rows", removed))
		}
	}
	if opts.StartYear != 0 && opts.EndYear != 0 && yearCol >= 0 {
		if removed := filterYears(work, yearCol, opts.StartYear, opts.EndYear); removed > 0 {
			summary.Transformations = append(summary.Transformations,
				fmt.Sprintf("filter_years: removed %d rows outside %d-%d", removed, opts.StartYear, opts.EndYear))
		}
	}

	if n.rules.ReportMissing {
		summary.NullCount = countNulls(work)
	}

	startYear, endYear := opts.StartYear, opts.EndYear
	minYear, maxYear := detectYearRange(work, yearCol)
	if n.rules.DetectYearRange {
		summary.MinYear, summary.MaxYear = minYear, maxYear
	}
	// Auto-detect the naming range only when the caller supplied none.
	if startYear == 0 || endYear == 0 {
		startYear, endYear = minYear, maxYear
	}

	summary.RowCount = len(work.Rows)
	summary.Columns = append([]string(nil), work.Columns...)
	if countryCol >= 0 {
		summary.Countries = distinctCountries(work, countryCol)
	}
	summary.UnknownCountries = countUnknown(work, countryCol)

	name := domain.DatasetName(opts.Topic, work.Source, opts.Coverage, startYear, endYear)
	n.logger.Info("dataset cleaned",
		"name", name,
		"rows", summary.RowCount,
		"transformations", len(summary.Transformations),
	)

	return &domain.CleanedDataset{
		Name:     name,
		Topic:    opts.Topic,
		Coverage: opts.Coverage,
		Table:    work,
		Summary:  summary,
	}
}

// --- rules ---

func dropEmptyRows(t *domain.RawTable) int {
	kept := t.Rows[:0]
	removed := 0
	for _, row := range t.Rows {
		if rowEmpty(row) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept
	return removed
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func dropEmptyColumns(t *domain.RawTable) []string {
	var emptyIdx []int
	for i := range t.Columns {
		empty := true
		for _, row := range t.Rows {
			if i < len(row) && strings.TrimSpace(row[i]) != "" {
				empty = false
				break
			}
		}
		// A column with no rows at all is kept — there is nothing to judge.
		if empty && len(t.Rows) > 0 {
			emptyIdx = append(emptyIdx, i)
		}
	}
	if len(emptyIdx) == 0 {
		return nil
	}

	drop := make(map[int]bool, len(emptyIdx))
	var removed []string
	for _, i := range emptyIdx {
		drop[i] = true
		removed = append(removed, t.Columns[i])
	}

	var columns []string
	for i, c := range t.Columns {
		if !drop[i] {
			columns = append(columns, c)
		}
	}
	for ri, row := range t.Rows {
		var next []string
		for i, cell := range row {
			if !drop[i] {
				next = append(next, cell)
			}
		}
		t.Rows[ri] = next
	}
	t.Columns = columns
	return removed
}

func standardizeCountries(t *domain.RawTable, col int) (mapped, unknown int) {
	for _, row := range t.Rows {
		if col >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[col])
		if value == "" || value == domain.UnknownCountry {
			continue
		}
		code, ok := MapCountry(value)
		if !ok {
			row[col] = domain.UnknownCountry
			unknown++
			continue
		}
		if code != value {
			row[col] = code
			mapped++
		}
	}
	return mapped, unknown
}

func normalizeDates(t *domain.RawTable, col int) int {
	changed := 0
	for _, row := range t.Rows {
		if col >= len(row) {
			continue
		}
		canonical := canonicalizeDate(row[col])
		if canonical != row[col] {
			row[col] = canonical
			changed++
		}
	}
	return changed
}

// canonicalizeDate maps a raw date/year value to a bare four-digit year or
// an ISO date, depending on granularity. Unparseable values pass through.
func canonicalizeDate(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return value
	}
	if isYear(v) {
		return v
	}
	// Trailing decimal from numeric exports ("2010.0").
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		year := int(f)
		if float64(year) == f && year >= 1000 && year <= 9999 {
			return strconv.Itoa(year)
		}
	}
	// Timestamp or date forms collapse to the ISO date.
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006/01/02", "02/01/2006"} {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts.Format("2006-01-02")
		}
	}
	if len(v) >= 10 && isYear(v[:4]) && v[4] == '-' {
		return v[:10]
	}
	return value
}

func isYear(v string) bool {
	if len(v) != 4 {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func filterCountries(t *domain.RawTable, col int, wanted []string) int {
	want := make(map[string]bool, len(wanted))
	for _, c := range wanted {
		if code, ok := MapCountry(c); ok {
			want[code] = true
		} else {
			want[strings.ToUpper(strings.TrimSpace(c))] = true
		}
	}

	kept := t.Rows[:0]
	removed := 0
	for _, row := range t.Rows {
		if col < len(row) && !want[row[col]] {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept
	return removed
}

func filterYears(t *domain.RawTable, col int, start, end int) int {
	kept := t.Rows[:0]
	removed := 0
	for _, row := range t.Rows {
		year, ok := rowYear(row, col)
		if ok && (year < start || year > end) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept
	return removed
}

func rowYear(row []string, col int) (int, bool) {
	if col >= len(row) {
		return 0, false
	}
	v := strings.TrimSpace(row[col])
	if len(v) >= 4 && isYear(v[:4]) {
		year, _ := strconv.Atoi(v[:4])
		return year, true
	}
	return 0, false
}

func countNulls(t *domain.RawTable) int {
	nulls := 0
	for _, row := range t.Rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) == "" {
				nulls++
			}
		}
	}
	return nulls
}

func detectYearRange(t *domain.RawTable, col int) (minYear, maxYear int) {
	if col < 0 {
		return 0, 0
	}
	for _, row := range t.Rows {
		year, ok := rowYear(row, col)
		if !ok {
			continue
		}
		if minYear == 0 || year < minYear {
			minYear = year
		}
		if year > maxYear {
			maxYear = year
		}
	}
	return minYear, maxYear
}

func distinctCountries(t *domain.RawTable, col int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range t.Rows {
		if col >= len(row) {
			continue
		}
		v := row[col]
		if v == "" || v == domain.UnknownCountry || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func countUnknown(t *domain.RawTable, col int) int {
	if col < 0 {
		return 0
	}
	count := 0
	for _, row := range t.Rows {
		if col < len(row) && row[col] == domain.UnknownCountry {
			count++
		}
	}
	return count
}

// --- column detection ---

func findCountryColumn(t *domain.RawTable) int {
	return findColumn(t, []string{"country", "país", "pais", "ref_area", "location", "economy"})
}

func findYearColumn(t *domain.RawTable) int {
	return findColumn(t, []string{"year", "años", "año", "anio", "date", "fecha", "time_period", "time", "period"})
}

func findColumn(t *domain.RawTable, needles []string) int {
	for i, c := range t.Columns {
		lc := strings.ToLower(c)
		for _, needle := range needles {
			if strings.Contains(lc, needle) {
				return i
			}
		}
	}
	return -1
}
