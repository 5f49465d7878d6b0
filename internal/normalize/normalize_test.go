package normalize

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econ-curator/internal/config"
	"econ-curator/internal/domain"
)

func newTestNormalizer() *Normalizer {
	return New(config.DefaultCleaningRules(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func rawTable(columns []string, rows [][]string) *domain.RawTable {
	return &domain.RawTable{
		Source:  domain.SourceCEPAL,
		Columns: columns,
		Rows:    rows,
	}
}

func TestClean_DropsEmptyRowsAndColumns(t *testing.T) {
	table := rawTable(
		[]string{"country", "year", "value", "notes"},
		[][]string{
			{"Argentina", "2010", "1.5", ""},
			{"", "", "", ""},
			{"Chile", "2011", "2.5", ""},
		},
	)

	ds := newTestNormalizer().Clean(table, CleanOptions{Topic: "wages", Coverage: "latam"})

	assert.Equal(t, 2, ds.Summary.RowCount)
	assert.Equal(t, []string{"country", "year", "value"}, ds.Summary.Columns)
	assert.Contains(t, ds.Summary.Transformations[0], "drop_empty_rows: removed 1")
	assert.Contains(t, ds.Summary.Transformations[1], "drop_empty_columns: removed notes")
}

func TestClean_CountryInvariant(t *testing.T) {
	table := rawTable(
		[]string{"country", "year", "value"},
		[][]string{
			{"Argentina", "2010", "1"},
			{"Brasil", "2010", "2"},
			{"MEX", "2010", "3"},
			{"PE", "2010", "4"},
			{"Atlantis", "2010", "5"},
		},
	)

	ds := newTestNormalizer().Clean(table, CleanOptions{Topic: "wages", Coverage: "latam"})

	for _, row := range ds.Table.Rows {
		code := row[0]
		assert.True(t, len(code) == 3 && code == strings.ToUpper(code),
			"country column must hold alpha-3 codes or the unknown marker, got %q", code)
	}
	assert.Equal(t, []string{"ARG", "BRA", "MEX", "PER"}, ds.Summary.Countries)
	assert.Equal(t, 1, ds.Summary.UnknownCountries)
	assert.Equal(t, domain.UnknownCountry, ds.Table.Rows[4][0])
}

func TestClean_Idempotent(t *testing.T) {
	table := rawTable(
		[]string{"country", "year", "value"},
		[][]string{
			{"Argentina", "2010.0", "1"},
			{"", "", ""},
			{"Uruguay", "2012", "2"},
		},
	)

	n := newTestNormalizer()
	opts := CleanOptions{Topic: "wages", Coverage: "latam"}

	first := n.Clean(table, opts)
	require.NotEmpty(t, first.Summary.Transformations)

	second := n.Clean(first.Table, opts)
	assert.Empty(t, second.Summary.Transformations, "second pass over clean data must record nothing")
	assert.Equal(t, first.Summary.RowCount, second.Summary.RowCount)
	assert.Equal(t, first.Summary.Columns, second.Summary.Columns)
	assert.Equal(t, first.Summary.Countries, second.Summary.Countries)
	assert.Equal(t, first.Summary.MinYear, second.Summary.MinYear)
	assert.Equal(t, first.Summary.MaxYear, second.Summary.MaxYear)
	assert.Equal(t, first.Summary.NullCount, second.Summary.NullCount)
	assert.Equal(t, first.Name, second.Name)
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	table := rawTable(
		[]string{"country", "year", "value"},
		[][]string{{"Argentina", "2010", "1"}},
	)

	_ = newTestNormalizer().Clean(table, CleanOptions{Topic: "t", Coverage: "c"})
	assert.Equal(t, "Argentina", table.Rows[0][0], "normalizer must work on a copy")
}

func TestClean_NormalizesDates(t *testing.T) {
	table := rawTable(
		[]string{"country", "date", "value"},
		[][]string{
			{"CHL", "2015.0", "1"},
			{"CHL", "2016-03-01T00:00:00Z", "2"},
			{"CHL", "2017", "3"},
		},
	)

	ds := newTestNormalizer().Clean(table, CleanOptions{Topic: "cpi", Coverage: "chile"})

	assert.Equal(t, "2015", ds.Table.Rows[0][1])
	assert.Equal(t, "2016-03-01", ds.Table.Rows[1][1])
	assert.Equal(t, "2017", ds.Table.Rows[2][1])
	assert.Contains(t, ds.Summary.Transformations[0], "normalize_dates: canonicalized 2")
}

func TestClean_YearRangeAutodetect(t *testing.T) {
	table := rawTable(
		[]string{"country", "year", "value"},
		[][]string{
			{"ARG", "2008", "1"},
			{"ARG", "2014", "2"},
			{"ARG", "2011", "3"},
		},
	)

	ds := newTestNormalizer().Clean(table, CleanOptions{Topic: "gdp", Coverage: "latam"})

	assert.Equal(t, 2008, ds.Summary.MinYear)
	assert.Equal(t, 2014, ds.Summary.MaxYear)
	assert.Equal(t, "gdp_cepal_latam_2008_2014", ds.Name)
}

func TestClean_ExplicitYearsFilterAndName(t *testing.T) {
	table := rawTable(
		[]string{"country", "year", "value"},
		[][]string{
			{"ARG", "2005", "1"},
			{"ARG", "2012", "2"},
			{"ARG", "2021", "3"},
		},
	)

	ds := newTestNormalizer().Clean(table, CleanOptions{
		Topic: "gdp", Coverage: "latam", StartYear: 2010, EndYear: 2020,
	})

	assert.Equal(t, 1, ds.Summary.RowCount)
	assert.Equal(t, "gdp_cepal_latam_2010_2020", ds.Name)
	assert.Contains(t, ds.Summary.Transformations, "filter_years: removed 2 rows outside 2010-2020")
}

func TestClean_CountryFilter(t *testing.T) {
	table := rawTable(
		[]string{"country", "year", "value"},
		[][]string{
			{"Argentina", "2010", "1"},
			{"Chile", "2010", "2"},
			{"Perú", "2010", "3"},
		},
	)

	ds := newTestNormalizer().Clean(table, CleanOptions{
		Topic: "gdp", Coverage: "cono-sur", Countries: []string{"Argentina", "CHL"},
	})

	assert.Equal(t, 2, ds.Summary.RowCount)
	assert.Equal(t, []string{"ARG", "CHL"}, ds.Summary.Countries)
}

func TestClean_ReportsNullCount(t *testing.T) {
	table := rawTable(
		[]string{"country", "year", "value"},
		[][]string{
			{"ARG", "2010", ""},
			{"CHL", "2011", "2"},
		},
	)

	ds := newTestNormalizer().Clean(table, CleanOptions{Topic: "t", Coverage: "c"})
	assert.Equal(t, 1, ds.Summary.NullCount)
}

func TestClean_RuleTogglesRespected(t *testing.T) {
	rules := config.DefaultCleaningRules()
	rules.StandardizeCountries = false
	n := New(rules, slog.New(slog.NewTextHandler(io.Discard, nil)))

	table := rawTable(
		[]string{"country", "year", "value"},
		[][]string{{"Argentina", "2010", "1"}},
	)

	ds := n.Clean(table, CleanOptions{Topic: "t", Coverage: "c"})
	assert.Equal(t, "Argentina", ds.Table.Rows[0][0], "disabled rule must not run")
}

func TestClean_EmptyDegradedTable(t *testing.T) {
	table := domain.EmptyTable(domain.SourceIMF, map[string]string{"reference": "X"}, "imf: status 503")

	ds := newTestNormalizer().Clean(table, CleanOptions{Topic: "cpi", Coverage: "global", StartYear: 2000, EndYear: 2010})

	assert.Equal(t, 0, ds.Summary.RowCount)
	assert.Empty(t, ds.Summary.Transformations)
	assert.Equal(t, "cpi_imf_global_2000_2010", ds.Name)
}

func TestMapCountry(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantCode string
		wantOK   bool
	}{
		{"spanish_name", "Perú", "PER", true},
		{"english_name", "Brazil", "BRA", true},
		{"spanish_variant", "Brasil", "BRA", true},
		{"long_official_form", "Bolivia (Estado Plurinacional de)", "BOL", true},
		{"valid_alpha3_passthrough", "ARG", "ARG", true},
		{"lowercase_alpha3", "arg", "ARG", true},
		{"alpha2", "MX", "MEX", true},
		{"unmapped", "Atlantis", "", false},
		{"empty", "  ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := MapCountry(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}
