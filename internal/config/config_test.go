package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econ-curator/internal/domain"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"DATA_DIR", "META_DB_PATH", "LISTEN_ADDR", "LOG_LEVEL", "ENV", "DOCUMENTER_MODE", "HISTORY_LIMIT", "FETCH_TIMEOUT", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "curator_meta.sqlite", cfg.MetaDBPath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "template", cfg.Documenter.Mode)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.Rules.DropEmptyRows)
	assert.True(t, cfg.Rules.StandardizeCountries)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATA_DIR", "/tmp/curated")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HISTORY_LIMIT", "25")
	t.Setenv("DOCUMENTER_MODE", "model")
	t.Setenv("MODEL_ENDPOINT", "http://localhost:11434/v1")
	t.Setenv("MODEL_NAME", "llama3")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/curated", cfg.DataDir)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 25, cfg.HistoryLimit)
	assert.Equal(t, "model", cfg.Documenter.Mode)
	assert.Equal(t, "llama3", cfg.Documenter.Model)
}

func TestLoadFromEnv_ModelModeWithoutEndpointWarns(t *testing.T) {
	t.Setenv("DOCUMENTER_MODE", "model")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "template", cfg.Documenter.Mode)
	assert.NotEmpty(t, cfg.Warnings)
}

func TestLoadFromEnv_InvalidMode(t *testing.T) {
	t.Setenv("DOCUMENTER_MODE", "oracle")
	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFromEnv_ProductionRejectsWildcardCORS(t *testing.T) {
	t.Setenv("ENV", "production")
	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "curator.yaml")
	content := `
indicators:
  - id: wb-gdp-pc
    source: worldbank
    name: GDP per capita
    description: GDP per capita, current US$
    tags: [gdp, income]
    reference: NY.GDP.PCAP.CD
  - id: imf-cpi
    source: imf
    name: Consumer price index
    tags: [prices, inflation]
    reference: IFS.PCPI_IX
rules:
  drop_empty_rows: true
  drop_empty_columns: false
  standardize_countries: true
  normalize_dates: true
  report_missing: true
  detect_year_range: true
documenter:
  mode: template
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := &Config{Rules: DefaultCleaningRules(), Documenter: DocumenterConfig{Mode: "template"}}
	descriptors, err := LoadFile(path, cfg)
	require.NoError(t, err)

	require.Len(t, descriptors, 2)
	assert.Equal(t, "wb-gdp-pc", descriptors[0].ID)
	assert.Equal(t, domain.SourceWorldBank, descriptors[0].Source)
	assert.Equal(t, []string{"gdp", "income"}, descriptors[0].Tags)
	assert.False(t, cfg.Rules.DropEmptyColumns)
}

func TestLoadFile_MissingIsEmptyCatalog(t *testing.T) {
	cfg := &Config{Rules: DefaultCleaningRules()}
	descriptors, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), cfg)
	require.NoError(t, err)
	assert.Empty(t, descriptors)
	assert.NotEmpty(t, cfg.Warnings)
}

func TestLoadFile_UnknownSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "curator.yaml")
	require.NoError(t, os.WriteFile(path, []byte("indicators:\n  - id: x\n    source: eurostat\n"), 0o600))

	cfg := &Config{Rules: DefaultCleaningRules()}
	_, err := LoadFile(path, cfg)
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nCURATOR_TEST_KEY=\"hello\"\n\nBADLINE\n"), 0o600))

	t.Setenv("CURATOR_TEST_KEY", "")
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "hello", os.Getenv("CURATOR_TEST_KEY"))

	// Missing file is not an error.
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "absent.env")))
}
