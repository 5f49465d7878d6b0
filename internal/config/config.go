// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// CleaningRules toggles the individual standardization rules. Rules run in
// a fixed order regardless of which are enabled.
type CleaningRules struct {
	DropEmptyRows        bool `yaml:"drop_empty_rows"`
	DropEmptyColumns     bool `yaml:"drop_empty_columns"`
	StandardizeCountries bool `yaml:"standardize_countries"`
	NormalizeDates       bool `yaml:"normalize_dates"`
	ReportMissing        bool `yaml:"report_missing"`
	DetectYearRange      bool `yaml:"detect_year_range"`
}

// DefaultCleaningRules enables every rule.
func DefaultCleaningRules() CleaningRules {
	return CleaningRules{
		DropEmptyRows:        true,
		DropEmptyColumns:     true,
		StandardizeCountries: true,
		NormalizeDates:       true,
		ReportMissing:        true,
		DetectYearRange:      true,
	}
}

// DocumenterConfig holds metadata-generation settings.
type DocumenterConfig struct {
	// Mode selects "model" or "template" generation. Model mode still
	// falls back to template when the backend call fails.
	Mode string `yaml:"mode"`

	// ModelEndpoint is the base URL of an OpenAI-compatible
	// chat-completions API. The key comes from MODEL_API_KEY.
	ModelEndpoint string        `yaml:"model_endpoint"`
	Model         string        `yaml:"model"`
	APIKey        string        `yaml:"-"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Config holds the configuration for the curation pipeline.
type Config struct {
	DataDir      string // root for datasets/docs/raw/cache/queue trees (default "data")
	MetaDBPath   string // path to SQLite registry file (default "curator_meta.sqlite")
	ConfigFile   string // YAML file with indicators, rules, documenter settings
	ListenAddr   string // HTTP listen address (default ":8080")
	LogLevel     string // log level: debug, info, warn, error (default "info")
	Env          string // environment: "development" (default) or "production"
	RefreshCron  string // optional cron expression for scheduled queue refresh
	HistoryLimit int    // terminal jobs retained in history (default 100)

	// Upstream fetch behavior.
	FetchTimeout time.Duration // per-request timeout (default 30s)
	FetchRPS     float64       // per-source sustained requests per second (default 2)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	Rules      CleaningRules
	Documenter DocumenterConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables. Indicator
// descriptors and rule toggles come from the YAML file (see LoadFile);
// everything here has a working default so the app can start bare.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DataDir:     os.Getenv("DATA_DIR"),
		MetaDBPath:  os.Getenv("META_DB_PATH"),
		ConfigFile:  os.Getenv("CURATOR_CONFIG"),
		ListenAddr:  os.Getenv("LISTEN_ADDR"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		Env:         os.Getenv("ENV"),
		RefreshCron: os.Getenv("REFRESH_CRON"),
		Rules:       DefaultCleaningRules(),
	}

	if v := os.Getenv("HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.FetchTimeout = d
		}
	}
	if v := os.Getenv("FETCH_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.FetchRPS = f
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	cfg.Documenter = DocumenterConfig{
		Mode:          os.Getenv("DOCUMENTER_MODE"),
		ModelEndpoint: os.Getenv("MODEL_ENDPOINT"),
		Model:         os.Getenv("MODEL_NAME"),
		APIKey:        os.Getenv("MODEL_API_KEY"),
	}
	if v := os.Getenv("MODEL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Documenter.Timeout = d
		}
	}

	// Defaults
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "curator_meta.sqlite"
	}
	if cfg.ConfigFile == "" {
		cfg.ConfigFile = "curator.yaml"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = 100
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.FetchRPS == 0 {
		cfg.FetchRPS = 2
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Documenter.Mode == "" {
		cfg.Documenter.Mode = "template"
	}
	if cfg.Documenter.Timeout == 0 {
		cfg.Documenter.Timeout = 60 * time.Second
	}

	switch cfg.Documenter.Mode {
	case "model", "template":
	default:
		return nil, fmt.Errorf("DOCUMENTER_MODE must be \"model\" or \"template\", got %q", cfg.Documenter.Mode)
	}
	if cfg.Documenter.Mode == "model" && cfg.Documenter.ModelEndpoint == "" {
		cfg.Documenter.Mode = "template"
		cfg.Warnings = append(cfg.Warnings, "DOCUMENTER_MODE=model but MODEL_ENDPOINT not set — falling back to template mode")
	}

	// Production mode: wildcard CORS is a fatal error, matching the rest of
	// the platform's posture.
	if cfg.IsProduction() {
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines must be in KEY=VALUE format. Comments (#) and blank
// lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
