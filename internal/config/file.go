package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"econ-curator/internal/domain"
)

// IndicatorSpec is the YAML shape of one indicator descriptor.
type IndicatorSpec struct {
	ID          string   `yaml:"id"`
	Source      string   `yaml:"source"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Reference   string   `yaml:"reference"`
	Dataset     string   `yaml:"dataset"`
}

// FileConfig is the YAML configuration file: the indicator catalog plus
// optional overrides for cleaning rules and documenter settings.
type FileConfig struct {
	Indicators []IndicatorSpec   `yaml:"indicators"`
	Rules      *CleaningRules    `yaml:"rules"`
	Documenter *DocumenterConfig `yaml:"documenter"`
}

// LoadFile reads the YAML configuration file, merges rule and documenter
// overrides into cfg, and returns the indicator descriptors. A missing
// file is not an error — the catalog is simply empty.
func LoadFile(path string, cfg *Config) ([]domain.IndicatorDescriptor, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			cfg.Warnings = append(cfg.Warnings,
				fmt.Sprintf("config file %s not found — starting with an empty catalog", path))
			return nil, nil
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Rules != nil {
		cfg.Rules = *fc.Rules
	}
	if fc.Documenter != nil {
		if fc.Documenter.Mode != "" {
			cfg.Documenter.Mode = fc.Documenter.Mode
		}
		if fc.Documenter.ModelEndpoint != "" {
			cfg.Documenter.ModelEndpoint = fc.Documenter.ModelEndpoint
		}
		if fc.Documenter.Model != "" {
			cfg.Documenter.Model = fc.Documenter.Model
		}
		if fc.Documenter.Timeout != 0 {
			cfg.Documenter.Timeout = fc.Documenter.Timeout
		}
	}

	descriptors := make([]domain.IndicatorDescriptor, 0, len(fc.Indicators))
	for i, spec := range fc.Indicators {
		if spec.ID == "" {
			return nil, fmt.Errorf("indicator %d: id is required", i)
		}
		source := domain.Source(spec.Source)
		if !domain.ValidSource(source) {
			return nil, fmt.Errorf("indicator %q: unknown source %q", spec.ID, spec.Source)
		}
		descriptors = append(descriptors, domain.IndicatorDescriptor{
			ID:          spec.ID,
			Source:      source,
			Name:        spec.Name,
			Description: spec.Description,
			Tags:        spec.Tags,
			Reference:   spec.Reference,
			Dataset:     spec.Dataset,
		})
	}
	return descriptors, nil
}
