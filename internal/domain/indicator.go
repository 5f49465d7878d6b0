package domain

import "strings"

// Source identifies an upstream statistical system.
type Source string

// Known upstream sources.
const (
	SourceWorldBank Source = "worldbank"
	SourceIMF       Source = "imf"
	SourceOECD      Source = "oecd"
	SourceCEPAL     Source = "cepal"
	SourceDataHub   Source = "datahub"
	SourceLocal     Source = "local"
)

// KnownSources lists every registered upstream source in display order.
func KnownSources() []Source {
	return []Source{
		SourceWorldBank,
		SourceIMF,
		SourceOECD,
		SourceCEPAL,
		SourceDataHub,
		SourceLocal,
	}
}

// ValidSource reports whether s names a known upstream source.
func ValidSource(s Source) bool {
	for _, known := range KnownSources() {
		if s == known {
			return true
		}
	}
	return false
}

// IndicatorDescriptor describes one fetchable indicator. Immutable once
// loaded from configuration; the catalog owns the collection.
type IndicatorDescriptor struct {
	ID          string   `json:"id"`
	Source      Source   `json:"source"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	// Source-specific fetch parameters. Reference is either a combined
	// "FAMILY.CODE" string or a bare code, depending on the source;
	// Dataset carries the family part when the configuration splits them.
	Reference string `json:"reference"`
	Dataset   string `json:"dataset,omitempty"`
}

// SplitReference splits a combined "FAMILY.CODE" reference on the first
// separator. When the reference has no separator, the family is empty and
// the code is the whole reference. Indicator configuration has historically
// mixed both conventions, so both forms must be accepted.
func SplitReference(ref string) (family, code string) {
	if fam, c, ok := strings.Cut(ref, "."); ok {
		return fam, c
	}
	return "", ref
}
