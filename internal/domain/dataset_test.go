package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatasetName_Deterministic(t *testing.T) {
	a := DatasetName("wages", "demo", "latam", 2010, 2020)
	b := DatasetName("wages", "demo", "latam", 2010, 2020)
	assert.Equal(t, a, b)
	assert.Equal(t, "wages_demo_latam_2010_2020", a)
}

func TestDatasetName_Slugified(t *testing.T) {
	got := DatasetName("Minimum Wages", SourceCEPAL, "Latin America", 2000, 2023)
	assert.Equal(t, "minimum-wages_cepal_latin-america_2000_2023", got)
}

func TestSplitReference(t *testing.T) {
	tests := []struct {
		name       string
		ref        string
		wantFamily string
		wantCode   string
	}{
		{"combined", "IFS.PCPI_IX", "IFS", "PCPI_IX"},
		{"multi_dot_splits_on_first", "NY.GDP.PCAP.CD", "NY", "GDP.PCAP.CD"},
		{"bare_code", "PCPI_IX", "", "PCPI_IX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			family, code := SplitReference(tt.ref)
			assert.Equal(t, tt.wantFamily, family)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}
