package document

import (
	"fmt"
	"strings"

	"econ-curator/internal/domain"
)

// renderTemplate deterministically renders the metadata document from the
// summary fields, with no external call. It covers the same sections model
// mode is prompted for: overview, data summary, applied transformations,
// and source attribution.
func renderTemplate(topic string, source domain.Source, summary domain.DataSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", topic)

	// Overview
	b.WriteString("## Overview\n\n")
	if summary.RowCount == 0 {
		fmt.Fprintf(&b, "This dataset for **%s** from `%s` is empty — the upstream fetch returned no usable rows. ", topic, source)
		b.WriteString("Treat the absence of data as a signal: the source may have been unavailable or the query too narrow.\n\n")
	} else {
		fmt.Fprintf(&b, "This dataset covers **%s**, curated from `%s`. ", topic, source)
		fmt.Fprintf(&b, "It holds %d observations", summary.RowCount)
		if len(summary.Countries) > 0 {
			fmt.Fprintf(&b, " across %d countries", len(summary.Countries))
		}
		if summary.MinYear != 0 && summary.MaxYear != 0 {
			fmt.Fprintf(&b, " spanning %d–%d", summary.MinYear, summary.MaxYear)
		}
		b.WriteString(".\n\n")
	}

	// Data summary
	b.WriteString("## Data summary\n\n")
	fmt.Fprintf(&b, "- Rows: %d\n", summary.RowCount)
	fmt.Fprintf(&b, "- Columns: %s\n", strings.Join(summary.Columns, ", "))
	if len(summary.Countries) > 0 {
		fmt.Fprintf(&b, "- Countries: %s\n", strings.Join(summary.Countries, ", "))
	}
	if summary.UnknownCountries > 0 {
		fmt.Fprintf(&b, "- Unmapped country values: %d (kept as the explicit unknown marker)\n", summary.UnknownCountries)
	}
	if summary.MinYear != 0 && summary.MaxYear != 0 {
		fmt.Fprintf(&b, "- Year range: %d–%d\n", summary.MinYear, summary.MaxYear)
	}
	fmt.Fprintf(&b, "- Missing values: %d\n", summary.NullCount)
	b.WriteString("\n")

	// Applied transformations
	b.WriteString("## Applied transformations\n\n")
	if len(summary.Transformations) == 0 {
		b.WriteString("No transformations were required — the source data already satisfied the standardization rules.\n")
	} else {
		for _, t := range summary.Transformations {
			fmt.Fprintf(&b, "1. %s\n", t)
		}
	}
	b.WriteString("\n")

	// Source attribution
	b.WriteString("## Source\n\n")
	fmt.Fprintf(&b, "Retrieved from `%s` and standardized by the curation pipeline. ", source)
	b.WriteString("Country identifiers follow ISO-3166-1 alpha-3; dates are ISO dates or bare four-digit years.\n")

	return b.String()
}
