package domain

// Generation modes recorded on a metadata document.
const (
	GeneratedByModel    = "model"
	GeneratedByTemplate = "template"
)

// MetadataDocument is the human-readable markdown describing a cleaned
// dataset's coverage, quality, and provenance.
type MetadataDocument struct {
	Markdown    string `json:"markdown"`
	CacheKey    string `json:"cache_key"`
	GeneratedBy string `json:"generated_by"`

	// CacheHit is true when the document was served from the
	// content-addressed cache without invoking generation.
	CacheHit bool `json:"cache_hit"`
}
