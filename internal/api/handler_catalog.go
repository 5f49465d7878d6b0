package api

import (
	"net/http"

	"econ-curator/internal/domain"
)

// handleIndicators answers the three catalog query shapes: free-text
// search (?q=), exact source filter (?source=), and exact tag filter
// (?tag=). With no parameters it lists the full catalog.
func (h *Handler) handleIndicators(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch {
	case q.Get("q") != "":
		writeJSON(w, http.StatusOK, h.catalog.Search(q.Get("q")))
	case q.Get("source") != "":
		source := domain.Source(q.Get("source"))
		if !domain.ValidSource(source) {
			writeError(w, domain.ErrValidation("unknown source %q", source))
			return
		}
		writeJSON(w, http.StatusOK, h.catalog.BySource(source))
	case q.Get("tag") != "":
		writeJSON(w, http.StatusOK, h.catalog.ByTag(q.Get("tag")))
	default:
		writeJSON(w, http.StatusOK, h.catalog.All())
	}
}

func (h *Handler) handleTags(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Tags())
}

func (h *Handler) handleSources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Sources())
}
