package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"econ-curator/internal/domain"
)

func (h *Handler) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	if h.datasets == nil {
		writeError(w, domain.ErrNotFound("dataset registry disabled"))
		return
	}
	limit := parseLimit(r, 100)
	records, err := h.datasets.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	if h.datasets == nil {
		writeError(w, domain.ErrNotFound("dataset registry disabled"))
		return
	}
	rec, err := h.datasets.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type datasetRowsResponse struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// handleDatasetRows serves the stored CSV back as JSON. The registry row
// resolves the topic directory for the file lookup.
func (h *Handler) handleDatasetRows(w http.ResponseWriter, r *http.Request) {
	if h.datasets == nil {
		writeError(w, domain.ErrNotFound("dataset registry disabled"))
		return
	}
	name := chi.URLParam(r, "name")
	rec, err := h.datasets.GetByName(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	columns, rows, err := h.store.ReadDataset(rec.Topic, name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, datasetRowsResponse{Columns: columns, Rows: rows})
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeError(w, domain.ErrNotFound("audit log disabled"))
		return
	}
	entries, err := h.audit.ListRecent(r.Context(), parseLimit(r, 100))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
