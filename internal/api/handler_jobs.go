package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"econ-curator/internal/domain"
)

// enqueueRequest mirrors domain.JobSpec on the wire.
type enqueueRequest struct {
	Source       string   `json:"source"`
	IndicatorRef string   `json:"indicator_ref"`
	Topic        string   `json:"topic"`
	Coverage     string   `json:"coverage"`
	Countries    []string `json:"countries,omitempty"`
	StartYear    int      `json:"start_year,omitempty"`
	EndYear      int      `json:"end_year,omitempty"`
}

func (h *Handler) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	job, err := h.queue.Enqueue(domain.JobSpec{
		Source:       domain.Source(req.Source),
		IndicatorRef: req.IndicatorRef,
		Topic:        req.Topic,
		Coverage:     req.Coverage,
		Countries:    req.Countries,
		StartYear:    req.StartYear,
		EndYear:      req.EndYear,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (h *Handler) handleQueue(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.queue.Queue())
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, domain.ErrValidation("invalid limit %q", raw))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, h.queue.History(limit))
}

func (h *Handler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.queue.Job(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *Handler) handleDequeue(w http.ResponseWriter, r *http.Request) {
	if err := h.queue.Dequeue(chi.URLParam(r, "jobID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.queue.Cancel(chi.URLParam(r, "jobID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClear(w http.ResponseWriter, _ *http.Request) {
	removed := h.queue.Clear()
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (h *Handler) handleRunQueue(w http.ResponseWriter, _ *http.Request) {
	// The worker outlives this request; it must not inherit its context.
	started := h.queue.RunQueue(context.Background())
	writeJSON(w, http.StatusAccepted, map[string]bool{"started": started})
}
