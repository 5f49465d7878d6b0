package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"econ-curator/internal/domain"
)

// ProgressEvent is one step transition on the wire.
type ProgressEvent struct {
	JobID   string `json:"job_id"`
	Step    string `json:"step"`
	Percent int    `json:"percent"`
}

// progressHub fans orchestrator progress callbacks out to event-stream
// subscribers. A slow subscriber drops events rather than blocking the
// worker goroutine.
type progressHub struct {
	mu   sync.Mutex
	subs map[chan ProgressEvent]struct{}
}

func newProgressHub() *progressHub {
	return &progressHub{subs: make(map[chan ProgressEvent]struct{})}
}

func (h *progressHub) subscribe() chan ProgressEvent {
	ch := make(chan ProgressEvent, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *progressHub) unsubscribe(ch chan ProgressEvent) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

func (h *progressHub) publish(event ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Progress adapts the orchestrator progress callback into the event
// stream. Register it as Deps.OnProgress.
func (h *Handler) Progress(jobID string, step domain.JobStatus, percent int) {
	h.progress.publish(ProgressEvent{JobID: jobID, Step: string(step), Percent: percent})
}

// Subscribe returns a progress event channel and its cancel function.
// The CLI uses this directly; HTTP clients get the same feed over SSE.
func (h *Handler) Subscribe() (<-chan ProgressEvent, func()) {
	ch := h.progress.subscribe()
	return ch, func() { h.progress.unsubscribe(ch) }
}

// handleProgress streams progress events as server-sent events until the
// client disconnects.
func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.progress.subscribe()
	defer h.progress.unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-ch:
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
