package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econ-curator/internal/catalog"
	"econ-curator/internal/domain"
	"econ-curator/internal/storage"
	"econ-curator/internal/testutil"
)

// mockQueue implements JobQueue with function fields.
type mockQueue struct {
	EnqueueFn  func(spec domain.JobSpec) (*domain.Job, error)
	DequeueFn  func(jobID string) error
	ClearFn    func() int
	CancelFn   func(jobID string) error
	QueueFn    func() []*domain.Job
	HistoryFn  func(limit int) []*domain.Job
	JobFn      func(jobID string) (*domain.Job, error)
	RunQueueFn func(ctx context.Context) bool
}

func (m *mockQueue) Enqueue(spec domain.JobSpec) (*domain.Job, error) { return m.EnqueueFn(spec) }
func (m *mockQueue) Dequeue(jobID string) error                       { return m.DequeueFn(jobID) }
func (m *mockQueue) Clear() int                                       { return m.ClearFn() }
func (m *mockQueue) Cancel(jobID string) error                        { return m.CancelFn(jobID) }
func (m *mockQueue) Queue() []*domain.Job                             { return m.QueueFn() }
func (m *mockQueue) History(limit int) []*domain.Job                  { return m.HistoryFn(limit) }
func (m *mockQueue) Job(jobID string) (*domain.Job, error)            { return m.JobFn(jobID) }
func (m *mockQueue) RunQueue(ctx context.Context) bool                { return m.RunQueueFn(ctx) }

var _ JobQueue = (*mockQueue)(nil)

func testCatalog() *catalog.Catalog {
	return catalog.New([]domain.IndicatorDescriptor{
		{ID: "wb-gdp", Source: domain.SourceWorldBank, Name: "GDP (current US$)",
			Tags: []string{"growth"}, Reference: "NY.GDP.MKTP.CD"},
		{ID: "cepal-wages", Source: domain.SourceCEPAL, Name: "Mean wages",
			Tags: []string{"labour"}, Reference: "2444"},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestHandler(t *testing.T, queue JobQueue) *Handler {
	t.Helper()
	store, err := storage.New(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return NewHandler(queue, testCatalog(), store,
		&testutil.MockDatasetRepo{}, &testutil.MockAuditRepo{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serve(h *Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.Router([]string{"*"}).ServeHTTP(w, r)
	return w
}

func TestHandleEnqueue(t *testing.T) {
	var gotSpec domain.JobSpec
	queue := &mockQueue{EnqueueFn: func(spec domain.JobSpec) (*domain.Job, error) {
		gotSpec = spec
		return &domain.Job{ID: "job-1", Spec: spec, Status: domain.JobStatusQueued}, nil
	}}
	h := newTestHandler(t, queue)

	body := `{"source":"worldbank","indicator_ref":"NY.GDP.MKTP.CD","topic":"gdp","coverage":"latam","start_year":2010,"end_year":2020}`
	w := serve(h, httptest.NewRequest(http.MethodPost, "/v1/jobs", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, domain.SourceWorldBank, gotSpec.Source)
	assert.Equal(t, 2010, gotSpec.StartYear)

	var job domain.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, "job-1", job.ID)
}

func TestHandleEnqueue_Errors(t *testing.T) {
	queue := &mockQueue{EnqueueFn: func(spec domain.JobSpec) (*domain.Job, error) {
		return nil, domain.ErrValidation("unknown source %q", spec.Source)
	}}
	h := newTestHandler(t, queue)

	w := serve(h, httptest.NewRequest(http.MethodPost, "/v1/jobs", bytes.NewBufferString("{not json")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(h, httptest.NewRequest(http.MethodPost, "/v1/jobs",
		bytes.NewBufferString(`{"source":"nope"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown source")
}

func TestHandleQueueAndHistory(t *testing.T) {
	queue := &mockQueue{
		QueueFn: func() []*domain.Job {
			return []*domain.Job{{ID: "a", Status: domain.JobStatusIngesting}}
		},
		HistoryFn: func(limit int) []*domain.Job {
			if limit == 5 {
				return []*domain.Job{{ID: "b", Status: domain.JobStatusComplete}}
			}
			return nil
		},
	}
	h := newTestHandler(t, queue)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/v1/jobs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ingesting"`)

	w = serve(h, httptest.NewRequest(http.MethodGet, "/v1/jobs/history?limit=5", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"complete"`)

	w = serve(h, httptest.NewRequest(http.MethodGet, "/v1/jobs/history?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleJobLifecycleRoutes(t *testing.T) {
	queue := &mockQueue{
		JobFn: func(jobID string) (*domain.Job, error) {
			return nil, domain.ErrNotFound("job %s not found", jobID)
		},
		CancelFn: func(jobID string) error {
			return domain.ErrConflict("job %s already finished", jobID)
		},
		DequeueFn:  func(jobID string) error { return nil },
		ClearFn:    func() int { return 3 },
		RunQueueFn: func(ctx context.Context) bool { return true },
	}
	h := newTestHandler(t, queue)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/v1/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(h, httptest.NewRequest(http.MethodPost, "/v1/jobs/done/cancel", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(h, httptest.NewRequest(http.MethodDelete, "/v1/jobs/queued", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(h, httptest.NewRequest(http.MethodDelete, "/v1/jobs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"removed":3`)

	w = serve(h, httptest.NewRequest(http.MethodPost, "/v1/queue/run", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"started":true`)
}

func TestHandleIndicators(t *testing.T) {
	h := newTestHandler(t, &mockQueue{})

	w := serve(h, httptest.NewRequest(http.MethodGet, "/v1/indicators?q=wages", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cepal-wages")
	assert.NotContains(t, w.Body.String(), "wb-gdp")

	w = serve(h, httptest.NewRequest(http.MethodGet, "/v1/indicators?source=worldbank", nil))
	assert.Contains(t, w.Body.String(), "wb-gdp")

	w = serve(h, httptest.NewRequest(http.MethodGet, "/v1/indicators?source=nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(h, httptest.NewRequest(http.MethodGet, "/v1/indicators?tag=labour", nil))
	assert.Contains(t, w.Body.String(), "cepal-wages")

	w = serve(h, httptest.NewRequest(http.MethodGet, "/v1/indicators", nil))
	assert.Contains(t, w.Body.String(), "wb-gdp")
	assert.Contains(t, w.Body.String(), "cepal-wages")

	w = serve(h, httptest.NewRequest(http.MethodGet, "/v1/indicators/tags", nil))
	assert.Contains(t, w.Body.String(), "growth")

	w = serve(h, httptest.NewRequest(http.MethodGet, "/v1/indicators/sources", nil))
	assert.Contains(t, w.Body.String(), "worldbank")
}

func TestHandleDatasets(t *testing.T) {
	h := newTestHandler(t, &mockQueue{})

	// Stored CSV plus registry row, served back as JSON rows.
	_, err := h.store.SaveDataset(&domain.CleanedDataset{
		Name: "gdp_worldbank_latam_2010_2020", Topic: "gdp",
		Table: &domain.RawTable{
			Columns: []string{"country", "year", "value"},
			Rows:    [][]string{{"ARG", "2010", "1"}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, h.datasets.Insert(context.Background(), &domain.DatasetRecord{
		ID: domain.NewID(), Name: "gdp_worldbank_latam_2010_2020", Topic: "gdp",
		Source: domain.SourceWorldBank, CreatedAt: time.Now(),
	}))

	repo := h.datasets.(*testutil.MockDatasetRepo)
	repo.GetByNameFn = func(ctx context.Context, name string) (*domain.DatasetRecord, error) {
		if name == "gdp_worldbank_latam_2010_2020" {
			return repo.Records[0], nil
		}
		return nil, domain.ErrNotFound("dataset %s not found", name)
	}

	w := serve(h, httptest.NewRequest(http.MethodGet, "/v1/datasets", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gdp_worldbank_latam_2010_2020")

	w = serve(h, httptest.NewRequest(http.MethodGet, "/v1/datasets/gdp_worldbank_latam_2010_2020/rows", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var rows datasetRowsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Equal(t, []string{"country", "year", "value"}, rows.Columns)
	assert.Equal(t, [][]string{{"ARG", "2010", "1"}}, rows.Rows)

	w = serve(h, httptest.NewRequest(http.MethodGet, "/v1/datasets/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleAudit(t *testing.T) {
	h := newTestHandler(t, &mockQueue{})
	require.NoError(t, h.audit.Insert(context.Background(), &domain.AuditEntry{
		ID: "e1", JobID: "job-1", Action: "job_completed", Status: "ok",
	}))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/v1/audit", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "job_completed")
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, &mockQueue{})
	w := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProgressHub_PublishAndDrop(t *testing.T) {
	hub := newProgressHub()
	ch := hub.subscribe()
	defer hub.unsubscribe(ch)

	hub.publish(ProgressEvent{JobID: "a", Step: "ingesting", Percent: 25})
	event := <-ch
	assert.Equal(t, "a", event.JobID)
	assert.Equal(t, 25, event.Percent)

	// A full subscriber drops events instead of blocking the publisher.
	for i := 0; i < 32; i++ {
		hub.publish(ProgressEvent{JobID: "b", Step: "cleaning", Percent: 50})
	}
}

func TestHandleProgress_Streams(t *testing.T) {
	h := newTestHandler(t, &mockQueue{})
	server := httptest.NewServer(h.Router([]string{"*"}))
	defer server.Close()

	resp, err := http.Get(server.URL + "/v1/progress")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Wait for the subscription, then emit one event.
	require.Eventually(t, func() bool {
		h.progress.mu.Lock()
		defer h.progress.mu.Unlock()
		return len(h.progress.subs) == 1
	}, time.Second, 5*time.Millisecond)
	h.Progress("job-1", domain.JobStatusCleaning, 50)

	scanner := bufio.NewScanner(resp.Body)
	require.True(t, scanner.Scan())
	line := scanner.Text()
	assert.True(t, strings.HasPrefix(line, "data: "), "got %q", line)

	var event ProgressEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
	assert.Equal(t, "job-1", event.JobID)
	assert.Equal(t, "cleaning", event.Step)
	assert.Equal(t, 50, event.Percent)
}
