// Package orchestrator sequences adapter, normalizer, and documenter work
// as durable FIFO jobs with progress reporting, cancellation, and
// per-job failure isolation.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"econ-curator/internal/adapter"
	"econ-curator/internal/domain"
	"econ-curator/internal/normalize"
)

// ProgressFunc is invoked after each step transition with the job ID, the
// step just entered (or "complete"), and a 0-100 percentage. It is the
// single seam display layers use; it runs on the worker goroutine, so
// implementations must not block.
type ProgressFunc func(jobID string, step domain.JobStatus, percent int)

// CompleteFunc is invoked once per job when it reaches a terminal state.
type CompleteFunc func(job *domain.Job)

// Fetcher retrieves raw data for a source. Satisfied by *adapter.Registry:
// fetch failures never surface as errors, only as annotated empty tables.
type Fetcher interface {
	Fetch(ctx context.Context, source domain.Source, req adapter.FetchRequest) *domain.RawTable
}

// Cleaner standardizes a raw table. Satisfied by *normalize.Normalizer.
type Cleaner interface {
	Clean(table *domain.RawTable, opts normalize.CleanOptions) *domain.CleanedDataset
}

// DocumentProducer generates the metadata document for a cleaned dataset
// summary. Satisfied by *document.Documenter: generation never errors.
type DocumentProducer interface {
	Document(ctx context.Context, topic string, source domain.Source,
		summary domain.DataSummary, force bool) *domain.MetadataDocument
}

// ArtifactStore writes curated artifacts. Satisfied by *storage.Store.
type ArtifactStore interface {
	SaveDataset(ds *domain.CleanedDataset) (string, error)
	SaveDocument(topic, name, markdown string) (string, error)
	ArchiveRaw(name string, table *domain.RawTable) (string, error)
}

// Deps carries the orchestrator's collaborators. Datasets and Audit are
// optional: a nil repository skips registry/audit recording.
type Deps struct {
	Store      QueueStore
	Fetcher    Fetcher
	Cleaner    Cleaner
	Documenter DocumentProducer
	Artifacts  ArtifactStore
	Datasets   domain.DatasetRepository
	Audit      domain.AuditRepository

	HistoryLimit int
	OnProgress   ProgressFunc
	OnComplete   CompleteFunc
	Logger       *slog.Logger
}

// Orchestrator owns the job queue and its single background worker. A
// mutex guards the queue-and-history structure against concurrent reads
// from status-polling callers; only one worker ever mutates job state.
type Orchestrator struct {
	deps Deps

	mu        sync.Mutex
	queue     []*domain.Job
	history   []*domain.Job
	cancelled map[string]bool // cooperative per-job cancellation flags
	active    string          // ID of the job the worker has claimed but not finished
	running   bool
	idle      chan struct{} // closed when the current worker drains
}

// New loads persisted state and returns a ready orchestrator. Jobs that
// were mid-step when the process died are returned to the queue head in
// queued state: re-running is safe because dataset names are
// deterministic.
func New(deps Deps) (*Orchestrator, error) {
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = 100
	}

	state, err := deps.Store.Load()
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		deps:      deps,
		history:   state.History,
		cancelled: make(map[string]bool),
	}
	for _, job := range state.Queue {
		if !job.Status.IsTerminal() && job.Status != domain.JobStatusQueued {
			deps.Logger.Warn("requeueing job interrupted by restart",
				"job_id", job.ID, "status", job.Status)
			job.Status = domain.JobStatusQueued
			job.StartedAt = nil
		}
		o.queue = append(o.queue, job)
	}
	return o, nil
}

// Enqueue validates a spec, appends a queued job, and persists the full
// state before returning. It never blocks on job execution.
func (o *Orchestrator) Enqueue(spec domain.JobSpec) (*domain.Job, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	job := &domain.Job{
		ID:        domain.NewID(),
		Spec:      spec,
		Status:    domain.JobStatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	o.mu.Lock()
	o.queue = append(o.queue, job)
	o.persistLocked()
	o.mu.Unlock()

	o.audit(job.ID, "job_enqueued", "ok", fmt.Sprintf("%s %s", spec.Source, spec.IndicatorRef))
	o.deps.Logger.Info("job enqueued", "job_id", job.ID, "source", spec.Source, "topic", spec.Topic)
	return job.Clone(), nil
}

// Dequeue removes a not-yet-started job from the queue.
func (o *Orchestrator) Dequeue(jobID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, job := range o.queue {
		if job.ID != jobID {
			continue
		}
		if job.Status != domain.JobStatusQueued || job.ID == o.active {
			return domain.ErrConflict("job %s already started (%s)", jobID, job.Status)
		}
		o.queue = append(o.queue[:i], o.queue[i+1:]...)
		o.persistLocked()
		return nil
	}
	return domain.ErrNotFound("job %s not found in queue", jobID)
}

// Clear removes all not-yet-started jobs and returns how many were removed.
func (o *Orchestrator) Clear() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	kept := o.queue[:0]
	removed := 0
	for _, job := range o.queue {
		if job.Status == domain.JobStatusQueued && job.ID != o.active {
			removed++
			continue
		}
		kept = append(kept, job)
	}
	o.queue = kept
	if removed > 0 {
		o.persistLocked()
	}
	return removed
}

// Cancel marks a job for cancellation. A queued job is cancelled
// immediately without ever invoking an adapter; a running job is flagged
// and cancels cooperatively at its next step boundary — an in-flight
// fetch is allowed to complete first.
func (o *Orchestrator) Cancel(jobID string) error {
	o.mu.Lock()

	for _, job := range o.queue {
		if job.ID != jobID {
			continue
		}
		if job.Status == domain.JobStatusQueued && job.ID != o.active {
			o.finishLocked(job, domain.JobStatusCancelled, nil)
			o.mu.Unlock()
			o.audit(jobID, "job_cancelled", "ok", "cancelled before start")
			o.notifyComplete(job)
			return nil
		}
		// Claimed or already stepping: the worker owns the job, so it
		// cancels cooperatively at the next boundary.
		o.cancelled[jobID] = true
		o.mu.Unlock()
		o.deps.Logger.Info("cancellation requested for running job", "job_id", jobID)
		return nil
	}

	for _, job := range o.history {
		if job.ID == jobID {
			o.mu.Unlock()
			return domain.ErrConflict("job %s already finished (%s)", jobID, job.Status)
		}
	}
	o.mu.Unlock()
	return domain.ErrNotFound("job %s not found", jobID)
}

// Queue returns a snapshot of the active queue, including the job the
// worker is currently executing.
func (o *Orchestrator) Queue() []*domain.Job {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]*domain.Job, len(o.queue))
	for i, job := range o.queue {
		out[i] = job.Clone()
	}
	return out
}

// History returns the most recent terminal jobs, newest first.
func (o *Orchestrator) History(limit int) []*domain.Job {
	o.mu.Lock()
	defer o.mu.Unlock()

	if limit <= 0 || limit > len(o.history) {
		limit = len(o.history)
	}
	out := make([]*domain.Job, 0, limit)
	for i := len(o.history) - 1; i >= len(o.history)-limit; i-- {
		out = append(out, o.history[i].Clone())
	}
	return out
}

// Job returns one job from the queue or history.
func (o *Orchestrator) Job(jobID string) (*domain.Job, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, job := range o.queue {
		if job.ID == jobID {
			return job.Clone(), nil
		}
	}
	for _, job := range o.history {
		if job.ID == jobID {
			return job.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound("job %s not found", jobID)
}

// RunQueue starts the single background worker. Calling it while the
// worker is already running is a no-op; it reports whether a new worker
// was started. Queued items are processed one at a time in FIFO order —
// upstream APIs are rate-sensitive and ordering determinism matters for
// reproducible runs.
func (o *Orchestrator) RunQueue(ctx context.Context) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return false
	}
	o.running = true
	o.idle = make(chan struct{})
	go o.work(ctx, o.idle)
	return true
}

// Wait blocks until the current worker drains the queue. It returns
// immediately when no worker is running.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	idle := o.idle
	running := o.running
	o.mu.Unlock()

	if running {
		<-idle
	}
}

func (o *Orchestrator) work(ctx context.Context, idle chan struct{}) {
	for {
		job := o.nextQueued()
		if job == nil {
			o.mu.Lock()
			o.running = false
			o.mu.Unlock()
			close(idle)
			return
		}
		o.runJob(ctx, job)
	}
}

// nextQueued claims the oldest queued job. The claim is taken under the
// same lock Cancel and Dequeue use, so a job the worker is about to run
// can no longer be cancelled or removed through the not-yet-started path.
func (o *Orchestrator) nextQueued() *domain.Job {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, job := range o.queue {
		if job.Status == domain.JobStatusQueued {
			o.active = job.ID
			return job
		}
	}
	o.active = ""
	return nil
}

// runJob executes one job through ingest, clean, and document. Any
// failure — including a panic — is isolated to this job: it lands in
// history as failed and the worker advances to the next item.
func (o *Orchestrator) runJob(ctx context.Context, job *domain.Job) {
	logger := o.deps.Logger.With("job_id", job.ID, "source", job.Spec.Source, "topic", job.Spec.Topic)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", "panic", r)
			o.fail(job, fmt.Sprintf("panic: %v", r))
		}
	}()

	// Ingest.
	if o.cancelIfRequested(job) {
		return
	}
	if !o.advance(job, domain.JobStatusIngesting, domain.ProgressIngesting) {
		return
	}
	req := adapter.FetchRequest{
		Reference: job.Spec.IndicatorRef,
		Countries: job.Spec.Countries,
		StartYear: job.Spec.StartYear,
		EndYear:   job.Spec.EndYear,
	}
	raw := o.deps.Fetcher.Fetch(ctx, job.Spec.Source, req)
	if raw.ErrorNote != "" {
		logger.Warn("fetch degraded, continuing with empty table", "note", raw.ErrorNote)
	}

	// Clean.
	if o.cancelIfRequested(job) {
		return
	}
	if !o.advance(job, domain.JobStatusCleaning, domain.ProgressCleaning) {
		return
	}
	cleaned := o.deps.Cleaner.Clean(raw, normalize.CleanOptions{
		Topic:     job.Spec.Topic,
		Coverage:  job.Spec.Coverage,
		Countries: job.Spec.Countries,
		StartYear: job.Spec.StartYear,
		EndYear:   job.Spec.EndYear,
	})

	// Archive the raw snapshot once the deterministic name is known.
	if _, err := o.deps.Artifacts.ArchiveRaw(cleaned.Name, raw); err != nil {
		logger.Warn("raw archive failed", "error", err)
	}

	// Document.
	if o.cancelIfRequested(job) {
		return
	}
	if !o.advance(job, domain.JobStatusDocumenting, domain.ProgressDocumenting) {
		return
	}
	doc := o.deps.Documenter.Document(ctx, cleaned.Topic, job.Spec.Source, cleaned.Summary, false)

	filePath, err := o.deps.Artifacts.SaveDataset(cleaned)
	if err != nil {
		logger.Error("dataset write failed", "error", err)
		o.fail(job, err.Error())
		return
	}
	docPath, err := o.deps.Artifacts.SaveDocument(cleaned.Topic, cleaned.Name, doc.Markdown)
	if err != nil {
		logger.Error("document write failed", "error", err)
		o.fail(job, err.Error())
		return
	}

	// Complete.
	o.mu.Lock()
	job.DatasetName = cleaned.Name
	o.finishLocked(job, domain.JobStatusComplete, nil)
	o.mu.Unlock()

	o.notifyProgress(job.ID, domain.JobStatusComplete, domain.ProgressComplete)
	o.record(ctx, job, cleaned, filePath, docPath)
	o.audit(job.ID, "job_completed", "ok", cleaned.Name)
	o.notifyComplete(job)
	logger.Info("job complete", "dataset", cleaned.Name, "rows", cleaned.Summary.RowCount)
}

// advance moves a job to its next active state and persists. It refuses
// an illegal transition, failing the job instead.
func (o *Orchestrator) advance(job *domain.Job, to domain.JobStatus, percent int) bool {
	o.mu.Lock()
	if !domain.CanTransition(job.Status, to) {
		o.mu.Unlock()
		o.fail(job, fmt.Sprintf("illegal transition %s -> %s", job.Status, to))
		return false
	}
	job.Status = to
	if to == domain.JobStatusIngesting {
		now := time.Now().UTC()
		job.StartedAt = &now
	}
	o.persistLocked()
	o.mu.Unlock()

	o.notifyProgress(job.ID, to, percent)
	return true
}

// cancelIfRequested checks the cooperative flag at a step boundary.
func (o *Orchestrator) cancelIfRequested(job *domain.Job) bool {
	o.mu.Lock()
	if !o.cancelled[job.ID] {
		o.mu.Unlock()
		return false
	}
	delete(o.cancelled, job.ID)
	o.finishLocked(job, domain.JobStatusCancelled, nil)
	o.mu.Unlock()

	o.audit(job.ID, "job_cancelled", "ok", "cancelled at step boundary")
	o.notifyComplete(job)
	o.deps.Logger.Info("job cancelled", "job_id", job.ID)
	return true
}

func (o *Orchestrator) fail(job *domain.Job, msg string) {
	o.mu.Lock()
	o.finishLocked(job, domain.JobStatusFailed, &msg)
	o.mu.Unlock()

	o.audit(job.ID, "job_failed", "error", msg)
	o.notifyComplete(job)
}

// finishLocked moves a job to a terminal state, out of the queue, and
// into bounded history. Terminal states are final: a job that already
// finished is left untouched. Callers hold the mutex.
func (o *Orchestrator) finishLocked(job *domain.Job, status domain.JobStatus, errMsg *string) {
	if job.Status.IsTerminal() {
		return
	}
	job.Status = status
	job.ErrorMessage = errMsg
	now := time.Now().UTC()
	job.FinishedAt = &now

	for i, queued := range o.queue {
		if queued.ID == job.ID {
			o.queue = append(o.queue[:i], o.queue[i+1:]...)
			break
		}
	}
	o.history = append(o.history, job)
	if over := len(o.history) - o.deps.HistoryLimit; over > 0 {
		o.history = o.history[over:]
	}
	if o.active == job.ID {
		o.active = ""
	}
	delete(o.cancelled, job.ID)
	o.persistLocked()
}

// persistLocked rewrites the queue file wholesale. Persistence failures
// are logged and in-memory operation continues.
func (o *Orchestrator) persistLocked() {
	state := &State{Queue: o.queue, History: o.history}
	if err := o.deps.Store.Save(state); err != nil {
		o.deps.Logger.Warn("queue persistence failed, continuing in memory", "error", err)
	}
}

// record inserts the completed dataset into the registry metastore.
func (o *Orchestrator) record(ctx context.Context, job *domain.Job,
	cleaned *domain.CleanedDataset, filePath, docPath string) {

	if o.deps.Datasets == nil {
		return
	}
	rec := &domain.DatasetRecord{
		ID:        domain.NewID(),
		Name:      cleaned.Name,
		Topic:     cleaned.Topic,
		Source:    job.Spec.Source,
		Coverage:  cleaned.Coverage,
		StartYear: cleaned.Summary.MinYear,
		EndYear:   cleaned.Summary.MaxYear,
		RowCount:  cleaned.Summary.RowCount,
		FilePath:  filePath,
		DocPath:   docPath,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.deps.Datasets.Insert(ctx, rec); err != nil {
		o.deps.Logger.Warn("dataset registry insert failed", "dataset", cleaned.Name, "error", err)
	}
}

func (o *Orchestrator) audit(jobID, action, status, detail string) {
	if o.deps.Audit == nil {
		return
	}
	entry := &domain.AuditEntry{
		ID:        domain.NewID(),
		JobID:     jobID,
		Action:    action,
		Status:    status,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.deps.Audit.Insert(context.Background(), entry); err != nil {
		o.deps.Logger.Warn("audit insert failed", "action", action, "error", err)
	}
}

func (o *Orchestrator) notifyProgress(jobID string, step domain.JobStatus, percent int) {
	if o.deps.OnProgress != nil {
		o.deps.OnProgress(jobID, step, percent)
	}
}

func (o *Orchestrator) notifyComplete(job *domain.Job) {
	if o.deps.OnComplete != nil {
		o.deps.OnComplete(job.Clone())
	}
}
