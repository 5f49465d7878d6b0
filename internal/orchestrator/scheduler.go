package orchestrator

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"econ-curator/internal/domain"
)

// Scheduler re-runs completed curation jobs on a cron schedule so
// datasets track their upstream sources. Deterministic naming makes a
// refresh an in-place update rather than a duplicate.
type Scheduler struct {
	cron   *cron.Cron
	orch   *Orchestrator
	logger *slog.Logger
}

// NewScheduler wires a refresh schedule onto an orchestrator. An empty
// spec disables scheduling; an invalid one is an error at startup rather
// than a silently dead schedule.
func NewScheduler(orch *Orchestrator, spec string, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{cron: cron.New(), orch: orch, logger: logger}
	if spec == "" {
		return s, nil
	}

	if _, err := s.cron.AddFunc(spec, s.refresh); err != nil {
		return nil, domain.ErrValidation("invalid refresh cron %q: %v", spec, err)
	}
	logger.Info("refresh schedule registered", "cron", spec)
	return s, nil
}

// Start begins the cron loop. A scheduler with no entries is inert.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the cron loop; a running refresh finishes its queue.
func (s *Scheduler) Stop() { s.cron.Stop() }

// refresh re-enqueues the spec of every completed job in history, one per
// distinct dataset name, then runs the queue.
func (s *Scheduler) refresh() {
	seen := make(map[string]bool)
	enqueued := 0
	for _, job := range s.orch.History(0) {
		if job.Status != domain.JobStatusComplete || seen[job.DatasetName] {
			continue
		}
		seen[job.DatasetName] = true
		if _, err := s.orch.Enqueue(job.Spec); err != nil {
			s.logger.Warn("refresh enqueue failed", "dataset", job.DatasetName, "error", err)
			continue
		}
		enqueued++
	}
	if enqueued == 0 {
		return
	}
	s.logger.Info("scheduled refresh started", "jobs", enqueued)
	s.orch.RunQueue(context.Background())
}
