package domain

import "time"

// JobStatus represents the lifecycle state of a curation job.
type JobStatus string

// Job lifecycle statuses.
const (
	JobStatusQueued      JobStatus = "queued"
	JobStatusIngesting   JobStatus = "ingesting"
	JobStatusCleaning    JobStatus = "cleaning"
	JobStatusDocumenting JobStatus = "documenting"
	JobStatusComplete    JobStatus = "complete"
	JobStatusFailed      JobStatus = "failed"
	JobStatusCancelled   JobStatus = "cancelled"
)

// jobTransitions is the full set of legal status transitions. Transitions
// are monotonic: no state is revisited once left, and complete/failed/
// cancelled are terminal.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusQueued:      {JobStatusIngesting, JobStatusCancelled},
	JobStatusIngesting:   {JobStatusCleaning, JobStatusFailed, JobStatusCancelled},
	JobStatusCleaning:    {JobStatusDocumenting, JobStatusFailed, JobStatusCancelled},
	JobStatusDocumenting: {JobStatusComplete, JobStatusFailed, JobStatusCancelled},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to JobStatus) bool {
	for _, next := range jobTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status is final.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusComplete || s == JobStatusFailed || s == JobStatusCancelled
}

// Progress percentages reported after each step transition.
const (
	ProgressIngesting   = 25
	ProgressCleaning    = 50
	ProgressDocumenting = 75
	ProgressComplete    = 100
)

// JobSpec is the fetch+clean+document specification for one queue item.
type JobSpec struct {
	Source       Source   `json:"source"`
	IndicatorRef string   `json:"indicator_ref"`
	Topic        string   `json:"topic"`
	Coverage     string   `json:"coverage"`
	Countries    []string `json:"countries,omitempty"`
	StartYear    int      `json:"start_year,omitempty"`
	EndYear      int      `json:"end_year,omitempty"`
}

// Validate checks that the spec is well-formed.
func (s *JobSpec) Validate() error {
	if !ValidSource(s.Source) {
		return ErrValidation("unknown source %q", s.Source)
	}
	if s.IndicatorRef == "" {
		return ErrValidation("indicator_ref is required")
	}
	if s.Topic == "" {
		return ErrValidation("topic is required")
	}
	if s.Coverage == "" {
		return ErrValidation("coverage is required")
	}
	if s.StartYear != 0 && s.EndYear != 0 && s.EndYear < s.StartYear {
		return ErrValidation("end_year %d precedes start_year %d", s.EndYear, s.StartYear)
	}
	return nil
}

// Job is one durable queue item plus its mutable execution state.
type Job struct {
	ID           string     `json:"id"`
	Spec         JobSpec    `json:"spec"`
	Status       JobStatus  `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	DatasetName  string     `json:"dataset_name,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Clone returns a copy of the job safe to hand to status-polling callers.
func (j *Job) Clone() *Job {
	out := *j
	if j.ErrorMessage != nil {
		msg := *j.ErrorMessage
		out.ErrorMessage = &msg
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		out.FinishedAt = &t
	}
	out.Spec.Countries = append([]string(nil), j.Spec.Countries...)
	return &out
}
