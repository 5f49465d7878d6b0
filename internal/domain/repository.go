package domain

import (
	"context"
	"time"
)

// DatasetRecord is one row in the dataset registry: the durable record of a
// cleaned dataset produced by a completed job.
type DatasetRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Topic     string    `json:"topic"`
	Source    Source    `json:"source"`
	Coverage  string    `json:"coverage"`
	StartYear int       `json:"start_year"`
	EndYear   int       `json:"end_year"`
	RowCount  int       `json:"row_count"`
	FilePath  string    `json:"file_path"`
	DocPath   string    `json:"doc_path"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEntry records one curation action (job completion, failure,
// cancellation, catalog reload).
type AuditEntry struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	Action    string    `json:"action"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DatasetRepository persists dataset registry rows.
type DatasetRepository interface {
	Insert(ctx context.Context, rec *DatasetRecord) error
	GetByName(ctx context.Context, name string) (*DatasetRecord, error)
	List(ctx context.Context, limit int) ([]DatasetRecord, error)
}

// AuditRepository persists curation audit entries.
type AuditRepository interface {
	Insert(ctx context.Context, entry *AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]AuditEntry, error)
}
