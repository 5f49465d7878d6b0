package repository

import (
	"context"
	"database/sql"

	"econ-curator/internal/domain"
)

// AuditRepo persists curation audit entries.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	const q = `
		INSERT INTO audit_log (id, job_id, action, status, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.ID, entry.JobID, entry.Action, entry.Status, entry.Detail, entry.CreatedAt)
	if err != nil {
		return domain.ErrPersistence("insert audit entry: %v", err)
	}
	return nil
}

func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
		SELECT id, job_id, action, status, detail, created_at
		FROM audit_log ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, domain.ErrPersistence("list audit entries: %v", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.JobID, &e.Action, &e.Status, &e.Detail, &e.CreatedAt); err != nil {
			return nil, domain.ErrPersistence("scan audit row: %v", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrPersistence("list audit entries: %v", err)
	}
	return out, nil
}

var _ domain.AuditRepository = (*AuditRepo)(nil)
