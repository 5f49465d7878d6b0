// Package repository implements the domain persistence interfaces over the
// SQLite metastore.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"econ-curator/internal/domain"
)

// DatasetRepo persists dataset registry rows.
type DatasetRepo struct {
	db *sql.DB
}

func NewDatasetRepo(db *sql.DB) *DatasetRepo {
	return &DatasetRepo{db: db}
}

// Insert records a dataset, replacing any prior row with the same name.
// Re-running a job with identical inputs produces the identical name, so
// refresh runs update in place rather than accumulating duplicates.
func (r *DatasetRepo) Insert(ctx context.Context, rec *domain.DatasetRecord) error {
	const q = `
		INSERT INTO datasets (id, name, topic, source, coverage, start_year, end_year, row_count, file_path, doc_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			topic = excluded.topic,
			source = excluded.source,
			coverage = excluded.coverage,
			start_year = excluded.start_year,
			end_year = excluded.end_year,
			row_count = excluded.row_count,
			file_path = excluded.file_path,
			doc_path = excluded.doc_path,
			created_at = excluded.created_at`

	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.Name, rec.Topic, string(rec.Source), rec.Coverage,
		rec.StartYear, rec.EndYear, rec.RowCount, rec.FilePath, rec.DocPath,
		rec.CreatedAt)
	if err != nil {
		return domain.ErrPersistence("insert dataset %s: %v", rec.Name, err)
	}
	return nil
}

func (r *DatasetRepo) GetByName(ctx context.Context, name string) (*domain.DatasetRecord, error) {
	const q = `
		SELECT id, name, topic, source, coverage, start_year, end_year, row_count, file_path, doc_path, created_at
		FROM datasets WHERE name = ?`

	rec, err := scanDataset(r.db.QueryRowContext(ctx, q, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("dataset %s not found", name)
	}
	if err != nil {
		return nil, domain.ErrPersistence("get dataset %s: %v", name, err)
	}
	return rec, nil
}

func (r *DatasetRepo) List(ctx context.Context, limit int) ([]domain.DatasetRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
		SELECT id, name, topic, source, coverage, start_year, end_year, row_count, file_path, doc_path, created_at
		FROM datasets ORDER BY created_at DESC, name LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, domain.ErrPersistence("list datasets: %v", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.DatasetRecord
	for rows.Next() {
		rec, err := scanDataset(rows)
		if err != nil {
			return nil, domain.ErrPersistence("scan dataset row: %v", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrPersistence("list datasets: %v", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(row rowScanner) (*domain.DatasetRecord, error) {
	var rec domain.DatasetRecord
	var source string
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Topic, &source, &rec.Coverage,
		&rec.StartYear, &rec.EndYear, &rec.RowCount, &rec.FilePath, &rec.DocPath,
		&rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Source = domain.Source(source)
	return &rec, nil
}

var _ domain.DatasetRepository = (*DatasetRepo)(nil)
