// Package testutil provides shared mock implementations of domain
// interfaces for use in tests across the codebase. This follows the Go
// convention of a shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"

	"econ-curator/internal/domain"
)

// === Dataset Repository Mock ===

// MockDatasetRepo implements domain.DatasetRepository for testing.
type MockDatasetRepo struct {
	InsertFn    func(ctx context.Context, rec *domain.DatasetRecord) error
	GetByNameFn func(ctx context.Context, name string) (*domain.DatasetRecord, error)
	ListFn      func(ctx context.Context, limit int) ([]domain.DatasetRecord, error)

	mu      sync.Mutex
	Records []*domain.DatasetRecord // collected inserts for assertions
}

func (m *MockDatasetRepo) Insert(ctx context.Context, rec *domain.DatasetRecord) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, rec); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Records = append(m.Records, rec)
	m.mu.Unlock()
	return nil
}

func (m *MockDatasetRepo) GetByName(ctx context.Context, name string) (*domain.DatasetRecord, error) {
	if m.GetByNameFn != nil {
		return m.GetByNameFn(ctx, name)
	}
	panic("unexpected call to MockDatasetRepo.GetByName")
}

func (m *MockDatasetRepo) List(ctx context.Context, limit int) ([]domain.DatasetRecord, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.DatasetRecord, 0, len(m.Records))
	for _, r := range m.Records {
		out = append(out, *r)
	}
	return out, nil
}

// LastRecord returns the last collected dataset record, or nil if none.
func (m *MockDatasetRepo) LastRecord() *domain.DatasetRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Records) == 0 {
		return nil
	}
	return m.Records[len(m.Records)-1]
}

// === Audit Repository Mock ===

// MockAuditRepo implements domain.AuditRepository for testing.
type MockAuditRepo struct {
	InsertFn     func(ctx context.Context, e *domain.AuditEntry) error
	ListRecentFn func(ctx context.Context, limit int) ([]domain.AuditEntry, error)

	mu      sync.Mutex
	Entries []*domain.AuditEntry // collected entries for assertions
}

func (m *MockAuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Entries = append(m.Entries, e)
	m.mu.Unlock()
	return nil
}

func (m *MockAuditRepo) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if m.ListRecentFn != nil {
		return m.ListRecentFn(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AuditEntry, 0, len(m.Entries))
	for _, e := range m.Entries {
		out = append(out, *e)
	}
	return out, nil
}

// HasAction returns true if any collected entry has the given action.
func (m *MockAuditRepo) HasAction(action string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Entries {
		if e.Action == action {
			return true
		}
	}
	return false
}

// Compile-time interface checks.
var (
	_ domain.DatasetRepository = (*MockDatasetRepo)(nil)
	_ domain.AuditRepository   = (*MockAuditRepo)(nil)
)
