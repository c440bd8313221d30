package storage

import (
	"sort"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	archive map[Side]map[string]ArchiveRecord
	runs    []ReconRun
	nextRun int64

	// Hooks for test assertions
	InsertCalled    bool
	LookupCalled    bool
	RecordRunCalled bool
	LastInserted    *ArchiveRecord

	// Error injection for testing error paths
	InsertErr    error
	LookupErr    error
	EnumerateErr error
	RecordRunErr error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		archive: map[Side]map[string]ArchiveRecord{
			SideBank: {},
			SideBook: {},
		},
		nextRun: 1,
	}
}

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// Lookup returns a stored snapshot or nil.
func (m *MockRepository) Lookup(side Side, fp string) (*ArchiveRecord, error) {
	m.LookupCalled = true
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	if rec, ok := m.archive[side][fp]; ok {
		out := rec
		return &out, nil
	}
	return nil, nil
}

// Insert stores a snapshot with at-most-once semantics.
func (m *MockRepository) Insert(side Side, rec ArchiveRecord) (bool, error) {
	m.InsertCalled = true
	if m.InsertErr != nil {
		return false, m.InsertErr
	}
	if _, exists := m.archive[side][rec.Fingerprint]; exists {
		return false, nil
	}
	m.archive[side][rec.Fingerprint] = rec
	m.LastInserted = &rec
	return true, nil
}

// Enumerate returns all records for one side, newest import first.
func (m *MockRepository) Enumerate(side Side) ([]ArchiveRecord, error) {
	if m.EnumerateErr != nil {
		return nil, m.EnumerateErr
	}
	var out []ArchiveRecord
	for _, rec := range m.archive[side] {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ImportedAt.Equal(out[j].ImportedAt) {
			return out[i].ImportedAt.After(out[j].ImportedAt)
		}
		return out[i].Fingerprint < out[j].Fingerprint
	})
	return out, nil
}

// ClearArchive drops one side's records.
func (m *MockRepository) ClearArchive(side Side) error {
	m.archive[side] = map[string]ArchiveRecord{}
	return nil
}

// RecordRun appends a run record.
func (m *MockRepository) RecordRun(run ReconRun) (int64, error) {
	m.RecordRunCalled = true
	if m.RecordRunErr != nil {
		return 0, m.RecordRunErr
	}
	run.ID = m.nextRun
	m.nextRun++
	m.runs = append(m.runs, run)
	return run.ID, nil
}

// ListRuns returns recorded runs, newest first.
func (m *MockRepository) ListRuns(limit int) ([]ReconRun, error) {
	out := append([]ReconRun(nil), m.runs...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
