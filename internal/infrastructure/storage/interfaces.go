package storage

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	ArchiveRepository
	RunRepository
	Close() error
}

// ArchiveRepository is the fingerprint archive boundary. Insert semantics
// are at-most-once per (side, fingerprint): inserting an existing
// fingerprint is a no-op, never an overwrite.
type ArchiveRepository interface {
	// Lookup returns the stored snapshot for a fingerprint, or (nil, nil)
	// when the fingerprint has not been seen.
	Lookup(side Side, fp string) (*ArchiveRecord, error)

	// Insert stores a snapshot under its fingerprint. Returns true when the
	// record was new, false when the fingerprint already existed.
	Insert(side Side, rec ArchiveRecord) (bool, error)

	// Enumerate returns all stored records for one side, most recently
	// imported first.
	Enumerate(side Side) ([]ArchiveRecord, error)

	// ClearArchive removes all archived records for one side.
	ClearArchive(side Side) error
}

// RunRepository tracks reconciliation run history.
type RunRepository interface {
	// RecordRun persists a completed run and returns its ID.
	RecordRun(run ReconRun) (int64, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]ReconRun, error)
}
