package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for the fingerprint archive and
// the run history. It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Lookup returns the stored snapshot for a fingerprint, or nil when unseen.
func (s *Storage) Lookup(side Side, fp string) (*ArchiveRecord, error) {
	query := `
	SELECT fingerprint, side, date_text, amount, display_amount,
	       display_present, ref, descr, imported_at
	FROM archive_records WHERE side = ? AND fingerprint = ?
	`

	rec := &ArchiveRecord{}
	var imported string
	err := s.db.QueryRow(query, string(side), fp).Scan(
		&rec.Fingerprint,
		&rec.Side,
		&rec.DateText,
		&rec.Amount,
		&rec.DisplayAmount,
		&rec.DisplayPresent,
		&rec.Ref,
		&rec.Desc,
		&imported,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.ImportedAt = parseStoredTime(imported)
	return rec, nil
}

// Insert stores a snapshot under its fingerprint. INSERT OR IGNORE gives the
// at-most-once semantics the archive boundary requires.
func (s *Storage) Insert(side Side, rec ArchiveRecord) (bool, error) {
	query := `
	INSERT OR IGNORE INTO archive_records
	(side, fingerprint, date_text, amount, display_amount, display_present,
	 ref, descr, imported_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.Exec(query,
		string(side),
		rec.Fingerprint,
		rec.DateText,
		rec.Amount,
		rec.DisplayAmount,
		rec.DisplayPresent,
		rec.Ref,
		rec.Desc,
		rec.ImportedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Enumerate returns all archived records for one side, newest import first.
func (s *Storage) Enumerate(side Side) ([]ArchiveRecord, error) {
	query := `
	SELECT fingerprint, side, date_text, amount, display_amount,
	       display_present, ref, descr, imported_at
	FROM archive_records WHERE side = ?
	ORDER BY imported_at DESC, fingerprint
	`

	rows, err := s.db.Query(query, string(side))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []ArchiveRecord
	for rows.Next() {
		var rec ArchiveRecord
		var imported string
		if err := rows.Scan(
			&rec.Fingerprint,
			&rec.Side,
			&rec.DateText,
			&rec.Amount,
			&rec.DisplayAmount,
			&rec.DisplayPresent,
			&rec.Ref,
			&rec.Desc,
			&imported,
		); err != nil {
			return nil, err
		}
		rec.ImportedAt = parseStoredTime(imported)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ClearArchive removes all archived records for one side.
func (s *Storage) ClearArchive(side Side) error {
	_, err := s.db.Exec(`DELETE FROM archive_records WHERE side = ?`, string(side))
	return err
}

// RecordRun persists a completed reconciliation run.
func (s *Storage) RecordRun(run ReconRun) (int64, error) {
	query := `
	INSERT INTO recon_runs
	(started_at, tolerance_days, require_ref, bank_count, book_count,
	 match_count, unmatched_bank, unmatched_book)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.Exec(query,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.ToleranceDays,
		run.RequireRef,
		run.BankCount,
		run.BookCount,
		run.MatchCount,
		run.UnmatchedBank,
		run.UnmatchedBook,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first.
func (s *Storage) ListRuns(limit int) ([]ReconRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT id, started_at, tolerance_days, require_ref, bank_count,
	       book_count, match_count, unmatched_bank, unmatched_book
	FROM recon_runs ORDER BY id DESC LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []ReconRun
	for rows.Next() {
		var run ReconRun
		var started string
		if err := rows.Scan(
			&run.ID,
			&started,
			&run.ToleranceDays,
			&run.RequireRef,
			&run.BankCount,
			&run.BookCount,
			&run.MatchCount,
			&run.UnmatchedBank,
			&run.UnmatchedBook,
		); err != nil {
			return nil, err
		}
		run.StartedAt = parseStoredTime(started)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func parseStoredTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
