package storage

import (
	"time"

	"github.com/recondesk/recon-backend/internal/domain/transaction"
)

// Side distinguishes the two archives: records imported as bank statements
// and records imported from the books.
type Side string

const (
	SideBank Side = "bank"
	SideBook Side = "book"
)

// Valid reports whether the side is one of the two known archives.
func (s Side) Valid() bool {
	return s == SideBank || s == SideBook
}

// ArchiveRecord is the snapshot stored per fingerprint. Enough fields are
// kept to render a history view; the fingerprint itself is the identity.
type ArchiveRecord struct {
	Fingerprint    string    `json:"fingerprint"`
	Side           Side      `json:"side"`
	DateText       string    `json:"date,omitempty"`
	Amount         float64   `json:"amount"`
	DisplayAmount  float64   `json:"display_amount"`
	DisplayPresent bool      `json:"display_present"`
	Ref            string    `json:"ref,omitempty"`
	Desc           string    `json:"desc,omitempty"`
	ImportedAt     time.Time `json:"imported_at"`
}

// SnapshotOf captures the archival view of a transaction.
func SnapshotOf(t transaction.Transaction, side Side, now time.Time) ArchiveRecord {
	rec := ArchiveRecord{
		Side:       side,
		Amount:     t.Amount,
		Ref:        t.Ref,
		Desc:       t.Desc,
		ImportedAt: now,
	}
	switch t.Date.State {
	case transaction.DatePresent:
		rec.DateText = t.Date.Time.Format("2006-01-02")
	case transaction.DateInvalid:
		rec.DateText = t.Date.Raw
	}
	if t.Display.Present {
		rec.DisplayPresent = true
		rec.DisplayAmount = t.Display.Value
	}
	return rec
}

// ReconRun is one recorded reconciliation invocation, kept for the history
// view and for auditing parameter drift between sessions.
type ReconRun struct {
	ID            int64     `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	ToleranceDays int       `json:"tolerance_days"`
	RequireRef    bool      `json:"require_ref"`
	BankCount     int       `json:"bank_count"`
	BookCount     int       `json:"book_count"`
	MatchCount    int       `json:"match_count"`
	UnmatchedBank int       `json:"unmatched_bank"`
	UnmatchedBook int       `json:"unmatched_book"`
}
