// Package service orchestrates reconciliation sessions: running the matching
// pipeline, the manual-match workflow on the residuals, and the fingerprint
// archive interactions.
//
// The pipeline itself is pure; this layer owns the mutable state around it
// (session bookkeeping, archival) and is the only place where a human action
// can change a session after the automatic passes ran.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/recondesk/recon-backend/internal/domain/fingerprint"
	"github.com/recondesk/recon-backend/internal/domain/matcher"
	"github.com/recondesk/recon-backend/internal/domain/ranker"
	"github.com/recondesk/recon-backend/internal/domain/transaction"
	"github.com/recondesk/recon-backend/internal/infrastructure/storage"
)

// ManualMatchThreshold is the aggregate difference above which committing a
// manual match demands explicit double confirmation.
const ManualMatchThreshold = 0.02

// RequiredConfirmations is how many sequential confirmations an unequal
// manual match needs before it commits.
const RequiredConfirmations = 2

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrEmptySelection  = errors.New("no records selected")
	ErrUnknownSide     = errors.New("side must be bank or book")
)

// ConfirmationRequiredError signals that an unequal manual match was blocked
// pending further explicit confirmation. It is a workflow gate, not a
// validation failure: retrying with Confirmations incremented proceeds.
type ConfirmationRequiredError struct {
	Difference float64
	// Given is how many confirmations the caller supplied, Required how
	// many the commit needs.
	Given    int
	Required int
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("selected totals differ by %.2f: confirmation %d of %d required",
		e.Difference, e.Given+1, e.Required)
}

// Session is one reconciliation working set: the pipeline output plus every
// manual action applied since.
type Session struct {
	ID            string                    `json:"id"`
	CreatedAt     time.Time                 `json:"created_at"`
	Options       matcher.Options           `json:"options"`
	Matches       []matcher.Match           `json:"matches"`
	UnmatchedBank []transaction.Transaction `json:"unmatched_bank"`
	UnmatchedBook []transaction.Transaction `json:"unmatched_book"`
	Summary       matcher.Summary           `json:"summary"`
}

// ReconService runs reconciliations and manages sessions. Sessions live in
// memory; the archive and run history go through the repository.
type ReconService struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	repo     storage.Repository
	logger   *slog.Logger
	defaults matcher.Options
}

// NewReconService creates the service. repo may be nil, in which case the
// archive endpoints degrade to warnings and run history is skipped.
func NewReconService(repo storage.Repository, logger *slog.Logger, defaults matcher.Options) *ReconService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconService{
		sessions: make(map[string]*Session),
		repo:     repo,
		logger:   logger,
		defaults: defaults,
	}
}

// Defaults returns the configured default matching options.
func (s *ReconService) Defaults() matcher.Options {
	return s.defaults
}

// Reconcile runs the pipeline statelessly and records the run. A failed run
// record is a warning, never an error: the result stands regardless.
func (s *ReconService) Reconcile(bank, book []transaction.Transaction, opts matcher.Options) matcher.Result {
	result := matcher.Reconcile(bank, book, opts)
	s.recordRun(result, opts)
	return result
}

// StartSession runs the pipeline and opens a session over its result.
func (s *ReconService) StartSession(bank, book []transaction.Transaction, opts matcher.Options) *Session {
	result := matcher.Reconcile(bank, book, opts)
	s.recordRun(result, opts)

	session := &Session{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now(),
		Options:       opts,
		Matches:       result.Matches,
		UnmatchedBank: result.UnmatchedBank,
		UnmatchedBook: result.UnmatchedBook,
		Summary:       result.Summary,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Info("session started",
		"session_id", session.ID,
		"matches", len(session.Matches),
		"unmatched_bank", len(session.UnmatchedBank),
		"unmatched_book", len(session.UnmatchedBook))

	return snapshot(session)
}

// Session returns a copy of the session state.
func (s *ReconService) Session(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return snapshot(session), nil
}

// ManualMatch commits a human-selected pairing of residual records. When the
// selected totals differ by more than ManualMatchThreshold, the commit is
// refused until the caller has supplied RequiredConfirmations sequential
// confirmations.
func (s *ReconService) ManualMatch(sessionID string, bankIDs, bookIDs []string, confirmations int) (*matcher.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	selBank := selectByID(session.UnmatchedBank, bankIDs)
	selBook := selectByID(session.UnmatchedBook, bookIDs)
	if len(selBank) == 0 && len(selBook) == 0 {
		return nil, ErrEmptySelection
	}

	bankTotal := sumAmounts(selBank)
	bookTotal := sumAmounts(selBook)
	diff := math.Abs(bankTotal - bookTotal)

	if diff > ManualMatchThreshold && confirmations < RequiredConfirmations {
		return nil, &ConfirmationRequiredError{
			Difference: diff,
			Given:      confirmations,
			Required:   RequiredConfirmations,
		}
	}

	session.UnmatchedBank = removeByID(session.UnmatchedBank, bankIDs)
	session.UnmatchedBook = removeByID(session.UnmatchedBook, bookIDs)

	m := matcher.Match{
		ID:         uuid.NewString(),
		Kind:       matcher.KindManual,
		Bank:       selBank,
		Book:       selBook,
		Amount:     bankTotal,
		AmountDiff: diff,
		Status:     matcher.StatusConfirmed,
	}
	session.Matches = append(session.Matches, m)

	s.logger.Info("manual match committed",
		"session_id", sessionID,
		"bank_records", len(selBank),
		"book_records", len(selBook),
		"difference", diff)

	return &m, nil
}

// Unmatch deletes a match and returns its constituents to the residual
// pools. Works on any kind, including manual matches.
func (s *ReconService) Unmatch(sessionID, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	for idx, m := range session.Matches {
		if m.ID != matchID {
			continue
		}
		session.Matches = append(session.Matches[:idx], session.Matches[idx+1:]...)
		session.UnmatchedBank = append(session.UnmatchedBank, m.Bank...)
		session.UnmatchedBook = append(session.UnmatchedBook, m.Book...)
		return nil
	}
	return ErrMatchNotFound
}

// UnmatchAll reverts every match in the session.
func (s *ReconService) UnmatchAll(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	for _, m := range session.Matches {
		session.UnmatchedBank = append(session.UnmatchedBank, m.Bank...)
		session.UnmatchedBook = append(session.UnmatchedBook, m.Book...)
	}
	session.Matches = nil
	return nil
}

// Approve promotes a review-bucket match to confirmed.
func (s *ReconService) Approve(sessionID, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	for idx := range session.Matches {
		if session.Matches[idx].ID == matchID {
			session.Matches[idx].Status = matcher.StatusConfirmed
			return nil
		}
	}
	return ErrMatchNotFound
}

// ApproveAll promotes every review match of one kind.
func (s *ReconService) ApproveAll(sessionID string, kind matcher.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	for idx := range session.Matches {
		if session.Matches[idx].Kind == kind {
			session.Matches[idx].Status = matcher.StatusConfirmed
		}
	}
	return nil
}

// Reject deletes a suggested match and returns its records to the pools.
// Identical mechanics to Unmatch; kept separate because the workflow treats
// "reject suggestion" and "undo confirmed match" as different actions.
func (s *ReconService) Reject(sessionID, matchID string) error {
	return s.Unmatch(sessionID, matchID)
}

// Suggest ranks one side's residual records against a tentative selection on
// the other side. side names the list being ranked; selectedIDs refer to the
// opposite residual pool. Never commits anything.
func (s *ReconService) Suggest(sessionID string, side storage.Side, selectedIDs []string) ([]transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	switch side {
	case storage.SideBank:
		selection := selectByID(session.UnmatchedBook, selectedIDs)
		return ranker.Rank(session.UnmatchedBank, selection), nil
	case storage.SideBook:
		selection := selectByID(session.UnmatchedBank, selectedIDs)
		return ranker.Rank(session.UnmatchedBook, selection), nil
	default:
		return nil, ErrUnknownSide
	}
}

// SaveToArchive fingerprints the items and inserts the unseen ones. Storage
// failures come back as a warning, never a hard error: matches already
// computed stay valid even when archival fails.
func (s *ReconService) SaveToArchive(items []transaction.Transaction, side storage.Side) (added int, warn error) {
	if !side.Valid() {
		return 0, ErrUnknownSide
	}
	if s.repo == nil {
		return 0, errors.New("no archive store configured")
	}

	now := time.Now()
	var failures int
	for _, item := range items {
		fp := fingerprint.Fingerprint(item)
		rec := storage.SnapshotOf(item, side, now)
		rec.Fingerprint = fp

		inserted, err := s.repo.Insert(side, rec)
		if err != nil {
			failures++
			continue
		}
		if inserted {
			added++
		}
	}

	if failures > 0 {
		warn = fmt.Errorf("failed to archive %d of %d records", failures, len(items))
		s.logger.Warn("archive writes failed", "side", side, "failed", failures, "total", len(items))
	}
	return added, warn
}

// CheckDuplicates splits items into unseen ones and ones whose fingerprint
// is already archived. A failed lookup counts the item as unseen so a broken
// archive never blocks an import.
func (s *ReconService) CheckDuplicates(items []transaction.Transaction, side storage.Side) (unique, duplicates []transaction.Transaction, warn error) {
	if !side.Valid() {
		return nil, nil, ErrUnknownSide
	}
	if s.repo == nil {
		return append(unique, items...), nil, nil
	}

	var failures int
	for _, item := range items {
		rec, err := s.repo.Lookup(side, fingerprint.Fingerprint(item))
		if err != nil {
			failures++
			unique = append(unique, item)
			continue
		}
		if rec != nil {
			duplicates = append(duplicates, item)
		} else {
			unique = append(unique, item)
		}
	}
	if failures > 0 {
		warn = fmt.Errorf("%d duplicate lookups failed", failures)
	}
	return unique, duplicates, warn
}

// recordRun persists run statistics; failures only warn.
func (s *ReconService) recordRun(result matcher.Result, opts matcher.Options) {
	if s.repo == nil {
		return
	}
	_, err := s.repo.RecordRun(storage.ReconRun{
		StartedAt:     time.Now(),
		ToleranceDays: opts.ToleranceDays,
		RequireRef:    opts.RequireRefMatch,
		BankCount:     result.Summary.BankTotal,
		BookCount:     result.Summary.BookTotal,
		MatchCount:    len(result.Matches),
		UnmatchedBank: len(result.UnmatchedBank),
		UnmatchedBook: len(result.UnmatchedBook),
	})
	if err != nil {
		s.logger.Warn("failed to record run", "error", err)
	}
}

func sumAmounts(items []transaction.Transaction) float64 {
	total := 0.0
	for _, t := range items {
		total += t.Amount
	}
	return total
}

func selectByID(items []transaction.Transaction, ids []string) []transaction.Transaction {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []transaction.Transaction
	for _, t := range items {
		if want[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

func removeByID(items []transaction.Transaction, ids []string) []transaction.Transaction {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []transaction.Transaction
	for _, t := range items {
		if !want[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// snapshot deep-copies the mutable slices so callers can hold the result
// while the session keeps changing.
func snapshot(s *Session) *Session {
	out := *s
	out.Matches = append([]matcher.Match(nil), s.Matches...)
	out.UnmatchedBank = append([]transaction.Transaction(nil), s.UnmatchedBank...)
	out.UnmatchedBook = append([]transaction.Transaction(nil), s.UnmatchedBook...)
	return &out
}
