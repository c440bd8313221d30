package dto

import (
	"time"

	"github.com/recondesk/recon-backend/internal/domain/matcher"
	"github.com/recondesk/recon-backend/internal/domain/transaction"
	"github.com/recondesk/recon-backend/internal/infrastructure/storage"
)

// TransactionResponse is the wire form of a transaction. Date is the ISO
// day when present, the raw text when invalid, and empty when absent.
type TransactionResponse struct {
	ID          string   `json:"id"`
	Date        string   `json:"date,omitempty"`
	DateInvalid bool     `json:"date_invalid,omitempty"`
	Amount      float64  `json:"amount"`
	Display     *float64 `json:"display,omitempty"`
	Ref         string   `json:"ref,omitempty"`
	Desc        string   `json:"desc,omitempty"`
}

// ToTransactionResponse converts a domain transaction for the wire.
func ToTransactionResponse(t transaction.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:     t.ID,
		Amount: t.Amount,
		Ref:    t.Ref,
		Desc:   t.Desc,
	}
	switch t.Date.State {
	case transaction.DatePresent:
		resp.Date = t.Date.Time.Format("2006-01-02")
	case transaction.DateInvalid:
		resp.Date = t.Date.Raw
		resp.DateInvalid = true
	}
	if t.Display.Present {
		v := t.Display.Value
		resp.Display = &v
	}
	return resp
}

// ToTransactionResponses converts a slice, preserving order.
func ToTransactionResponses(items []transaction.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(items))
	for _, t := range items {
		out = append(out, ToTransactionResponse(t))
	}
	return out
}

// MatchResponse is the wire form of one match.
type MatchResponse struct {
	ID         string                `json:"id"`
	Kind       string                `json:"kind"`
	Bank       []TransactionResponse `json:"bank"`
	Book       []TransactionResponse `json:"book"`
	Amount     float64               `json:"amount"`
	AmountDiff float64               `json:"amount_diff,omitempty"`
	DateDiff   int                   `json:"date_diff"`
	Status     string                `json:"status"`
}

// ToMatchResponse converts a domain match for the wire.
func ToMatchResponse(m matcher.Match) MatchResponse {
	return MatchResponse{
		ID:         m.ID,
		Kind:       string(m.Kind),
		Bank:       ToTransactionResponses(m.Bank),
		Book:       ToTransactionResponses(m.Book),
		Amount:     m.Amount,
		AmountDiff: m.AmountDiff,
		DateDiff:   m.DateDiff,
		Status:     string(m.Status),
	}
}

// ToMatchResponses converts a slice, preserving pipeline order.
func ToMatchResponses(matches []matcher.Match) []MatchResponse {
	out := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, ToMatchResponse(m))
	}
	return out
}

// SummaryResponse mirrors the run summary.
type SummaryResponse struct {
	BankTotal    int            `json:"bank_total"`
	BookTotal    int            `json:"book_total"`
	BankExcluded int            `json:"bank_excluded"`
	BookExcluded int            `json:"book_excluded"`
	BankMatched  int            `json:"bank_matched"`
	BookMatched  int            `json:"book_matched"`
	ByKind       map[string]int `json:"by_kind"`
}

// ToSummaryResponse converts a domain summary for the wire.
func ToSummaryResponse(s matcher.Summary) SummaryResponse {
	byKind := make(map[string]int, len(s.ByKind))
	for k, n := range s.ByKind {
		byKind[string(k)] = n
	}
	return SummaryResponse{
		BankTotal:    s.BankTotal,
		BookTotal:    s.BookTotal,
		BankExcluded: s.BankExcluded,
		BookExcluded: s.BookExcluded,
		BankMatched:  s.BankMatched,
		BookMatched:  s.BookMatched,
		ByKind:       byKind,
	}
}

// ReconcileResponse is the stateless pipeline result.
type ReconcileResponse struct {
	Matches       []MatchResponse       `json:"matches"`
	UnmatchedBank []TransactionResponse `json:"unmatched_bank"`
	UnmatchedBook []TransactionResponse `json:"unmatched_book"`
	Summary       SummaryResponse       `json:"summary"`
}

// SessionResponse is a full session snapshot.
type SessionResponse struct {
	ID            string                `json:"id"`
	CreatedAt     time.Time             `json:"created_at"`
	Matches       []MatchResponse       `json:"matches"`
	UnmatchedBank []TransactionResponse `json:"unmatched_bank"`
	UnmatchedBook []TransactionResponse `json:"unmatched_book"`
	Summary       SummaryResponse       `json:"summary"`
}

// SuggestResponse is a ranked candidate list.
type SuggestResponse struct {
	Candidates []TransactionResponse `json:"candidates"`
}

// ArchiveCheckResponse splits submitted records into unseen and already
// archived ones.
type ArchiveCheckResponse struct {
	Unique     []TransactionResponse `json:"unique"`
	Duplicates []TransactionResponse `json:"duplicates"`
	Warning    string                `json:"warning,omitempty"`
}

// ArchiveSaveResponse reports how many records were newly archived.
type ArchiveSaveResponse struct {
	Added   int    `json:"added"`
	Total   int    `json:"total"`
	Warning string `json:"warning,omitempty"`
}

// ArchiveRecordResponse is one archived snapshot.
type ArchiveRecordResponse struct {
	Fingerprint string    `json:"fingerprint"`
	Side        string    `json:"side"`
	Date        string    `json:"date,omitempty"`
	Amount      float64   `json:"amount"`
	Ref         string    `json:"ref,omitempty"`
	Desc        string    `json:"desc,omitempty"`
	ImportedAt  time.Time `json:"imported_at"`
}

// ToArchiveRecordResponse converts a stored record for the wire.
func ToArchiveRecordResponse(rec storage.ArchiveRecord) ArchiveRecordResponse {
	return ArchiveRecordResponse{
		Fingerprint: rec.Fingerprint,
		Side:        string(rec.Side),
		Date:        rec.DateText,
		Amount:      rec.Amount,
		Ref:         rec.Ref,
		Desc:        rec.Desc,
		ImportedAt:  rec.ImportedAt,
	}
}

// ArchiveListResponse is the archive contents for one side.
type ArchiveListResponse struct {
	Records []ArchiveRecordResponse `json:"records"`
	Count   int                     `json:"count"`
}

// RunResponse is one recorded reconciliation run.
type RunResponse struct {
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

// RunListResponse is the run history.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// HealthResponse is the load balancer health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
