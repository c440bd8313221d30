package matcher

import (
	"github.com/recondesk/recon-backend/internal/domain/transaction"
)

// Tolerances and bounds for the pipeline. Exported so tests and callers can
// probe behavior exactly at the edges.
const (
	// AmountTolerance is the maximum difference for two amounts to count as
	// equal in the single-record passes.
	AmountTolerance = 0.01
	// GroupSumTolerance is the allowed error when candidate amounts are
	// summed against a group anchor.
	GroupSumTolerance = 0.05
	// MaxGroupSize caps the subset search in the one-to-many pass.
	MaxGroupSize = 5
	// VarianceCeiling is the exclusive upper bound of the variance pass.
	VarianceCeiling = 1.0
	// StrongMatchWindowDays is how far apart dates may drift in the strong
	// pass when ref or description evidence backs the pair.
	StrongMatchWindowDays = 60
	// MinGroupWindowDays, MinAmountOnlyWindowDays and MinVarianceWindowDays
	// are the floors applied to the caller's tolerance in the grouping,
	// amount-only and variance passes respectively.
	MinGroupWindowDays      = 3
	MinAmountOnlyWindowDays = 7
	MinVarianceWindowDays   = 5
)

// Kind classifies a match by the pass that produced it. The literal strings
// double as workflow bucket keys for consumers.
type Kind string

const (
	KindExact      Kind = "Exact"
	KindStrong     Kind = "Potential-Strong"
	KindManyToOne  Kind = "Many-to-One"
	KindOneToMany  Kind = "One-to-Many (Smart)"
	KindAmountOnly Kind = "Potential-Amount"
	KindVariance   Kind = "Amount-Variance"
	KindManual     Kind = "Manual-Match"
)

// Status is a workflow label only. It never feeds back into matching logic.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusReview    Status = "review"
)

// DefaultStatus returns the workflow bucket a freshly created match of the
// given kind lands in. Exact and grouped matches are treated as safe enough
// to confirm immediately; everything else needs human review.
func DefaultStatus(k Kind) Status {
	switch k {
	case KindExact, KindManyToOne, KindOneToMany, KindManual:
		return StatusConfirmed
	default:
		return StatusReview
	}
}

// Match relates one or more bank records to one or more book records. Grouped
// kinds have exactly one record on the anchor side and two or more on the
// other; every other kind is one-to-one.
type Match struct {
	ID         string                    `json:"id"`
	Kind       Kind                      `json:"kind"`
	Bank       []transaction.Transaction `json:"bank"`
	Book       []transaction.Transaction `json:"book"`
	Amount     float64                   `json:"amount"`
	AmountDiff float64                   `json:"amount_diff,omitempty"`
	DateDiff   int                       `json:"date_diff"`
	Status     Status                    `json:"status"`
}

// Options are the caller-supplied reconciliation parameters.
type Options struct {
	// ToleranceDays is the acceptable clearing delay between the two sides.
	ToleranceDays int
	// RequireRefMatch makes the exact pass additionally demand an equal,
	// non-empty reference on both sides.
	RequireRefMatch bool
}

// Summary carries aggregate counts for a run so conservation is auditable:
// considered = matched + residual on each side.
type Summary struct {
	BankTotal    int          `json:"bank_total"`
	BookTotal    int          `json:"book_total"`
	BankExcluded int          `json:"bank_excluded"`
	BookExcluded int          `json:"book_excluded"`
	BankMatched  int          `json:"bank_matched"`
	BookMatched  int          `json:"book_matched"`
	ByKind       map[Kind]int `json:"by_kind"`
}

// Result is the full outcome of one pipeline invocation.
type Result struct {
	Matches       []Match                   `json:"matches"`
	UnmatchedBank []transaction.Transaction `json:"unmatched_bank"`
	UnmatchedBook []transaction.Transaction `json:"unmatched_book"`
	Summary       Summary                   `json:"summary"`
}
