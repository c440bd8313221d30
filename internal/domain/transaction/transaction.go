// Package transaction defines the canonical transaction record shared by the
// matching pipeline, the fingerprint engine and the candidate ranker.
//
// Source data is heterogeneous: dates may be missing or unparsable, and older
// exports carry only an unsigned magnitude. Both facts are modeled as explicit
// tri-state values instead of zero-value sentinels so that every comparison
// in the pipeline can decide its own fallback behavior.
package transaction

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// DateState describes what is known about a record's date.
type DateState int

const (
	// DateAbsent means the source row carried no date at all.
	DateAbsent DateState = iota
	// DatePresent means the date parsed cleanly.
	DatePresent
	// DateInvalid means the source carried date text that did not parse.
	DateInvalid
)

// Date is a tri-state calendar date. Raw keeps the original cell text for
// invalid dates so the fingerprint engine can still derive a stable key.
type Date struct {
	State DateState
	Time  time.Time
	Raw   string
}

// NewDate returns a present date truncated to day precision.
func NewDate(t time.Time) Date {
	return Date{State: DatePresent, Time: t.Truncate(24 * time.Hour)}
}

// InvalidDate returns an invalid date carrying the unparsable source text.
func InvalidDate(raw string) Date {
	return Date{State: DateInvalid, Raw: raw}
}

// Sign is the direction of a transaction's effect.
type Sign int8

const (
	SignNegative Sign = iota - 1
	SignZero
	SignPositive
	// SignUnknown marks records without a signed display amount.
	SignUnknown Sign = 2
)

// Display is the signed amount tri-state. Legacy rows lack it entirely.
type Display struct {
	Present bool
	Value   float64
}

// NewDisplay wraps a signed amount.
func NewDisplay(v float64) Display {
	return Display{Present: true, Value: v}
}

// Sign returns the direction of the display amount, or SignUnknown when the
// display amount is absent.
func (d Display) Sign() Sign {
	if !d.Present {
		return SignUnknown
	}
	switch {
	case d.Value > 0:
		return SignPositive
	case d.Value < 0:
		return SignNegative
	default:
		return SignZero
	}
}

// Transaction is the unit of matching. ID is assigned at ingest time and is
// unique within one reconciliation run.
type Transaction struct {
	ID      string  `json:"id"`
	Date    Date    `json:"date"`
	Amount  float64 `json:"amount"` // non-negative magnitude
	Display Display `json:"display"`
	Ref     string  `json:"ref,omitempty"`
	Desc    string  `json:"desc,omitempty"`
}

// Matchable reports whether the record may participate in matching at all.
// Zero or non-numeric magnitudes can never be paired with anything.
func (t Transaction) Matchable() bool {
	return t.Amount != 0 && !math.IsNaN(t.Amount)
}

// SameSign reports sign compatibility between two records. A record without a
// display amount is compatible with anything (permissive fallback for
// degraded source data).
func SameSign(a, b Transaction) bool {
	sa, sb := a.Display.Sign(), b.Display.Sign()
	if sa == SignUnknown || sb == SignUnknown {
		return true
	}
	return sa == sb
}

// DayDiff returns the absolute day distance between two dates. ok is false
// when either date is absent or invalid; callers must treat that as failing
// any day-bound check, never as satisfying one.
func DayDiff(a, b Date) (days int, ok bool) {
	if a.State != DatePresent || b.State != DatePresent {
		return 0, false
	}
	d := a.Time.Sub(b.Time).Hours() / 24
	return int(math.Ceil(math.Abs(d))), true
}

// NormalizeRef trims and lowercases a reference for comparison purposes.
// Empty means absent.
func NormalizeRef(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}

// Tokens splits a description into comparison tokens: lowercased, stripped of
// everything but Latin letters, digits and Arabic script, keeping tokens
// longer than 2 runes.
func Tokens(desc string) []string {
	if desc == "" {
		return nil
	}
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return unicode.ToLower(r)
		case r >= 0x0600 && r <= 0x06FF: // Arabic block
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, desc)

	var tokens []string
	for _, tok := range strings.Fields(clean) {
		if len([]rune(tok)) > 2 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// SharedToken reports whether two descriptions have at least one significant
// token in common. This is the evidence signal used for date-drifted matches.
func SharedToken(d1, d2 string) bool {
	t1, t2 := Tokens(d1), Tokens(d2)
	if len(t1) == 0 || len(t2) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(t2))
	for _, tok := range t2 {
		set[tok] = struct{}{}
	}
	for _, tok := range t1 {
		if _, hit := set[tok]; hit {
			return true
		}
	}
	return false
}
