// Package fingerprint derives stable identity strings for transactions.
//
// Fingerprints key the archive store: two records with equal fingerprints are
// treated as the same real-world transaction for duplicate detection across
// import sessions. This is independent of the matching pipeline, which never
// consults fingerprints.
//
// A reference number plus amount is the strongest identity signal, so it wins
// whenever a usable reference exists. Without one, the key degrades to date,
// amount and a description excerpt. Collisions are accepted by design: two
// genuinely distinct records with identical ref+amount are indistinguishable,
// and flagging a false duplicate is preferred over missing a real one.
package fingerprint

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/recondesk/recon-backend/internal/domain/transaction"
)

// minRefLength is the shortest normalized reference considered identifying.
const minRefLength = 3

// Fingerprint computes the identity string for a transaction. It is pure and
// total: malformed dates and amounts degrade to fixed placeholder forms, they
// never fail.
func Fingerprint(t transaction.Transaction) string {
	amount := "0.00"
	if !math.IsNaN(t.Amount) {
		amount = fmt.Sprintf("%.2f", t.Amount)
	}

	ref := transaction.NormalizeRef(t.Ref)
	if utf8.RuneCountInString(ref) >= minRefLength {
		return "REF:" + ref + "|AMT:" + amount
	}

	return "NOREF:" + dateKey(t.Date) + "|AMT:" + amount + "|DSC:" + descExcerpt(t.Desc)
}

// dateKey renders the tri-state date into a stable textual form.
func dateKey(d transaction.Date) string {
	switch d.State {
	case transaction.DatePresent:
		return d.Time.Format("2006-01-02")
	case transaction.DateInvalid:
		if d.Raw == "" {
			return "invalid-date"
		}
		return firstRunes(d.Raw, 10)
	default:
		return "no-date"
	}
}

// descExcerpt is the first 10 runes of the lowercased, whitespace-stripped
// description. Coarse on purpose: noisy narration only needs to contribute a
// little entropy, not match exactly.
func descExcerpt(desc string) string {
	if desc == "" {
		return ""
	}
	stripped := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, strings.ToLower(desc))
	return firstRunes(stripped, 10)
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}
