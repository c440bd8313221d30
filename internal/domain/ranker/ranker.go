// Package ranker orders unmatched records by estimated relevance to an
// in-progress manual selection on the opposite side.
//
// The score is a coarse additive model: reference evidence dominates, amount
// agreement comes second, description similarity third. Date proximity is not
// scored at all; it only breaks near-ties. The resulting order is a
// human-assistive approximation, not a relevance model; the ranker never
// commits a match on its own.
package ranker

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/recondesk/recon-backend/internal/domain/transaction"
)

// Score weights. Reference hits must outrank any combination of the weaker
// signals, hence the order-of-magnitude gaps.
const (
	scoreRefExact     = 1000
	scoreRefSubstring = 500
	scoreAmount       = 200
	scoreDescContains = 100
	scoreTokenOverlap = 20

	// amountTolerance mirrors the grouping tolerance of the pipeline.
	amountTolerance = 0.05

	// nearTieBand is the score distance under which two candidates count as
	// equivalent and fall back to date proximity.
	nearTieBand = 10

	// undatedDistance pushes candidates without a usable date behind every
	// dated candidate in a near-tie.
	undatedDistance = math.MaxInt32
)

// Rank returns the candidates reordered by relevance to the selection. The
// input slice is not modified; an empty selection returns a copy in the
// original order. The sort uses one comparator combining the score bucket
// with the date tie-break, keeping the order stable across calls.
func Rank(candidates, selection []transaction.Transaction) []transaction.Transaction {
	out := append([]transaction.Transaction(nil), candidates...)
	if len(selection) == 0 {
		return out
	}

	target := buildTarget(selection)

	type ranked struct {
		score    int
		dateDist int
	}
	scores := make(map[string]ranked, len(out))
	for _, c := range out {
		scores[c.ID] = ranked{
			score:    target.score(c),
			dateDist: target.dateDistance(c),
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := scores[out[i].ID], scores[out[j].ID]
		if abs(a.score-b.score) > nearTieBand {
			return a.score > b.score
		}
		return a.dateDist < b.dateDist
	})
	return out
}

// target is the precomputed view of the user's tentative selection.
type target struct {
	amount   float64
	refs     []string // normalized, identifying length only
	descs    []string // lowercased, may be empty strings
	lastDate transaction.Date
}

func buildTarget(selection []transaction.Transaction) target {
	t := target{lastDate: selection[len(selection)-1].Date}
	for _, s := range selection {
		t.amount += s.Amount
		if ref := transaction.NormalizeRef(s.Ref); utf8.RuneCountInString(ref) > 2 {
			t.refs = append(t.refs, ref)
		}
		t.descs = append(t.descs, strings.ToLower(s.Desc))
	}
	return t
}

func (t target) score(c transaction.Transaction) int {
	score := 0

	ref := transaction.NormalizeRef(c.Ref)
	exact, substring := false, false
	for _, tr := range t.refs {
		if tr == ref {
			exact = true
			break
		}
		if ref != "" && (strings.Contains(ref, tr) || strings.Contains(tr, ref)) {
			substring = true
		}
	}
	switch {
	case exact:
		score += scoreRefExact
	case substring:
		score += scoreRefSubstring
	}

	if math.Abs(math.Abs(c.Amount)-math.Abs(t.amount)) < amountTolerance {
		score += scoreAmount
	}

	score += t.descSimilarity(strings.ToLower(c.Desc))
	return score
}

// descSimilarity is the best similarity against any selected description:
// substring containment beats token overlap.
func (t target) descSimilarity(desc string) int {
	best := 0
	for _, td := range t.descs {
		if desc != "" && td != "" && (strings.Contains(desc, td) || strings.Contains(td, desc)) {
			return scoreDescContains
		}
		overlap := tokenOverlap(desc, td) * scoreTokenOverlap
		if overlap > scoreDescContains {
			overlap = scoreDescContains
		}
		if overlap > best {
			best = overlap
		}
	}
	return best
}

// tokenOverlap counts significant tokens of a present in b. Tokens split on
// whitespace, dashes and underscores; only tokens longer than 2 runes count.
func tokenOverlap(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	split := func(s string) []string {
		return strings.FieldsFunc(s, func(r rune) bool {
			return r == ' ' || r == '\t' || r == '-' || r == '_'
		})
	}
	bTokens := make(map[string]struct{})
	for _, tok := range split(b) {
		bTokens[tok] = struct{}{}
	}
	count := 0
	for _, tok := range split(a) {
		if utf8.RuneCountInString(tok) <= 2 {
			continue
		}
		if _, hit := bTokens[tok]; hit {
			count++
		}
	}
	return count
}

// dateDistance is the absolute day distance to the most recently selected
// record, used only for near-tie ordering.
func (t target) dateDistance(c transaction.Transaction) int {
	if t.lastDate.State != transaction.DatePresent {
		return 0
	}
	days, ok := transaction.DayDiff(c.Date, t.lastDate)
	if !ok {
		return undatedDistance
	}
	return days
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
