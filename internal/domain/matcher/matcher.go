// Package matcher implements the multi-tier reconciliation pipeline that
// pairs bank-side and book-side transactions.
//
// The pipeline is a fixed sequence of six passes ordered from highest to
// lowest confidence. Each pass consumes records permanently: once a record is
// matched it is invisible to every later pass. Within a pass, bank records
// are walked in input order and each takes the first compatible book record
// in book input order. The pairing is predictable and explainable rather
// than globally optimal, and ties broken by input order are part of the
// contract.
//
// Example usage:
//
//	result := matcher.Reconcile(bank, book, matcher.Options{ToleranceDays: 2})
//	for _, m := range result.Matches {
//		fmt.Println(m.Kind, m.Amount)
//	}
package matcher

import (
	"math"

	"github.com/google/uuid"

	"github.com/recondesk/recon-backend/internal/domain/transaction"
)

// Reconcile partitions the two input sets into matches and residuals.
//
// The inputs are never mutated; the residual slices are freshly allocated.
// Records with a zero (or non-numeric) magnitude are excluded before the
// first pass and appear in neither matches nor residuals; the summary counts
// them. The function is deterministic for identical inputs and options, and
// never fails: empty inputs simply yield empty matches and one-sided
// residuals.
func Reconcile(bank, book []transaction.Transaction, opts Options) Result {
	curBank, bankExcluded := filterMatchable(bank)
	curBook, bookExcluded := filterMatchable(book)

	summary := Summary{
		BankTotal:    len(bank),
		BookTotal:    len(book),
		BankExcluded: bankExcluded,
		BookExcluded: bookExcluded,
		ByKind:       make(map[Kind]int),
	}

	var matches []Match

	passes := []func(bank, book []transaction.Transaction) ([]Match, []transaction.Transaction, []transaction.Transaction){
		func(bk, bo []transaction.Transaction) ([]Match, []transaction.Transaction, []transaction.Transaction) {
			return perfectPass(bk, bo, opts.RequireRefMatch)
		},
		strongPass,
		func(bk, bo []transaction.Transaction) ([]Match, []transaction.Transaction, []transaction.Transaction) {
			return manyToOnePass(bk, bo, opts.ToleranceDays)
		},
		func(bk, bo []transaction.Transaction) ([]Match, []transaction.Transaction, []transaction.Transaction) {
			return oneToManyPass(bk, bo, opts.ToleranceDays)
		},
		func(bk, bo []transaction.Transaction) ([]Match, []transaction.Transaction, []transaction.Transaction) {
			return amountOnlyPass(bk, bo, opts.ToleranceDays)
		},
		func(bk, bo []transaction.Transaction) ([]Match, []transaction.Transaction, []transaction.Transaction) {
			return variancePass(bk, bo, opts.ToleranceDays)
		},
	}

	for _, pass := range passes {
		var found []Match
		found, curBank, curBook = pass(curBank, curBook)
		matches = append(matches, found...)
	}

	for _, m := range matches {
		summary.ByKind[m.Kind]++
		summary.BankMatched += len(m.Bank)
		summary.BookMatched += len(m.Book)
	}

	return Result{
		Matches:       matches,
		UnmatchedBank: curBank,
		UnmatchedBook: curBook,
		Summary:       summary,
	}
}

// filterMatchable copies the input, dropping records that can never match.
func filterMatchable(items []transaction.Transaction) ([]transaction.Transaction, int) {
	kept := make([]transaction.Transaction, 0, len(items))
	excluded := 0
	for _, t := range items {
		if t.Matchable() {
			kept = append(kept, t)
		} else {
			excluded++
		}
	}
	return kept, excluded
}

// pairPass runs the shared bank-major greedy loop: for each bank record, the
// first book record (input order) accepted by eligible is consumed and build
// turns the pair into a Match.
func pairPass(
	bank, book []transaction.Transaction,
	eligible func(bankItem, bookItem transaction.Transaction) bool,
	build func(bankItem, bookItem transaction.Transaction) Match,
) ([]Match, []transaction.Transaction, []transaction.Transaction) {
	var matches []Match
	usedBook := make(map[int]bool)
	var remainingBank []transaction.Transaction

	for _, bankItem := range bank {
		matched := -1
		for idx, bookItem := range book {
			if usedBook[idx] {
				continue
			}
			if eligible(bankItem, bookItem) {
				matched = idx
				break
			}
		}
		if matched >= 0 {
			usedBook[matched] = true
			matches = append(matches, build(bankItem, book[matched]))
		} else {
			remainingBank = append(remainingBank, bankItem)
		}
	}

	var remainingBook []transaction.Transaction
	for idx, bookItem := range book {
		if !usedBook[idx] {
			remainingBook = append(remainingBook, bookItem)
		}
	}
	return matches, remainingBank, remainingBook
}

// perfectPass pairs records with equal amounts on the same calendar day.
// With requireRef set, both sides must additionally carry the same non-empty
// reference. Highest confidence bucket.
func perfectPass(bank, book []transaction.Transaction, requireRef bool) ([]Match, []transaction.Transaction, []transaction.Transaction) {
	return pairPass(bank, book,
		func(b, k transaction.Transaction) bool {
			if math.Abs(b.Amount-k.Amount) >= AmountTolerance {
				return false
			}
			if days, ok := transaction.DayDiff(b.Date, k.Date); !ok || days != 0 {
				return false
			}
			if requireRef && !refsEqual(b, k) {
				return false
			}
			return transaction.SameSign(b, k)
		},
		func(b, k transaction.Transaction) Match {
			return newPairMatch(KindExact, b, k, 0)
		})
}

// strongPass pairs equal amounts whose dates drifted (delayed clearing), but
// only when reference or description evidence backs the pair.
func strongPass(bank, book []transaction.Transaction) ([]Match, []transaction.Transaction, []transaction.Transaction) {
	return pairPass(bank, book,
		func(b, k transaction.Transaction) bool {
			if math.Abs(b.Amount-k.Amount) >= AmountTolerance {
				return false
			}
			if !transaction.SameSign(b, k) {
				return false
			}
			days, ok := transaction.DayDiff(b.Date, k.Date)
			if !ok || days > StrongMatchWindowDays {
				return false
			}
			return refsEqual(b, k) || transaction.SharedToken(b.Desc, k.Desc)
		},
		func(b, k transaction.Transaction) Match {
			days, _ := transaction.DayDiff(b.Date, k.Date)
			return newPairMatch(KindStrong, b, k, days)
		})
}

// amountOnlyPass pairs equal amounts inside a widened date window with no
// supporting evidence at all. Lowest-confidence "same number, unverified"
// bucket; the window floor exists so that a strict tolerance of zero still
// produces suggestions for review.
func amountOnlyPass(bank, book []transaction.Transaction, toleranceDays int) ([]Match, []transaction.Transaction, []transaction.Transaction) {
	window := maxInt(toleranceDays, MinAmountOnlyWindowDays)
	return pairPass(bank, book,
		func(b, k transaction.Transaction) bool {
			if math.Abs(b.Amount-k.Amount) >= AmountTolerance {
				return false
			}
			if !transaction.SameSign(b, k) {
				return false
			}
			days, ok := transaction.DayDiff(b.Date, k.Date)
			return ok && days <= window
		},
		func(b, k transaction.Transaction) Match {
			days, _ := transaction.DayDiff(b.Date, k.Date)
			return newPairMatch(KindAmountOnly, b, k, days)
		})
}

// variancePass pairs records whose amounts differ by at least one cent but
// less than a unit, the classic rounding or fee discrepancy. The signed
// difference (bank minus book) is carried on the match.
func variancePass(bank, book []transaction.Transaction, toleranceDays int) ([]Match, []transaction.Transaction, []transaction.Transaction) {
	window := maxInt(toleranceDays, MinVarianceWindowDays)
	return pairPass(bank, book,
		func(b, k transaction.Transaction) bool {
			if !transaction.SameSign(b, k) {
				return false
			}
			diff := math.Abs(b.Amount - k.Amount)
			if diff < AmountTolerance || diff >= VarianceCeiling {
				return false
			}
			days, ok := transaction.DayDiff(b.Date, k.Date)
			return ok && days <= window
		},
		func(b, k transaction.Transaction) Match {
			days, _ := transaction.DayDiff(b.Date, k.Date)
			m := newPairMatch(KindVariance, b, k, days)
			m.AmountDiff = b.Amount - k.Amount
			return m
		})
}

func newPairMatch(kind Kind, bankItem, bookItem transaction.Transaction, dateDiff int) Match {
	return Match{
		ID:       uuid.NewString(),
		Kind:     kind,
		Bank:     []transaction.Transaction{bankItem},
		Book:     []transaction.Transaction{bookItem},
		Amount:   bankItem.Amount,
		DateDiff: dateDiff,
		Status:   DefaultStatus(kind),
	}
}

// refsEqual reports whether both records carry the same non-empty reference.
func refsEqual(a, b transaction.Transaction) bool {
	ra, rb := transaction.NormalizeRef(a.Ref), transaction.NormalizeRef(b.Ref)
	return ra != "" && rb != "" && ra == rb
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
