package matcher

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/recondesk/recon-backend/internal/domain/transaction"
)

// manyToOnePass groups several bank records against a single book anchor:
// split deposits, batched settlements. For each unmatched book record it
// collects ALL sign-compatible bank records inside the date window and checks
// whether their sum hits the anchor amount. There is no subset search here:
// if more candidates fall in the window than the sum needs, the group is
// rejected as ambiguous rather than partially taken.
func manyToOnePass(bank, book []transaction.Transaction, toleranceDays int) ([]Match, []transaction.Transaction, []transaction.Transaction) {
	window := maxInt(toleranceDays, MinGroupWindowDays)

	var matches []Match
	usedBank := make(map[int]bool)
	usedBook := make(map[int]bool)

	for bookIdx, bookItem := range book {
		if usedBook[bookIdx] {
			continue
		}

		var candidates []int
		sum := 0.0
		for bankIdx, bankItem := range bank {
			if usedBank[bankIdx] {
				continue
			}
			if !transaction.SameSign(bankItem, bookItem) {
				continue
			}
			days, ok := transaction.DayDiff(bookItem.Date, bankItem.Date)
			if !ok || days > window {
				continue
			}
			candidates = append(candidates, bankIdx)
			sum += bankItem.Amount
		}

		if len(candidates) < 2 || math.Abs(sum-bookItem.Amount) >= GroupSumTolerance {
			continue
		}

		usedBook[bookIdx] = true
		group := make([]transaction.Transaction, 0, len(candidates))
		for _, idx := range candidates {
			usedBank[idx] = true
			group = append(group, bank[idx])
		}
		matches = append(matches, Match{
			ID:     uuid.NewString(),
			Kind:   KindManyToOne,
			Bank:   group,
			Book:   []transaction.Transaction{bookItem},
			Amount: bookItem.Amount,
			// day spread inside a group is not meaningful
			DateDiff: 0,
			Status:   DefaultStatus(KindManyToOne),
		})
	}

	return matches, residual(bank, usedBank), residual(book, usedBook)
}

// oneToManyPass splits a single bank record over several book records: one
// settlement covering multiple invoices. Candidates are the unmatched,
// sign-compatible book records that fit under the anchor amount and inside
// the date window, sorted by descending amount so large components are tried
// first. A depth-first search bounded by MaxGroupSize and pruned on sum
// overshoot takes the first subset landing within GroupSumTolerance of the
// anchor; the first solution wins, not the best one.
func oneToManyPass(bank, book []transaction.Transaction, toleranceDays int) ([]Match, []transaction.Transaction, []transaction.Transaction) {
	window := maxInt(toleranceDays, MinGroupWindowDays)

	var matches []Match
	usedBank := make(map[int]bool)
	usedBook := make(map[int]bool)

	for bankIdx, bankItem := range bank {
		if usedBank[bankIdx] {
			continue
		}

		type candidate struct {
			idx  int
			item transaction.Transaction
		}
		var candidates []candidate
		for bookIdx, bookItem := range book {
			if usedBook[bookIdx] {
				continue
			}
			if !transaction.SameSign(bankItem, bookItem) {
				continue
			}
			if bookItem.Amount > bankItem.Amount+AmountTolerance {
				continue
			}
			days, ok := transaction.DayDiff(bankItem.Date, bookItem.Date)
			if !ok || days > window {
				continue
			}
			candidates = append(candidates, candidate{idx: bookIdx, item: bookItem})
		}

		if len(candidates) < 2 {
			continue
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].item.Amount > candidates[j].item.Amount
		})

		target := bankItem.Amount
		var solution []int
		solved := false
		var solve func(idx int, sum float64, chosen []int)
		solve = func(idx int, sum float64, chosen []int) {
			if solved {
				return
			}
			if math.Abs(sum-target) < GroupSumTolerance {
				solved = true
				solution = append([]int(nil), chosen...)
				return
			}
			if idx >= len(candidates) || len(chosen) >= MaxGroupSize {
				return
			}
			if sum > target+GroupSumTolerance {
				return
			}
			solve(idx+1, sum+candidates[idx].item.Amount, append(chosen, candidates[idx].idx))
			solve(idx+1, sum, chosen)
		}
		solve(0, 0, nil)

		if len(solution) < 2 {
			continue
		}

		usedBank[bankIdx] = true
		group := make([]transaction.Transaction, 0, len(solution))
		for _, idx := range solution {
			usedBook[idx] = true
			group = append(group, book[idx])
		}
		matches = append(matches, Match{
			ID:       uuid.NewString(),
			Kind:     KindOneToMany,
			Bank:     []transaction.Transaction{bankItem},
			Book:     group,
			Amount:   bankItem.Amount,
			DateDiff: 0,
			Status:   DefaultStatus(KindOneToMany),
		})
	}

	return matches, residual(bank, usedBank), residual(book, usedBook)
}

// residual returns the items whose index is not marked used, in input order.
func residual(items []transaction.Transaction, used map[int]bool) []transaction.Transaction {
	var out []transaction.Transaction
	for idx, item := range items {
		if !used[idx] {
			out = append(out, item)
		}
	}
	return out
}
