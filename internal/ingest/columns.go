// Package ingest loads raw bank and book statements from CSV and XLSX files
// and normalizes them into canonical transactions.
//
// Real statements rarely agree on headers, so columns are auto-detected from
// candidate name fragments (English and Arabic, since the source sheets this
// system was built for carry both). Detection can always be overridden with
// an explicit ColumnMapping.
package ingest

import (
	"strings"
)

// ColumnMapping pins columns by header name. Empty fields fall back to
// auto-detection.
type ColumnMapping struct {
	Date   string
	Amount string
	Ref    string
	Desc   string
}

// Candidate header fragments, checked case-insensitively as substrings.
var (
	dateCandidates   = []string{"date", "time", "day", "التاريخ", "تاريخ", "يوم", "الوقت"}
	refCandidates    = []string{"ref", "check", "cheque", "doc", "no", "id", "مرجع", "رقم", "شيك", "سند", "مستند"}
	amountCandidates = []string{"amount", "debit", "credit", "balance", "المبلغ", "القيمة", "رصيد", "مدين", "دائن"}
	descCandidates   = []string{"desc", "narration", "details", "particular", "statement", "بيان", "وصف", "تفاصيل"}
)

// columns holds the resolved indexes into a header row; -1 means not found.
type columns struct {
	date   int
	amount int
	ref    int
	desc   int
}

// detectColumns resolves the mapping against a header row. The amount column
// is the only hard requirement.
func detectColumns(header []string, mapping ColumnMapping) columns {
	cols := columns{date: -1, amount: -1, ref: -1, desc: -1}

	find := func(pinned string, candidates []string, exclude []string) int {
		for idx, name := range header {
			if pinned != "" {
				if strings.EqualFold(strings.TrimSpace(name), pinned) {
					return idx
				}
				continue
			}
			lower := strings.ToLower(name)
			excluded := false
			for _, ex := range exclude {
				if strings.Contains(lower, ex) {
					excluded = true
					break
				}
			}
			if excluded {
				continue
			}
			for _, cand := range candidates {
				if strings.Contains(lower, cand) {
					return idx
				}
			}
		}
		return -1
	}

	cols.date = find(mapping.Date, dateCandidates, nil)
	// A column named "doc date" or "check amount" is not a reference column.
	cols.ref = find(mapping.Ref, refCandidates, []string{"date", "amount"})
	cols.amount = find(mapping.Amount, amountCandidates, nil)
	cols.desc = find(mapping.Desc, descCandidates, nil)
	return cols
}

// cell safely fetches a value from a possibly ragged row.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
