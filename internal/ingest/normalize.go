package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/recondesk/recon-backend/internal/domain/transaction"
)

// Excel serial date bounds: 1970-01-01 .. 9999-12-31. Values outside the
// window are treated as plain numbers, not dates.
const (
	excelSerialMin   = 25569
	excelSerialMax   = 2958465
	excelEpochOffset = 25569
	secondsPerDay    = 86400
)

var (
	amountNoise = regexp.MustCompile(`[^0-9.\-]`)
	dmyPattern  = regexp.MustCompile(`^(\d{1,2})[/\-](\d{1,2})[/\-](\d{4})`)
)

// dateLayouts are tried in order after the regional DD/MM/YYYY form.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02 Jan 2006",
	"Jan 2, 2006",
}

// NormalizeAmount parses noisy amount text ("1,250.00 SAR", "(40.50)") into
// a signed value. Currency symbols and separators are stripped; the decimal
// library does the exact parse so "0.1" never picks up float noise before
// the final rounding. ok is false when nothing numeric remains.
func NormalizeAmount(raw string) (value float64, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	// Accounting negatives: (123.45)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = amountNoise.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if negative {
		d = d.Neg()
	}
	return d.Round(2).InexactFloat64(), true
}

// ParseDate turns cell text into the tri-state date. Handles the regional
// DD/MM/YYYY form, Excel serial numbers, and common ISO-ish layouts; text
// that resists all of them yields the Invalid state carrying the raw value.
func ParseDate(raw string) transaction.Date {
	s := strings.TrimSpace(raw)
	if s == "" {
		return transaction.Date{State: transaction.DateAbsent}
	}

	if m := dmyPattern.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC); t.Day() == day && int(t.Month()) == month {
			return transaction.NewDate(t)
		}
		return transaction.InvalidDate(s)
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial > excelSerialMin && serial < excelSerialMax {
			days := int64(serial) - excelEpochOffset
			return transaction.NewDate(time.Unix(days*secondsPerDay, 0).UTC())
		}
		return transaction.InvalidDate(s)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return transaction.NewDate(t)
		}
	}

	return transaction.InvalidDate(s)
}

// buildTransaction assembles one canonical record from resolved cells. Rows
// without a parsable amount still become records (with zero magnitude); the
// pipeline excludes them and the summary counts them, so nothing disappears
// silently at ingest time.
func buildTransaction(cols columns, row []string) transaction.Transaction {
	t := transaction.Transaction{
		ID:   uuid.NewString(),
		Date: ParseDate(cell(row, cols.date)),
		Ref:  cell(row, cols.ref),
		Desc: cell(row, cols.desc),
	}

	if signed, ok := NormalizeAmount(cell(row, cols.amount)); ok {
		t.Display = transaction.NewDisplay(signed)
		if signed < 0 {
			t.Amount = -signed
		} else {
			t.Amount = signed
		}
	}

	return t
}
