package fingerprint

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/recondesk/recon-backend/internal/domain/transaction"
)

func dated(s string) transaction.Date {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return transaction.NewDate(t)
}

func TestFingerprint_RefPath(t *testing.T) {
	tx := transaction.Transaction{
		Ref:    " CHK99 ",
		Amount: 123.456,
		Date:   dated("2024-01-05"),
		Desc:   "ignored on the ref path",
	}

	assert.Equal(t, "REF:chk99|AMT:123.46", Fingerprint(tx))
}

func TestFingerprint_ShortRefFallsBack(t *testing.T) {
	tx := transaction.Transaction{
		Ref:    "ab", // two runes, below the identifying minimum
		Amount: 10,
		Date:   dated("2024-01-05"),
		Desc:   "Grocery Store",
	}

	assert.Equal(t, "NOREF:2024-01-05|AMT:10.00|DSC:grocerysto", Fingerprint(tx))
}

func TestFingerprint_ArabicRefCountsRunes(t *testing.T) {
	tx := transaction.Transaction{Ref: "مرج", Amount: 5}
	assert.Equal(t, "REF:مرج|AMT:5.00", Fingerprint(tx))
}

func TestFingerprint_DateForms(t *testing.T) {
	base := transaction.Transaction{Amount: 1, Desc: "x"}

	t.Run("absent date", func(t *testing.T) {
		tx := base
		assert.Equal(t, "NOREF:no-date|AMT:1.00|DSC:x", Fingerprint(tx))
	})

	t.Run("invalid date keeps raw prefix", func(t *testing.T) {
		tx := base
		tx.Date = transaction.InvalidDate("31/31/2024 extra")
		assert.Equal(t, "NOREF:31/31/2024|AMT:1.00|DSC:x", Fingerprint(tx))
	})

	t.Run("invalid date with empty raw", func(t *testing.T) {
		tx := base
		tx.Date = transaction.InvalidDate("")
		assert.Equal(t, "NOREF:invalid-date|AMT:1.00|DSC:x", Fingerprint(tx))
	})
}

func TestFingerprint_NaNAmount(t *testing.T) {
	tx := transaction.Transaction{Amount: math.NaN(), Desc: "weird row"}
	assert.Equal(t, "NOREF:no-date|AMT:0.00|DSC:weirdrow", Fingerprint(tx))
}

func TestFingerprint_Deterministic(t *testing.T) {
	tx := transaction.Transaction{
		Ref:    "INV-2024-001",
		Amount: 999.99,
		Date:   dated("2024-06-01"),
	}
	assert.Equal(t, Fingerprint(tx), Fingerprint(tx))
}

func TestFingerprint_IgnoresID(t *testing.T) {
	a := transaction.Transaction{ID: "one", Ref: "CHK1", Amount: 50}
	b := transaction.Transaction{ID: "two", Ref: "CHK1", Amount: 50}
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}
