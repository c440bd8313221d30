package transaction

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(s string) Date {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return NewDate(t)
}

func TestTransaction_Matchable(t *testing.T) {
	assert.True(t, Transaction{Amount: 10}.Matchable())
	assert.False(t, Transaction{Amount: 0}.Matchable())
	assert.False(t, Transaction{Amount: math.NaN()}.Matchable())
}

func TestDisplay_Sign(t *testing.T) {
	assert.Equal(t, SignPositive, NewDisplay(5).Sign())
	assert.Equal(t, SignNegative, NewDisplay(-5).Sign())
	assert.Equal(t, SignZero, NewDisplay(0).Sign())
	assert.Equal(t, SignUnknown, Display{}.Sign())
}

func TestSameSign(t *testing.T) {
	pos := Transaction{Display: NewDisplay(10)}
	neg := Transaction{Display: NewDisplay(-10)}
	unknown := Transaction{}

	assert.True(t, SameSign(pos, pos))
	assert.False(t, SameSign(pos, neg))
	assert.True(t, SameSign(pos, unknown))
	assert.True(t, SameSign(neg, unknown))
	assert.True(t, SameSign(unknown, unknown))
}

func TestDayDiff(t *testing.T) {
	t.Run("present dates", func(t *testing.T) {
		days, ok := DayDiff(date("2024-01-01"), date("2024-01-11"))
		assert.True(t, ok)
		assert.Equal(t, 10, days)

		days, ok = DayDiff(date("2024-01-11"), date("2024-01-01"))
		assert.True(t, ok)
		assert.Equal(t, 10, days)

		days, ok = DayDiff(date("2024-01-01"), date("2024-01-01"))
		assert.True(t, ok)
		assert.Equal(t, 0, days)
	})

	t.Run("absent or invalid dates never produce a distance", func(t *testing.T) {
		_, ok := DayDiff(Date{}, date("2024-01-01"))
		assert.False(t, ok)

		_, ok = DayDiff(InvalidDate("garbage"), date("2024-01-01"))
		assert.False(t, ok)

		_, ok = DayDiff(Date{}, Date{})
		assert.False(t, ok)
	})
}

func TestNormalizeRef(t *testing.T) {
	assert.Equal(t, "chk99", NormalizeRef("  CHK99 "))
	assert.Equal(t, "", NormalizeRef("   "))
}

func TestTokens(t *testing.T) {
	t.Run("keeps significant words only", func(t *testing.T) {
		assert.Equal(t, []string{"payment", "acme", "corp"}, Tokens("Payment to ACME Corp."))
	})

	t.Run("strips punctuation and short tokens", func(t *testing.T) {
		assert.Equal(t, []string{"invoice", "123456"}, Tokens("INVOICE #123456 - an A1"))
	})

	t.Run("arabic text survives", func(t *testing.T) {
		tokens := Tokens("تحويل راتب الموظف")
		assert.Len(t, tokens, 3)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, Tokens(""))
	})
}

func TestSharedToken(t *testing.T) {
	assert.True(t, SharedToken("ACME payroll transfer", "payroll January"))
	assert.False(t, SharedToken("rent office", "utility bill"))
	assert.False(t, SharedToken("", "payroll"))
	// short words never count as evidence
	assert.False(t, SharedToken("to of", "to of"))
}
