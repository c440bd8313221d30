package ranker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recondesk/recon-backend/internal/domain/transaction"
)

func tx(id string, amount float64, ref, desc, date string) transaction.Transaction {
	t := transaction.Transaction{ID: id, Amount: amount, Ref: ref, Desc: desc}
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			panic(err)
		}
		t.Date = transaction.NewDate(parsed)
	}
	return t
}

func ids(items []transaction.Transaction) []string {
	out := make([]string, 0, len(items))
	for _, t := range items {
		out = append(out, t.ID)
	}
	return out
}

func TestRank_EmptySelectionKeepsOrder(t *testing.T) {
	candidates := []transaction.Transaction{
		tx("c1", 10, "", "", "2024-01-01"),
		tx("c2", 20, "", "", "2024-01-02"),
	}

	ranked := Rank(candidates, nil)
	assert.Equal(t, []string{"c1", "c2"}, ids(ranked))
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	candidates := []transaction.Transaction{
		tx("c1", 10, "", "no signal", "2024-01-01"),
		tx("c2", 50, "CHK1", "", "2024-01-01"),
	}
	selection := []transaction.Transaction{tx("s1", 50, "CHK1", "", "2024-01-01")}

	_ = Rank(candidates, selection)
	assert.Equal(t, []string{"c1", "c2"}, ids(candidates))
}

func TestRank_ExactRefDominates(t *testing.T) {
	candidates := []transaction.Transaction{
		tx("amount-only", 50, "", "", "2024-01-01"),
		tx("substring", 1, "CHK123-A", "", "2024-01-01"),
		tx("exact", 1, "CHK123", "", "2024-01-01"),
	}
	selection := []transaction.Transaction{tx("s1", 50, "CHK123", "", "2024-01-01")}

	ranked := Rank(candidates, selection)
	assert.Equal(t, []string{"exact", "substring", "amount-only"}, ids(ranked))
}

func TestRank_AmountAgainstSelectionSum(t *testing.T) {
	candidates := []transaction.Transaction{
		tx("far", 10, "", "", "2024-01-01"),
		tx("sum", 70, "", "", "2024-01-01"),
	}
	selection := []transaction.Transaction{
		tx("s1", 30, "", "", "2024-01-01"),
		tx("s2", 40, "", "", "2024-01-01"),
	}

	ranked := Rank(candidates, selection)
	assert.Equal(t, "sum", ranked[0].ID)
}

func TestRank_DescriptionSimilarity(t *testing.T) {
	candidates := []transaction.Transaction{
		tx("none", 1, "", "completely unrelated", "2024-01-01"),
		tx("tokens", 1, "", "acme invoice payment", "2024-01-01"),
		tx("contains", 1, "", "wire acme corp settlement", "2024-01-01"),
	}
	selection := []transaction.Transaction{tx("s1", 999, "", "acme corp", "2024-01-01")}

	ranked := Rank(candidates, selection)
	// "wire acme corp settlement" contains the whole selected description
	assert.Equal(t, "contains", ranked[0].ID)
	assert.Equal(t, "tokens", ranked[1].ID)
	assert.Equal(t, "none", ranked[2].ID)
}

func TestRank_DateBreaksNearTies(t *testing.T) {
	// identical scores, only date distance differs
	candidates := []transaction.Transaction{
		tx("far", 50, "", "", "2024-03-01"),
		tx("near", 50, "", "", "2024-01-03"),
	}
	selection := []transaction.Transaction{tx("s1", 50, "", "", "2024-01-01")}

	ranked := Rank(candidates, selection)
	assert.Equal(t, []string{"near", "far"}, ids(ranked))
}

func TestRank_DateNeverOverridesClearScoreGap(t *testing.T) {
	candidates := []transaction.Transaction{
		tx("near-weak", 1, "", "", "2024-01-01"),
		tx("far-strong", 50, "", "", "2024-06-01"),
	}
	selection := []transaction.Transaction{tx("s1", 50, "", "", "2024-01-01")}

	ranked := Rank(candidates, selection)
	assert.Equal(t, "far-strong", ranked[0].ID)
}

func TestRank_UndatedCandidatesSortBehindDatedInTies(t *testing.T) {
	candidates := []transaction.Transaction{
		tx("undated", 50, "", "", ""),
		tx("dated", 50, "", "", "2024-01-05"),
	}
	selection := []transaction.Transaction{tx("s1", 50, "", "", "2024-01-01")}

	ranked := Rank(candidates, selection)
	assert.Equal(t, []string{"dated", "undated"}, ids(ranked))
}

func TestRank_UndatedSelectionDisablesTieBreak(t *testing.T) {
	candidates := []transaction.Transaction{
		tx("c1", 50, "", "", "2024-09-01"),
		tx("c2", 50, "", "", "2024-01-01"),
	}
	selection := []transaction.Transaction{tx("s1", 50, "", "", "")}

	ranked := Rank(candidates, selection)
	// no usable selection date: stable sort keeps input order
	assert.Equal(t, []string{"c1", "c2"}, ids(ranked))
}

func TestRank_ShortRefsCarryNoWeight(t *testing.T) {
	candidates := []transaction.Transaction{
		tx("noref", 50, "", "", "2024-01-01"),
		tx("shortref", 50, "ab", "", "2024-01-01"),
	}
	selection := []transaction.Transaction{tx("s1", 50, "ab", "", "2024-01-01")}

	ranked := Rank(candidates, selection)
	require.Len(t, ranked, 2)
	// both score identically; stable order preserved
	assert.Equal(t, []string{"noref", "shortref"}, ids(ranked))
}
