package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recondesk/recon-backend/internal/domain/transaction"
)

func TestManyToOnePass_GroupsAllCandidates(t *testing.T) {
	bank := []transaction.Transaction{
		mk("b1", "2024-03-02", 150),
		mk("b2", "2024-03-03", 150),
	}
	book := []transaction.Transaction{mk("k1", "2024-03-01", 300)}

	matches, remBank, remBook := manyToOnePass(bank, book, 0)

	require.Len(t, matches, 1)
	assert.Len(t, matches[0].Bank, 2)
	assert.Empty(t, remBank)
	assert.Empty(t, remBook)
}

func TestManyToOnePass_RejectsAmbiguousWindow(t *testing.T) {
	// Three candidates sum to 450, not 300. The pass takes all candidates in
	// the window or none; it never searches for the 150+150 subset.
	bank := []transaction.Transaction{
		mk("b1", "2024-03-02", 150),
		mk("b2", "2024-03-02", 150),
		mk("b3", "2024-03-02", 150),
	}
	book := []transaction.Transaction{mk("k1", "2024-03-01", 300)}

	matches, remBank, remBook := manyToOnePass(bank, book, 0)

	assert.Empty(t, matches)
	assert.Len(t, remBank, 3)
	assert.Len(t, remBook, 1)
}

func TestManyToOnePass_RequiresTwoCandidates(t *testing.T) {
	bank := []transaction.Transaction{mk("b1", "2024-03-01", 300)}
	book := []transaction.Transaction{mk("k1", "2024-03-01", 300)}

	matches, _, _ := manyToOnePass(bank, book, 0)
	assert.Empty(t, matches)
}

func TestManyToOnePass_WindowFloor(t *testing.T) {
	// tolerance 0 still allows 3 days of drift inside a group
	bank := []transaction.Transaction{
		mk("b1", "2024-03-04", 100),
		mk("b2", "2024-03-04", 200),
	}
	book := []transaction.Transaction{mk("k1", "2024-03-01", 300)}

	matches, _, _ := manyToOnePass(bank, book, 0)
	require.Len(t, matches, 1)

	// one day past the floor and the candidates drop out
	bank = []transaction.Transaction{
		mk("b1", "2024-03-05", 100),
		mk("b2", "2024-03-05", 200),
	}
	matches, _, _ = manyToOnePass(bank, book, 0)
	assert.Empty(t, matches)
}

func TestOneToManyPass_FindsSubset(t *testing.T) {
	bank := []transaction.Transaction{mk("b1", "2024-05-01", 100)}
	book := []transaction.Transaction{
		mk("k1", "2024-05-01", 30),
		mk("k2", "2024-05-01", 60),
		mk("k3", "2024-05-01", 40),
	}

	matches, remBank, remBook := oneToManyPass(bank, book, 0)

	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, KindOneToMany, m.Kind)
	require.Len(t, m.Book, 2)

	// candidates are tried largest-first, so 60+40 wins over combinations
	// involving 30
	amounts := []float64{m.Book[0].Amount, m.Book[1].Amount}
	assert.ElementsMatch(t, []float64{60, 40}, amounts)

	assert.Empty(t, remBank)
	require.Len(t, remBook, 1)
	assert.Equal(t, "k1", remBook[0].ID)
}

func TestOneToManyPass_GroupSizeCap(t *testing.T) {
	one := func(id string) transaction.Transaction { return mk(id, "2024-05-01", 1) }

	t.Run("five components fit", func(t *testing.T) {
		bank := []transaction.Transaction{mk("b1", "2024-05-01", 5)}
		book := []transaction.Transaction{one("k1"), one("k2"), one("k3"), one("k4"), one("k5"), one("k6")}

		matches, _, remBook := oneToManyPass(bank, book, 0)
		require.Len(t, matches, 1)
		assert.Len(t, matches[0].Book, 5)
		assert.Len(t, remBook, 1)
	})

	t.Run("six components exceed the cap", func(t *testing.T) {
		bank := []transaction.Transaction{mk("b1", "2024-05-01", 6)}
		book := []transaction.Transaction{one("k1"), one("k2"), one("k3"), one("k4"), one("k5"), one("k6")}

		matches, _, _ := oneToManyPass(bank, book, 0)
		assert.Empty(t, matches)
	})
}

func TestOneToManyPass_SkipsOversizedCandidates(t *testing.T) {
	bank := []transaction.Transaction{mk("b1", "2024-05-01", 100)}
	book := []transaction.Transaction{
		mk("k1", "2024-05-01", 150), // larger than the anchor, never a component
		mk("k2", "2024-05-01", 60),
		mk("k3", "2024-05-01", 40),
	}

	matches, _, remBook := oneToManyPass(bank, book, 0)

	require.Len(t, matches, 1)
	require.Len(t, remBook, 1)
	assert.Equal(t, "k1", remBook[0].ID)
}

func TestOneToManyPass_RequiresMultiRecordSolution(t *testing.T) {
	// a single book record covering the whole anchor belongs to the earlier
	// one-to-one passes, not here
	bank := []transaction.Transaction{mk("b1", "2024-05-01", 100)}
	book := []transaction.Transaction{
		mk("k1", "2024-05-01", 100),
		mk("k2", "2024-05-01", 5),
	}

	matches, _, _ := oneToManyPass(bank, book, 0)
	assert.Empty(t, matches)
}

func TestOneToManyPass_SumTolerance(t *testing.T) {
	bank := []transaction.Transaction{mk("b1", "2024-05-01", 100)}
	book := []transaction.Transaction{
		mk("k1", "2024-05-01", 60),
		mk("k2", "2024-05-01", 39.96), // 99.96, within 0.05 of 100
	}

	matches, _, _ := oneToManyPass(bank, book, 0)
	require.Len(t, matches, 1)

	book[1] = mk("k2", "2024-05-01", 39.94) // 99.94, off by 0.06
	matches, _, _ = oneToManyPass(bank, book, 0)
	assert.Empty(t, matches)
}
