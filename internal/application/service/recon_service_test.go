package service

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recondesk/recon-backend/internal/domain/matcher"
	"github.com/recondesk/recon-backend/internal/domain/transaction"
	"github.com/recondesk/recon-backend/internal/infrastructure/storage"
)

func mk(id, date string, amount float64) transaction.Transaction {
	t := transaction.Transaction{
		ID:      id,
		Amount:  math.Abs(amount),
		Display: transaction.NewDisplay(amount),
	}
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			panic(err)
		}
		t.Date = transaction.NewDate(parsed)
	}
	return t
}

func newTestService(repo storage.Repository) *ReconService {
	return NewReconService(repo, nil, matcher.Options{})
}

func startSession(t *testing.T, svc *ReconService, bank, book []transaction.Transaction) *Session {
	t.Helper()
	return svc.StartSession(bank, book, matcher.Options{})
}

func TestReconService_StartSession_RecordsRun(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newTestService(repo)

	session := startSession(t, svc,
		[]transaction.Transaction{mk("b1", "2024-01-05", 100)},
		[]transaction.Transaction{mk("k1", "2024-01-05", 100)})

	assert.NotEmpty(t, session.ID)
	assert.Len(t, session.Matches, 1)
	assert.True(t, repo.RecordRunCalled)

	runs, err := repo.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].MatchCount)
}

func TestReconService_RunRecordingFailureIsNotFatal(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.RecordRunErr = errors.New("disk full")
	svc := newTestService(repo)

	result := svc.Reconcile(
		[]transaction.Transaction{mk("b1", "2024-01-05", 100)},
		[]transaction.Transaction{mk("k1", "2024-01-05", 100)},
		matcher.Options{})

	assert.Len(t, result.Matches, 1)
}

func TestReconService_Session_NotFound(t *testing.T) {
	svc := newTestService(nil)
	_, err := svc.Session("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestReconService_ManualMatch(t *testing.T) {
	t.Run("equal totals commit immediately", func(t *testing.T) {
		svc := newTestService(nil)
		session := startSession(t, svc,
			[]transaction.Transaction{mk("b1", "2024-01-05", 100)},
			[]transaction.Transaction{mk("k1", "2024-03-05", 100)})
		require.Len(t, session.UnmatchedBank, 1)

		m, err := svc.ManualMatch(session.ID, []string{"b1"}, []string{"k1"}, 0)
		require.NoError(t, err)
		assert.Equal(t, matcher.KindManual, m.Kind)
		assert.Equal(t, matcher.StatusConfirmed, m.Status)

		refreshed, err := svc.Session(session.ID)
		require.NoError(t, err)
		assert.Empty(t, refreshed.UnmatchedBank)
		assert.Empty(t, refreshed.UnmatchedBook)
		assert.Len(t, refreshed.Matches, 1)
	})

	t.Run("unequal totals demand double confirmation", func(t *testing.T) {
		svc := newTestService(nil)
		session := startSession(t, svc,
			[]transaction.Transaction{mk("b1", "2024-01-05", 100)},
			[]transaction.Transaction{mk("k1", "2024-03-05", 90)})

		_, err := svc.ManualMatch(session.ID, []string{"b1"}, []string{"k1"}, 0)
		var gate *ConfirmationRequiredError
		require.ErrorAs(t, err, &gate)
		assert.InDelta(t, 10.0, gate.Difference, 1e-9)
		assert.Equal(t, 2, gate.Required)

		// one confirmation is still not enough
		_, err = svc.ManualMatch(session.ID, []string{"b1"}, []string{"k1"}, 1)
		require.ErrorAs(t, err, &gate)

		m, err := svc.ManualMatch(session.ID, []string{"b1"}, []string{"k1"}, 2)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, m.AmountDiff, 1e-9)
	})

	t.Run("difference at the threshold needs no confirmation", func(t *testing.T) {
		svc := newTestService(nil)
		session := startSession(t, svc,
			[]transaction.Transaction{mk("b1", "2024-01-05", 100.02)},
			[]transaction.Transaction{mk("k1", "2024-03-05", 100.00)})

		_, err := svc.ManualMatch(session.ID, []string{"b1"}, []string{"k1"}, 0)
		assert.NoError(t, err)
	})

	t.Run("empty selection is rejected", func(t *testing.T) {
		svc := newTestService(nil)
		session := startSession(t, svc, nil, nil)

		_, err := svc.ManualMatch(session.ID, []string{"ghost"}, nil, 0)
		assert.ErrorIs(t, err, ErrEmptySelection)
	})
}

func TestReconService_Unmatch_RestoresResiduals(t *testing.T) {
	svc := newTestService(nil)
	session := startSession(t, svc,
		[]transaction.Transaction{mk("b1", "2024-01-05", 100)},
		[]transaction.Transaction{mk("k1", "2024-01-05", 100)})
	require.Len(t, session.Matches, 1)

	require.NoError(t, svc.Unmatch(session.ID, session.Matches[0].ID))

	refreshed, err := svc.Session(session.ID)
	require.NoError(t, err)
	assert.Empty(t, refreshed.Matches)
	assert.Len(t, refreshed.UnmatchedBank, 1)
	assert.Len(t, refreshed.UnmatchedBook, 1)
	assert.Equal(t, "b1", refreshed.UnmatchedBank[0].ID)
}

func TestReconService_Unmatch_UnknownMatch(t *testing.T) {
	svc := newTestService(nil)
	session := startSession(t, svc, nil, nil)

	assert.ErrorIs(t, svc.Unmatch(session.ID, "nope"), ErrMatchNotFound)
}

func TestReconService_UnmatchAll(t *testing.T) {
	svc := newTestService(nil)
	session := startSession(t, svc,
		[]transaction.Transaction{mk("b1", "2024-01-05", 100), mk("b2", "2024-02-01", 30)},
		[]transaction.Transaction{mk("k1", "2024-01-05", 100), mk("k2", "2024-02-01", 30)})
	require.Len(t, session.Matches, 2)

	require.NoError(t, svc.UnmatchAll(session.ID))

	refreshed, err := svc.Session(session.ID)
	require.NoError(t, err)
	assert.Empty(t, refreshed.Matches)
	assert.Len(t, refreshed.UnmatchedBank, 2)
	assert.Len(t, refreshed.UnmatchedBook, 2)
}

func TestReconService_ApproveAndReject(t *testing.T) {
	svc := newTestService(nil)
	// 8 days apart with no evidence: amount-only match in the review bucket
	session := startSession(t, svc,
		[]transaction.Transaction{mk("b1", "2024-01-05", 100)},
		[]transaction.Transaction{mk("k1", "2024-01-10", 100)})
	require.Len(t, session.Matches, 1)
	require.Equal(t, matcher.StatusReview, session.Matches[0].Status)

	t.Run("approve promotes to confirmed", func(t *testing.T) {
		require.NoError(t, svc.Approve(session.ID, session.Matches[0].ID))

		refreshed, err := svc.Session(session.ID)
		require.NoError(t, err)
		assert.Equal(t, matcher.StatusConfirmed, refreshed.Matches[0].Status)
	})

	t.Run("reject returns records to the pools", func(t *testing.T) {
		require.NoError(t, svc.Reject(session.ID, session.Matches[0].ID))

		refreshed, err := svc.Session(session.ID)
		require.NoError(t, err)
		assert.Empty(t, refreshed.Matches)
		assert.Len(t, refreshed.UnmatchedBank, 1)
	})
}

func TestReconService_ApproveAllOfKind(t *testing.T) {
	svc := newTestService(nil)
	session := startSession(t, svc,
		[]transaction.Transaction{mk("b1", "2024-01-05", 100), mk("b2", "2024-01-06", 50)},
		[]transaction.Transaction{mk("k1", "2024-01-10", 100), mk("k2", "2024-01-08", 50)})
	require.Len(t, session.Matches, 2)
	for _, m := range session.Matches {
		require.Equal(t, matcher.KindAmountOnly, m.Kind)
	}

	require.NoError(t, svc.ApproveAll(session.ID, matcher.KindAmountOnly))

	refreshed, err := svc.Session(session.ID)
	require.NoError(t, err)
	for _, m := range refreshed.Matches {
		assert.Equal(t, matcher.StatusConfirmed, m.Status)
	}
}

func TestReconService_Suggest(t *testing.T) {
	svc := newTestService(nil)
	// book dates far enough away that no automatic pass touches anything
	session := startSession(t, svc,
		[]transaction.Transaction{
			mk("b1", "2024-01-05", 70),
			mk("b2", "2024-01-05", 25),
		},
		[]transaction.Transaction{
			mk("k1", "2024-03-01", 30),
			mk("k2", "2024-03-01", 40),
		})
	require.Empty(t, session.Matches)

	// selecting both book records should surface the bank record summing to 70
	ranked, err := svc.Suggest(session.ID, storage.SideBank, []string{"k1", "k2"})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "b1", ranked[0].ID)

	_, err = svc.Suggest(session.ID, "ledger", nil)
	assert.ErrorIs(t, err, ErrUnknownSide)
}

func TestReconService_SaveToArchive(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newTestService(repo)

	items := []transaction.Transaction{
		mk("b1", "2024-01-05", 100),
		mk("b1-dup", "2024-01-05", 100), // same fingerprint as b1
		mk("b2", "2024-01-06", 55),
	}
	// identical date/amount/desc collapse to one fingerprint
	added, warn := svc.SaveToArchive(items, storage.SideBank)
	require.NoError(t, warn)
	assert.Equal(t, 2, added)
	assert.True(t, repo.InsertCalled)

	// saving again adds nothing
	added, warn = svc.SaveToArchive(items, storage.SideBank)
	require.NoError(t, warn)
	assert.Equal(t, 0, added)
}

func TestReconService_SaveToArchive_StorageFailureIsWarning(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.InsertErr = errors.New("database locked")
	svc := newTestService(repo)

	added, warn := svc.SaveToArchive([]transaction.Transaction{mk("b1", "2024-01-05", 100)}, storage.SideBank)
	assert.Equal(t, 0, added)
	assert.Error(t, warn)
}

func TestReconService_CheckDuplicates(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newTestService(repo)

	seen := mk("old", "2024-01-05", 100)
	fresh := mk("new", "2024-02-02", 55)

	_, warn := svc.SaveToArchive([]transaction.Transaction{seen}, storage.SideBank)
	require.NoError(t, warn)

	unique, duplicates, warn := svc.CheckDuplicates([]transaction.Transaction{seen, fresh}, storage.SideBank)
	require.NoError(t, warn)
	require.Len(t, duplicates, 1)
	assert.Equal(t, "old", duplicates[0].ID)
	require.Len(t, unique, 1)
	assert.Equal(t, "new", unique[0].ID)
}

func TestReconService_CheckDuplicates_LookupFailureAssumesUnique(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.LookupErr = errors.New("database locked")
	svc := newTestService(repo)

	unique, duplicates, warn := svc.CheckDuplicates([]transaction.Transaction{mk("b1", "2024-01-05", 100)}, storage.SideBank)
	assert.Len(t, unique, 1)
	assert.Empty(t, duplicates)
	assert.Error(t, warn)
}

func TestReconService_CheckDuplicates_NoRepository(t *testing.T) {
	svc := newTestService(nil)

	unique, duplicates, warn := svc.CheckDuplicates([]transaction.Transaction{mk("b1", "2024-01-05", 100)}, storage.SideBank)
	require.NoError(t, warn)
	assert.Len(t, unique, 1)
	assert.Empty(t, duplicates)
}

func TestReconService_SnapshotsAreIsolated(t *testing.T) {
	svc := newTestService(nil)
	session := startSession(t, svc,
		[]transaction.Transaction{mk("b1", "2024-01-05", 100)},
		[]transaction.Transaction{mk("k1", "2024-03-05", 100)})

	before, err := svc.Session(session.ID)
	require.NoError(t, err)
	require.Len(t, before.UnmatchedBank, 1)

	_, err = svc.ManualMatch(session.ID, []string{"b1"}, []string{"k1"}, 0)
	require.NoError(t, err)

	// the earlier snapshot still shows the pre-match state
	assert.Len(t, before.UnmatchedBank, 1)
}
