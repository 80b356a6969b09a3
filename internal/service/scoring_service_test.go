package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"microcred/internal/dto"
	"microcred/internal/models"
	"microcred/internal/repository"
	"microcred/internal/scoring"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var transactionTestColumns = []string{
	"id", "user_id", "kind", "amount", "status", "due_date", "paid_date",
	"days_late", "provider", "description", "occurred_at", "created_at",
}

var scoreHistoryTestColumns = []string{
	"id", "user_id", "old_score", "new_score", "change_reason", "transaction_id", "created_at",
}

func newScoringServiceForTest(t *testing.T) (*ScoringService, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	logger := zap.NewNop()
	svc := NewScoringService(
		mock,
		repository.NewTransactionRepository(mock, logger),
		repository.NewScoreHistoryRepository(mock, logger),
		scoring.NewCalculator(scoring.DefaultConfig()),
		logger,
	)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}

	return svc, mock
}

func TestScoringService_RecordTransaction(t *testing.T) {
	svc, mock := newScoringServiceForTest(t)
	userID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(transactionTestColumns))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO score_history").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	resp, err := svc.RecordTransaction(context.Background(), userID, &dto.RecordTransactionRequest{
		Kind:   "electricity",
		Amount: 1200,
		Status: "paid_on_time",
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 50, resp.OldScore)
	assert.Equal(t, 62, resp.NewScore)
	assert.Equal(t, 12, resp.ScoreChange)
	assert.Equal(t, "B+", resp.NewGrade)
	assert.Equal(t, "approved", resp.NewEligibility)
	assert.Contains(t, resp.Message, "paid on time → +12 points")
	assert.NotEmpty(t, resp.TransactionID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoringService_RecordTransaction_InterleavedCallsChain(t *testing.T) {
	svc, mock := newScoringServiceForTest(t)
	userID := uuid.New()

	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	var ticks int64
	svc.now = func() time.Time {
		return base.Add(time.Duration(atomic.AddInt64(&ticks, 1)) * time.Second)
	}
	firstAt := base.Add(1 * time.Second)
	secondAt := base.Add(2 * time.Second)

	// The subject lock serializes the two calls into full read-write cycles,
	// and the clock is read under that lock. Whichever call enters second
	// must see the first call's committed row, chain its ledger entry after
	// it, and carry the later created_at stamp.
	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(transactionTestColumns))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(pgxmock.AnyArg(), userID, models.KindElectricity, 1200.0, models.StatusPaidOnTime,
			(*time.Time)(nil), (*time.Time)(nil), 0, "", "Electricity Payment", firstAt, firstAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO score_history").
		WithArgs(pgxmock.AnyArg(), userID, 50, 62,
			"✅ Electricity bill (₹1200) paid on time → +12 points", pgxmock.AnyArg(), firstAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(transactionTestColumns).
			AddRow(uuid.New(), userID, models.KindElectricity, 1200.0, models.StatusPaidOnTime,
				(*time.Time)(nil), (*time.Time)(nil), 0, "", "Electricity Payment", firstAt, firstAt))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(pgxmock.AnyArg(), userID, models.KindElectricity, 1200.0, models.StatusPaidOnTime,
			(*time.Time)(nil), (*time.Time)(nil), 0, "", "Electricity Payment", secondAt, secondAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO score_history").
		WithArgs(pgxmock.AnyArg(), userID, 62, 62,
			"➡️ Electricity transaction added (no score impact)", pgxmock.AnyArg(), secondAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	responses := make(chan *dto.RecordTransactionResponse, 2)
	errs := make(chan error, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := svc.RecordTransaction(context.Background(), userID, &dto.RecordTransactionRequest{
				Kind:   "electricity",
				Amount: 1200,
				Status: "paid_on_time",
			})
			responses <- resp
			errs <- err
		}()
	}
	wg.Wait()
	close(responses)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	var opener, follower *dto.RecordTransactionResponse
	for resp := range responses {
		if resp.OldScore == 50 {
			opener = resp
		} else {
			follower = resp
		}
	}
	require.NotNil(t, opener, "exactly one call must start from the neutral score")
	require.NotNil(t, follower)

	assert.Equal(t, 62, opener.NewScore)
	assert.Equal(t, 12, opener.ScoreChange)
	assert.Equal(t, opener.NewScore, follower.OldScore)
	assert.Equal(t, 62, follower.NewScore)
	assert.Equal(t, 0, follower.ScoreChange)
	assert.NotEqual(t, opener.TransactionID, follower.TransactionID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoringService_RecordTransaction_RollsBackOnHistoryFailure(t *testing.T) {
	svc, mock := newScoringServiceForTest(t)
	userID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(transactionTestColumns))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO score_history").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := svc.RecordTransaction(context.Background(), userID, &dto.RecordTransactionRequest{
		Kind:   "electricity",
		Amount: 1200,
		Status: "paid_on_time",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "score history")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoringService_RecordTransaction_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		req   dto.RecordTransactionRequest
		field string
	}{
		{
			name:  "unknown kind",
			req:   dto.RecordTransactionRequest{Kind: "mortgage", Amount: 100, Status: "paid_on_time"},
			field: "kind",
		},
		{
			name:  "unknown status",
			req:   dto.RecordTransactionRequest{Kind: "mobile", Amount: 100, Status: "maybe"},
			field: "status",
		},
		{
			name:  "negative amount",
			req:   dto.RecordTransactionRequest{Kind: "mobile", Amount: -5, Status: "paid_on_time"},
			field: "amount",
		},
		{
			name:  "negative days late",
			req:   dto.RecordTransactionRequest{Kind: "mobile", Amount: 100, Status: "paid_late", DaysLate: -1},
			field: "days_late",
		},
		{
			name:  "malformed due date",
			req:   dto.RecordTransactionRequest{Kind: "mobile", Amount: 100, Status: "paid_on_time", DueAt: "next tuesday"},
			field: "due_at",
		},
		{
			name:  "malformed paid date",
			req:   dto.RecordTransactionRequest{Kind: "mobile", Amount: 100, Status: "paid_on_time", PaidAt: "15/06/2025"},
			field: "paid_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newScoringServiceForTest(t)

			_, err := svc.RecordTransaction(context.Background(), uuid.New(), &tt.req)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			// Nothing may reach the store on validation failure.
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestScoringService_RecordTransaction_AcceptsDateOnlyTimestamps(t *testing.T) {
	svc, mock := newScoringServiceForTest(t)
	userID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(transactionTestColumns))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO score_history").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	resp, err := svc.RecordTransaction(context.Background(), userID, &dto.RecordTransactionRequest{
		Kind:   "electricity",
		Amount: 850,
		Status: "paid_on_time",
		DueAt:  "2025-06-10",
		PaidAt: "2025-06-09T18:30:00Z",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoringService_GetScore_EmptyHistory(t *testing.T) {
	svc, mock := newScoringServiceForTest(t)
	userID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(transactionTestColumns))

	resp, err := svc.GetScore(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 50, resp.Score)
	assert.Equal(t, "B", resp.Grade)
	assert.Equal(t, "review", resp.Eligibility)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoringService_GetScoreHistory(t *testing.T) {
	svc, mock := newScoringServiceForTest(t)
	userID := uuid.New()
	txID := uuid.New()

	rows := pgxmock.NewRows(scoreHistoryTestColumns).
		AddRow(uuid.New(), userID, 58, 62, "✅ Electricity bill (₹850) paid on time → +4 points", txID,
			time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)).
		AddRow(uuid.New(), userID, 50, 58, "📈 Salary transaction added → +8 points", txID,
			time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT (.+) FROM score_history (.+) LIMIT 10").
		WithArgs(userID).
		WillReturnRows(rows)

	resp, err := svc.GetScoreHistory(context.Background(), userID, 0)
	require.NoError(t, err)

	require.Len(t, resp.ScoreHistory, 2)
	assert.Equal(t, 58, resp.ScoreHistory[0].OldScore)
	assert.Equal(t, 62, resp.ScoreHistory[0].NewScore)
	assert.Equal(t, "2025-06-14T10:00:00Z", resp.ScoreHistory[0].Date)
	assert.Equal(t, 50, resp.ScoreHistory[1].OldScore)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoringService_GetScoreHistory_Empty(t *testing.T) {
	svc, mock := newScoringServiceForTest(t)
	userID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM score_history").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(scoreHistoryTestColumns))

	resp, err := svc.GetScoreHistory(context.Background(), userID, 5)
	require.NoError(t, err)
	assert.Empty(t, resp.ScoreHistory)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoringService_ClearSubject(t *testing.T) {
	svc, mock := newScoringServiceForTest(t)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM score_history").
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec("DELETE FROM transactions").
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))
	mock.ExpectCommit()

	resp, err := svc.ClearSubject(context.Background(), userID)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, int64(7), resp.TransactionsDeleted)
	assert.Equal(t, int64(3), resp.HistoryDeleted)

	assert.NoError(t, mock.ExpectationsWereMet())
}
