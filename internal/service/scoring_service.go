package service

import (
	"context"
	"fmt"
	"time"

	"microcred/internal/dto"
	"microcred/internal/models"
	"microcred/internal/repository"
	"microcred/internal/scoring"
	"microcred/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	defaultHistoryLimit     = 10
	defaultTransactionLimit = 20
)

// ScoringService owns the dynamic score lifecycle: it is the only component
// that touches both the transaction store and the score history ledger.
type ScoringService struct {
	pool        postgres.Pool
	txRepo      *repository.TransactionRepository
	historyRepo *repository.ScoreHistoryRepository
	calc        *scoring.Calculator
	locks       *subjectLocks
	now         func() time.Time
	logger      *zap.Logger
}

func NewScoringService(
	pool postgres.Pool,
	txRepo *repository.TransactionRepository,
	historyRepo *repository.ScoreHistoryRepository,
	calc *scoring.Calculator,
	logger *zap.Logger,
) *ScoringService {
	return &ScoringService{
		pool:        pool,
		txRepo:      txRepo,
		historyRepo: historyRepo,
		calc:        calc,
		locks:       newSubjectLocks(),
		now:         time.Now,
		logger:      logger,
	}
}

// RecordTransaction ingests one financial event and rescores the subject.
// The transaction row and its score history entry are written atomically:
// either both land or neither does.
func (s *ScoringService) RecordTransaction(ctx context.Context, userID uuid.UUID, req *dto.RecordTransactionRequest) (*dto.RecordTransactionResponse, error) {
	tx, err := s.buildTransaction(userID, req)
	if err != nil {
		return nil, err
	}

	// Critical section: read old score → append → recompute → append history.
	mu := s.locks.acquire(userID)
	defer mu.Unlock()

	// The clock is sampled under the lock: ledger entries commit in the same
	// order as their created_at stamps, and the new transaction is never
	// older than rows already in the history it is prepended to.
	asOf := s.now()
	tx.OccurredAt = asOf
	tx.CreatedAt = asOf

	history, err := s.txRepo.ListBySubject(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction history: %w", err)
	}

	oldBreakdown, err := s.calc.Calculate(history, asOf)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin rescore transaction: %w", err)
	}
	defer dbTx.Rollback(ctx)

	if err := s.txRepo.WithTx(dbTx).Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to store transaction: %w", err)
	}

	updated := append([]*models.Transaction{tx}, history...)
	newBreakdown, err := s.calc.Calculate(updated, asOf)
	if err != nil {
		return nil, err
	}

	scoreChange := newBreakdown.Score - oldBreakdown.Score
	changeReason := scoring.ChangeReason(tx, scoreChange)

	if tx.ID == uuid.Nil {
		return nil, ErrInconsistentWrite
	}

	entry := &models.ScoreHistoryEntry{
		ID:            uuid.New(),
		UserID:        userID,
		OldScore:      oldBreakdown.Score,
		NewScore:      newBreakdown.Score,
		ChangeReason:  changeReason,
		TransactionID: tx.ID,
		CreatedAt:     asOf,
	}
	if err := s.historyRepo.WithTx(dbTx).Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to store score history entry: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit rescore transaction: %w", err)
	}

	s.logger.Info("Transaction recorded",
		zap.String("user_id", userID.String()),
		zap.String("transaction_id", tx.ID.String()),
		zap.String("kind", string(tx.Kind)),
		zap.Int("old_score", oldBreakdown.Score),
		zap.Int("new_score", newBreakdown.Score),
	)

	return &dto.RecordTransactionResponse{
		Success:        true,
		Message:        changeReason,
		OldScore:       oldBreakdown.Score,
		NewScore:       newBreakdown.Score,
		ScoreChange:    scoreChange,
		NewGrade:       newBreakdown.Grade,
		NewEligibility: string(newBreakdown.Eligibility),
		TransactionID:  tx.ID.String(),
	}, nil
}

// GetScore recomputes the subject's breakdown over the full history. A
// subject with no transactions gets the neutral default, not an error.
func (s *ScoringService) GetScore(ctx context.Context, userID uuid.UUID) (*dto.ScoreResponse, error) {
	history, err := s.txRepo.ListBySubject(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction history: %w", err)
	}

	breakdown, err := s.calc.Calculate(history, s.now())
	if err != nil {
		return nil, err
	}

	return &dto.ScoreResponse{
		Score:       breakdown.Score,
		Grade:       breakdown.Grade,
		Eligibility: string(breakdown.Eligibility),
		Components:  breakdown.Components,
		Factors:     breakdown.Factors,
	}, nil
}

// GetScoreHistory returns the audit trail of score changes, most recent
// first. No recomputation happens here.
func (s *ScoringService) GetScoreHistory(ctx context.Context, userID uuid.UUID, limit int) (*dto.ScoreHistoryResponse, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	entries, err := s.historyRepo.ListBySubject(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load score history: %w", err)
	}

	items := make([]dto.ScoreHistoryItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.ScoreHistoryItem{
			OldScore:     entry.OldScore,
			NewScore:     entry.NewScore,
			ChangeReason: entry.ChangeReason,
			Date:         entry.CreatedAt.Format(time.RFC3339),
		})
	}

	return &dto.ScoreHistoryResponse{ScoreHistory: items}, nil
}

// ListTransactions returns the subject's recent transactions.
func (s *ScoringService) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) (*dto.TransactionListResponse, error) {
	if limit <= 0 {
		limit = defaultTransactionLimit
	}

	transactions, err := s.txRepo.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	items := make([]dto.TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		item := dto.TransactionResponse{
			ID:          tx.ID.String(),
			Kind:        string(tx.Kind),
			Amount:      tx.Amount,
			Status:      string(tx.Status),
			DaysLate:    tx.DaysLate,
			Provider:    tx.Provider,
			Description: tx.Description,
			Date:        tx.OccurredAt.Format(time.RFC3339),
		}
		if tx.DueDate != nil {
			item.DueAt = tx.DueDate.Format(time.RFC3339)
		}
		if tx.PaidDate != nil {
			item.PaidAt = tx.PaidDate.Format(time.RFC3339)
		}
		items = append(items, item)
	}

	return &dto.TransactionListResponse{Transactions: items}, nil
}

// ClearSubject wipes a subject's transactions and score history in one
// transaction. Demo/administrative use only.
func (s *ScoringService) ClearSubject(ctx context.Context, userID uuid.UUID) (*dto.ClearSubjectResponse, error) {
	mu := s.locks.acquire(userID)
	defer mu.Unlock()

	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin clear transaction: %w", err)
	}
	defer dbTx.Rollback(ctx)

	// History references transactions, so it goes first.
	historyDeleted, err := s.historyRepo.WithTx(dbTx).DeleteBySubject(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear score history: %w", err)
	}

	transactionsDeleted, err := s.txRepo.WithTx(dbTx).DeleteBySubject(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear transactions: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit clear transaction: %w", err)
	}

	s.logger.Info("Subject cleared",
		zap.String("user_id", userID.String()),
		zap.Int64("transactions_deleted", transactionsDeleted),
		zap.Int64("history_deleted", historyDeleted),
	)

	return &dto.ClearSubjectResponse{
		Success:             true,
		Message:             fmt.Sprintf("Cleared %d transactions and %d score history entries", transactionsDeleted, historyDeleted),
		TransactionsDeleted: transactionsDeleted,
		HistoryDeleted:      historyDeleted,
	}, nil
}

// buildTransaction validates the request and assembles the transaction row.
// Any failure here happens before a single store write. OccurredAt and
// CreatedAt are stamped later, under the subject lock.
func (s *ScoringService) buildTransaction(userID uuid.UUID, req *dto.RecordTransactionRequest) (*models.Transaction, error) {
	kind := models.TransactionKind(req.Kind)
	if !models.ValidKind(kind) {
		return nil, validationErr("kind", fmt.Sprintf("unknown transaction kind %q", req.Kind))
	}

	status := models.TransactionStatus(req.Status)
	if !models.ValidStatus(status) {
		return nil, validationErr("status", fmt.Sprintf("unknown status %q", req.Status))
	}

	if req.Amount < 0 {
		return nil, validationErr("amount", "must be non-negative")
	}
	if req.DaysLate < 0 {
		return nil, validationErr("days_late", "must be non-negative")
	}

	dueDate, err := parseTimestamp(req.DueAt)
	if err != nil {
		return nil, validationErr("due_at", err.Error())
	}
	paidDate, err := parseTimestamp(req.PaidAt)
	if err != nil {
		return nil, validationErr("paid_at", err.Error())
	}

	description := req.Description
	if description == "" {
		description = cases.Title(language.English).String(req.Kind) + " Payment"
	}

	return &models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Kind:        kind,
		Amount:      req.Amount,
		Status:      status,
		DueDate:     dueDate,
		PaidDate:    paidDate,
		DaysLate:    req.DaysLate,
		Provider:    sanitizeUTF8(req.Provider),
		Description: sanitizeUTF8(description),
	}, nil
}

// parseTimestamp accepts RFC3339 or bare dates; anything else is a
// validation failure, never a silent fallback.
func parseTimestamp(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("malformed timestamp %q", value)
}
