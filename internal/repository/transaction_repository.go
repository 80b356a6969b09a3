package repository

import (
	"context"

	"microcred/internal/models"
	"microcred/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var transactionColumns = []string{
	"id", "user_id", "kind", "amount", "status", "due_date", "paid_date",
	"days_late", "provider", "description", "occurred_at", "created_at",
}

type TransactionRepository struct {
	db     postgres.DB
	logger *zap.Logger
}

func NewTransactionRepository(db postgres.DB, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// WithTx returns a copy of the repository that runs its statements inside
// the given transaction.
func (r *TransactionRepository) WithTx(tx pgx.Tx) *TransactionRepository {
	return &TransactionRepository{db: tx, logger: r.logger}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := squirrel.Insert("transactions").
		Columns(transactionColumns...).
		Values(tx.ID, tx.UserID, tx.Kind, tx.Amount, tx.Status, tx.DueDate, tx.PaidDate,
			tx.DaysLate, tx.Provider, tx.Description, tx.OccurredAt, tx.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// ListBySubject returns the subject's full transaction history, most recent
// first. The scoring engine rescans this on every calculation.
func (r *TransactionRepository) ListBySubject(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	return r.list(ctx, userID, 0)
}

// ListRecent returns up to limit of the subject's most recent transactions.
func (r *TransactionRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error) {
	return r.list(ctx, userID, limit)
}

func (r *TransactionRepository) list(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error) {
	query := squirrel.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("occurred_at DESC").
		PlaceholderFormat(squirrel.Dollar)
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.Kind, &tx.Amount, &tx.Status, &tx.DueDate, &tx.PaidDate,
			&tx.DaysLate, &tx.Provider, &tx.Description, &tx.OccurredAt, &tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, &tx)
	}

	return transactions, rows.Err()
}

// DeleteBySubject removes every transaction of a subject. Administrative
// bulk clear only; normal ingestion never deletes.
func (r *TransactionRepository) DeleteBySubject(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := squirrel.Delete("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
