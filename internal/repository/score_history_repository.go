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

var scoreHistoryColumns = []string{
	"id", "user_id", "old_score", "new_score", "change_reason", "transaction_id", "created_at",
}

type ScoreHistoryRepository struct {
	db     postgres.DB
	logger *zap.Logger
}

func NewScoreHistoryRepository(db postgres.DB, logger *zap.Logger) *ScoreHistoryRepository {
	return &ScoreHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// WithTx returns a copy of the repository that runs its statements inside
// the given transaction.
func (r *ScoreHistoryRepository) WithTx(tx pgx.Tx) *ScoreHistoryRepository {
	return &ScoreHistoryRepository{db: tx, logger: r.logger}
}

func (r *ScoreHistoryRepository) Create(ctx context.Context, entry *models.ScoreHistoryEntry) error {
	query := squirrel.Insert("score_history").
		Columns(scoreHistoryColumns...).
		Values(entry.ID, entry.UserID, entry.OldScore, entry.NewScore,
			entry.ChangeReason, entry.TransactionID, entry.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// ListBySubject returns up to limit score changes, most recent first.
func (r *ScoreHistoryRepository) ListBySubject(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ScoreHistoryEntry, error) {
	query := squirrel.Select(scoreHistoryColumns...).
		From("score_history").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
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

	var entries []*models.ScoreHistoryEntry
	for rows.Next() {
		var entry models.ScoreHistoryEntry
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.OldScore, &entry.NewScore,
			&entry.ChangeReason, &entry.TransactionID, &entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// DeleteBySubject removes every score history entry of a subject.
func (r *ScoreHistoryRepository) DeleteBySubject(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := squirrel.Delete("score_history").
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
