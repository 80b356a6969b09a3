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

var applicationColumns = []string{
	"id", "user_id", "monthly_income", "existing_debt", "loan_purpose",
	"requested_amount", "status", "created_at", "updated_at",
}

var creditScoreColumns = []string{
	"id", "application_id", "user_id", "score", "grade", "eligibility",
	"max_loan_amount", "recommended_amount", "interest_rate", "emi_amount",
	"emi_to_income_ratio", "rbi_compliant", "factors", "created_at",
}

type LoanRepository struct {
	db     postgres.DB
	logger *zap.Logger
}

func NewLoanRepository(db postgres.DB, logger *zap.Logger) *LoanRepository {
	return &LoanRepository{
		db:     db,
		logger: logger,
	}
}

// WithTx returns a copy bound to the given transaction.
func (r *LoanRepository) WithTx(tx pgx.Tx) *LoanRepository {
	return &LoanRepository{
		db:     tx,
		logger: r.logger,
	}
}

func (r *LoanRepository) CreateApplication(ctx context.Context, app *models.LoanApplication) error {
	query := squirrel.Insert("loan_applications").
		Columns(applicationColumns...).
		Values(app.ID, app.UserID, app.MonthlyIncome, app.ExistingDebt, app.LoanPurpose,
			app.RequestedAmount, app.Status, app.CreatedAt, app.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *LoanRepository) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error {
	query := squirrel.Update("loan_applications").
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *LoanRepository) CreateScore(ctx context.Context, score *models.CreditScore) error {
	query := squirrel.Insert("credit_scores").
		Columns(creditScoreColumns...).
		Values(score.ID, score.ApplicationID, score.UserID, score.Score, score.Grade, score.Eligibility,
			score.MaxLoanAmount, score.RecommendedAmount, score.InterestRate, score.EMIAmount,
			score.EMIToIncomeRatio, score.RBICompliant, score.Factors, score.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// LatestScoreBySubject returns the subject's most recent cached credit score.
func (r *LoanRepository) LatestScoreBySubject(ctx context.Context, userID uuid.UUID) (*models.CreditScore, error) {
	query := squirrel.Select(creditScoreColumns...).
		From("credit_scores").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var score models.CreditScore
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&score.ID, &score.ApplicationID, &score.UserID, &score.Score, &score.Grade, &score.Eligibility,
		&score.MaxLoanAmount, &score.RecommendedAmount, &score.InterestRate, &score.EMIAmount,
		&score.EMIToIncomeRatio, &score.RBICompliant, &score.Factors, &score.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &score, nil
}

// LatestApplicationBySubject returns the subject's most recent application.
func (r *LoanRepository) LatestApplicationBySubject(ctx context.Context, userID uuid.UUID) (*models.LoanApplication, error) {
	query := squirrel.Select(applicationColumns...).
		From("loan_applications").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var app models.LoanApplication
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&app.ID, &app.UserID, &app.MonthlyIncome, &app.ExistingDebt, &app.LoanPurpose,
		&app.RequestedAmount, &app.Status, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &app, nil
}

// ListScores returns every cached credit score, for admin aggregates.
func (r *LoanRepository) ListScores(ctx context.Context) ([]*models.CreditScore, error) {
	query := squirrel.Select(creditScoreColumns...).
		From("credit_scores").
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []*models.CreditScore
	for rows.Next() {
		var score models.CreditScore
		if err := rows.Scan(
			&score.ID, &score.ApplicationID, &score.UserID, &score.Score, &score.Grade, &score.Eligibility,
			&score.MaxLoanAmount, &score.RecommendedAmount, &score.InterestRate, &score.EMIAmount,
			&score.EMIToIncomeRatio, &score.RBICompliant, &score.Factors, &score.CreatedAt,
		); err != nil {
			return nil, err
		}
		scores = append(scores, &score)
	}

	return scores, rows.Err()
}

// CountApplicants returns the number of distinct users with an application.
func (r *LoanRepository) CountApplicants(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(DISTINCT user_id) FROM loan_applications").Scan(&count)
	return count, err
}
