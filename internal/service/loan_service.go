package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"microcred/internal/dto"
	"microcred/internal/models"
	"microcred/internal/repository"
	"microcred/pkg/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Regulatory caps for microloans: principal ceiling and maximum lending rate.
const (
	maxLoanCeiling   = 125000.0
	maxLendingRate   = 26.0
	loanTermMonths   = 24
	minMonthlyIncome = 5000.0
)

var purposeScores = map[string]int{
	"business":    15,
	"agriculture": 12,
	"education":   10,
	"medical":     8,
	"personal":    5,
}

type loanFactors struct {
	Income  int `json:"income"`
	Debt    int `json:"debt"`
	Purpose int `json:"purpose"`
	Amount  int `json:"amount"`
}

// LoanService handles one-shot application scoring: a static assessment of
// income, debt, purpose and amount, separate from the transaction-driven
// dynamic score.
type LoanService struct {
	pool     postgres.Pool
	loanRepo *repository.LoanRepository
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewLoanService(pool postgres.Pool, loanRepo *repository.LoanRepository, userRepo *repository.UserRepository, logger *zap.Logger) *LoanService {
	return &LoanService{
		pool:     pool,
		loanRepo: loanRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Apply stores the application, scores it, and caches the result. The three
// writes land in one transaction.
func (s *LoanService) Apply(ctx context.Context, userID uuid.UUID, req *dto.LoanApplicationRequest) (*dto.LoanApplicationResponse, error) {
	if req.MonthlyIncome <= 0 {
		return nil, validationErr("monthly_income", "must be positive")
	}
	if req.ExistingDebt < 0 {
		return nil, validationErr("existing_debt", "must be non-negative")
	}
	if req.RequestedAmount <= 0 {
		return nil, validationErr("requested_amount", "must be positive")
	}

	now := time.Now()
	app := &models.LoanApplication{
		ID:              uuid.New(),
		UserID:          userID,
		MonthlyIncome:   req.MonthlyIncome,
		ExistingDebt:    req.ExistingDebt,
		LoanPurpose:     req.LoanPurpose,
		RequestedAmount: req.RequestedAmount,
		Status:          models.ApplicationPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	score := s.assess(app)

	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin application transaction: %w", err)
	}
	defer dbTx.Rollback(ctx)

	repo := s.loanRepo.WithTx(dbTx)
	if err := repo.CreateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to store loan application: %w", err)
	}
	if err := repo.CreateScore(ctx, score); err != nil {
		return nil, fmt.Errorf("failed to store credit score: %w", err)
	}
	if err := repo.UpdateApplicationStatus(ctx, app.ID, models.ApplicationStatus(score.Eligibility)); err != nil {
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit application transaction: %w", err)
	}

	s.logger.Info("Loan application scored",
		zap.String("user_id", userID.String()),
		zap.String("application_id", app.ID.String()),
		zap.Int("score", score.Score),
		zap.String("eligibility", string(score.Eligibility)),
	)

	return &dto.LoanApplicationResponse{
		ApplicationID: app.ID.String(),
		CreditScore:   creditScoreResponse(score),
	}, nil
}

// GetCreditScore returns the subject's most recent cached assessment along
// with the financial details it was computed from.
func (s *LoanService) GetCreditScore(ctx context.Context, userID uuid.UUID) (*dto.CreditScoreDetailResponse, error) {
	score, err := s.loanRepo.LatestScoreBySubject(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScoreNotFound
		}
		return nil, fmt.Errorf("failed to load credit score: %w", err)
	}

	app, err := s.loanRepo.LatestApplicationBySubject(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loan application: %w", err)
	}

	return &dto.CreditScoreDetailResponse{
		CreditScoreResponse: creditScoreResponse(score),
		MonthlyIncome:       app.MonthlyIncome,
		ExistingDebt:        app.ExistingDebt,
		LoanPurpose:         app.LoanPurpose,
		RequestedAmount:     app.RequestedAmount,
	}, nil
}

// Dashboard aggregates all cached assessments for the admin view.
func (s *LoanService) Dashboard(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	scores, err := s.loanRepo.ListScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load credit scores: %w", err)
	}

	applicants, err := s.loanRepo.CountApplicants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count applicants: %w", err)
	}

	resp := &dto.AdminDashboardResponse{TotalUsers: applicants}

	if len(scores) == 0 {
		return resp, nil
	}

	var scoreSum, amountSum float64
	var compliant int
	for _, score := range scores {
		switch score.Eligibility {
		case models.EligibilityApproved:
			resp.ApprovedCount++
		case models.EligibilityReview:
			resp.ReviewCount++
		case models.EligibilityRejected:
			resp.RejectedCount++
		}
		switch score.Grade {
		case "Excellent":
			resp.ExcellentCreditCount++
		case "Good":
			resp.GoodCreditCount++
		case "Poor":
			resp.PoorCreditCount++
		}
		if score.RBICompliant {
			compliant++
		}
		scoreSum += float64(score.Score)
		amountSum += score.RecommendedAmount
	}

	n := float64(len(scores))
	resp.AvgScore = math.Round(scoreSum/n*10) / 10
	resp.RBIComplianceRate = math.Round(float64(compliant)/n*100*10) / 10
	resp.AvgEligibleLoanAmount = amountSum / n

	return resp, nil
}

// ListUsers joins every user with their latest application and assessment.
// Users without a scored application are skipped.
func (s *LoanService) ListUsers(ctx context.Context) ([]dto.AdminUserSummary, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	summaries := make([]dto.AdminUserSummary, 0, len(users))
	for _, user := range users {
		score, err := s.loanRepo.LatestScoreBySubject(ctx, user.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("failed to load credit score: %w", err)
		}

		app, err := s.loanRepo.LatestApplicationBySubject(ctx, user.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("failed to load loan application: %w", err)
		}

		summaries = append(summaries, dto.AdminUserSummary{
			UserID:             user.ID.String(),
			Name:               user.Name,
			Email:              user.Email,
			Phone:              user.Phone,
			MonthlyIncome:      app.MonthlyIncome,
			ExistingDebt:       app.ExistingDebt,
			RequestedAmount:    app.RequestedAmount,
			LoanPurpose:        app.LoanPurpose,
			RiskScore:          score.Score,
			Decision:           string(score.Eligibility),
			EligibleLoanAmount: score.RecommendedAmount,
			EMIToIncomeRatio:   score.EMIToIncomeRatio,
			RBICompliant:       score.RBICompliant,
		})
	}

	return summaries, nil
}

// assess computes the static credit assessment for one application.
func (s *LoanService) assess(app *models.LoanApplication) *models.CreditScore {
	score := 50

	// Income factor, up to 30 points.
	switch {
	case app.MonthlyIncome >= 50000:
		score += 30
	case app.MonthlyIncome >= 25000:
		score += 20
	case app.MonthlyIncome >= 15000:
		score += 15
	case app.MonthlyIncome >= 10000:
		score += 10
	default:
		score += 5
	}

	// Debt factor, up to 25 points.
	debtToIncome := app.ExistingDebt / app.MonthlyIncome * 100
	switch {
	case debtToIncome <= 20:
		score += 25
	case debtToIncome <= 40:
		score += 15
	case debtToIncome <= 60:
		score += 10
	default:
		score += 5
	}

	// Purpose factor, up to 15 points.
	purposePoints, ok := purposeScores[app.LoanPurpose]
	if !ok {
		purposePoints = 5
	}
	score += purposePoints

	// Amount factor, up to 10 points.
	switch {
	case app.RequestedAmount <= 25000:
		score += 10
	case app.RequestedAmount <= 50000:
		score += 8
	case app.RequestedAmount <= 75000:
		score += 6
	case app.RequestedAmount <= 100000:
		score += 4
	default:
		score += 2
	}

	maxLoan := math.Min(maxLoanCeiling, app.MonthlyIncome*50)
	recommended := math.Round(math.Min(app.RequestedAmount, maxLoan*0.8))

	var rate float64
	switch {
	case score >= 70:
		rate = 18
	case score >= 50:
		rate = 22
	default:
		rate = 26
	}

	// Standard EMI formula over the fixed term.
	monthlyRate := rate / 100 / 12
	compound := math.Pow(1+monthlyRate, loanTermMonths)
	emi := math.Round(recommended * monthlyRate * compound / (compound - 1))
	emiRatio := math.Round(emi/app.MonthlyIncome*100*10) / 10

	var eligibility models.Eligibility
	var grade string
	switch {
	case score >= 70 && emiRatio <= 50 && app.RequestedAmount <= maxLoanCeiling:
		eligibility = models.EligibilityApproved
		grade = "Excellent"
	case score >= 50 && emiRatio <= 60:
		eligibility = models.EligibilityReview
		grade = "Good"
	default:
		eligibility = models.EligibilityRejected
		grade = "Poor"
	}

	rbiCompliant := app.RequestedAmount <= maxLoanCeiling &&
		app.MonthlyIncome >= minMonthlyIncome &&
		emiRatio <= 50 &&
		rate <= maxLendingRate

	factors := loanFactors{
		Income:  factorPercent(boolPoints(app.MonthlyIncome >= 25000, 30, 15), 30),
		Debt:    factorPercent(boolPoints(debtToIncome <= 40, 25, 10), 25),
		Purpose: factorPercent(purposePoints, 15),
		Amount:  factorPercent(boolPoints(app.RequestedAmount <= 50000, 8, 4), 10),
	}
	factorsJSON, _ := json.Marshal(factors)

	return &models.CreditScore{
		ID:                uuid.New(),
		ApplicationID:     app.ID,
		UserID:            app.UserID,
		Score:             score,
		Grade:             grade,
		Eligibility:       eligibility,
		MaxLoanAmount:     maxLoan,
		RecommendedAmount: recommended,
		InterestRate:      rate,
		EMIAmount:         emi,
		EMIToIncomeRatio:  emiRatio,
		RBICompliant:      rbiCompliant,
		Factors:           string(factorsJSON),
		CreatedAt:         app.CreatedAt,
	}
}

func creditScoreResponse(score *models.CreditScore) dto.CreditScoreResponse {
	return dto.CreditScoreResponse{
		Score:             score.Score,
		Grade:             score.Grade,
		Eligibility:       string(score.Eligibility),
		MaxLoanAmount:     score.MaxLoanAmount,
		RecommendedAmount: score.RecommendedAmount,
		InterestRate:      score.InterestRate,
		EMIAmount:         score.EMIAmount,
		EMIToIncomeRatio:  score.EMIToIncomeRatio,
		RBICompliant:      score.RBICompliant,
		Factors:           json.RawMessage(score.Factors),
	}
}

func factorPercent(points, max int) int {
	return int(math.Round(float64(points) / float64(max) * 100))
}

func boolPoints(cond bool, yes, no int) int {
	if cond {
		return yes
	}
	return no
}
