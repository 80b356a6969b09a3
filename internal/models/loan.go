package models

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationReview   ApplicationStatus = "review"
	ApplicationRejected ApplicationStatus = "rejected"
)

// LoanApplication is a one-shot loan request scored at application time.
type LoanApplication struct {
	ID              uuid.UUID         `db:"id"`
	UserID          uuid.UUID         `db:"user_id"`
	MonthlyIncome   float64           `db:"monthly_income"`
	ExistingDebt    float64           `db:"existing_debt"`
	LoanPurpose     string            `db:"loan_purpose"`
	RequestedAmount float64           `db:"requested_amount"`
	Status          ApplicationStatus `db:"status"`
	CreatedAt       time.Time         `db:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at"`
}

// CreditScore is the cached result of static application scoring, one row
// per application.
type CreditScore struct {
	ID                uuid.UUID   `db:"id"`
	ApplicationID     uuid.UUID   `db:"application_id"`
	UserID            uuid.UUID   `db:"user_id"`
	Score             int         `db:"score"`
	Grade             string      `db:"grade"`
	Eligibility       Eligibility `db:"eligibility"`
	MaxLoanAmount     float64     `db:"max_loan_amount"`
	RecommendedAmount float64     `db:"recommended_amount"`
	InterestRate      float64     `db:"interest_rate"`
	EMIAmount         float64     `db:"emi_amount"`
	EMIToIncomeRatio  float64     `db:"emi_to_income_ratio"`
	RBICompliant      bool        `db:"rbi_compliant"`
	Factors           string      `db:"factors"`
	CreatedAt         time.Time   `db:"created_at"`
}
