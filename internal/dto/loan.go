package dto

import "encoding/json"

type LoanApplicationRequest struct {
	MonthlyIncome   float64 `json:"monthly_income" validate:"gt=0"`
	ExistingDebt    float64 `json:"existing_debt" validate:"gte=0"`
	LoanPurpose     string  `json:"loan_purpose" validate:"required"`
	RequestedAmount float64 `json:"requested_amount" validate:"gt=0"`
}

type CreditScoreResponse struct {
	Score             int             `json:"score"`
	Grade             string          `json:"grade"`
	Eligibility       string          `json:"eligibility"`
	MaxLoanAmount     float64         `json:"max_loan_amount"`
	RecommendedAmount float64         `json:"recommended_amount"`
	InterestRate      float64         `json:"interest_rate"`
	EMIAmount         float64         `json:"emi_amount"`
	EMIToIncomeRatio  float64         `json:"emi_to_income_ratio"`
	RBICompliant      bool            `json:"rbi_compliant"`
	Factors           json.RawMessage `json:"factors"`
}

type CreditScoreDetailResponse struct {
	CreditScoreResponse
	MonthlyIncome   float64 `json:"monthly_income"`
	ExistingDebt    float64 `json:"existing_debt"`
	LoanPurpose     string  `json:"loan_purpose"`
	RequestedAmount float64 `json:"requested_amount"`
}

type LoanApplicationResponse struct {
	ApplicationID string              `json:"application_id"`
	CreditScore   CreditScoreResponse `json:"credit_score"`
}

type AdminDashboardResponse struct {
	TotalUsers            int     `json:"total_users"`
	ApprovedCount         int     `json:"approved_count"`
	ReviewCount           int     `json:"review_count"`
	RejectedCount         int     `json:"rejected_count"`
	AvgScore              float64 `json:"avg_score"`
	RBIComplianceRate     float64 `json:"rbi_compliance_rate"`
	AvgEligibleLoanAmount float64 `json:"avg_eligible_loan_amount"`
	ExcellentCreditCount  int     `json:"excellent_credit_count"`
	GoodCreditCount       int     `json:"good_credit_count"`
	PoorCreditCount       int     `json:"poor_credit_count"`
}

type AdminUserSummary struct {
	UserID             string  `json:"user_id"`
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	Phone              string  `json:"phone"`
	MonthlyIncome      float64 `json:"monthly_income"`
	ExistingDebt       float64 `json:"existing_debt"`
	RequestedAmount    float64 `json:"requested_amount"`
	LoanPurpose        string  `json:"loan_purpose"`
	RiskScore          int     `json:"risk_score"`
	Decision           string  `json:"decision"`
	EligibleLoanAmount float64 `json:"eligible_loan_amount"`
	EMIToIncomeRatio   float64 `json:"emi_to_income_ratio"`
	RBICompliant       bool    `json:"rbi_compliant"`
}
