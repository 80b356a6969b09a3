package models

// Component names used as keys in ScoreBreakdown.Components.
const (
	ComponentPaymentReliability   = "payment_reliability"
	ComponentBillPayments         = "bill_payments"
	ComponentIncomeStability      = "income_stability"
	ComponentDebtBehavior         = "debt_behavior"
	ComponentTransactionFrequency = "transaction_frequency"
)

type Eligibility string

const (
	EligibilityApproved Eligibility = "approved"
	EligibilityReview   Eligibility = "review"
	EligibilityRejected Eligibility = "rejected"
)

// ScoreFactor is one explanatory entry accompanying a breakdown.
type ScoreFactor struct {
	Category string  `json:"category"`
	Impact   float64 `json:"impact"`
	Details  string  `json:"details"`
}

// ScoreBreakdown is the result of one dynamic score calculation. It is
// recomputed on demand and never persisted.
type ScoreBreakdown struct {
	Score       int                `json:"score"`
	Grade       string             `json:"grade"`
	Eligibility Eligibility        `json:"eligibility"`
	Components  map[string]float64 `json:"components"`
	Factors     []ScoreFactor      `json:"factors"`
}
