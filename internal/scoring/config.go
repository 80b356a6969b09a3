package scoring

import (
	"time"

	"microcred/internal/models"
)

// Weights are the relative shares of each sub-score in the final score.
// They sum to 1 when all five components are present.
type Weights struct {
	PaymentReliability   float64
	BillPayments         float64
	IncomeStability      float64
	DebtBehavior         float64
	TransactionFrequency float64
}

// GradeBand maps a minimum score to a grade and eligibility tier. Bands are
// evaluated in order, first match wins, so they must be sorted by MinScore
// descending.
type GradeBand struct {
	MinScore    int
	Grade       string
	Eligibility models.Eligibility
}

// Config carries every weight, window and threshold the calculator uses.
// Passing it in explicitly keeps policy changes replayable against old
// histories.
type Config struct {
	BaseScore float64
	Weights   Weights

	// Recency windows.
	BillWindow      time.Duration
	FrequencyWindow time.Duration

	// Income stability.
	SalaryMinSamples    int
	SalarySampleSize    int
	SalaryRegularityMin int
	SalaryBonus         float64

	// Debt behavior.
	DebtAmountScale   float64
	DebtFailedPenalty float64
	DebtLatePenalty   float64

	// Transaction frequency band considered healthy.
	FrequencyOptimalMin int
	FrequencyOptimalMax int

	GradeBands []GradeBand
}

// DefaultConfig returns the production scoring policy.
func DefaultConfig() Config {
	return Config{
		BaseScore: 50,
		Weights: Weights{
			PaymentReliability:   0.35,
			BillPayments:         0.25,
			IncomeStability:      0.20,
			DebtBehavior:         0.15,
			TransactionFrequency: 0.05,
		},
		BillWindow:          90 * 24 * time.Hour,
		FrequencyWindow:     30 * 24 * time.Hour,
		SalaryMinSamples:    3,
		SalarySampleSize:    6,
		SalaryRegularityMin: 6,
		SalaryBonus:         2,
		DebtAmountScale:     50000,
		DebtFailedPenalty:   3,
		DebtLatePenalty:     1.5,
		FrequencyOptimalMin: 8,
		FrequencyOptimalMax: 15,
		GradeBands: []GradeBand{
			{MinScore: 80, Grade: "A+", Eligibility: models.EligibilityApproved},
			{MinScore: 70, Grade: "A", Eligibility: models.EligibilityApproved},
			{MinScore: 60, Grade: "B+", Eligibility: models.EligibilityApproved},
			{MinScore: 50, Grade: "B", Eligibility: models.EligibilityReview},
			{MinScore: 40, Grade: "C+", Eligibility: models.EligibilityReview},
			{MinScore: 30, Grade: "C", Eligibility: models.EligibilityReview},
			{MinScore: 0, Grade: "D", Eligibility: models.EligibilityRejected},
		},
	}
}
