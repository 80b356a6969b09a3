package scoring

import (
	"errors"
	"fmt"
	"time"

	"microcred/internal/models"
)

// ErrMissingTimestamp is returned when a transaction carries no occurrence
// timestamp. Recency windows cannot be evaluated against a zero time, so the
// calculator refuses the whole history rather than guessing.
var ErrMissingTimestamp = errors.New("transaction has no occurrence timestamp")

// Calculator turns an ordered transaction history into a score breakdown.
// It performs no I/O and reads no clocks; two calls with the same history
// and asOf produce identical breakdowns.
type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Calculate scores a history as of the given instant. The history must be
// ordered most recent first, the way the transaction store returns it.
func (c *Calculator) Calculate(history []*models.Transaction, asOf time.Time) (*models.ScoreBreakdown, error) {
	if len(history) == 0 {
		return c.defaultBreakdown(), nil
	}

	for _, tx := range history {
		if tx.OccurredAt.IsZero() {
			return nil, fmt.Errorf("scoring: transaction %s: %w", tx.ID, ErrMissingTimestamp)
		}
	}

	components := map[string]float64{
		models.ComponentPaymentReliability:   c.paymentReliability(history) * c.cfg.Weights.PaymentReliability,
		models.ComponentBillPayments:         c.billPayments(history, asOf) * c.cfg.Weights.BillPayments,
		models.ComponentIncomeStability:      c.incomeStability(history) * c.cfg.Weights.IncomeStability,
		models.ComponentDebtBehavior:         c.debtBehavior(history) * c.cfg.Weights.DebtBehavior,
		models.ComponentTransactionFrequency: c.transactionFrequency(history, asOf) * c.cfg.Weights.TransactionFrequency,
	}

	total := c.cfg.BaseScore
	for _, v := range components {
		total += v
	}

	score := int(total)
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}

	grade, eligibility := c.gradeFor(score)

	return &models.ScoreBreakdown{
		Score:       score,
		Grade:       grade,
		Eligibility: eligibility,
		Components:  components,
		Factors:     c.factors(history, asOf, components),
	}, nil
}

// gradeFor maps a clamped score onto a grade and eligibility tier.
func (c *Calculator) gradeFor(score int) (string, models.Eligibility) {
	for _, band := range c.cfg.GradeBands {
		if score >= band.MinScore {
			return band.Grade, band.Eligibility
		}
	}
	last := c.cfg.GradeBands[len(c.cfg.GradeBands)-1]
	return last.Grade, last.Eligibility
}

// defaultBreakdown is the neutral prior for subjects with no history.
func (c *Calculator) defaultBreakdown() *models.ScoreBreakdown {
	score := int(c.cfg.BaseScore)
	grade, eligibility := c.gradeFor(score)
	return &models.ScoreBreakdown{
		Score:       score,
		Grade:       grade,
		Eligibility: eligibility,
		Components:  map[string]float64{},
		Factors: []models.ScoreFactor{
			{Category: "No History", Impact: 0, Details: "No transaction data available"},
		},
	}
}

// paymentReliability scores on-time behavior across all payment kinds,
// in [-25, +25].
func (c *Calculator) paymentReliability(history []*models.Transaction) float64 {
	var total, onTime, late, failed int
	for _, tx := range history {
		if !tx.Kind.IsPaymentKind() {
			continue
		}
		total++
		switch tx.Status {
		case models.StatusPaidOnTime:
			onTime++
		case models.StatusPaidLate:
			late++
		case models.StatusFailed:
			failed++
		}
	}
	if total == 0 {
		return 0
	}

	onTimeRatio := float64(onTime) / float64(total)
	latePenalty := (float64(late)*0.5 + float64(failed)) / float64(total)

	score := onTimeRatio*25 - latePenalty*25
	return clamp(score, -25, 25)
}

// billPayments scores utility bill behavior within the recent window,
// in [-10, +15]. No recent bills contribute nothing either way.
func (c *Calculator) billPayments(history []*models.Transaction, asOf time.Time) float64 {
	cutoff := asOf.Add(-c.cfg.BillWindow)
	var recent, recentOnTime int
	for _, tx := range history {
		if !tx.Kind.IsBillKind() || !tx.OccurredAt.After(cutoff) {
			continue
		}
		recent++
		if tx.Status == models.StatusPaidOnTime {
			recentOnTime++
		}
	}
	if recent == 0 {
		return 0
	}

	ratio := float64(recentOnTime) / float64(recent)
	return ratio*15 - (1-ratio)*10
}

// incomeStability scores salary regularity, in [-5, +10]. Fewer than the
// minimum number of salary credits is itself a negative signal.
func (c *Calculator) incomeStability(history []*models.Transaction) float64 {
	var amounts []float64
	for _, tx := range history {
		if tx.Kind != models.KindSalary {
			continue
		}
		if len(amounts) < c.cfg.SalarySampleSize {
			amounts = append(amounts, tx.Amount)
		}
	}
	if len(amounts) < c.cfg.SalaryMinSamples {
		return -5
	}

	var sum float64
	for _, a := range amounts {
		sum += a
	}
	mean := sum / float64(len(amounts))
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, a := range amounts {
		variance += (a - mean) * (a - mean)
	}
	variance /= float64(len(amounts))

	stability := 10 - variance/mean*100
	if stability < 0 {
		stability = 0
	}
	if len(amounts) >= c.cfg.SalaryRegularityMin {
		stability += c.cfg.SalaryBonus
	}
	if stability > 10 {
		stability = 10
	}
	return stability
}

// debtBehavior scores BNPL/pay-later usage, in [-15, +5]. Carrying no
// short-term credit at all is rewarded.
func (c *Calculator) debtBehavior(history []*models.Transaction) float64 {
	var count, failed, late int
	var totalAmount float64
	for _, tx := range history {
		if !tx.Kind.IsDebtKind() {
			continue
		}
		count++
		totalAmount += tx.Amount
		switch tx.Status {
		case models.StatusFailed:
			failed++
		case models.StatusPaidLate:
			late++
		}
	}
	if count == 0 {
		return 5
	}

	debtPenalty := totalAmount / c.cfg.DebtAmountScale * 10
	if debtPenalty > 15 {
		debtPenalty = 15
	}
	repaymentPenalty := float64(failed)*c.cfg.DebtFailedPenalty + float64(late)*c.cfg.DebtLatePenalty

	score := 5 - debtPenalty - repaymentPenalty
	if score < -15 {
		score = -15
	}
	return score
}

// transactionFrequency scores overall recent activity, in [0, +5].
func (c *Calculator) transactionFrequency(history []*models.Transaction, asOf time.Time) float64 {
	cutoff := asOf.Add(-c.cfg.FrequencyWindow)
	count := 0
	for _, tx := range history {
		if tx.OccurredAt.After(cutoff) {
			count++
		}
	}

	switch {
	case count >= c.cfg.FrequencyOptimalMin && count <= c.cfg.FrequencyOptimalMax:
		return 5
	case count < c.cfg.FrequencyOptimalMin:
		return clamp(float64(count)*0.6, 0, 5)
	default:
		return clamp(5-float64(count-c.cfg.FrequencyOptimalMax)*0.2, 0, 5)
	}
}

// factors produces one explanatory entry per component that has supporting
// transactions, carrying the component's weighted impact.
func (c *Calculator) factors(history []*models.Transaction, asOf time.Time, components map[string]float64) []models.ScoreFactor {
	var paymentTotal, onTime, late, failed int
	var billCount, salaryCount, debtCount int
	freqCutoff := asOf.Add(-c.cfg.FrequencyWindow)
	recentCount := 0

	for _, tx := range history {
		if tx.Kind.IsPaymentKind() {
			paymentTotal++
			switch tx.Status {
			case models.StatusPaidOnTime:
				onTime++
			case models.StatusPaidLate:
				late++
			case models.StatusFailed:
				failed++
			}
		}
		if tx.Kind.IsBillKind() {
			billCount++
		}
		if tx.Kind == models.KindSalary {
			salaryCount++
		}
		if tx.Kind.IsDebtKind() {
			debtCount++
		}
		if tx.OccurredAt.After(freqCutoff) {
			recentCount++
		}
	}

	var factors []models.ScoreFactor
	if paymentTotal > 0 {
		factors = append(factors, models.ScoreFactor{
			Category: "Payment Reliability",
			Impact:   components[models.ComponentPaymentReliability],
			Details:  fmt.Sprintf("%d on-time, %d late, %d failed payments", onTime, late, failed),
		})
	}
	if billCount > 0 {
		factors = append(factors, models.ScoreFactor{
			Category: "Utility Bills",
			Impact:   components[models.ComponentBillPayments],
			Details:  fmt.Sprintf("%d utility payments tracked", billCount),
		})
	}
	if salaryCount > 0 {
		factors = append(factors, models.ScoreFactor{
			Category: "Income Stability",
			Impact:   components[models.ComponentIncomeStability],
			Details:  fmt.Sprintf("%d salary entries, regular income pattern", salaryCount),
		})
	}
	if debtCount > 0 {
		factors = append(factors, models.ScoreFactor{
			Category: "Debt Behavior",
			Impact:   components[models.ComponentDebtBehavior],
			Details:  fmt.Sprintf("%d bnpl/paylater installments tracked", debtCount),
		})
	}
	if recentCount > 0 {
		factors = append(factors, models.ScoreFactor{
			Category: "Transaction Frequency",
			Impact:   components[models.ComponentTransactionFrequency],
			Details:  fmt.Sprintf("%d transactions in the last %d days", recentCount, int(c.cfg.FrequencyWindow.Hours()/24)),
		})
	}
	return factors
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
