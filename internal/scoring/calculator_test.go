package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microcred/internal/models"
)

var asOf = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func tx(kind models.TransactionKind, status models.TransactionStatus, amount float64, occurredAt time.Time) *models.Transaction {
	return &models.Transaction{
		Kind:       kind,
		Amount:     amount,
		Status:     status,
		OccurredAt: occurredAt,
	}
}

func daysAgo(d int) time.Time {
	return asOf.AddDate(0, 0, -d)
}

func TestCalculate_EmptyHistoryDefault(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	breakdown, err := calc.Calculate(nil, asOf)
	require.NoError(t, err)

	assert.Equal(t, 50, breakdown.Score)
	assert.Equal(t, "B", breakdown.Grade)
	assert.Equal(t, models.EligibilityReview, breakdown.Eligibility)
	assert.Empty(t, breakdown.Components)
	require.Len(t, breakdown.Factors, 1)
	assert.Equal(t, "No History", breakdown.Factors[0].Category)
	assert.Zero(t, breakdown.Factors[0].Impact)
}

func TestCalculate_MissingTimestampRejected(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	history := []*models.Transaction{
		tx(models.KindElectricity, models.StatusPaidOnTime, 1200, time.Time{}),
	}

	_, err := calc.Calculate(history, asOf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTimestamp)
}

func TestCalculate_AllOnTimeReliabilityComponent(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	history := []*models.Transaction{
		tx(models.KindElectricity, models.StatusPaidOnTime, 1500, daysAgo(5)),
		tx(models.KindMobile, models.StatusPaidOnTime, 399, daysAgo(10)),
		tx(models.KindElectricity, models.StatusPaidOnTime, 1450, daysAgo(35)),
		tx(models.KindMobile, models.StatusPaidOnTime, 399, daysAgo(40)),
	}

	breakdown, err := calc.Calculate(history, asOf)
	require.NoError(t, err)

	// 100% on-time: +25 raw, weighted by 0.35.
	assert.InDelta(t, 25*0.35, breakdown.Components[models.ComponentPaymentReliability], 1e-9)
}

func TestCalculate_OneFailedReliabilityComponent(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	history := []*models.Transaction{
		tx(models.KindElectricity, models.StatusPaidOnTime, 1500, daysAgo(5)),
		tx(models.KindMobile, models.StatusPaidOnTime, 399, daysAgo(10)),
		tx(models.KindElectricity, models.StatusPaidOnTime, 1450, daysAgo(35)),
		tx(models.KindMobile, models.StatusFailed, 399, daysAgo(40)),
	}

	breakdown, err := calc.Calculate(history, asOf)
	require.NoError(t, err)

	// on_time_ratio 0.75, penalty 0.25: (0.75*25) - (0.25*25) = 12.5 raw.
	assert.InDelta(t, 12.5*0.35, breakdown.Components[models.ComponentPaymentReliability], 1e-9)
}

func TestCalculate_NoDebtIsRewarded(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	history := []*models.Transaction{
		tx(models.KindSalary, models.StatusPaidOnTime, 45000, daysAgo(15)),
		tx(models.KindElectricity, models.StatusPaidOnTime, 1500, daysAgo(5)),
	}

	breakdown, err := calc.Calculate(history, asOf)
	require.NoError(t, err)

	assert.InDelta(t, 5*0.15, breakdown.Components[models.ComponentDebtBehavior], 1e-9)
}

func TestCalculate_ComponentsAlwaysCarryAllKeys(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	history := []*models.Transaction{
		tx(models.KindSalary, models.StatusPaidOnTime, 45000, daysAgo(15)),
	}

	breakdown, err := calc.Calculate(history, asOf)
	require.NoError(t, err)

	for _, key := range []string{
		models.ComponentPaymentReliability,
		models.ComponentBillPayments,
		models.ComponentIncomeStability,
		models.ComponentDebtBehavior,
		models.ComponentTransactionFrequency,
	} {
		assert.Contains(t, breakdown.Components, key)
	}
	// No payment transactions at all: the component is present but zero.
	assert.Zero(t, breakdown.Components[models.ComponentPaymentReliability])
}

func TestCalculate_ScoreAlwaysInBounds(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	histories := map[string][]*models.Transaction{
		"all failed debt": {
			tx(models.KindBNPL, models.StatusFailed, 200000, daysAgo(3)),
			tx(models.KindPayLater, models.StatusFailed, 150000, daysAgo(6)),
			tx(models.KindBNPL, models.StatusFailed, 90000, daysAgo(9)),
			tx(models.KindPayLater, models.StatusFailed, 90000, daysAgo(12)),
		},
		"perfect payer": {
			tx(models.KindElectricity, models.StatusPaidOnTime, 1200, daysAgo(2)),
			tx(models.KindMobile, models.StatusPaidOnTime, 399, daysAgo(4)),
			tx(models.KindSalary, models.StatusPaidOnTime, 50000, daysAgo(10)),
			tx(models.KindSalary, models.StatusPaidOnTime, 50000, daysAgo(40)),
			tx(models.KindSalary, models.StatusPaidOnTime, 50000, daysAgo(70)),
			tx(models.KindElectricity, models.StatusPaidOnTime, 1180, daysAgo(32)),
			tx(models.KindMobile, models.StatusPaidOnTime, 399, daysAgo(34)),
			tx(models.KindElectricity, models.StatusPaidOnTime, 1210, daysAgo(62)),
		},
		"single pending": {
			tx(models.KindMobile, models.StatusPending, 399, daysAgo(1)),
		},
	}

	for name, history := range histories {
		breakdown, err := calc.Calculate(history, asOf)
		require.NoError(t, err, name)
		assert.GreaterOrEqual(t, breakdown.Score, 0, name)
		assert.LessOrEqual(t, breakdown.Score, 100, name)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	history := []*models.Transaction{
		tx(models.KindElectricity, models.StatusPaidOnTime, 1500, daysAgo(5)),
		tx(models.KindSalary, models.StatusPaidOnTime, 45000, daysAgo(15)),
		tx(models.KindBNPL, models.StatusPaidLate, 8000, daysAgo(20)),
	}

	first, err := calc.Calculate(history, asOf)
	require.NoError(t, err)
	second, err := calc.Calculate(history, asOf)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGradeBoundaries(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	cases := []struct {
		score       int
		grade       string
		eligibility models.Eligibility
	}{
		{100, "A+", models.EligibilityApproved},
		{80, "A+", models.EligibilityApproved},
		{79, "A", models.EligibilityApproved},
		{70, "A", models.EligibilityApproved},
		{69, "B+", models.EligibilityApproved},
		{60, "B+", models.EligibilityApproved},
		{50, "B", models.EligibilityReview},
		{40, "C+", models.EligibilityReview},
		{30, "C", models.EligibilityReview},
		{29, "D", models.EligibilityRejected},
		{0, "D", models.EligibilityRejected},
	}

	for _, tc := range cases {
		grade, eligibility := calc.gradeFor(tc.score)
		assert.Equal(t, tc.grade, grade, "score %d", tc.score)
		assert.Equal(t, tc.eligibility, eligibility, "score %d", tc.score)
	}
}

func TestIncomeStability(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	t.Run("too few salary entries", func(t *testing.T) {
		history := []*models.Transaction{
			tx(models.KindSalary, models.StatusPaidOnTime, 40000, daysAgo(10)),
			tx(models.KindSalary, models.StatusPaidOnTime, 40000, daysAgo(40)),
		}
		assert.InDelta(t, -5, calc.incomeStability(history), 1e-9)
	})

	t.Run("steady salary maxes out", func(t *testing.T) {
		var history []*models.Transaction
		for i := 0; i < 6; i++ {
			history = append(history, tx(models.KindSalary, models.StatusPaidOnTime, 50000, daysAgo(10+30*i)))
		}
		// Zero variance plus the regularity bonus, capped at 10.
		assert.InDelta(t, 10, calc.incomeStability(history), 1e-9)
	})

	t.Run("volatile salary scores low", func(t *testing.T) {
		history := []*models.Transaction{
			tx(models.KindSalary, models.StatusPaidOnTime, 10000, daysAgo(10)),
			tx(models.KindSalary, models.StatusPaidOnTime, 80000, daysAgo(40)),
			tx(models.KindSalary, models.StatusPaidOnTime, 20000, daysAgo(70)),
		}
		got := calc.incomeStability(history)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.Less(t, got, 5.0)
	})
}

func TestTransactionFrequency(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	build := func(n int) []*models.Transaction {
		var history []*models.Transaction
		for i := 0; i < n; i++ {
			history = append(history, tx(models.KindMobile, models.StatusPaidOnTime, 100, daysAgo(1+i%25)))
		}
		return history
	}

	assert.InDelta(t, 5, calc.transactionFrequency(build(10), asOf), 1e-9)
	assert.InDelta(t, 3*0.6, calc.transactionFrequency(build(3), asOf), 1e-9)
	assert.InDelta(t, 5-5*0.2, calc.transactionFrequency(build(20), asOf), 1e-9)
	assert.Zero(t, calc.transactionFrequency(nil, asOf))
}

func TestBillPayments_RecencyWindow(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	t.Run("only old bills contribute nothing", func(t *testing.T) {
		history := []*models.Transaction{
			tx(models.KindElectricity, models.StatusPaidLate, 1500, daysAgo(120)),
			tx(models.KindMobile, models.StatusFailed, 399, daysAgo(150)),
		}
		assert.Zero(t, calc.billPayments(history, asOf))
	})

	t.Run("recent on-time bills score full", func(t *testing.T) {
		history := []*models.Transaction{
			tx(models.KindElectricity, models.StatusPaidOnTime, 1500, daysAgo(10)),
			tx(models.KindMobile, models.StatusPaidOnTime, 399, daysAgo(20)),
		}
		assert.InDelta(t, 15, calc.billPayments(history, asOf), 1e-9)
	})

	t.Run("recent late bills go negative", func(t *testing.T) {
		history := []*models.Transaction{
			tx(models.KindElectricity, models.StatusPaidLate, 1500, daysAgo(10)),
		}
		assert.InDelta(t, -10, calc.billPayments(history, asOf), 1e-9)
	})
}

func TestDebtBehavior_Penalties(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	t.Run("high volume saturates the amount penalty", func(t *testing.T) {
		history := []*models.Transaction{
			tx(models.KindBNPL, models.StatusPaidOnTime, 500000, daysAgo(10)),
		}
		assert.InDelta(t, 5-15, calc.debtBehavior(history), 1e-9)
	})

	t.Run("failed repayments floor at -15", func(t *testing.T) {
		history := []*models.Transaction{
			tx(models.KindBNPL, models.StatusFailed, 100000, daysAgo(10)),
			tx(models.KindPayLater, models.StatusFailed, 100000, daysAgo(20)),
			tx(models.KindBNPL, models.StatusFailed, 100000, daysAgo(30)),
		}
		assert.InDelta(t, -15, calc.debtBehavior(history), 1e-9)
	})

	t.Run("modest well-repaid debt stays positive", func(t *testing.T) {
		history := []*models.Transaction{
			tx(models.KindBNPL, models.StatusPaidOnTime, 5000, daysAgo(10)),
		}
		assert.InDelta(t, 5-1, calc.debtBehavior(history), 1e-9)
	})
}

func TestCalculate_FactorsPerCategory(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	history := []*models.Transaction{
		tx(models.KindElectricity, models.StatusPaidOnTime, 1500, daysAgo(5)),
		tx(models.KindSalary, models.StatusPaidOnTime, 45000, daysAgo(15)),
		tx(models.KindBNPL, models.StatusPaidLate, 8000, daysAgo(20)),
	}

	breakdown, err := calc.Calculate(history, asOf)
	require.NoError(t, err)

	categories := make(map[string]string, len(breakdown.Factors))
	for _, f := range breakdown.Factors {
		categories[f.Category] = f.Details
	}

	assert.Contains(t, categories, "Payment Reliability")
	assert.Contains(t, categories, "Utility Bills")
	assert.Contains(t, categories, "Income Stability")
	assert.Contains(t, categories, "Debt Behavior")
	assert.Contains(t, categories, "Transaction Frequency")
	assert.Equal(t, "1 on-time, 1 late, 0 failed payments", categories["Payment Reliability"])
}
