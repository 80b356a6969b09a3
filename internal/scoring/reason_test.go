package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"microcred/internal/models"
)

func TestChangeReason_PositiveOnTime(t *testing.T) {
	reason := ChangeReason(&models.Transaction{
		Kind:   models.KindElectricity,
		Amount: 1500,
		Status: models.StatusPaidOnTime,
	}, 3)

	assert.Equal(t, "✅ Electricity bill (₹1500) paid on time → +3 points", reason)
}

func TestChangeReason_PositiveOther(t *testing.T) {
	reason := ChangeReason(&models.Transaction{
		Kind:   models.KindSalary,
		Amount: 45000,
		Status: models.StatusPending,
	}, 2)

	assert.Equal(t, "📈 Salary transaction added → +2 points", reason)
}

func TestChangeReason_NegativeLate(t *testing.T) {
	reason := ChangeReason(&models.Transaction{
		Kind:     models.KindMobile,
		Amount:   399,
		Status:   models.StatusPaidLate,
		DaysLate: 7,
	}, -4)

	assert.Equal(t, "⚠️ Mobile bill (₹399) paid 7 days late → -4 points", reason)
}

func TestChangeReason_NegativeFailed(t *testing.T) {
	reason := ChangeReason(&models.Transaction{
		Kind:   models.KindBNPL,
		Amount: 8000,
		Status: models.StatusFailed,
	}, -6)

	assert.Equal(t, "❌ Bnpl payment (₹8000) failed → -6 points", reason)
}

func TestChangeReason_NegativeOther(t *testing.T) {
	reason := ChangeReason(&models.Transaction{
		Kind:   models.KindPayLater,
		Amount: 3000,
		Status: models.StatusPending,
	}, -1)

	assert.Equal(t, "📉 Paylater transaction impact → -1 points", reason)
}

func TestChangeReason_Neutral(t *testing.T) {
	reason := ChangeReason(&models.Transaction{
		Kind:   models.KindMobile,
		Amount: 399,
		Status: models.StatusPaidOnTime,
	}, 0)

	assert.Equal(t, "➡️ Mobile transaction added (no score impact)", reason)
}
