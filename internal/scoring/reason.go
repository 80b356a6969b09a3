package scoring

import (
	"fmt"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"microcred/internal/models"
)

// ChangeReason explains how a newly ingested transaction moved the score.
// It is a pure function of the transaction and the delta; the string goes
// verbatim into the score history ledger.
func ChangeReason(tx *models.Transaction, scoreChange int) string {
	kind := cases.Title(language.English).String(string(tx.Kind))
	amount := formatAmount(tx.Amount)

	switch {
	case scoreChange > 0 && tx.Status == models.StatusPaidOnTime:
		return fmt.Sprintf("✅ %s bill (₹%s) paid on time → +%d points", kind, amount, scoreChange)
	case scoreChange > 0:
		return fmt.Sprintf("📈 %s transaction added → +%d points", kind, scoreChange)
	case scoreChange < 0 && tx.Status == models.StatusPaidLate:
		return fmt.Sprintf("⚠️ %s bill (₹%s) paid %d days late → %d points", kind, amount, tx.DaysLate, scoreChange)
	case scoreChange < 0 && tx.Status == models.StatusFailed:
		return fmt.Sprintf("❌ %s payment (₹%s) failed → %d points", kind, amount, scoreChange)
	case scoreChange < 0:
		return fmt.Sprintf("📉 %s transaction impact → %d points", kind, scoreChange)
	default:
		return fmt.Sprintf("➡️ %s transaction added (no score impact)", kind)
	}
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
