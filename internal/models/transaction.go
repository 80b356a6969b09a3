package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionKind string

const (
	KindElectricity TransactionKind = "electricity"
	KindMobile      TransactionKind = "mobile"
	KindSalary      TransactionKind = "salary"
	KindBNPL        TransactionKind = "bnpl"
	KindPayLater    TransactionKind = "paylater"
)

type TransactionStatus string

const (
	StatusPaidOnTime TransactionStatus = "paid_on_time"
	StatusPaidLate   TransactionStatus = "paid_late"
	StatusFailed     TransactionStatus = "failed"
	StatusPending    TransactionStatus = "pending"
)

// ValidKind reports whether k is one of the supported transaction kinds.
func ValidKind(k TransactionKind) bool {
	switch k {
	case KindElectricity, KindMobile, KindSalary, KindBNPL, KindPayLater:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the supported payment statuses.
func ValidStatus(s TransactionStatus) bool {
	switch s {
	case StatusPaidOnTime, StatusPaidLate, StatusFailed, StatusPending:
		return true
	}
	return false
}

// IsPaymentKind reports whether k counts toward payment reliability
// (everything except salary credits).
func (k TransactionKind) IsPaymentKind() bool {
	return k == KindElectricity || k == KindMobile || k == KindBNPL || k == KindPayLater
}

// IsBillKind reports whether k is a recurring utility bill.
func (k TransactionKind) IsBillKind() bool {
	return k == KindElectricity || k == KindMobile
}

// IsDebtKind reports whether k is a short-term credit product.
func (k TransactionKind) IsDebtKind() bool {
	return k == KindBNPL || k == KindPayLater
}

// Transaction is one financial event in a user's ledger. Rows are written
// once at ingestion and never mutated.
type Transaction struct {
	ID          uuid.UUID         `db:"id"`
	UserID      uuid.UUID         `db:"user_id"`
	Kind        TransactionKind   `db:"kind"`
	Amount      float64           `db:"amount"`
	Status      TransactionStatus `db:"status"`
	DueDate     *time.Time        `db:"due_date"`
	PaidDate    *time.Time        `db:"paid_date"`
	DaysLate    int               `db:"days_late"`
	Provider    string            `db:"provider"`
	Description string            `db:"description"`
	OccurredAt  time.Time         `db:"occurred_at"`
	CreatedAt   time.Time         `db:"created_at"`
}
