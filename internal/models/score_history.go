package models

import (
	"time"

	"github.com/google/uuid"
)

// ScoreHistoryEntry is one immutable audit record of a score change. Every
// transaction ingested through the scoring service produces exactly one.
type ScoreHistoryEntry struct {
	ID            uuid.UUID `db:"id"`
	UserID        uuid.UUID `db:"user_id"`
	OldScore      int       `db:"old_score"`
	NewScore      int       `db:"new_score"`
	ChangeReason  string    `db:"change_reason"`
	TransactionID uuid.UUID `db:"transaction_id"`
	CreatedAt     time.Time `db:"created_at"`
}
