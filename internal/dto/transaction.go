package dto

// RecordTransactionRequest is the boundary payload for ingesting one
// financial event. Timestamps accept RFC3339 or bare 2006-01-02 dates.
type RecordTransactionRequest struct {
	Kind        string  `json:"kind" validate:"required,oneof=electricity mobile salary bnpl paylater"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	Status      string  `json:"status" validate:"required,oneof=paid_on_time paid_late failed pending"`
	DueAt       string  `json:"due_at,omitempty"`
	PaidAt      string  `json:"paid_at,omitempty"`
	DaysLate    int     `json:"days_late,omitempty"`
	Provider    string  `json:"provider,omitempty"`
	Description string  `json:"description,omitempty"`
}

// RecordTransactionResponse reports how the ingested transaction moved the
// subject's score.
type RecordTransactionResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	OldScore       int    `json:"old_score"`
	NewScore       int    `json:"new_score"`
	ScoreChange    int    `json:"score_change"`
	NewGrade       string `json:"new_grade"`
	NewEligibility string `json:"new_eligibility"`
	TransactionID  string `json:"transaction_id"`
}

type TransactionResponse struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	DueAt       string  `json:"due_at,omitempty"`
	PaidAt      string  `json:"paid_at,omitempty"`
	DaysLate    int     `json:"days_late"`
	Provider    string  `json:"provider"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

type ClearSubjectResponse struct {
	Success             bool   `json:"success"`
	Message             string `json:"message"`
	TransactionsDeleted int64  `json:"transactions_deleted"`
	HistoryDeleted      int64  `json:"history_deleted"`
}
