package dto

import "microcred/internal/models"

// ScoreResponse is the full dynamic score breakdown for a subject.
type ScoreResponse struct {
	Score       int                  `json:"score"`
	Grade       string               `json:"grade"`
	Eligibility string               `json:"eligibility"`
	Components  map[string]float64   `json:"components"`
	Factors     []models.ScoreFactor `json:"factors"`
}

type ScoreHistoryItem struct {
	OldScore     int    `json:"old_score"`
	NewScore     int    `json:"new_score"`
	ChangeReason string `json:"change_reason"`
	Date         string `json:"date"`
}

type ScoreHistoryResponse struct {
	ScoreHistory []ScoreHistoryItem `json:"score_history"`
}
