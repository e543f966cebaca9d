package domain

import "time"

// PredictionEvent records one successful prediction for downstream audit
// consumers.
type PredictionEvent struct {
	ID           string         `json:"id"`
	Features     map[string]any `json:"features"`
	AccidentRisk float64        `json:"accident_risk"`
	ScoredAt     time.Time      `json:"scored_at"`
}

// NewPredictionEvent builds the audit record for a scored row.
func NewPredictionEvent(id string, row FeatureRow, risk float64, scoredAt time.Time) PredictionEvent {
	return PredictionEvent{
		ID:           id,
		Features:     row.Map(),
		AccidentRisk: risk,
		ScoredAt:     scoredAt.UTC(),
	}
}
