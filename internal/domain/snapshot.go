package domain

import (
	"encoding/json"
	"time"
)

// Snapshot is a persisted analytics report for one business and window,
// written by the nightly scan and by explicit report requests.
type Snapshot struct {
	ID          string          `json:"id"`
	BusinessID  string          `json:"business_id"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	ReviewCount int             `json:"review_count"`
	AvgRating   float64         `json:"avg_rating"`
	RiskCount   int             `json:"risk_count"`
	Report      json.RawMessage `json:"report"`
	CreatedAt   time.Time       `json:"created_at"`
}
