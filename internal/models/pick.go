package models

import (
	"time"

	"github.com/google/uuid"
)

// Confidence tiers for published picks.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
)

// ConfidenceForEdge maps an edge (percentage points) to a confidence tier.
func ConfidenceForEdge(edge float64) string {
	if edge > 15 {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}

// Pick is a published value recommendation. The (MatchID, PredictionType,
// PickDate) triple is unique in storage so re-running a day's pipeline never
// duplicates or revises a pick.
type Pick struct {
	ID                 uuid.UUID      `db:"id" json:"id" validate:"required,uuid4"`
	MatchID            uuid.UUID      `db:"match_id" json:"match_id" validate:"required,uuid4"`
	PredictionType     PredictionType `db:"prediction_type" json:"prediction_type" validate:"required"`
	Side               Side           `db:"side" json:"side" validate:"required"`
	ModelProbability   float64        `db:"model_probability" json:"model_probability" validate:"gte=0,lte=1"`
	Odds               float64        `db:"odds" json:"odds" validate:"gt=1"`
	ImpliedProbability float64        `db:"implied_probability" json:"implied_probability" validate:"gt=0,lte=1"`
	Edge               float64        `db:"edge" json:"edge"`
	Confidence         string         `db:"confidence" json:"confidence" validate:"oneof=High Medium"`
	ModelVersion       string         `db:"model_version" json:"model_version"`
	PickDate           time.Time      `db:"pick_date" json:"pick_date" validate:"required"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
}

// NewPick builds a pick from a prediction and the odds it was priced against.
// The pick date is the UTC calendar day of generation, which anchors the
// storage uniqueness constraint.
func NewPick(p *Prediction, odds, implied, edge float64, now time.Time) *Pick {
	return &Pick{
		ID:                 uuid.New(),
		MatchID:            p.MatchID,
		PredictionType:     p.Type,
		Side:               p.Side,
		ModelProbability:   p.SideProbability(),
		Odds:               odds,
		ImpliedProbability: implied,
		Edge:               edge,
		Confidence:         ConfidenceForEdge(edge),
		ModelVersion:       p.ModelVersion,
		PickDate:           now.UTC().Truncate(24 * time.Hour),
		CreatedAt:          now.UTC(),
	}
}
