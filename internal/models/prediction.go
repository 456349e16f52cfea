package models

import (
	"time"

	"github.com/google/uuid"
)

// PredictionType identifies the market a model predicts.
type PredictionType string

const (
	// PredictionOverUnder is the total-goals over/under 2.5 market.
	PredictionOverUnder PredictionType = "over_under_2.5"
	// PredictionBTTS is the both-teams-to-score market.
	PredictionBTTS PredictionType = "btts"
	// PredictionPlayerProp is reserved for player proposition markets.
	// No trained model ships for it yet.
	PredictionPlayerProp PredictionType = "player_prop"
)

// TrainablePredictionTypes lists the types with model support.
var TrainablePredictionTypes = []PredictionType{PredictionOverUnder, PredictionBTTS}

// Valid reports whether t is a known prediction type.
func (t PredictionType) Valid() bool {
	switch t {
	case PredictionOverUnder, PredictionBTTS, PredictionPlayerProp:
		return true
	}
	return false
}

// Trainable reports whether a model can be trained for t.
func (t PredictionType) Trainable() bool {
	return t == PredictionOverUnder || t == PredictionBTTS
}

// Side is the recommended outcome of a prediction.
type Side string

const (
	SideOver  Side = "over"
	SideUnder Side = "under"
	SideYes   Side = "yes"
	SideNo    Side = "no"
)

// Positive reports whether the side corresponds to the positively-modelled
// outcome (over 2.5 goals, both teams score).
func (s Side) Positive() bool {
	return s == SideOver || s == SideYes
}

// SideFor returns the recommended side for a prediction type given the
// positive-outcome probability. The positive side needs strictly more than
// 0.5; exactly even goes to Under/No.
func SideFor(t PredictionType, probability float64) Side {
	positive := probability > 0.5
	switch t {
	case PredictionBTTS:
		if positive {
			return SideYes
		}
		return SideNo
	default:
		if positive {
			return SideOver
		}
		return SideUnder
	}
}

// Prediction represents a blended ensemble prediction for a match market.
// Probability is always for the positive outcome; Side carries the
// recommendation after the 0.5 split.
type Prediction struct {
	MatchID            uuid.UUID      `db:"match_id" json:"match_id" validate:"required,uuid4"`
	Type               PredictionType `db:"prediction_type" json:"prediction_type" validate:"required"`
	Probability        float64        `db:"probability" json:"probability" validate:"gte=0,lte=1"`
	Side               Side           `db:"side" json:"side" validate:"required"`
	TreeProbability    float64        `db:"tree_probability" json:"tree_probability" validate:"gte=0,lte=1"`
	PoissonProbability float64        `db:"poisson_probability" json:"poisson_probability" validate:"gte=0,lte=1"`
	TreeWeight         float64        `db:"tree_weight" json:"tree_weight" validate:"gte=0,lte=1"`
	ModelVersion       string         `db:"model_version" json:"model_version"`
	LowConfidence      bool           `db:"low_confidence" json:"low_confidence"`
	PredictedAt        time.Time      `db:"predicted_at" json:"predicted_at" validate:"required"`
}

// SideProbability returns the probability of the recommended side.
func (p *Prediction) SideProbability() float64 {
	if p.Side.Positive() {
		return p.Probability
	}
	return 1 - p.Probability
}
