// Package edge converts blended model probabilities and bookmaker odds into
// betting edges. Implied probabilities are taken straight from decimal odds,
// so the bookmaker's margin is kept in: edges are measured against the price
// actually on offer, not a de-vigged fair price.
package edge

import "github.com/yourusername/pitch-edge/internal/models"

// Edge is the calculated value of backing one side of a market at the
// offered price.
type Edge struct {
	// Side is the outcome the edge applies to.
	Side models.Side
	// ModelProbability is the model's probability for that side.
	ModelProbability float64
	// Odds is the decimal price offered for that side.
	Odds float64
	// ImpliedProbability is 1/Odds.
	ImpliedProbability float64
	// Value is the edge in percentage points: (model - implied) * 100.
	Value float64
}

// Calculate computes the edge for a side at the given decimal odds. Odds at
// or below 1.0 carry no payout and return ok=false rather than an error: a
// missing or broken price means "no edge here", not a pipeline failure.
func Calculate(modelProbability, odds float64) (Edge, bool) {
	if odds <= 1.0 {
		return Edge{}, false
	}
	if modelProbability < 0 || modelProbability > 1 {
		return Edge{}, false
	}

	implied := 1.0 / odds
	return Edge{
		ModelProbability:   modelProbability,
		Odds:               odds,
		ImpliedProbability: implied,
		Value:              (modelProbability - implied) * 100,
	}, true
}

// ForPrediction computes the edge for the side a prediction recommends,
// pulling that side's price from the odds snapshot. The probability used is
// the side's probability: the positive-outcome probability for over/yes,
// its complement for under/no.
func ForPrediction(p *models.Prediction, snapshot *models.OddsSnapshot) (Edge, bool) {
	if snapshot == nil {
		return Edge{}, false
	}

	odds := snapshot.PriceFor(p.Type, p.Side)
	e, ok := Calculate(p.SideProbability(), odds)
	if !ok {
		return Edge{}, false
	}
	e.Side = p.Side
	return e, true
}

// Playable reports whether the edge clears the minimum threshold, expressed
// in percentage points.
func (e Edge) Playable(minEdge float64) bool {
	return e.Value >= minEdge
}
