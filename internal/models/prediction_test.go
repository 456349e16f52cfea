package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSideForSplit(t *testing.T) {
	tests := []struct {
		name        string
		t           PredictionType
		probability float64
		want        Side
	}{
		{"over above half", PredictionOverUnder, 0.64, SideOver},
		{"under below half", PredictionOverUnder, 0.36, SideUnder},
		{"exactly even is under", PredictionOverUnder, 0.5, SideUnder},
		{"yes above half", PredictionBTTS, 0.51, SideYes},
		{"no below half", PredictionBTTS, 0.49, SideNo},
		{"exactly even is no", PredictionBTTS, 0.5, SideNo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SideFor(tt.t, tt.probability))
		})
	}
}

func TestSideProbabilityFollowsRecommendation(t *testing.T) {
	over := &Prediction{Type: PredictionOverUnder, Probability: 0.64, Side: SideOver}
	assert.InDelta(t, 0.64, over.SideProbability(), 1e-9)

	under := &Prediction{Type: PredictionOverUnder, Probability: 0.36, Side: SideUnder}
	assert.InDelta(t, 0.64, under.SideProbability(), 1e-9)
}
