package edge

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitch-edge/internal/models"
)

func TestCalculate(t *testing.T) {
	e, ok := Calculate(0.64, 1.80)
	require.True(t, ok)

	assert.InDelta(t, 0.5555555, e.ImpliedProbability, 1e-6)
	assert.InDelta(t, 8.444444, e.Value, 1e-5)
	assert.Equal(t, 1.80, e.Odds)
}

func TestCalculateNegativeEdge(t *testing.T) {
	// Model likes it less than the market does
	e, ok := Calculate(0.40, 2.00)
	require.True(t, ok)
	assert.InDelta(t, -10.0, e.Value, 1e-9)
	assert.False(t, e.Playable(8.0))
}

func TestCalculateUnplayableOdds(t *testing.T) {
	cases := []struct {
		name string
		odds float64
	}{
		{"zero odds", 0},
		{"negative odds", -1.5},
		{"even money floor", 1.0},
		{"below floor", 0.95},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Calculate(0.7, tc.odds)
			assert.False(t, ok)
		})
	}
}

func TestCalculateRejectsInvalidProbability(t *testing.T) {
	_, ok := Calculate(1.2, 2.0)
	assert.False(t, ok)

	_, ok = Calculate(-0.1, 2.0)
	assert.False(t, ok)
}

func TestPlayableThreshold(t *testing.T) {
	e, ok := Calculate(0.64, 1.80)
	require.True(t, ok)

	assert.True(t, e.Playable(8.0))
	assert.False(t, e.Playable(9.0))

	// Exactly at threshold counts
	assert.True(t, e.Playable(e.Value))
}

func snapshot(over, under, yes, no float64) *models.OddsSnapshot {
	return &models.OddsSnapshot{
		ID:          uuid.New(),
		MatchID:     uuid.New(),
		Bookmaker:   "testbook",
		OverOdds:    over,
		UnderOdds:   under,
		BTTSYesOdds: yes,
		BTTSNoOdds:  no,
		RecordedAt:  time.Now(),
	}
}

func TestForPredictionOverSide(t *testing.T) {
	p := &models.Prediction{
		Type:        models.PredictionOverUnder,
		Probability: 0.64,
		Side:        models.SideOver,
	}

	e, ok := ForPrediction(p, snapshot(1.80, 2.05, 0, 0))
	require.True(t, ok)

	assert.Equal(t, models.SideOver, e.Side)
	assert.Equal(t, 1.80, e.Odds)
	assert.InDelta(t, 8.444444, e.Value, 1e-5)
}

func TestForPredictionUnderUsesComplement(t *testing.T) {
	// Positive-outcome probability 0.35 means P(under) = 0.65
	p := &models.Prediction{
		Type:        models.PredictionOverUnder,
		Probability: 0.35,
		Side:        models.SideUnder,
	}

	e, ok := ForPrediction(p, snapshot(2.60, 1.70, 0, 0))
	require.True(t, ok)

	assert.Equal(t, models.SideUnder, e.Side)
	assert.Equal(t, 1.70, e.Odds)
	assert.InDelta(t, 0.65, e.ModelProbability, 1e-9)
	assert.InDelta(t, (0.65-1.0/1.70)*100, e.Value, 1e-9)
}

func TestForPredictionBTTSNoSide(t *testing.T) {
	p := &models.Prediction{
		Type:        models.PredictionBTTS,
		Probability: 0.42,
		Side:        models.SideNo,
	}

	e, ok := ForPrediction(p, snapshot(0, 0, 2.10, 1.75))
	require.True(t, ok)

	assert.Equal(t, models.SideNo, e.Side)
	assert.Equal(t, 1.75, e.Odds)
	assert.InDelta(t, 0.58, e.ModelProbability, 1e-9)
}

func TestForPredictionMissingMarket(t *testing.T) {
	p := &models.Prediction{
		Type:        models.PredictionBTTS,
		Probability: 0.60,
		Side:        models.SideYes,
	}

	// Snapshot only carries the over/under market
	_, ok := ForPrediction(p, snapshot(1.90, 1.90, 0, 0))
	assert.False(t, ok)
}

func TestForPredictionNilSnapshot(t *testing.T) {
	p := &models.Prediction{
		Type:        models.PredictionOverUnder,
		Probability: 0.60,
		Side:        models.SideOver,
	}

	_, ok := ForPrediction(p, nil)
	assert.False(t, ok)
}
