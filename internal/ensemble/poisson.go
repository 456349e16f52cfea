package ensemble

import (
	"fmt"
	"math"

	"github.com/yourusername/pitch-edge/internal/features"
	"github.com/yourusername/pitch-edge/internal/models"
)

// Expected goal rates are clamped to a sane footballing range so a freak
// run of form cannot push the count model into degenerate probabilities.
const (
	minGoalRate = 0.2
	maxGoalRate = 4.5
)

// PoissonModel estimates match outcome probabilities from independent Poisson
// goal counts for each side. Baselines are the league-average goals scored by
// home and away sides over the training window; per-match rates scale them by
// the attacking form of one side against the defensive form of the other.
type PoissonModel struct {
	HomeBaseline float64 `json:"home_baseline"`
	AwayBaseline float64 `json:"away_baseline"`
}

// GoalRates derives the expected goals for each side from a feature vector.
func (p *PoissonModel) GoalRates(v *features.Vector) (float64, float64) {
	// Home attack runs into what away sides typically concede (= home
	// baseline) and vice versa.
	lambdaHome := safeRate(v.Get("home_goals_scored_avg_short")*v.Get("away_goals_conceded_avg_short"), p.HomeBaseline)
	lambdaAway := safeRate(v.Get("away_goals_scored_avg_short")*v.Get("home_goals_conceded_avg_short"), p.AwayBaseline)
	return lambdaHome, lambdaAway
}

// Predict returns the positive-outcome probability for the prediction type:
// P(total goals > 2.5) or P(both teams score).
func (p *PoissonModel) Predict(predictionType models.PredictionType, v *features.Vector) (float64, error) {
	lambdaHome, lambdaAway := p.GoalRates(v)

	switch predictionType {
	case models.PredictionOverUnder:
		return 1 - poissonCDF(2, lambdaHome+lambdaAway), nil
	case models.PredictionBTTS:
		return (1 - math.Exp(-lambdaHome)) * (1 - math.Exp(-lambdaAway)), nil
	default:
		return 0, fmt.Errorf("poisson model cannot predict %s: %w", predictionType, models.ErrUnknownPrediction)
	}
}

// FitPoisson computes league baselines from finished matches.
func FitPoisson(matches []*models.Match) (*PoissonModel, error) {
	var homeSum, awaySum float64
	var n int
	for _, m := range matches {
		if !m.IsFinished() {
			continue
		}
		homeSum += float64(*m.HomeGoals)
		awaySum += float64(*m.AwayGoals)
		n++
	}

	if n == 0 {
		return nil, fmt.Errorf("no finished matches to fit poisson baselines")
	}

	return &PoissonModel{
		HomeBaseline: clampRate(homeSum / float64(n)),
		AwayBaseline: clampRate(awaySum / float64(n)),
	}, nil
}

func safeRate(product, baseline float64) float64 {
	if baseline <= 0 {
		return minGoalRate
	}
	return clampRate(product / baseline)
}

func clampRate(rate float64) float64 {
	if rate < minGoalRate {
		return minGoalRate
	}
	if rate > maxGoalRate {
		return maxGoalRate
	}
	return rate
}

// poissonCDF is P(X <= k) for X ~ Poisson(lambda).
func poissonCDF(k int, lambda float64) float64 {
	var sum float64
	term := math.Exp(-lambda)
	for i := 0; i <= k; i++ {
		if i > 0 {
			term *= lambda / float64(i)
		}
		sum += term
	}
	if sum > 1 {
		sum = 1
	}
	return sum
}
