package ensemble

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitch-edge/internal/features"
	"github.com/yourusername/pitch-edge/internal/models"
)

// syntheticVector builds a full feature vector with sensible defaults,
// applying any overrides.
func syntheticVector(matchesUsed int, overrides map[string]float64) *features.Vector {
	values := make(map[string]float64)
	for _, name := range features.FeatureNames() {
		values[name] = 1.0
	}
	values["home_goals_scored_avg_short"] = 1.5
	values["home_goals_conceded_avg_short"] = 1.1
	values["away_goals_scored_avg_short"] = 1.2
	values["away_goals_conceded_avg_short"] = 1.4
	for k, v := range overrides {
		values[k] = v
	}
	return &features.Vector{
		Values:        values,
		MatchesUsed:   matchesUsed,
		LowConfidence: matchesUsed < 10,
	}
}

// syntheticRows generates a deterministic, separable training set over the
// full feature space: the label follows expected_total_goals.
func syntheticRows(n int) ([][]float64, []float64) {
	names := features.FeatureNames()
	goalIdx := 0
	for i, name := range names {
		if name == "expected_total_goals" {
			goalIdx = i
		}
	}

	rows := make([][]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(names))
		for j := range row {
			row[j] = float64((i*7+j*3)%10) / 10.0
		}
		goals := 1.5 + float64(i%5)*0.5
		row[goalIdx] = goals
		rows[i] = row
		if goals > 2.5 {
			labels[i] = 1
		}
	}
	return rows, labels
}

func testGBMOptions() GBMOptions {
	return GBMOptions{Rounds: 20, MaxDepth: 3, LearningRate: 0.3, MinLeafSamples: 5}
}

func TestBlendWeightBounds(t *testing.T) {
	cases := []struct {
		name        string
		base        float64
		matchesUsed int
		pTree       float64
		pPoisson    float64
	}{
		{"full agreement full history", 0.6, 20, 0.7, 0.7},
		{"total disagreement", 0.6, 20, 1.0, 0.0},
		{"no history", 0.6, 0, 0.7, 0.7},
		{"base at one", 1.0, 20, 0.5, 0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := blendWeight(tc.base, tc.matchesUsed, tc.pTree, tc.pPoisson)
			assert.GreaterOrEqual(t, w, 0.0)
			assert.LessOrEqual(t, w, 1.0)
		})
	}
}

func TestBlendWeightZeroHistoryDefersToPoisson(t *testing.T) {
	w := blendWeight(0.6, 0, 0.9, 0.3)
	assert.Equal(t, 0.0, w)
}

func TestBlendWeightMonotonicInAgreement(t *testing.T) {
	agreeing := blendWeight(0.6, 20, 0.70, 0.68)
	disagreeing := blendWeight(0.6, 20, 0.70, 0.20)
	assert.Greater(t, agreeing, disagreeing)
}

func TestBlendWeightMonotonicInSufficiency(t *testing.T) {
	deep := blendWeight(0.6, 10, 0.7, 0.7)
	shallow := blendWeight(0.6, 3, 0.7, 0.7)
	assert.Greater(t, deep, shallow)

	// Saturates at the target
	deeper := blendWeight(0.6, 40, 0.7, 0.7)
	assert.Equal(t, deep, deeper)
}

func TestBlendWeightDeterministic(t *testing.T) {
	w1 := blendWeight(0.6, 7, 0.64, 0.58)
	w2 := blendWeight(0.6, 7, 0.64, 0.58)
	assert.Equal(t, w1, w2)
}

func TestPoissonOverProbability(t *testing.T) {
	p := &PoissonModel{HomeBaseline: 1.5, AwayBaseline: 1.2}

	// lambdaHome = 1.5*1.4/1.5 = 1.4, lambdaAway = 1.2*1.1/1.2 = 1.1
	v := syntheticVector(10, nil)
	lh, la := p.GoalRates(v)
	assert.InDelta(t, 1.4, lh, 1e-9)
	assert.InDelta(t, 1.1, la, 1e-9)

	prob, err := p.Predict(models.PredictionOverUnder, v)
	require.NoError(t, err)

	// P(X > 2.5) with X ~ Poisson(2.5)
	expected := 1 - poissonCDF(2, 2.5)
	assert.InDelta(t, expected, prob, 1e-9)
	assert.Greater(t, prob, 0.0)
	assert.Less(t, prob, 1.0)
}

func TestPoissonBTTSProbability(t *testing.T) {
	p := &PoissonModel{HomeBaseline: 1.5, AwayBaseline: 1.2}
	v := syntheticVector(10, nil)

	prob, err := p.Predict(models.PredictionBTTS, v)
	require.NoError(t, err)

	expected := (1 - math.Exp(-1.4)) * (1 - math.Exp(-1.1))
	assert.InDelta(t, expected, prob, 1e-9)
}

func TestPoissonUnknownType(t *testing.T) {
	p := &PoissonModel{HomeBaseline: 1.5, AwayBaseline: 1.2}
	_, err := p.Predict(models.PredictionPlayerProp, syntheticVector(10, nil))
	assert.ErrorIs(t, err, models.ErrUnknownPrediction)
}

func TestPoissonRateClamping(t *testing.T) {
	p := &PoissonModel{HomeBaseline: 1.5, AwayBaseline: 1.2}
	v := syntheticVector(10, map[string]float64{
		"home_goals_scored_avg_short":   9.0,
		"away_goals_conceded_avg_short": 9.0,
		"away_goals_scored_avg_short":   0.0,
		"home_goals_conceded_avg_short": 0.0,
	})

	lh, la := p.GoalRates(v)
	assert.Equal(t, maxGoalRate, lh)
	assert.Equal(t, minGoalRate, la)
}

func TestFitPoisson(t *testing.T) {
	hg := func(v int) *int { return &v }

	matches := []*models.Match{
		{Status: models.MatchStatusFinished, HomeGoals: hg(2), AwayGoals: hg(1)},
		{Status: models.MatchStatusFinished, HomeGoals: hg(1), AwayGoals: hg(1)},
		{Status: models.MatchStatusFinished, HomeGoals: hg(3), AwayGoals: hg(0)},
		{Status: models.MatchStatusScheduled}, // ignored
	}

	p, err := FitPoisson(matches)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, p.HomeBaseline, 1e-9)
	assert.InDelta(t, 2.0/3.0, p.AwayBaseline, 1e-9)
}

func TestFitPoissonNoData(t *testing.T) {
	_, err := FitPoisson([]*models.Match{{Status: models.MatchStatusScheduled}})
	assert.Error(t, err)
}

func TestTrainGBMSeparatesClasses(t *testing.T) {
	rows, labels := syntheticRows(200)

	model, err := TrainGBM(rows, labels, testGBMOptions())
	require.NoError(t, err)

	var posSum, negSum float64
	var posN, negN int
	for i, row := range rows {
		p, err := model.PredictProbability(row)
		require.NoError(t, err)
		assert.Greater(t, p, 0.0)
		assert.Less(t, p, 1.0)
		if labels[i] == 1 {
			posSum += p
			posN++
		} else {
			negSum += p
			negN++
		}
	}

	assert.Greater(t, posSum/float64(posN), negSum/float64(negN)+0.2,
		"positive class should score clearly higher on a separable set")
}

func TestTrainGBMDeterministic(t *testing.T) {
	rows, labels := syntheticRows(100)

	m1, err := TrainGBM(rows, labels, testGBMOptions())
	require.NoError(t, err)
	m2, err := TrainGBM(rows, labels, testGBMOptions())
	require.NoError(t, err)

	p1, _ := m1.PredictProbability(rows[17])
	p2, _ := m2.PredictProbability(rows[17])
	assert.Equal(t, p1, p2)
}

func TestGBMFeatureImportance(t *testing.T) {
	rows, labels := syntheticRows(200)

	model, err := TrainGBM(rows, labels, testGBMOptions())
	require.NoError(t, err)

	importance := model.FeatureImportance()
	require.Len(t, importance, len(features.FeatureNames()))

	var goalIdx int
	for i, name := range features.FeatureNames() {
		if name == "expected_total_goals" {
			goalIdx = i
		}
		assert.GreaterOrEqual(t, importance[i], 0.0)
	}

	// The label-defining feature must dominate
	for i := range importance {
		if i != goalIdx {
			assert.LessOrEqual(t, importance[i], importance[goalIdx])
		}
	}
}

func TestGBMFeatureCountMismatch(t *testing.T) {
	rows, labels := syntheticRows(50)
	model, err := TrainGBM(rows, labels, testGBMOptions())
	require.NoError(t, err)

	_, err = model.PredictProbability([]float64{1, 2, 3})
	assert.Error(t, err)
}

func trainedArtifact(t *testing.T, predictionType models.PredictionType) *Artifact {
	t.Helper()
	rows, labels := syntheticRows(200)
	gbm, err := TrainGBM(rows, labels, testGBMOptions())
	require.NoError(t, err)

	return &Artifact{
		Metadata: Metadata{
			PredictionType: predictionType,
			Version:        NewVersion(time.Date(2024, 2, 3, 12, 0, 0, 0, time.UTC)),
			TrainedAt:      time.Date(2024, 2, 3, 12, 0, 0, 0, time.UTC),
			TrainingRows:   len(rows),
			FeatureNames:   features.FeatureNames(),
			ValidationMetrics: map[string]float64{
				"accuracy": 0.61,
			},
			BaseTreeWeight: 0.6,
		},
		GBM:     gbm,
		Poisson: &PoissonModel{HomeBaseline: 1.5, AwayBaseline: 1.2},
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	store := NewArtifactStore(t.TempDir())
	artifact := trainedArtifact(t, models.PredictionOverUnder)

	require.NoError(t, store.Save(artifact))
	require.NoError(t, store.Promote(models.PredictionOverUnder, artifact.Metadata.Version))

	reloaded, err := store.LoadCurrent(models.PredictionOverUnder)
	require.NoError(t, err)

	// Reloaded model must reproduce in-memory probabilities exactly
	v := syntheticVector(12, nil)
	before, err := NewModel(artifact).Predict(v, time.Now())
	require.NoError(t, err)
	after, err := NewModel(reloaded).Predict(v, time.Now())
	require.NoError(t, err)

	assert.Equal(t, before.Probability, after.Probability)
	assert.Equal(t, before.TreeProbability, after.TreeProbability)
	assert.Equal(t, before.PoissonProbability, after.PoissonProbability)
	assert.Equal(t, before.Side, after.Side)
}

func TestArtifactVersionImmutable(t *testing.T) {
	store := NewArtifactStore(t.TempDir())
	artifact := trainedArtifact(t, models.PredictionOverUnder)

	require.NoError(t, store.Save(artifact))
	err := store.Save(artifact)
	assert.Error(t, err, "saving the same version twice must fail")
}

func TestArtifactMissingCurrent(t *testing.T) {
	store := NewArtifactStore(t.TempDir())
	_, err := store.LoadCurrent(models.PredictionBTTS)
	assert.ErrorIs(t, err, models.ErrModelUnavailable)
}

func TestArtifactFeatureDriftRejected(t *testing.T) {
	store := NewArtifactStore(t.TempDir())
	artifact := trainedArtifact(t, models.PredictionOverUnder)
	artifact.Metadata.FeatureNames = append([]string{"legacy_feature"}, artifact.Metadata.FeatureNames[1:]...)

	require.NoError(t, store.Save(artifact))
	require.NoError(t, store.Promote(models.PredictionOverUnder, artifact.Metadata.Version))

	_, err := store.LoadCurrent(models.PredictionOverUnder)
	assert.ErrorIs(t, err, models.ErrModelUnavailable)
}

func TestArtifactPruneKeepsCurrent(t *testing.T) {
	store := NewArtifactStore(t.TempDir())

	var versions []string
	for i := 0; i < 4; i++ {
		artifact := trainedArtifact(t, models.PredictionOverUnder)
		artifact.Metadata.Version = NewVersion(time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC))
		require.NoError(t, store.Save(artifact))
		versions = append(versions, artifact.Metadata.Version)
	}

	// Promote the oldest, then prune to 2
	require.NoError(t, store.Promote(models.PredictionOverUnder, versions[0]))
	require.NoError(t, store.Prune(models.PredictionOverUnder, 2))

	remaining, err := store.ListVersions(models.PredictionOverUnder)
	require.NoError(t, err)
	assert.Contains(t, remaining, versions[0], "current version must survive pruning")
}

func TestModelPredictSideConsistency(t *testing.T) {
	artifact := trainedArtifact(t, models.PredictionOverUnder)
	model := NewModel(artifact)

	for _, matchesUsed := range []int{0, 5, 15} {
		v := syntheticVector(matchesUsed, nil)
		pred, err := model.Predict(v, time.Now())
		require.NoError(t, err)

		assert.GreaterOrEqual(t, pred.Probability, 0.0)
		assert.LessOrEqual(t, pred.Probability, 1.0)
		if pred.Probability > 0.5 {
			assert.Equal(t, models.SideOver, pred.Side)
		} else {
			assert.Equal(t, models.SideUnder, pred.Side)
		}
		assert.Equal(t, matchesUsed < 10, pred.LowConfidence)
	}
}

func TestEnsemblePredictCaching(t *testing.T) {
	store := NewArtifactStore(t.TempDir())
	artifact := trainedArtifact(t, models.PredictionOverUnder)
	require.NoError(t, store.Save(artifact))
	require.NoError(t, store.Promote(models.PredictionOverUnder, artifact.Metadata.Version))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	ens := New(store, NewPredictionCache(time.Minute, 100), log)

	match := &models.Match{ID: uuid.New()}
	v := syntheticVector(12, nil)

	first, cached, err := ens.Predict(match, v, models.PredictionOverUnder, time.Now())
	require.NoError(t, err)
	assert.False(t, cached)

	second, cached, err := ens.Predict(match, v, models.PredictionOverUnder, time.Now())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first.Probability, second.Probability)

	hits, misses, ratio := ens.CacheStats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.InDelta(t, 0.5, ratio, 1e-9)
}

func TestEnsembleModelUnavailable(t *testing.T) {
	store := NewArtifactStore(t.TempDir())
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	ens := New(store, nil, log)

	_, err := ens.ModelFor(models.PredictionBTTS)
	assert.ErrorIs(t, err, models.ErrModelUnavailable)
}
