// Package ensemble blends a gradient-boosted tree classifier with a Poisson
// count model into a single calibrated probability per match market.
package ensemble

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitch-edge/internal/features"
	"github.com/yourusername/pitch-edge/internal/models"
)

// sufficiencyTarget is the match-history depth at which the tree model gets
// its full base weight.
const sufficiencyTarget = 10

// Model serves predictions for one prediction type from a loaded artifact.
type Model struct {
	artifact *Artifact
}

// NewModel wraps a loaded artifact for serving.
func NewModel(artifact *Artifact) *Model {
	return &Model{artifact: artifact}
}

// Version returns the artifact version the model serves.
func (m *Model) Version() string {
	return m.artifact.Metadata.Version
}

// Predict blends both component models over the feature vector. The blend
// weight is a deterministic function of data sufficiency and inter-model
// agreement; disagreeing or data-starved inputs shift weight toward the
// Poisson model, which degrades more gracefully.
func (m *Model) Predict(v *features.Vector, predictedAt time.Time) (*models.Prediction, error) {
	predictionType := m.artifact.Metadata.PredictionType

	row := v.Ordered(m.artifact.Metadata.FeatureNames)
	pTree, err := m.artifact.GBM.PredictProbability(row)
	if err != nil {
		return nil, fmt.Errorf("tree prediction failed: %w", err)
	}

	pPoisson, err := m.artifact.Poisson.Predict(predictionType, v)
	if err != nil {
		return nil, fmt.Errorf("poisson prediction failed: %w", err)
	}

	w := blendWeight(m.artifact.Metadata.BaseTreeWeight, v.MatchesUsed, pTree, pPoisson)
	blended := w*pTree + (1-w)*pPoisson

	return &models.Prediction{
		Type:               predictionType,
		Probability:        blended,
		Side:               models.SideFor(predictionType, blended),
		TreeProbability:    pTree,
		PoissonProbability: pPoisson,
		TreeWeight:         w,
		ModelVersion:       m.artifact.Metadata.Version,
		LowConfidence:      v.LowConfidence,
		PredictedAt:        predictedAt.UTC(),
	}, nil
}

// blendWeight computes the tree weight in [0, 1]. Sufficiency scales linearly
// with history depth up to the target; agreement scales from 0.5 (total
// disagreement) to 1 (identical probabilities).
func blendWeight(base float64, matchesUsed int, pTree, pPoisson float64) float64 {
	sufficiency := float64(matchesUsed) / sufficiencyTarget
	if sufficiency > 1 {
		sufficiency = 1
	}

	agreement := 1 - math.Abs(pTree-pPoisson)
	w := base * sufficiency * (0.5 + 0.5*agreement)

	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

// Ensemble manages the current model per prediction type, loading artifacts
// lazily and caching predictions keyed on (match, type, version).
type Ensemble struct {
	store  *ArtifactStore
	cache  *PredictionCache
	logger *logrus.Entry

	mu     sync.RWMutex
	loaded map[models.PredictionType]*Model
}

// New creates an ensemble over an artifact store.
func New(store *ArtifactStore, cache *PredictionCache, baseLogger *logrus.Logger) *Ensemble {
	return &Ensemble{
		store:  store,
		cache:  cache,
		logger: baseLogger.WithField("component", "ensemble"),
		loaded: make(map[models.PredictionType]*Model),
	}
}

// ModelFor returns the served model for a prediction type, loading the
// current artifact on first use. Missing or corrupt artifacts surface as
// models.ErrModelUnavailable.
func (e *Ensemble) ModelFor(t models.PredictionType) (*Model, error) {
	e.mu.RLock()
	model, ok := e.loaded[t]
	e.mu.RUnlock()
	if ok {
		return model, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if model, ok := e.loaded[t]; ok {
		return model, nil
	}

	artifact, err := e.store.LoadCurrent(t)
	if err != nil {
		return nil, err
	}

	model = NewModel(artifact)
	e.loaded[t] = model

	e.logger.WithFields(logrus.Fields{
		"prediction_type": t,
		"model_version":   model.Version(),
	}).Info("Model loaded")

	return model, nil
}

// Reload drops loaded models and cached predictions so the next call picks
// up newly promoted versions.
func (e *Ensemble) Reload() {
	e.mu.Lock()
	e.loaded = make(map[models.PredictionType]*Model)
	e.mu.Unlock()

	if e.cache != nil {
		e.cache.Clear()
	}
}

// Predict returns the blended prediction for a match market, consulting the
// prediction cache first.
func (e *Ensemble) Predict(match *models.Match, v *features.Vector, t models.PredictionType, predictedAt time.Time) (*models.Prediction, bool, error) {
	model, err := e.ModelFor(t)
	if err != nil {
		return nil, false, err
	}

	key := CacheKey{MatchID: match.ID, PredictionType: t, ModelVersion: model.Version()}
	if e.cache != nil {
		if cached := e.cache.Get(key); cached != nil {
			return cached, true, nil
		}
	}

	prediction, err := model.Predict(v, predictedAt)
	if err != nil {
		return nil, false, err
	}
	prediction.MatchID = match.ID

	if e.cache != nil {
		e.cache.Set(key, prediction)
	}

	return prediction, false, nil
}

// CacheStats exposes the prediction cache hit ratio for metrics export.
func (e *Ensemble) CacheStats() (hits, misses uint64, ratio float64) {
	if e.cache == nil {
		return 0, 0, 0
	}
	return e.cache.Stats()
}
