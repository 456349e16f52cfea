// Package training builds, validates and publishes model artifacts from
// stored match history. Every run produces an immutable new version; serving
// only changes when the version is promoted.
package training

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/ensemble"
	"github.com/yourusername/pitch-edge/internal/features"
	"github.com/yourusername/pitch-edge/internal/logger"
	"github.com/yourusername/pitch-edge/internal/metrics"
	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/repository"
)

// logLossEpsilon keeps log loss finite for saturated probabilities.
const logLossEpsilon = 1e-12

// sample is one training example: the feature vector a live run would have
// seen at kickoff, and what actually happened.
type sample struct {
	match  *models.Match
	vector *features.Vector
	label  float64
}

// Report summarises one completed training run.
type Report struct {
	PredictionType    models.PredictionType `json:"prediction_type"`
	Version           string                `json:"version"`
	TrainingRows      int                   `json:"training_rows"`
	ValidationRows    int                   `json:"validation_rows"`
	SkippedMatches    int                   `json:"skipped_matches"`
	ValidationMetrics map[string]float64    `json:"validation_metrics"`
	Promoted          bool                  `json:"promoted"`
	Duration          time.Duration         `json:"duration"`
}

// Trainer trains and publishes model artifacts.
type Trainer struct {
	matches repository.MatchRepository
	engine  *features.Engine
	store   *ensemble.ArtifactStore
	cfg     config.TrainingConfig
	log     *logger.PipelineLogger
	audit   *logger.AuditLogger
}

// NewTrainer creates a trainer over stored match history.
func NewTrainer(matches repository.MatchRepository, engine *features.Engine, store *ensemble.ArtifactStore, cfg config.TrainingConfig, baseLogger *logrus.Logger) *Trainer {
	return &Trainer{
		matches: matches,
		engine:  engine,
		store:   store,
		cfg:     cfg,
		log:     logger.NewPipelineLogger(baseLogger),
		audit:   logger.NewAuditLogger(baseLogger),
	}
}

// Train builds a new model version for one prediction type from finished
// matches in [start, end), validates it on the chronological tail, saves it,
// promotes it and prunes old versions.
func (t *Trainer) Train(ctx context.Context, predictionType models.PredictionType, start, end time.Time) (*Report, error) {
	if !predictionType.Trainable() {
		return nil, fmt.Errorf("cannot train %s: %w", predictionType, models.ErrUnknownPrediction)
	}

	runStart := time.Now()

	samples, skipped, err := t.buildDataset(ctx, predictionType, start, end)
	if err != nil {
		return nil, err
	}
	if len(samples) < t.cfg.MinTrainingRows {
		return nil, fmt.Errorf("%d usable matches, need at least %d: %w",
			len(samples), t.cfg.MinTrainingRows, models.ErrInsufficientData)
	}

	// Chronological split: the validation tail is strictly newer than every
	// training row, mirroring how the model meets live data.
	split := int(float64(len(samples)) * (1 - t.cfg.ValidationSplit))
	if split < 1 || split >= len(samples) {
		return nil, fmt.Errorf("validation split %.2f leaves no data on one side", t.cfg.ValidationSplit)
	}
	train, valid := samples[:split], samples[split:]

	artifact, err := t.fit(predictionType, train)
	if err != nil {
		return nil, err
	}
	artifact.Metadata.ValidationMetrics = evaluate(artifact, valid)

	if err := t.store.Save(artifact); err != nil {
		return nil, err
	}

	previous, _ := t.store.CurrentVersion(predictionType)
	if err := t.store.Promote(predictionType, artifact.Metadata.Version); err != nil {
		return nil, err
	}
	t.audit.LogModelPromotion(string(predictionType), previous, artifact.Metadata.Version, artifact.Metadata.ValidationMetrics)

	if err := t.store.Prune(predictionType, t.cfg.KeepLastVersions); err != nil {
		return nil, err
	}

	duration := time.Since(runStart)
	metrics.RecordTrainingRun(string(predictionType), duration.Seconds())
	t.log.LogModelTraining(string(predictionType), artifact.Metadata.Version,
		duration.Seconds(), artifact.Metadata.ValidationMetrics)

	return &Report{
		PredictionType:    predictionType,
		Version:           artifact.Metadata.Version,
		TrainingRows:      len(train),
		ValidationRows:    len(valid),
		SkippedMatches:    skipped,
		ValidationMetrics: artifact.Metadata.ValidationMetrics,
		Promoted:          true,
		Duration:          duration,
	}, nil
}

// buildDataset replays feature construction for every finished match in the
// window, kickoff as cutoff. Matches without enough history are skipped, not
// fatal: early-season rounds rarely qualify.
func (t *Trainer) buildDataset(ctx context.Context, predictionType models.PredictionType, start, end time.Time) ([]sample, int, error) {
	matches, err := t.matches.GetFinishedBetween(ctx, start, end)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load training matches: %w", err)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Kickoff.Before(matches[j].Kickoff)
	})

	var samples []sample
	var skipped int
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if !match.IsFinished() {
			skipped++
			continue
		}

		vector, err := t.engine.Build(ctx, match)
		if err != nil {
			skipped++
			continue
		}

		samples = append(samples, sample{
			match:  match,
			vector: vector,
			label:  label(match, predictionType),
		})
	}
	return samples, skipped, nil
}

// fit trains both component models on the training slice.
func (t *Trainer) fit(predictionType models.PredictionType, train []sample) (*ensemble.Artifact, error) {
	names := features.FeatureNames()
	rows := make([][]float64, len(train))
	labels := make([]float64, len(train))
	trainMatches := make([]*models.Match, len(train))
	for i, s := range train {
		rows[i] = s.vector.Ordered(names)
		labels[i] = s.label
		trainMatches[i] = s.match
	}

	gbm, err := ensemble.TrainGBM(rows, labels, ensemble.GBMOptions{
		Rounds:         t.cfg.Rounds,
		MaxDepth:       t.cfg.MaxDepth,
		LearningRate:   t.cfg.LearningRate,
		MinLeafSamples: t.cfg.MinLeafSamples,
	})
	if err != nil {
		return nil, fmt.Errorf("tree training failed: %w", err)
	}

	poisson, err := ensemble.FitPoisson(trainMatches)
	if err != nil {
		return nil, fmt.Errorf("poisson fit failed: %w", err)
	}

	return &ensemble.Artifact{
		Metadata: ensemble.Metadata{
			PredictionType: predictionType,
			Version:        ensemble.NewVersion(time.Now()),
			TrainedAt:      time.Now().UTC(),
			TrainingRows:   len(train),
			FeatureNames:   names,
			Importance:     namedImportance(gbm, names),
			BaseTreeWeight: t.cfg.BaseTreeWeight,
		},
		GBM:     gbm,
		Poisson: poisson,
	}, nil
}

// evaluate scores the blended model on the validation tail.
func evaluate(artifact *ensemble.Artifact, valid []sample) map[string]float64 {
	model := ensemble.NewModel(artifact)

	var correct, tp, fp, fn int
	var logLoss float64
	var scored int
	for _, s := range valid {
		prediction, err := model.Predict(s.vector, s.match.Kickoff)
		if err != nil {
			continue
		}
		scored++

		p := clampProbability(prediction.Probability)
		actual := s.label == 1
		predicted := prediction.Side.Positive()

		if predicted == actual {
			correct++
		}
		switch {
		case predicted && actual:
			tp++
		case predicted && !actual:
			fp++
		case !predicted && actual:
			fn++
		}
		logLoss += -(s.label*math.Log(p) + (1-s.label)*math.Log(1-p))
	}

	out := map[string]float64{
		"accuracy":  0,
		"log_loss":  0,
		"precision": 0,
		"recall":    0,
	}
	if scored == 0 {
		return out
	}
	out["accuracy"] = float64(correct) / float64(scored)
	out["log_loss"] = logLoss / float64(scored)
	if tp+fp > 0 {
		out["precision"] = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		out["recall"] = float64(tp) / float64(tp+fn)
	}
	return out
}

func namedImportance(gbm *ensemble.GBM, names []string) []ensemble.FeatureImportance {
	gains := gbm.FeatureImportance()
	out := make([]ensemble.FeatureImportance, 0, len(names))
	for i, name := range names {
		if i < len(gains) && gains[i] > 0 {
			out = append(out, ensemble.FeatureImportance{Name: name, Gain: gains[i]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Gain > out[j].Gain })
	return out
}

func label(match *models.Match, predictionType models.PredictionType) float64 {
	var positive bool
	switch predictionType {
	case models.PredictionOverUnder:
		positive = match.WentOver(2.5)
	case models.PredictionBTTS:
		positive = match.BothTeamsScored()
	}
	if positive {
		return 1
	}
	return 0
}

func clampProbability(p float64) float64 {
	if p < logLossEpsilon {
		return logLossEpsilon
	}
	if p > 1-logLossEpsilon {
		return 1 - logLossEpsilon
	}
	return p
}
