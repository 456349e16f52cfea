// Package logger provides pipeline-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// PipelineLogger provides dedicated logging for pick generation runs.
type PipelineLogger struct {
	*logrus.Entry
}

// NewPipelineLogger creates a new pipeline logger.
func NewPipelineLogger(baseLogger *logrus.Logger) *PipelineLogger {
	return &PipelineLogger{
		Entry: baseLogger.WithField("component", "pipeline"),
	}
}

// LogPrediction logs a blended prediction for a match market.
func (pl *PipelineLogger) LogPrediction(matchID, predictionType string, probability, treeWeight float64, cacheHit bool, latencyMs float64) {
	pl.WithFields(logrus.Fields{
		"match_id":        matchID,
		"prediction_type": predictionType,
		"probability":     probability,
		"tree_weight":     treeWeight,
		"cache_hit":       cacheHit,
		"latency_ms":      latencyMs,
	}).Debug("Prediction computed")
}

// LogPickEmitted logs a newly published pick.
func (pl *PipelineLogger) LogPickEmitted(matchID, predictionType, side string, edge, odds float64, confidence string) {
	pl.WithFields(logrus.Fields{
		"match_id":        matchID,
		"prediction_type": predictionType,
		"side":            side,
		"edge":            edge,
		"odds":            odds,
		"confidence":      confidence,
	}).Info("Pick emitted")
}

// LogMatchSkipped logs a match that produced no pick, with the reason.
func (pl *PipelineLogger) LogMatchSkipped(matchID, predictionType, reason string) {
	pl.WithFields(logrus.Fields{
		"match_id":        matchID,
		"prediction_type": predictionType,
		"reason":          reason,
	}).Debug("Match skipped")
}

// LogRunSummary logs the outcome of a full pipeline run.
func (pl *PipelineLogger) LogRunSummary(processed, emitted int, skipped map[string]int, duration time.Duration) {
	pl.WithFields(logrus.Fields{
		"matches_processed": processed,
		"picks_emitted":     emitted,
		"skipped_by_reason": skipped,
		"duration_ms":       duration.Milliseconds(),
	}).Info("Pipeline run completed")
}

// LogModelTraining logs model training events.
func (pl *PipelineLogger) LogModelTraining(predictionType, version string, trainingDuration float64, metrics map[string]float64) {
	pl.WithFields(logrus.Fields{
		"prediction_type":   predictionType,
		"model_version":     version,
		"training_duration": trainingDuration,
		"metrics":           metrics,
	}).Info("Model training completed")
}

// LogBacktestRun logs a completed backtest replay.
func (pl *PipelineLogger) LogBacktestRun(predictionType string, matchesReplayed, picksSimulated int, accuracy, realizedEV float64) {
	pl.WithFields(logrus.Fields{
		"prediction_type":  predictionType,
		"matches_replayed": matchesReplayed,
		"picks_simulated":  picksSimulated,
		"accuracy":         accuracy,
		"realized_ev":      realizedEV,
	}).Info("Backtest completed")
}

// LogPredictionError logs prediction failures.
func (pl *PipelineLogger) LogPredictionError(matchID, predictionType, errorReason string) {
	pl.WithFields(logrus.Fields{
		"match_id":        matchID,
		"prediction_type": predictionType,
		"error_reason":    errorReason,
	}).Error("Prediction failed")
}
