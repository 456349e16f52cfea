// Package metrics provides the centralized Prometheus metrics registry for
// the picks pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PicksEmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitch_edge",
		Name:      "picks_emitted_total",
		Help:      "Total number of picks published",
	}, []string{"prediction_type", "confidence"})
	MatchesProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pitch_edge",
		Name:      "matches_processed_total",
		Help:      "Total number of upcoming matches evaluated",
	})
	MatchesSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitch_edge",
		Name:      "matches_skipped_total",
		Help:      "Total number of match markets skipped, by reason",
	}, []string{"reason"})
	PipelineRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pitch_edge",
		Name:      "pipeline_runs_total",
		Help:      "Total number of pick generation runs",
	})
	BacktestRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pitch_edge",
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest replays",
	})
	TrainingRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitch_edge",
		Name:      "training_runs_total",
		Help:      "Total number of model training runs",
	}, []string{"prediction_type"})
	OddsSnapshotsIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pitch_edge",
		Name:      "odds_snapshots_ingested_total",
		Help:      "Total number of odds snapshots stored",
	})
	MatchesImportedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitch_edge",
		Name:      "matches_imported_total",
		Help:      "Total number of matches imported, by source",
	}, []string{"source"})
)

// Gauge metrics
var (
	ModelCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pitch_edge",
		Name:      "model_cache_hit_ratio",
		Help:      "Prediction cache hit ratio since last reload",
	})
	UpcomingMatches = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pitch_edge",
		Name:      "upcoming_matches",
		Help:      "Matches inside the pipeline lookahead window at last run",
	})
	CurrentModelAge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pitch_edge",
		Name:      "current_model_age_seconds",
		Help:      "Age of the promoted model version per prediction type",
	}, []string{"prediction_type"})
)

// Histogram metrics
var (
	PipelineRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pitch_edge",
		Name:      "pipeline_run_duration_seconds",
		Help:      "Duration of full pick generation runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
	})
	PredictionLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pitch_edge",
		Name:      "prediction_latency_seconds",
		Help:      "Latency of single ensemble predictions in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pitch_edge",
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest replays in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
	TrainingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pitch_edge",
		Name:      "training_duration_seconds",
		Help:      "Duration of model training runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(PicksEmittedTotal)
		registry.MustRegister(MatchesProcessedTotal)
		registry.MustRegister(MatchesSkippedTotal)
		registry.MustRegister(PipelineRunsTotal)
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(TrainingRunsTotal)
		registry.MustRegister(OddsSnapshotsIngestedTotal)
		registry.MustRegister(MatchesImportedTotal)

		// Register gauge metrics
		registry.MustRegister(ModelCacheHitRatio)
		registry.MustRegister(UpcomingMatches)
		registry.MustRegister(CurrentModelAge)

		// Register histogram metrics
		registry.MustRegister(PipelineRunDuration)
		registry.MustRegister(PredictionLatency)
		registry.MustRegister(BacktestDuration)
		registry.MustRegister(TrainingDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordPickEmitted records a published pick.
func RecordPickEmitted(predictionType, confidence string) {
	PicksEmittedTotal.WithLabelValues(predictionType, confidence).Inc()
}

// RecordMatchProcessed records one evaluated upcoming match.
func RecordMatchProcessed() {
	MatchesProcessedTotal.Inc()
}

// RecordMatchSkipped records a skipped match market with its reason.
func RecordMatchSkipped(reason string) {
	MatchesSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordPipelineRun records a completed pick generation run.
func RecordPipelineRun(durationSeconds float64) {
	PipelineRunsTotal.Inc()
	PipelineRunDuration.Observe(durationSeconds)
}

// RecordPredictionLatency records the latency of one ensemble prediction.
func RecordPredictionLatency(durationSeconds float64) {
	PredictionLatency.Observe(durationSeconds)
}

// RecordBacktestRun records a completed backtest replay.
func RecordBacktestRun(durationSeconds float64) {
	BacktestRunsTotal.Inc()
	BacktestDuration.Observe(durationSeconds)
}

// RecordTrainingRun records a completed model training run.
func RecordTrainingRun(predictionType string, durationSeconds float64) {
	TrainingRunsTotal.WithLabelValues(predictionType).Inc()
	TrainingDuration.Observe(durationSeconds)
}

// RecordOddsIngested records stored odds snapshots.
func RecordOddsIngested(count int) {
	OddsSnapshotsIngestedTotal.Add(float64(count))
}

// RecordMatchesImported records imported matches per source.
func RecordMatchesImported(source string, count int) {
	MatchesImportedTotal.WithLabelValues(source).Add(float64(count))
}

// UpdateCacheHitRatio updates the prediction cache hit ratio gauge.
func UpdateCacheHitRatio(ratio float64) {
	ModelCacheHitRatio.Set(ratio)
}

// UpdateUpcomingMatches updates the lookahead window gauge.
func UpdateUpcomingMatches(count int) {
	UpcomingMatches.Set(float64(count))
}

// UpdateModelAge updates the promoted model age gauge for a prediction type.
func UpdateModelAge(predictionType string, ageSeconds float64) {
	CurrentModelAge.WithLabelValues(predictionType).Set(ageSeconds)
}
