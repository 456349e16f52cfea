// Package picks runs the pick generation pipeline: upcoming matches are
// scored through the feature engine and model ensemble, edges are measured
// against the latest stored odds, and qualifying picks are published.
package picks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/edge"
	"github.com/yourusername/pitch-edge/internal/ensemble"
	"github.com/yourusername/pitch-edge/internal/features"
	"github.com/yourusername/pitch-edge/internal/logger"
	"github.com/yourusername/pitch-edge/internal/metrics"
	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/repository"
)

// Skip reasons reported in the run summary. Every match market either emits
// a pick or lands in exactly one of these buckets.
const (
	SkipNoOdds           = "no_odds"
	SkipBelowMinEdge     = "below_min_edge"
	SkipInsufficientData = "insufficient_data"
	SkipModelUnavailable = "model_unavailable"
	SkipDuplicate        = "duplicate"
	SkipPredictionError  = "prediction_error"
)

// RunSummary reports the outcome of one pipeline run.
type RunSummary struct {
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Processed int            `json:"matches_processed"`
	Emitted   int            `json:"picks_emitted"`
	Skipped   map[string]int `json:"skipped_by_reason"`
}

// Generator produces picks for upcoming matches. One match failing never
// aborts the run: failures are logged, counted, and the run continues.
type Generator struct {
	repos    *repository.Repositories
	engine   *features.Engine
	ensemble *ensemble.Ensemble
	cfg      config.PipelineConfig
	log      *logger.PipelineLogger
	audit    *logger.AuditLogger
}

// NewGenerator creates a pick generator.
func NewGenerator(repos *repository.Repositories, engine *features.Engine, ens *ensemble.Ensemble, cfg config.PipelineConfig, baseLogger *logrus.Logger) *Generator {
	return &Generator{
		repos:    repos,
		engine:   engine,
		ensemble: ens,
		cfg:      cfg,
		log:      logger.NewPipelineLogger(baseLogger),
		audit:    logger.NewAuditLogger(baseLogger),
	}
}

// matchOutcome is the per-market result of processing one match.
type matchOutcome struct {
	emitted int
	skipped map[string]int
}

// Run generates picks for every match kicking off inside the lookahead
// window. Matches are processed concurrently up to max_concurrent, bounded
// by the configured time budget.
func (g *Generator) Run(ctx context.Context) (*RunSummary, error) {
	start := time.Now()
	now := start.UTC()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(g.cfg.TimeBudgetSeconds)*time.Second)
	defer cancel()

	lookahead := time.Duration(g.cfg.LookaheadHours) * time.Hour
	matches, err := g.repos.Match.GetUpcoming(ctx, now, now.Add(lookahead))
	if err != nil {
		return nil, err
	}
	metrics.UpdateUpcomingMatches(len(matches))

	summary := &RunSummary{
		StartedAt: now,
		Skipped:   make(map[string]int),
	}

	jobs := make(chan *models.Match)
	outcomes := make(chan matchOutcome)

	var wg sync.WaitGroup
	for i := 0; i < g.cfg.MaxConcurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for match := range jobs {
				outcomes <- g.processMatch(ctx, match, now)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, match := range matches {
			select {
			case jobs <- match:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for outcome := range outcomes {
		summary.Processed++
		summary.Emitted += outcome.emitted
		for reason, n := range outcome.skipped {
			summary.Skipped[reason] += n
		}
		metrics.RecordMatchProcessed()
	}

	summary.Duration = time.Since(start)
	metrics.RecordPipelineRun(summary.Duration.Seconds())

	_, _, ratio := g.ensemble.CacheStats()
	metrics.UpdateCacheHitRatio(ratio)

	g.log.LogRunSummary(summary.Processed, summary.Emitted, summary.Skipped, summary.Duration)

	// An exhausted time budget is a degraded run, not a failure: whatever
	// was processed stands, the rest waits for the next scheduled run.
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			g.log.WithField("time_budget_seconds", g.cfg.TimeBudgetSeconds).Warn("Pipeline run exceeded its time budget")
			return summary, nil
		}
		return summary, err
	}
	return summary, nil
}

// processMatch evaluates every configured prediction type for one match.
// Errors are contained here; the worst outcome for the run is a skip count.
func (g *Generator) processMatch(ctx context.Context, match *models.Match, now time.Time) matchOutcome {
	outcome := matchOutcome{skipped: make(map[string]int)}
	skip := func(predictionType, reason string) {
		outcome.skipped[reason]++
		metrics.RecordMatchSkipped(reason)
		g.log.LogMatchSkipped(match.ID.String(), predictionType, reason)
	}

	snapshot, err := g.repos.Odds.GetLatest(ctx, match.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			for _, t := range g.cfg.PredictionTypes {
				skip(t, SkipNoOdds)
			}
			return outcome
		}
		g.log.LogPredictionError(match.ID.String(), "", err.Error())
		for _, t := range g.cfg.PredictionTypes {
			skip(t, SkipPredictionError)
		}
		return outcome
	}

	vector, err := g.engine.Build(ctx, match)
	if err != nil {
		reason := SkipPredictionError
		if errors.Is(err, models.ErrInsufficientData) {
			reason = SkipInsufficientData
		} else {
			g.log.LogPredictionError(match.ID.String(), "", err.Error())
		}
		for _, t := range g.cfg.PredictionTypes {
			skip(t, reason)
		}
		return outcome
	}

	for _, raw := range g.cfg.PredictionTypes {
		predictionType := models.PredictionType(raw)
		if emitted := g.processMarket(ctx, match, vector, snapshot, predictionType, now, skip); emitted {
			outcome.emitted++
		}
	}
	return outcome
}

// processMarket runs one prediction type for a match and reports whether a
// pick was published.
func (g *Generator) processMarket(ctx context.Context, match *models.Match, vector *features.Vector, snapshot *models.OddsSnapshot, predictionType models.PredictionType, now time.Time, skip func(string, string)) bool {
	predictStart := time.Now()
	prediction, cacheHit, err := g.ensemble.Predict(match, vector, predictionType, now)
	latency := time.Since(predictStart)
	metrics.RecordPredictionLatency(latency.Seconds())

	if err != nil {
		if errors.Is(err, models.ErrModelUnavailable) || errors.Is(err, models.ErrUnknownPrediction) {
			skip(string(predictionType), SkipModelUnavailable)
		} else {
			g.log.LogPredictionError(match.ID.String(), string(predictionType), err.Error())
			skip(string(predictionType), SkipPredictionError)
		}
		return false
	}

	g.log.LogPrediction(match.ID.String(), string(predictionType), prediction.Probability,
		prediction.TreeWeight, cacheHit, float64(latency.Milliseconds()))

	e, ok := edge.ForPrediction(prediction, snapshot)
	if !ok {
		skip(string(predictionType), SkipNoOdds)
		return false
	}
	if !e.Playable(g.cfg.MinEdge) {
		skip(string(predictionType), SkipBelowMinEdge)
		return false
	}

	pick := models.NewPick(prediction, e.Odds, e.ImpliedProbability, e.Value, now)
	if err := g.repos.Pick.Create(ctx, pick); err != nil {
		if errors.Is(err, models.ErrDuplicatePick) {
			// Already published today; the stored pick stands untouched.
			skip(string(predictionType), SkipDuplicate)
			g.audit.LogDuplicatePick(match.ID.String(), string(predictionType), pick.PickDate)
			return false
		}
		g.log.LogPredictionError(match.ID.String(), string(predictionType), err.Error())
		skip(string(predictionType), SkipPredictionError)
		return false
	}

	metrics.RecordPickEmitted(string(predictionType), pick.Confidence)
	g.log.LogPickEmitted(match.ID.String(), string(predictionType), string(pick.Side), pick.Edge, pick.Odds, pick.Confidence)
	g.audit.LogPickPublished(pick.ID.String(), match.ID.String(), string(predictionType),
		string(pick.Side), pick.Odds, pick.Edge, pick.ModelVersion, now)
	return true
}
