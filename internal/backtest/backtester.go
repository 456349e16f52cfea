// Package backtest replays finished matches through the live prediction
// pipeline. The same feature engine, model ensemble and edge calculation run
// against point-in-time data, so replay results reflect exactly what the
// pipeline would have produced on the day.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
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

// Skip reasons specific to replays; the pipeline's reasons apply otherwise.
const (
	skipNoOdds           = "no_odds"
	skipBelowMinEdge     = "below_min_edge"
	skipInsufficientData = "insufficient_data"
	skipMissingResult    = "missing_result"
	skipPredictionError  = "prediction_error"
)

// Result bundles a replay's metrics with its full state for reporting.
type Result struct {
	Metrics Metrics
	State   *State
}

// Backtester replays historical matches chronologically.
type Backtester struct {
	repos    *repository.Repositories
	engine   *features.Engine
	ensemble *ensemble.Ensemble
	cfg      config.BacktestConfig
	log      *logger.PipelineLogger
}

// NewBacktester creates a backtester over stored match history.
func NewBacktester(repos *repository.Repositories, engine *features.Engine, ens *ensemble.Ensemble, cfg config.BacktestConfig, baseLogger *logrus.Logger) *Backtester {
	return &Backtester{
		repos:    repos,
		engine:   engine,
		ensemble: ens,
		cfg:      cfg,
		log:      logger.NewPipelineLogger(baseLogger),
	}
}

// Run replays every finished match in the configured window for one
// prediction type. Odds are resolved as the latest snapshot recorded before
// each kickoff, never after.
func (b *Backtester) Run(ctx context.Context, predictionType models.PredictionType) (*Result, error) {
	runStart := time.Now()

	start, end, err := b.window()
	if err != nil {
		return nil, err
	}

	matches, err := b.repos.Match.GetFinishedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load replay matches: %w", err)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Kickoff.Before(matches[j].Kickoff)
	})

	initialBankroll := decimal.NewFromFloat(b.cfg.InitialBankroll)
	flatStake := decimal.NewFromFloat(b.cfg.FlatStake)
	state := NewState(initialBankroll)
	skipped := make(map[string]int)

	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.replayMatch(ctx, match, predictionType, state, skipped, flatStake)
	}

	result := &Result{
		Metrics: CalculateMetrics(state, predictionType, start, end, len(matches), skipped, initialBankroll, flatStake),
		State:   state,
	}

	metrics.RecordBacktestRun(time.Since(runStart).Seconds())
	b.log.LogBacktestRun(string(predictionType), len(matches), result.Metrics.PicksSimulated,
		result.Metrics.Accuracy, result.Metrics.RealizedEV)

	return result, nil
}

// replayMatch scores one historical match. The kickoff acts as "now": the
// feature cutoff, the prediction timestamp and the odds lookup all use it.
func (b *Backtester) replayMatch(ctx context.Context, match *models.Match, predictionType models.PredictionType, state *State, skipped map[string]int, flatStake decimal.Decimal) {
	actual, ok := actualOutcome(match, predictionType)
	if !ok {
		skipped[skipMissingResult]++
		return
	}

	vector, err := b.engine.Build(ctx, match)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientData) {
			skipped[skipInsufficientData]++
		} else {
			skipped[skipPredictionError]++
			b.log.LogPredictionError(match.ID.String(), string(predictionType), err.Error())
		}
		return
	}

	prediction, _, err := b.ensemble.Predict(match, vector, predictionType, match.Kickoff)
	if err != nil {
		skipped[skipPredictionError]++
		b.log.LogPredictionError(match.ID.String(), string(predictionType), err.Error())
		return
	}

	state.RecordPrediction(prediction.Side.Positive(), actual)

	snapshot, err := b.repos.Odds.GetLatestBefore(ctx, match.ID, match.Kickoff)
	if err != nil {
		skipped[skipNoOdds]++
		return
	}

	e, ok := edge.ForPrediction(prediction, snapshot)
	if !ok {
		skipped[skipNoOdds]++
		return
	}
	if !e.Playable(b.cfg.MinEdge) {
		skipped[skipBelowMinEdge]++
		return
	}

	pick := models.NewPick(prediction, e.Odds, e.ImpliedProbability, e.Value, match.Kickoff)
	won := pick.Side.Positive() == actual
	state.Settle(pick, match.Kickoff, won, flatStake)
}

func (b *Backtester) window() (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", b.cfg.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid backtest start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", b.cfg.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid backtest end date: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("backtest end date %s precedes start date %s", b.cfg.EndDate, b.cfg.StartDate)
	}
	// Include the whole end day
	return start, end.AddDate(0, 0, 1), nil
}

// actualOutcome resolves the positive outcome of a finished match for a
// prediction type. ok is false when the final score is missing.
func actualOutcome(match *models.Match, predictionType models.PredictionType) (bool, bool) {
	if !match.IsFinished() {
		return false, false
	}

	switch predictionType {
	case models.PredictionOverUnder:
		return match.WentOver(2.5), true
	case models.PredictionBTTS:
		return match.BothTeamsScored(), true
	}
	return false, false
}
