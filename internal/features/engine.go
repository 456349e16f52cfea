// Package features builds leakage-safe feature vectors for match predictions.
// Every value is derived exclusively from matches that finished strictly
// before the kickoff of the match being predicted.
package features

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/models"
)

const (
	defaultRestDays = 7.0
	maxRestDays     = 30.0

	// Enough history to cover a full season of form for one team.
	seasonFetchLimit = 60
)

// baselineDefaults fills per-statistic gaps (e.g. a league that never records
// corners) for teams that do have goal history. The league_defaults config
// block controls the stricter zero-history fallback separately.
var baselineDefaults = config.FeatureDefaults{
	GoalsScored:   1.3,
	GoalsConceded: 1.3,
	Shots:         12.0,
	ShotsOnTarget: 4.5,
	Corners:       5.0,
	BTTSRate:      0.5,
	OverRate:      0.5,
}

// HistorySource supplies finished-match history with a strict time cutoff.
// repository.MatchRepository satisfies it; backtests and tests provide
// in-memory implementations.
type HistorySource interface {
	GetTeamHistoryBefore(ctx context.Context, team string, before time.Time, limit int) ([]*models.Match, error)
	GetHeadToHeadBefore(ctx context.Context, homeTeam, awayTeam string, before time.Time, limit int) ([]*models.Match, error)
}

// Vector is a named feature vector for one match.
type Vector struct {
	Values        map[string]float64
	MatchesUsed   int
	LowConfidence bool
}

// Get returns a feature value by name.
func (v *Vector) Get(name string) float64 {
	return v.Values[name]
}

// Ordered flattens the vector into the given name order. Unknown names map
// to zero; artifact loading validates name sets before this is ever called.
func (v *Vector) Ordered(names []string) []float64 {
	out := make([]float64, len(names))
	for i, name := range names {
		out[i] = v.Values[name]
	}
	return out
}

// FeatureNames returns the canonical ordered feature list. Model artifacts
// pin this list at training time and refuse to load against a different one.
func FeatureNames() []string {
	var names []string
	for _, p := range []string{"home", "away"} {
		names = append(names,
			p+"_goals_scored_avg_short",
			p+"_goals_conceded_avg_short",
			p+"_goals_scored_avg_long",
			p+"_goals_conceded_avg_long",
			p+"_shots_avg_short",
			p+"_shots_on_target_avg_short",
			p+"_corners_avg_short",
			p+"_btts_rate_long",
			p+"_over25_rate_long",
			p+"_rest_days",
			p+"_matches_used",
		)
	}
	names = append(names,
		"h2h_avg_total_goals",
		"h2h_btts_rate",
		"h2h_over25_rate",
		"h2h_matches",
		"expected_total_goals",
		"home_attack_away_defense",
		"away_attack_home_defense",
		"combined_btts_rate",
		"combined_over25_rate",
	)
	return names
}

// Engine builds feature vectors from stored match history.
type Engine struct {
	source HistorySource
	cfg    config.FeaturesConfig
	logger *logrus.Entry
}

// NewEngine creates a feature engine backed by the given history source.
func NewEngine(source HistorySource, cfg config.FeaturesConfig, baseLogger *logrus.Logger) *Engine {
	return &Engine{
		source: source,
		cfg:    cfg,
		logger: baseLogger.WithField("component", "features"),
	}
}

// Build computes the feature vector for a match. The kickoff time is the
// hard cutoff for all history queries, so building features for a past match
// during a backtest yields exactly what a live run would have seen.
//
// Teams with no finished history fall back to configured league averages and
// flag the vector low-confidence. When league_defaults is not configured the
// build fails with models.ErrInsufficientData instead.
func (e *Engine) Build(ctx context.Context, match *models.Match) (*Vector, error) {
	homeHist, err := e.source.GetTeamHistoryBefore(ctx, match.HomeTeam, match.Kickoff, seasonFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", match.HomeTeam, err)
	}

	awayHist, err := e.source.GetTeamHistoryBefore(ctx, match.AwayTeam, match.Kickoff, seasonFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", match.AwayTeam, err)
	}

	h2hHist, err := e.source.GetHeadToHeadBefore(ctx, match.HomeTeam, match.AwayTeam, match.Kickoff, e.cfg.HeadToHeadCap)
	if err != nil {
		return nil, fmt.Errorf("failed to load head-to-head history: %w", err)
	}

	homeForm := newTeamForm(homeHist, match.HomeTeam)
	awayForm := newTeamForm(awayHist, match.AwayTeam)

	if homeForm.count() == 0 && e.cfg.LeagueDefaults == nil {
		return nil, fmt.Errorf("%s has no finished matches before %s: %w",
			match.HomeTeam, match.Kickoff.Format(time.RFC3339), models.ErrInsufficientData)
	}
	if awayForm.count() == 0 && e.cfg.LeagueDefaults == nil {
		return nil, fmt.Errorf("%s has no finished matches before %s: %w",
			match.AwayTeam, match.Kickoff.Format(time.RFC3339), models.ErrInsufficientData)
	}

	values := make(map[string]float64, len(FeatureNames()))
	e.addTeamValues(values, "home", homeForm, match.Kickoff)
	e.addTeamValues(values, "away", awayForm, match.Kickoff)
	e.addHeadToHeadValues(values, h2hHist, match.HomeTeam)
	addInteractionValues(values)

	matchesUsed := homeForm.count()
	if awayForm.count() < matchesUsed {
		matchesUsed = awayForm.count()
	}

	vec := &Vector{
		Values:        values,
		MatchesUsed:   matchesUsed,
		LowConfidence: matchesUsed < e.cfg.MinMatchesReliable,
	}

	if vec.LowConfidence {
		e.logger.WithFields(logrus.Fields{
			"match_id":     match.ID,
			"matches_used": matchesUsed,
		}).Debug("Feature vector flagged low confidence")
	}

	return vec, nil
}

// addTeamValues fills one team's form features. Each statistic walks its own
// fallback ladder: short window, then the full fetched season, then defaults.
func (e *Engine) addTeamValues(values map[string]float64, prefix string, form teamForm, kickoff time.Time) {
	defaults := e.defaults()

	values[prefix+"_goals_scored_avg_short"] = e.statAvg(form, e.cfg.ShortWindow, goalsForOf, defaults.GoalsScored)
	values[prefix+"_goals_conceded_avg_short"] = e.statAvg(form, e.cfg.ShortWindow, goalsAgainstOf, defaults.GoalsConceded)
	values[prefix+"_goals_scored_avg_long"] = e.statAvg(form, e.cfg.LongWindow, goalsForOf, defaults.GoalsScored)
	values[prefix+"_goals_conceded_avg_long"] = e.statAvg(form, e.cfg.LongWindow, goalsAgainstOf, defaults.GoalsConceded)
	values[prefix+"_shots_avg_short"] = e.statAvg(form, e.cfg.ShortWindow, shotsOf, defaults.Shots)
	values[prefix+"_shots_on_target_avg_short"] = e.statAvg(form, e.cfg.ShortWindow, shotsOnTargetOf, defaults.ShotsOnTarget)
	values[prefix+"_corners_avg_short"] = e.statAvg(form, e.cfg.ShortWindow, cornersOf, defaults.Corners)
	values[prefix+"_btts_rate_long"] = e.statRate(form, e.cfg.LongWindow, bttsOf, defaults.BTTSRate)
	values[prefix+"_over25_rate_long"] = e.statRate(form, e.cfg.LongWindow, over25Of, defaults.OverRate)
	values[prefix+"_rest_days"] = form.restDays(kickoff, maxRestDays)
	values[prefix+"_matches_used"] = float64(form.count())
}

func (e *Engine) addHeadToHeadValues(values map[string]float64, h2hHist []*models.Match, homeTeam string) {
	form := newTeamForm(h2hHist, homeTeam)
	defaults := e.defaults()

	if form.count() == 0 {
		// No prior meetings: neutral rates, and total goals implied by form
		values["h2h_avg_total_goals"] = values["home_goals_scored_avg_short"] + values["away_goals_scored_avg_short"]
		values["h2h_btts_rate"] = defaults.BTTSRate
		values["h2h_over25_rate"] = defaults.OverRate
		values["h2h_matches"] = 0
		return
	}

	avgGoals, _ := form.avgOver(form.count(), totalGoalsOf)
	bttsRate, _ := form.rateOver(form.count(), bttsOf)
	overRate, _ := form.rateOver(form.count(), over25Of)

	values["h2h_avg_total_goals"] = avgGoals
	values["h2h_btts_rate"] = bttsRate
	values["h2h_over25_rate"] = overRate
	values["h2h_matches"] = float64(form.count())
}

func addInteractionValues(values map[string]float64) {
	homeScored := values["home_goals_scored_avg_short"]
	homeConceded := values["home_goals_conceded_avg_short"]
	awayScored := values["away_goals_scored_avg_short"]
	awayConceded := values["away_goals_conceded_avg_short"]

	values["expected_total_goals"] = (homeScored+awayConceded)/2 + (awayScored+homeConceded)/2
	values["home_attack_away_defense"] = homeScored * awayConceded
	values["away_attack_home_defense"] = awayScored * homeConceded
	values["combined_btts_rate"] = (values["home_btts_rate_long"] + values["away_btts_rate_long"]) / 2
	values["combined_over25_rate"] = (values["home_over25_rate_long"] + values["away_over25_rate_long"]) / 2
}

// statAvg resolves an averaged statistic through the fallback ladder.
func (e *Engine) statAvg(form teamForm, window int, extract func(teamMatch) (float64, bool), fallback float64) float64 {
	if v, used := form.avgOver(window, extract); used > 0 {
		return v
	}
	if v, used := form.avgOver(form.count(), extract); used > 0 {
		return v
	}
	return fallback
}

// statRate resolves a rate statistic through the fallback ladder.
func (e *Engine) statRate(form teamForm, window int, pred func(teamMatch) bool, fallback float64) float64 {
	if v, used := form.rateOver(window, pred); used > 0 {
		return v
	}
	return fallback
}

// defaults returns the configured league averages, or the package baseline
// when only per-statistic gaps need filling.
func (e *Engine) defaults() config.FeatureDefaults {
	if e.cfg.LeagueDefaults != nil {
		return *e.cfg.LeagueDefaults
	}
	return baselineDefaults
}
