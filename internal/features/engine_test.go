package features

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/models"
)

// memorySource implements HistorySource over an in-memory match list.
type memorySource struct {
	matches []*models.Match
}

func (s *memorySource) GetTeamHistoryBefore(_ context.Context, team string, before time.Time, limit int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range s.matches {
		if m.Status != models.MatchStatusFinished {
			continue
		}
		if m.HomeTeam != team && m.AwayTeam != team {
			continue
		}
		if !m.Kickoff.Before(before) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kickoff.After(out[j].Kickoff) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memorySource) GetHeadToHeadBefore(_ context.Context, homeTeam, awayTeam string, before time.Time, limit int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range s.matches {
		if m.Status != models.MatchStatusFinished {
			continue
		}
		pair := (m.HomeTeam == homeTeam && m.AwayTeam == awayTeam) ||
			(m.HomeTeam == awayTeam && m.AwayTeam == homeTeam)
		if !pair || !m.Kickoff.Before(before) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kickoff.After(out[j].Kickoff) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func intPtr(v int) *int { return &v }

func finishedMatch(home, away string, kickoff time.Time, homeGoals, awayGoals int) *models.Match {
	return &models.Match{
		ID:        uuid.New(),
		League:    "E0",
		Season:    "2023-2024",
		HomeTeam:  home,
		AwayTeam:  away,
		Kickoff:   kickoff,
		Status:    models.MatchStatusFinished,
		HomeGoals: intPtr(homeGoals),
		AwayGoals: intPtr(awayGoals),
		HomeShots: intPtr(12),
		AwayShots: intPtr(9),
		HomeShotsOnTarget: intPtr(5),
		AwayShotsOnTarget: intPtr(3),
		HomeCorners:       intPtr(6),
		AwayCorners:       intPtr(4),
	}
}

func testFeaturesConfig() config.FeaturesConfig {
	return config.FeaturesConfig{
		ShortWindow:        5,
		LongWindow:         10,
		HeadToHeadCap:      5,
		MinMatchesReliable: 10,
		LeagueDefaults: &config.FeatureDefaults{
			GoalsScored:   1.3,
			GoalsConceded: 1.3,
			Shots:         12.0,
			ShotsOnTarget: 4.5,
			Corners:       5.0,
			BTTSRate:      0.5,
			OverRate:      0.5,
		},
	}
}

func testEngine(source HistorySource, cfg config.FeaturesConfig) *Engine {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewEngine(source, cfg, log)
}

// week returns a kickoff n weeks before the anchor date.
func week(n int) time.Time {
	anchor := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	return anchor.Add(-time.Duration(n) * 7 * 24 * time.Hour)
}

func TestBuildRollingAverages(t *testing.T) {
	source := &memorySource{}
	// Arsenal scores 2 goals in each of its last 5, concedes 1
	for i := 1; i <= 5; i++ {
		source.matches = append(source.matches, finishedMatch("Arsenal", "Opponent", week(i), 2, 1))
	}
	// Chelsea scores 1, concedes 3
	for i := 1; i <= 5; i++ {
		source.matches = append(source.matches, finishedMatch("Fulham", "Chelsea", week(i), 3, 1))
	}

	engine := testEngine(source, testFeaturesConfig())
	target := &models.Match{
		ID: uuid.New(), HomeTeam: "Arsenal", AwayTeam: "Chelsea",
		Kickoff: week(0), Status: models.MatchStatusScheduled,
	}

	vec, err := engine.Build(context.Background(), target)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, vec.Get("home_goals_scored_avg_short"), 1e-9)
	assert.InDelta(t, 1.0, vec.Get("home_goals_conceded_avg_short"), 1e-9)
	assert.InDelta(t, 1.0, vec.Get("away_goals_scored_avg_short"), 1e-9)
	assert.InDelta(t, 3.0, vec.Get("away_goals_conceded_avg_short"), 1e-9)
	assert.InDelta(t, 12.0, vec.Get("home_shots_avg_short"), 1e-9)

	// expected_total_goals = (2+3)/2 + (1+1)/2
	assert.InDelta(t, 3.5, vec.Get("expected_total_goals"), 1e-9)
	assert.Equal(t, 5, vec.MatchesUsed)
	assert.True(t, vec.LowConfidence, "5 matches is below the reliability threshold of 10")
}

// TestBuildIgnoresFutureMatches is the leakage property: matches at or after
// kickoff must not influence the vector, even wild outliers.
func TestBuildIgnoresFutureMatches(t *testing.T) {
	past := &memorySource{}
	for i := 1; i <= 5; i++ {
		past.matches = append(past.matches, finishedMatch("Arsenal", "Opponent", week(i), 1, 1))
		past.matches = append(past.matches, finishedMatch("Chelsea", "Other", week(i), 1, 1))
	}

	withFuture := &memorySource{matches: append([]*models.Match{}, past.matches...)}
	// A 9-goal thriller after the target kickoff, and one exactly at kickoff
	withFuture.matches = append(withFuture.matches,
		finishedMatch("Arsenal", "Chelsea", week(0).Add(24*time.Hour), 5, 4),
		finishedMatch("Arsenal", "Elsewhere", week(0), 6, 0),
	)

	engine1 := testEngine(past, testFeaturesConfig())
	engine2 := testEngine(withFuture, testFeaturesConfig())

	target := &models.Match{
		ID: uuid.New(), HomeTeam: "Arsenal", AwayTeam: "Chelsea",
		Kickoff: week(0), Status: models.MatchStatusScheduled,
	}

	vec1, err := engine1.Build(context.Background(), target)
	require.NoError(t, err)
	vec2, err := engine2.Build(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, vec1.Values, vec2.Values)
}

func TestBuildDeterministic(t *testing.T) {
	source := &memorySource{}
	for i := 1; i <= 12; i++ {
		source.matches = append(source.matches, finishedMatch("Arsenal", "Opponent", week(i), i%3, (i+1)%2))
		source.matches = append(source.matches, finishedMatch("Other", "Chelsea", week(i), i%2, i%4))
	}

	engine := testEngine(source, testFeaturesConfig())
	target := &models.Match{
		ID: uuid.New(), HomeTeam: "Arsenal", AwayTeam: "Chelsea",
		Kickoff: week(0), Status: models.MatchStatusScheduled,
	}

	vec1, err := engine.Build(context.Background(), target)
	require.NoError(t, err)
	vec2, err := engine.Build(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, vec1.Values, vec2.Values)
	assert.Equal(t, vec1.MatchesUsed, vec2.MatchesUsed)
}

func TestBuildHeadToHeadCap(t *testing.T) {
	source := &memorySource{}
	// Eight prior meetings; only the newest five may count
	for i := 1; i <= 8; i++ {
		goals := 0
		if i <= 5 {
			goals = 2 // recent meetings: 2-2
		}
		source.matches = append(source.matches, finishedMatch("Arsenal", "Chelsea", week(i), goals, goals))
	}
	for i := 1; i <= 5; i++ {
		source.matches = append(source.matches, finishedMatch("Arsenal", "Opponent", week(i).Add(-time.Hour), 1, 1))
		source.matches = append(source.matches, finishedMatch("Chelsea", "Other", week(i).Add(-time.Hour), 1, 1))
	}

	engine := testEngine(source, testFeaturesConfig())
	target := &models.Match{
		ID: uuid.New(), HomeTeam: "Arsenal", AwayTeam: "Chelsea",
		Kickoff: week(0), Status: models.MatchStatusScheduled,
	}

	vec, err := engine.Build(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, 5.0, vec.Get("h2h_matches"))
	// All five counted meetings ended 2-2: 4 total goals, all over 2.5, all BTTS
	assert.InDelta(t, 4.0, vec.Get("h2h_avg_total_goals"), 1e-9)
	assert.InDelta(t, 1.0, vec.Get("h2h_btts_rate"), 1e-9)
	assert.InDelta(t, 1.0, vec.Get("h2h_over25_rate"), 1e-9)
}

func TestBuildFallbackToLeagueDefaults(t *testing.T) {
	// Newly promoted side with zero history
	source := &memorySource{}
	for i := 1; i <= 10; i++ {
		source.matches = append(source.matches, finishedMatch("Arsenal", "Opponent", week(i), 2, 0))
	}

	engine := testEngine(source, testFeaturesConfig())
	target := &models.Match{
		ID: uuid.New(), HomeTeam: "Arsenal", AwayTeam: "Luton",
		Kickoff: week(0), Status: models.MatchStatusScheduled,
	}

	vec, err := engine.Build(context.Background(), target)
	require.NoError(t, err)

	assert.InDelta(t, 1.3, vec.Get("away_goals_scored_avg_short"), 1e-9)
	assert.InDelta(t, 0.5, vec.Get("away_btts_rate_long"), 1e-9)
	assert.Equal(t, 0.0, vec.Get("away_matches_used"))
	assert.True(t, vec.LowConfidence)
	assert.Equal(t, 0, vec.MatchesUsed)
}

func TestBuildInsufficientDataWithoutDefaults(t *testing.T) {
	source := &memorySource{}
	for i := 1; i <= 10; i++ {
		source.matches = append(source.matches, finishedMatch("Arsenal", "Opponent", week(i), 2, 0))
	}

	cfg := testFeaturesConfig()
	cfg.LeagueDefaults = nil

	engine := testEngine(source, cfg)
	target := &models.Match{
		ID: uuid.New(), HomeTeam: "Arsenal", AwayTeam: "Luton",
		Kickoff: week(0), Status: models.MatchStatusScheduled,
	}

	_, err := engine.Build(context.Background(), target)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestBuildMissingStatColumns(t *testing.T) {
	source := &memorySource{}
	for i := 1; i <= 5; i++ {
		m := finishedMatch("Arsenal", "Opponent", week(i), 2, 1)
		m.HomeShots = nil
		m.HomeShotsOnTarget = nil
		m.HomeCorners = nil
		source.matches = append(source.matches, m)
		source.matches = append(source.matches, finishedMatch("Other", "Chelsea", week(i), 1, 1))
	}

	engine := testEngine(source, testFeaturesConfig())
	target := &models.Match{
		ID: uuid.New(), HomeTeam: "Arsenal", AwayTeam: "Chelsea",
		Kickoff: week(0), Status: models.MatchStatusScheduled,
	}

	vec, err := engine.Build(context.Background(), target)
	require.NoError(t, err)

	// Goals still computed from real history, shots filled from defaults
	assert.InDelta(t, 2.0, vec.Get("home_goals_scored_avg_short"), 1e-9)
	assert.InDelta(t, 12.0, vec.Get("home_shots_avg_short"), 1e-9)
}

func TestBuildRestDays(t *testing.T) {
	source := &memorySource{}
	source.matches = append(source.matches,
		finishedMatch("Arsenal", "Opponent", week(0).Add(-72*time.Hour), 1, 0),
		finishedMatch("Other", "Chelsea", week(26), 1, 0),
	)

	engine := testEngine(source, testFeaturesConfig())
	target := &models.Match{
		ID: uuid.New(), HomeTeam: "Arsenal", AwayTeam: "Chelsea",
		Kickoff: week(0), Status: models.MatchStatusScheduled,
	}

	vec, err := engine.Build(context.Background(), target)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, vec.Get("home_rest_days"), 1e-9)
	// Half a year off is capped
	assert.InDelta(t, 30.0, vec.Get("away_rest_days"), 1e-9)
}

func TestOrderedMatchesFeatureNames(t *testing.T) {
	source := &memorySource{}
	for i := 1; i <= 5; i++ {
		source.matches = append(source.matches, finishedMatch("Arsenal", "Opponent", week(i), 2, 1))
		source.matches = append(source.matches, finishedMatch("Other", "Chelsea", week(i), 1, 1))
	}

	engine := testEngine(source, testFeaturesConfig())
	target := &models.Match{
		ID: uuid.New(), HomeTeam: "Arsenal", AwayTeam: "Chelsea",
		Kickoff: week(0), Status: models.MatchStatusScheduled,
	}

	vec, err := engine.Build(context.Background(), target)
	require.NoError(t, err)

	names := FeatureNames()
	ordered := vec.Ordered(names)
	require.Len(t, ordered, len(names))
	require.Len(t, vec.Values, len(names))

	for i, name := range names {
		assert.Equal(t, vec.Get(name), ordered[i], "position %d (%s)", i, name)
	}
}
