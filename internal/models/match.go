package models

import (
	"time"

	"github.com/google/uuid"
)

// Match statuses as stored in the matches table.
const (
	MatchStatusScheduled = "scheduled"
	MatchStatusFinished  = "finished"
	MatchStatusPostponed = "postponed"
	MatchStatusCancelled = "cancelled"
)

// Match represents a fixture in the system. Result and statistics columns are
// nullable and only populated once the match has finished.
type Match struct {
	ID                uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	ExternalID        string    `db:"external_id" json:"external_id"`
	League            string    `db:"league" json:"league" validate:"required"`
	Season            string    `db:"season" json:"season" validate:"required"`
	HomeTeam          string    `db:"home_team" json:"home_team" validate:"required"`
	AwayTeam          string    `db:"away_team" json:"away_team" validate:"required"`
	Kickoff           time.Time `db:"kickoff" json:"kickoff" validate:"required"`
	Status            string    `db:"status" json:"status" validate:"oneof=scheduled finished postponed cancelled"`
	HomeGoals         *int      `db:"home_goals" json:"home_goals"`
	AwayGoals         *int      `db:"away_goals" json:"away_goals"`
	HomeShots         *int      `db:"home_shots" json:"home_shots"`
	AwayShots         *int      `db:"away_shots" json:"away_shots"`
	HomeShotsOnTarget *int      `db:"home_shots_on_target" json:"home_shots_on_target"`
	AwayShotsOnTarget *int      `db:"away_shots_on_target" json:"away_shots_on_target"`
	HomeCorners       *int      `db:"home_corners" json:"home_corners"`
	AwayCorners       *int      `db:"away_corners" json:"away_corners"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// IsFinished checks whether the match has a recorded final score.
func (m *Match) IsFinished() bool {
	return m.Status == MatchStatusFinished && m.HomeGoals != nil && m.AwayGoals != nil
}

// IsUpcoming checks whether the match has not kicked off yet.
func (m *Match) IsUpcoming() bool {
	return m.Status == MatchStatusScheduled
}

// TotalGoals returns the combined final score. Only meaningful for finished matches.
func (m *Match) TotalGoals() int {
	if m.HomeGoals == nil || m.AwayGoals == nil {
		return 0
	}
	return *m.HomeGoals + *m.AwayGoals
}

// BothTeamsScored reports whether both sides found the net.
func (m *Match) BothTeamsScored() bool {
	return m.HomeGoals != nil && m.AwayGoals != nil && *m.HomeGoals > 0 && *m.AwayGoals > 0
}

// WentOver reports whether total goals exceeded the given line.
func (m *Match) WentOver(line float64) bool {
	if m.HomeGoals == nil || m.AwayGoals == nil {
		return false
	}
	return float64(*m.HomeGoals+*m.AwayGoals) > line
}

// TimeToKickoff returns the duration until kickoff.
func (m *Match) TimeToKickoff() time.Duration {
	return time.Until(m.Kickoff)
}

// OddsSnapshot holds bookmaker prices for a match at a point in time.
// A zero value for any price means the market was not offered.
type OddsSnapshot struct {
	ID          uuid.UUID `db:"id" json:"id"`
	MatchID     uuid.UUID `db:"match_id" json:"match_id" validate:"required,uuid4"`
	Bookmaker   string    `db:"bookmaker" json:"bookmaker"`
	OverOdds    float64   `db:"over_odds" json:"over_odds"`
	UnderOdds   float64   `db:"under_odds" json:"under_odds"`
	BTTSYesOdds float64   `db:"btts_yes_odds" json:"btts_yes_odds"`
	BTTSNoOdds  float64   `db:"btts_no_odds" json:"btts_no_odds"`
	RecordedAt  time.Time `db:"recorded_at" json:"recorded_at" validate:"required"`
}

// PriceFor returns the quoted decimal odds for a prediction side, or 0 when
// the market side is not offered in this snapshot.
func (o *OddsSnapshot) PriceFor(predictionType PredictionType, side Side) float64 {
	switch predictionType {
	case PredictionOverUnder:
		if side == SideOver {
			return o.OverOdds
		}
		return o.UnderOdds
	case PredictionBTTS:
		if side == SideYes {
			return o.BTTSYesOdds
		}
		return o.BTTSNoOdds
	}
	return 0
}
