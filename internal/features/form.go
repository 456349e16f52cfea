package features

import (
	"time"

	"github.com/yourusername/pitch-edge/internal/models"
)

// teamMatch is one finished match seen from a single team's perspective.
// Optional statistics stay as pointers so partially-recorded matches can
// still contribute their known columns.
type teamMatch struct {
	kickoff       time.Time
	goalsFor      int
	goalsAgainst  int
	shots         *int
	shotsOnTarget *int
	corners       *int
	btts          bool
	over25        bool
}

// viewFor projects a finished match onto the given team's perspective.
// Returns false for matches without a final score.
func viewFor(m *models.Match, team string) (teamMatch, bool) {
	if !m.IsFinished() {
		return teamMatch{}, false
	}

	tm := teamMatch{
		kickoff: m.Kickoff,
		btts:    m.BothTeamsScored(),
		over25:  m.WentOver(2.5),
	}

	if m.HomeTeam == team {
		tm.goalsFor = *m.HomeGoals
		tm.goalsAgainst = *m.AwayGoals
		tm.shots = m.HomeShots
		tm.shotsOnTarget = m.HomeShotsOnTarget
		tm.corners = m.HomeCorners
	} else {
		tm.goalsFor = *m.AwayGoals
		tm.goalsAgainst = *m.HomeGoals
		tm.shots = m.AwayShots
		tm.shotsOnTarget = m.AwayShotsOnTarget
		tm.corners = m.AwayCorners
	}

	return tm, true
}

// teamForm holds a team's history newest-first.
type teamForm struct {
	matches []teamMatch
}

func newTeamForm(history []*models.Match, team string) teamForm {
	form := teamForm{}
	for _, m := range history {
		if tm, ok := viewFor(m, team); ok {
			form.matches = append(form.matches, tm)
		}
	}
	return form
}

func (f teamForm) count() int {
	return len(f.matches)
}

// avgOver averages extract() over the newest n matches, skipping matches where
// the value is unavailable. The second return is the number of observations
// actually used; zero means the caller needs a fallback.
func (f teamForm) avgOver(n int, extract func(teamMatch) (float64, bool)) (float64, int) {
	if n > len(f.matches) {
		n = len(f.matches)
	}

	var sum float64
	var used int
	for i := 0; i < n; i++ {
		if v, ok := extract(f.matches[i]); ok {
			sum += v
			used++
		}
	}

	if used == 0 {
		return 0, 0
	}
	return sum / float64(used), used
}

// rateOver computes the fraction of the newest n matches satisfying pred.
func (f teamForm) rateOver(n int, pred func(teamMatch) bool) (float64, int) {
	if n > len(f.matches) {
		n = len(f.matches)
	}
	if n == 0 {
		return 0, 0
	}

	var hits int
	for i := 0; i < n; i++ {
		if pred(f.matches[i]) {
			hits++
		}
	}
	return float64(hits) / float64(n), n
}

// restDays returns whole days between the team's most recent match and the
// given kickoff, capped to keep long breaks from dominating.
func (f teamForm) restDays(kickoff time.Time, maxDays float64) float64 {
	if len(f.matches) == 0 {
		return defaultRestDays
	}

	days := kickoff.Sub(f.matches[0].kickoff).Hours() / 24
	if days < 0 {
		days = 0
	}
	if days > maxDays {
		days = maxDays
	}
	return days
}

func goalsForOf(tm teamMatch) (float64, bool)      { return float64(tm.goalsFor), true }
func goalsAgainstOf(tm teamMatch) (float64, bool)  { return float64(tm.goalsAgainst), true }
func totalGoalsOf(tm teamMatch) (float64, bool)    { return float64(tm.goalsFor + tm.goalsAgainst), true }
func bttsOf(tm teamMatch) bool                     { return tm.btts }
func over25Of(tm teamMatch) bool                   { return tm.over25 }

func shotsOf(tm teamMatch) (float64, bool) {
	if tm.shots == nil {
		return 0, false
	}
	return float64(*tm.shots), true
}

func shotsOnTargetOf(tm teamMatch) (float64, bool) {
	if tm.shotsOnTarget == nil {
		return 0, false
	}
	return float64(*tm.shotsOnTarget), true
}

func cornersOf(tm teamMatch) (float64, bool) {
	if tm.corners == nil {
		return 0, false
	}
	return float64(*tm.corners), true
}
