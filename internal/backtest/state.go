package backtest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/pitch-edge/internal/models"
)

// SimulatedPick is one settled pick inside a replay.
type SimulatedPick struct {
	Pick       *models.Pick    `json:"pick"`
	Kickoff    time.Time       `json:"kickoff"`
	Won        bool            `json:"won"`
	Stake      decimal.Decimal `json:"stake"`
	ProfitLoss decimal.Decimal `json:"profit_loss"`
}

// EquityPoint is the bankroll after one settled pick.
type EquityPoint struct {
	Time  time.Time       `json:"time"`
	Value decimal.Decimal `json:"value"`
}

// EquityCurve tracks bankroll over the replay, oldest first.
type EquityCurve []EquityPoint

// MaxDrawdown returns the largest peak-to-trough bankroll decline as a
// fraction of the peak.
func (c EquityCurve) MaxDrawdown() float64 {
	maxDD := 0.0
	peak := decimal.Zero
	for _, p := range c {
		if p.Value.GreaterThan(peak) {
			peak = p.Value
		}
		if peak.IsZero() {
			continue
		}
		drawdown, _ := peak.Sub(p.Value).Div(peak).Float64()
		if drawdown > maxDD {
			maxDD = drawdown
		}
	}
	return maxDD
}

// State accumulates replay results. Classification tallies cover every
// scored market; bet accounting covers only markets that cleared the edge
// threshold and became simulated picks.
type State struct {
	Bankroll decimal.Decimal
	Picks    []*SimulatedPick
	Curve    EquityCurve

	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int
}

// NewState starts a replay with the given bankroll.
func NewState(initialBankroll decimal.Decimal) *State {
	return &State{
		Bankroll: initialBankroll,
		Curve:    EquityCurve{{Value: initialBankroll}},
	}
}

// RecordPrediction tallies one scored market against its actual outcome.
func (s *State) RecordPrediction(predictedPositive, actualPositive bool) {
	switch {
	case predictedPositive && actualPositive:
		s.TruePositives++
	case predictedPositive && !actualPositive:
		s.FalsePositives++
	case !predictedPositive && actualPositive:
		s.FalseNegatives++
	default:
		s.TrueNegatives++
	}
}

// Settle books one simulated pick and advances the equity curve.
func (s *State) Settle(pick *models.Pick, kickoff time.Time, won bool, stake decimal.Decimal) {
	profitLoss := stake.Neg()
	if won {
		profitLoss = stake.Mul(decimal.NewFromFloat(pick.Odds).Sub(decimal.NewFromInt(1)))
	}

	s.Bankroll = s.Bankroll.Add(profitLoss)
	s.Picks = append(s.Picks, &SimulatedPick{
		Pick:       pick,
		Kickoff:    kickoff,
		Won:        won,
		Stake:      stake,
		ProfitLoss: profitLoss,
	})
	s.Curve = append(s.Curve, EquityPoint{Time: kickoff, Value: s.Bankroll})
}

// MarketsScored is the number of markets with a classification tally.
func (s *State) MarketsScored() int {
	return s.TruePositives + s.FalsePositives + s.TrueNegatives + s.FalseNegatives
}
