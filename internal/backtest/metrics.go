package backtest

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/pitch-edge/internal/models"
)

// Metrics summarises one backtest replay. Classification metrics treat the
// model's recommended side as the prediction and the final score as truth;
// betting metrics cover only the markets that became simulated picks.
type Metrics struct {
	PredictionType models.PredictionType `json:"prediction_type"`
	StartDate      time.Time             `json:"start_date"`
	EndDate        time.Time             `json:"end_date"`

	MatchesReplayed int            `json:"matches_replayed"`
	MarketsScored   int            `json:"markets_scored"`
	SkippedByReason map[string]int `json:"skipped_by_reason"`

	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`

	PicksSimulated int     `json:"picks_simulated"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"win_rate"`
	AverageOdds    float64 `json:"average_odds"`
	AverageEdge    float64 `json:"average_edge"`

	TotalStaked   decimal.Decimal `json:"total_staked"`
	NetProfit     decimal.Decimal `json:"net_profit"`
	FinalBankroll decimal.Decimal `json:"final_bankroll"`
	// RealizedEV is net profit per unit staked.
	RealizedEV  float64 `json:"realized_ev"`
	ROI         float64 `json:"roi"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

// CalculateMetrics derives replay metrics from accumulated state.
func CalculateMetrics(state *State, predictionType models.PredictionType, start, end time.Time, matchesReplayed int, skipped map[string]int, initialBankroll, flatStake decimal.Decimal) Metrics {
	m := Metrics{
		PredictionType:  predictionType,
		StartDate:       start,
		EndDate:         end,
		MatchesReplayed: matchesReplayed,
		SkippedByReason: skipped,
		TotalStaked:     decimal.Zero,
		NetProfit:       decimal.Zero,
		FinalBankroll:   initialBankroll,
	}
	if state == nil {
		return m
	}

	m.MarketsScored = state.MarketsScored()
	m.Accuracy = safeRatio(state.TruePositives+state.TrueNegatives, m.MarketsScored)
	m.Precision = safeRatio(state.TruePositives, state.TruePositives+state.FalsePositives)
	m.Recall = safeRatio(state.TruePositives, state.TruePositives+state.FalseNegatives)

	m.PicksSimulated = len(state.Picks)
	var oddsSum, edgeSum float64
	for _, p := range state.Picks {
		if p.Won {
			m.Wins++
		} else {
			m.Losses++
		}
		m.TotalStaked = m.TotalStaked.Add(p.Stake)
		m.NetProfit = m.NetProfit.Add(p.ProfitLoss)
		oddsSum += p.Pick.Odds
		edgeSum += p.Pick.Edge
	}

	m.WinRate = safeRatio(m.Wins, m.PicksSimulated)
	if m.PicksSimulated > 0 {
		m.AverageOdds = oddsSum / float64(m.PicksSimulated)
		m.AverageEdge = edgeSum / float64(m.PicksSimulated)
	}

	m.FinalBankroll = state.Bankroll
	if m.TotalStaked.IsPositive() {
		m.RealizedEV, _ = m.NetProfit.Div(m.TotalStaked).Float64()
	}
	if initialBankroll.IsPositive() {
		m.ROI, _ = m.NetProfit.Div(initialBankroll).Float64()
	}
	m.MaxDrawdown = state.Curve.MaxDrawdown()

	return m
}

// ToJSON exports metrics to JSON
func (m Metrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

func safeRatio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}
