package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GenerateConsoleReport formats metrics for terminal output
func GenerateConsoleReport(m Metrics) string {
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Prediction Type: %s\n", m.PredictionType))
	builder.WriteString(fmt.Sprintf("Window: %s to %s\n", m.StartDate.Format("2006-01-02"), m.EndDate.Format("2006-01-02")))
	builder.WriteString(fmt.Sprintf("Matches Replayed: %d\n", m.MatchesReplayed))
	builder.WriteString(fmt.Sprintf("Markets Scored: %d\n", m.MarketsScored))
	builder.WriteString(fmt.Sprintf("Accuracy: %.2f%%\n", m.Accuracy*100))
	builder.WriteString(fmt.Sprintf("Precision: %.2f%%\n", m.Precision*100))
	builder.WriteString(fmt.Sprintf("Recall: %.2f%%\n", m.Recall*100))
	builder.WriteString(fmt.Sprintf("Picks Simulated: %d\n", m.PicksSimulated))
	builder.WriteString(fmt.Sprintf("Win Rate: %.2f%%\n", m.WinRate*100))
	builder.WriteString(fmt.Sprintf("Average Odds: %.2f\n", m.AverageOdds))
	builder.WriteString(fmt.Sprintf("Average Edge: %.2f\n", m.AverageEdge))
	builder.WriteString(fmt.Sprintf("Net Profit: %s\n", m.NetProfit.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Realized EV: %.4f\n", m.RealizedEV))
	builder.WriteString(fmt.Sprintf("ROI: %.2f%%\n", m.ROI*100))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", m.MaxDrawdown*100))
	builder.WriteString(fmt.Sprintf("Final Bankroll: %s\n", m.FinalBankroll.StringFixed(2)))
	return builder.String()
}

// GenerateCSVExport exports key metrics for spreadsheets
func GenerateCSVExport(m Metrics, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	csv := "metric,value\n" +
		fmt.Sprintf("prediction_type,%s\n", m.PredictionType) +
		fmt.Sprintf("matches_replayed,%d\n", m.MatchesReplayed) +
		fmt.Sprintf("markets_scored,%d\n", m.MarketsScored) +
		fmt.Sprintf("accuracy,%.4f\n", m.Accuracy) +
		fmt.Sprintf("precision,%.4f\n", m.Precision) +
		fmt.Sprintf("recall,%.4f\n", m.Recall) +
		fmt.Sprintf("picks_simulated,%d\n", m.PicksSimulated) +
		fmt.Sprintf("win_rate,%.4f\n", m.WinRate) +
		fmt.Sprintf("net_profit,%s\n", m.NetProfit.String()) +
		fmt.Sprintf("realized_ev,%.4f\n", m.RealizedEV) +
		fmt.Sprintf("roi,%.4f\n", m.ROI) +
		fmt.Sprintf("max_drawdown,%.4f\n", m.MaxDrawdown) +
		fmt.Sprintf("final_bankroll,%s\n", m.FinalBankroll.String())
	return os.WriteFile(outputPath, []byte(csv), 0o644)
}
