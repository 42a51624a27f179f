package backtest

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
)

// GenerateConsoleReport formats a run for terminal output
func GenerateConsoleReport(result *Result, mc *MonteCarloResult) string {
	var builder strings.Builder
	s := result.Summary
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Range: %s to %s\n", result.Filters.StartDate, result.Filters.EndDate))
	builder.WriteString(fmt.Sprintf("Thresholds: p >= %.2f, ev >= %.2f, max %d per day\n",
		result.Filters.MinProbability, result.Filters.MinEV, result.Filters.MaxConcurrent))
	builder.WriteString(fmt.Sprintf("Picks: %d (settled %d)\n", len(result.Picks), s.SampleSize))
	builder.WriteString(fmt.Sprintf("Hit Rate: %.2f%% [%.2f%%, %.2f%%]\n", s.HitRate*100, s.HitRateInterval.Low*100, s.HitRateInterval.High*100))
	builder.WriteString(fmt.Sprintf("Units: %.2f\n", s.Units))
	builder.WriteString(fmt.Sprintf("ROI: %.2f%%\n", s.ROI*100))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f units\n", s.MaxDrawdown))
	if mc != nil {
		builder.WriteString(fmt.Sprintf("Monte Carlo (%d runs): mean %.2f, std %.2f, VaR95 %.2f, P(profit) %.2f%%\n",
			mc.Iterations, mc.MeanUnits, mc.StdUnits, mc.VaR95, mc.ProbabilityOfProfit*100))
	}
	return builder.String()
}

// GenerateHTMLReport creates a simple HTML report
func GenerateHTMLReport(result *Result, mc *MonteCarloResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	var rows strings.Builder
	for _, pick := range result.Picks {
		rows.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%s</td><td>%s</td><td>%s %s</td><td>%.2f</td><td>%.3f</td><td>%.3f</td><td>%s</td><td>%.2f</td></tr>\n",
			pick.Date,
			html.EscapeString(pick.League),
			html.EscapeString(pick.Matchup),
			pick.MarketType,
			pick.Selection,
			pick.OddsDecimal,
			pick.PModel,
			pick.EV,
			pick.Result,
			pick.Profit,
		))
	}

	simulation := ""
	if mc != nil {
		simulation = fmt.Sprintf("<p><strong>Monte Carlo:</strong> mean %.2f units, VaR95 %.2f, P(profit) %.2f%%</p>\n",
			mc.MeanUnits, mc.VaR95, mc.ProbabilityOfProfit*100)
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Backtest Report</title></head>
<body>
<h1>Backtest Report</h1>
<p><strong>Range:</strong> %s to %s</p>
<p><strong>Hit Rate:</strong> %.2f%%</p>
<p><strong>Units:</strong> %.2f</p>
<p><strong>ROI:</strong> %.2f%%</p>
<p><strong>Max Drawdown:</strong> %.2f</p>
%s<table>
<tr><th>Date</th><th>League</th><th>Matchup</th><th>Market</th><th>Odds</th><th>pModel</th><th>EV</th><th>Result</th><th>Profit</th></tr>
%s</table>
</body>
</html>`,
		result.Filters.StartDate,
		result.Filters.EndDate,
		result.Summary.HitRate*100,
		result.Summary.Units,
		result.Summary.ROI*100,
		result.Summary.MaxDrawdown,
		simulation,
		rows.String(),
	)

	return os.WriteFile(outputPath, []byte(page), 0o644)
}

// GenerateCSVExport exports the selected picks for spreadsheets
func GenerateCSVExport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	var builder strings.Builder
	builder.WriteString("id,date,league,matchup,market_type,selection,odds_decimal,p_model,ev,result,profit\n")
	for _, pick := range result.Picks {
		builder.WriteString(fmt.Sprintf("%d,%s,%s,%q,%s,%s,%.2f,%.3f,%.3f,%s,%.4f\n",
			pick.MarketID,
			pick.Date,
			pick.League,
			pick.Matchup,
			pick.MarketType,
			pick.Selection,
			pick.OddsDecimal,
			pick.PModel,
			pick.EV,
			pick.Result,
			pick.Profit,
		))
	}
	return os.WriteFile(outputPath, []byte(builder.String()), 0o644)
}

// GenerateEquityCSV writes the equity curve of a run
func GenerateEquityCSV(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(result.EquityCurve().ToCSV()), 0o644)
}

// GenerateEquityJSON writes the equity curve of a run as a JSON array
func GenerateEquityJSON(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(result.EquityCurve().ToJSON()), 0o644)
}
