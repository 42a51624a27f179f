package backtest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSample(t *testing.T) *Result {
	t.Helper()
	engine := newTestEngine(t, &fakeSource{views: sampleViews()})
	result, err := engine.Run(context.Background(), Request{StartDate: "2024-03-01", EndDate: "2024-03-02"})
	require.NoError(t, err)
	return result
}

func TestGenerateConsoleReport(t *testing.T) {
	report := GenerateConsoleReport(runSample(t), &MonteCarloResult{Iterations: 10})
	assert.Contains(t, report, "Range: 2024-03-01 to 2024-03-02")
	assert.Contains(t, report, "Units: 1.30")
	assert.Contains(t, report, "Monte Carlo (10 runs)")
}

func TestGenerateHTMLReportEscapesNames(t *testing.T) {
	result := runSample(t)
	result.Picks[0].Matchup = "<b>Away</b> @ Home"
	path := filepath.Join(t.TempDir(), "nested", "report.html")

	require.NoError(t, GenerateHTMLReport(result, nil, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "&lt;b&gt;Away&lt;/b&gt;")
	assert.NotContains(t, string(data), "Monte Carlo")
}

func TestGenerateCSVExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picks.csv")
	require.NoError(t, GenerateCSVExport(runSample(t), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[1], "2,2024-03-01,NBA,\"Celtics @ Lakers\",ML,HOME,1.80,0.700,0.260,WIN,"))
}

func TestGenerateEquityCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equity.csv")
	require.NoError(t, GenerateEquityCSV(runSample(t), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "date,delta,equity,drawdown\n2024-03-01,")
}

func TestGenerateEquityJSON(t *testing.T) {
	result := runSample(t)
	path := filepath.Join(t.TempDir(), "out", "equity.json")
	require.NoError(t, GenerateEquityJSON(result, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var curve EquityCurve
	require.NoError(t, json.Unmarshal(data, &curve))
	require.NotEmpty(t, curve)
	assert.Equal(t, "2024-03-01", curve[0].Date)
	assert.Equal(t, result.EquityCurve().Final(), curve.Final())
}

func TestEquityCurveDrawdowns(t *testing.T) {
	curve := EquityCurve{{Date: "2024-03-01", Equity: -1}, {Date: "2024-03-02", Equity: 2}, {Date: "2024-03-03", Equity: 0.5}}
	assert.Equal(t, []float64{1, 0, 1.5}, curve.Drawdowns())
	assert.Equal(t, 0.5, curve.Final())
	assert.Equal(t, "[]", EquityCurve(nil).ToJSON())
}
