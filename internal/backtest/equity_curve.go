package backtest

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/yourusername/edgeboard/internal/analytics"
)

// EquityCurve is the day-by-day cumulative profit of a run
type EquityCurve []analytics.EquityPoint

// Final returns the closing equity of the curve
func (e EquityCurve) Final() float64 {
	if len(e) == 0 {
		return 0
	}
	return e[len(e)-1].Equity
}

// Drawdowns returns the distance below the running peak for every point.
// The peak starts at zero, so an initial losing streak counts as drawdown.
func (e EquityCurve) Drawdowns() []float64 {
	out := make([]float64, len(e))
	peak := 0.0
	for i, point := range e {
		if point.Equity > peak {
			peak = point.Equity
		}
		out[i] = peak - point.Equity
	}
	return out
}

// ToCSV exports equity curve to CSV string
func (e EquityCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("date,delta,equity,drawdown\n")
	drawdowns := e.Drawdowns()
	for i, point := range e {
		buf.WriteString(point.Date)
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Delta))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Equity))
		buf.WriteString(",")
		buf.WriteString(formatFloat(drawdowns[i]))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports equity curve to JSON string
func (e EquityCurve) ToJSON() string {
	if e == nil {
		return "[]"
	}
	data, _ := json.Marshal(e)
	return string(data)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
