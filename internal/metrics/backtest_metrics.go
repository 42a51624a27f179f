// Package metrics defines backtesting-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backtest counter vectors
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgeboard",
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by method and status",
	}, []string{"method", "status"})
	PicksSelectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edgeboard",
		Name:      "backtest_picks_selected_total",
		Help:      "Total number of picks admitted by backtest selection",
	})
)

// Backtest histogram metrics
var (
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "edgeboard",
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
)

// Backtest gauge metrics
var (
	BacktestUnits = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "edgeboard",
		Name:      "backtest_last_units",
		Help:      "Units won or lost by the most recent backtest run",
	})
)

// RecordBacktestRun records a backtest run event.
// method should be one of: "selection", "monte_carlo", "walk_forward"
// status should be one of: "success", "invalid", "error"
func RecordBacktestRun(method, status string) {
	BacktestRunsTotal.WithLabelValues(method, status).Inc()
}

// RecordBacktestResult records the outcome of a successful selection run.
func RecordBacktestResult(durationSeconds float64, picks int, units float64) {
	BacktestDuration.Observe(durationSeconds)
	PicksSelectedTotal.Add(float64(picks))
	BacktestUnits.Set(units)
}
