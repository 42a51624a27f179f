package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// RunLogger provides dedicated logging for report, backtest and import runs.
type RunLogger struct {
	*logrus.Entry
}

// NewRunLogger creates a new run logger.
func NewRunLogger(baseLogger *logrus.Logger) *RunLogger {
	return &RunLogger{
		Entry: baseLogger.WithField("component", "analytics"),
	}
}

// LogBacktestStarted logs the resolved parameters of a backtest run.
func (rl *RunLogger) LogBacktestStarted(runID, startDate, endDate string, minProbability, minEV, stakeUnits float64, maxConcurrent int) {
	rl.WithFields(logrus.Fields{
		"run_id":          runID,
		"start_date":      startDate,
		"end_date":        endDate,
		"min_probability": minProbability,
		"min_ev":          minEV,
		"stake_units":     stakeUnits,
		"max_concurrent":  maxConcurrent,
	}).Info("Starting backtest run")
}

// LogBacktestCompleted logs the outcome of a backtest run.
func (rl *RunLogger) LogBacktestCompleted(runID string, marketsScanned, picks int, units, roi float64, duration time.Duration) {
	rl.WithFields(logrus.Fields{
		"run_id":          runID,
		"markets_scanned": marketsScanned,
		"picks_selected":  picks,
		"units":           units,
		"roi":             roi,
		"duration_ms":     duration.Milliseconds(),
	}).Info("Backtest run completed")
}

// LogReportGenerated logs a report computation.
func (rl *RunLogger) LogReportGenerated(mode string, marketsScanned, rows int, enoughSamples bool, duration time.Duration) {
	rl.WithFields(logrus.Fields{
		"mode":            mode,
		"markets_scanned": marketsScanned,
		"rows":            rows,
		"enough_samples":  enoughSamples,
		"duration_ms":     duration.Milliseconds(),
	}).Info("Report generated")
}

// LogMonteCarlo logs a monte carlo pass over selected picks.
func (rl *RunLogger) LogMonteCarlo(runID string, iterations int, meanUnits, probabilityOfProfit float64) {
	rl.WithFields(logrus.Fields{
		"run_id":                runID,
		"iterations":            iterations,
		"mean_units":            meanUnits,
		"probability_of_profit": probabilityOfProfit,
	}).Info("Monte carlo simulation completed")
}

// LogImportCompleted logs a committed dataset import.
func (rl *RunLogger) LogImportCompleted(source string, games, odds, modelRows int, duration time.Duration) {
	rl.WithFields(logrus.Fields{
		"source":          source,
		"games_inserted":  games,
		"odds_inserted":   odds,
		"models_inserted": modelRows,
		"duration_ms":     duration.Milliseconds(),
	}).Info("Dataset import completed")
}
