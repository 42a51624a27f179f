package backtest

import (
	"context"
	"fmt"
	"math"

	"github.com/yourusername/edgeboard/internal/analytics"
)

// WalkForwardConfig configures the rolling evaluation windows
type WalkForwardConfig struct {
	WindowDays        int
	MinPicksPerWindow int
}

// WalkForwardWindow is the performance of one consecutive block of days
type WalkForwardWindow struct {
	WindowID  int               `json:"windowId"`
	StartDate string            `json:"startDate"`
	EndDate   string            `json:"endDate"`
	Picks     int               `json:"picks"`
	Summary   analytics.Summary `json:"summary"`
}

// WalkForwardResult summarizes how stable the selection rules are over time
type WalkForwardResult struct {
	Windows          []WalkForwardWindow `json:"windows"`
	ConsistencyScore float64             `json:"consistencyScore"`
	MeanROI          float64             `json:"meanRoi"`
	ROIStdDev        float64             `json:"roiStdDev"`
	Filters          Filters             `json:"filters"`
}

// RunWalkForward splits the request range into consecutive windows and
// evaluates the selection rules in each. Selection is per day, so the markets
// are loaded once and the picks partitioned by window.
func RunWalkForward(ctx context.Context, engine *Engine, req Request, cfg WalkForwardConfig) (WalkForwardResult, error) {
	if engine == nil {
		return WalkForwardResult{}, fmt.Errorf("engine is required")
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = engine.settings.WalkForwardWindowDays
	}
	if cfg.WindowDays <= 0 {
		return WalkForwardResult{}, fmt.Errorf("walk-forward window must be positive")
	}

	res, err := engine.resolve(req)
	if err != nil {
		return WalkForwardResult{}, err
	}
	views, err := engine.source.FindMarkets(ctx, res.marketFilter())
	if err != nil {
		return WalkForwardResult{}, fmt.Errorf("failed to load markets: %w", err)
	}
	picks := SelectPicks(views, res.selectionParams(engine.location))

	windows := make([]WalkForwardWindow, 0)
	windowID := 0
	for current := analytics.DateKeyIn(res.start, engine.location); current <= res.filters.EndDate; {
		if err := ctx.Err(); err != nil {
			return WalkForwardResult{}, err
		}

		first, err := analytics.ParseDay(current, 0, engine.location)
		if err != nil {
			return WalkForwardResult{}, err
		}
		last := analytics.DateKeyIn(first.AddDate(0, 0, cfg.WindowDays-1), engine.location)
		if last > res.filters.EndDate {
			last = res.filters.EndDate
		}

		windowPicks := make([]SelectedPick, 0)
		for _, pick := range picks {
			if pick.Date >= current && pick.Date <= last {
				windowPicks = append(windowPicks, pick)
			}
		}

		windowID++
		if len(windowPicks) >= cfg.MinPicksPerWindow {
			perf, err := PerformancePicks(windowPicks, res.filters.StakeUnits, engine.location)
			if err != nil {
				return WalkForwardResult{}, err
			}
			windows = append(windows, WalkForwardWindow{
				WindowID:  windowID,
				StartDate: current,
				EndDate:   last,
				Picks:     len(windowPicks),
				Summary:   analytics.CalculatePerformanceIn(perf, engine.location),
			})
		}

		current = analytics.DateKeyIn(first.AddDate(0, 0, cfg.WindowDays), engine.location)
	}

	mean, std := windowROIStats(windows)
	return WalkForwardResult{
		Windows:          windows,
		ConsistencyScore: CalculateConsistency(windows),
		MeanROI:          mean,
		ROIStdDev:        std,
		Filters:          res.filters,
	}, nil
}

// CalculateConsistency calculates the share of windows that made units
func CalculateConsistency(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	profitable := 0
	for _, w := range windows {
		if w.Summary.Units > 0 {
			profitable++
		}
	}
	return float64(profitable) / float64(len(windows))
}

func windowROIStats(windows []WalkForwardWindow) (float64, float64) {
	if len(windows) == 0 {
		return 0, 0
	}
	values := make([]float64, len(windows))
	for i, w := range windows {
		values[i] = w.Summary.ROI
	}
	mean, std := meanStd(values)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}
