package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/edgeboard/internal/analytics"
	"github.com/yourusername/edgeboard/internal/logger"
	"github.com/yourusername/edgeboard/internal/metrics"
	"github.com/yourusername/edgeboard/internal/models"
)

// MarketSource provides the markets a backtest replays
type MarketSource interface {
	FindMarkets(ctx context.Context, filter models.MarketFilter) ([]models.MarketView, error)
}

// Result is the outcome of a backtest run
type Result struct {
	RunID          string            `json:"-"`
	MarketsScanned int               `json:"-"`
	Picks          []SelectedPick    `json:"picks"`
	Summary        analytics.Summary `json:"summary"`
	Daily          []DailyRow        `json:"daily"`
	Filters        Filters           `json:"filters"`
}

// EquityCurve returns the gap-filled equity curve of the run
func (r *Result) EquityCurve() EquityCurve {
	return EquityCurve(r.Summary.EquityCurve)
}

// Engine replays historical markets through the selection rules
type Engine struct {
	source   MarketSource
	settings Settings
	logger   *logger.RunLogger
	validate *validator.Validate
	location *time.Location
	now      func() time.Time
}

// NewEngine creates a new backtesting engine
func NewEngine(source MarketSource, settings Settings, log *logrus.Logger) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("market source is required")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest settings: %w", err)
	}
	if log == nil {
		log = logrus.New()
	}

	return &Engine{
		source:   source,
		settings: settings,
		logger:   logger.NewRunLogger(log),
		validate: validator.New(),
		location: analytics.LoadLocation(settings.Timezone),
		now:      time.Now,
	}, nil
}

// Settings returns the engine defaults
func (e *Engine) Settings() Settings {
	return e.settings
}

// SetClock overrides the time source used to resolve open ranges
func (e *Engine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// resolved is a request with defaults applied and its range fixed
type resolved struct {
	filters Filters
	start   time.Time
	end     time.Time
}

func (e *Engine) resolve(req Request) (resolved, error) {
	if err := e.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return resolved{}, fmt.Errorf("%w: invalid %s", models.ErrInvalidInput, verrs[0].Field())
		}
		return resolved{}, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	start, end, err := analytics.ResolveRange(req.StartDate, req.EndDate, e.settings.LookbackDays, e.now(), e.location)
	if err != nil {
		return resolved{}, err
	}

	filters := Filters{
		StartDate:      analytics.DateKeyIn(start, e.location),
		EndDate:        analytics.DateKeyIn(end, e.location),
		Leagues:        req.Leagues,
		MarketTypes:    req.MarketTypes,
		MinProbability: e.settings.MinProbability,
		MinEV:          e.settings.MinEV,
		StakeUnits:     e.settings.StakeUnits,
		MaxConcurrent:  e.settings.MaxConcurrent,
	}
	if req.MinProbability != nil {
		filters.MinProbability = *req.MinProbability
	}
	if req.MinEV != nil {
		filters.MinEV = *req.MinEV
	}
	if req.StakeUnits != nil {
		filters.StakeUnits = *req.StakeUnits
	}
	if req.MaxConcurrent != nil {
		filters.MaxConcurrent = *req.MaxConcurrent
	}
	if math.IsNaN(filters.MinProbability) || math.IsNaN(filters.MinEV) {
		return resolved{}, fmt.Errorf("%w: thresholds must be numbers", models.ErrInvalidInput)
	}

	return resolved{filters: filters, start: start, end: end}, nil
}

func (r resolved) marketFilter() models.MarketFilter {
	return models.MarketFilter{
		Start:       r.start,
		End:         r.end,
		Leagues:     r.filters.Leagues,
		MarketTypes: r.filters.MarketTypes,
	}
}

func (r resolved) selectionParams(loc *time.Location) SelectionParams {
	return SelectionParams{
		MinProbability: r.filters.MinProbability,
		MinEV:          r.filters.MinEV,
		StakeUnits:     r.filters.StakeUnits,
		MaxConcurrent:  r.filters.MaxConcurrent,
		Location:       loc,
	}
}

// Run executes a backtest over the request range
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	runID := uuid.New().String()

	res, err := e.resolve(req)
	if err != nil {
		metrics.RecordBacktestRun("selection", "invalid")
		return nil, err
	}
	f := res.filters
	e.logger.LogBacktestStarted(runID, f.StartDate, f.EndDate, f.MinProbability, f.MinEV, f.StakeUnits, f.MaxConcurrent)

	views, err := e.source.FindMarkets(ctx, res.marketFilter())
	if err != nil {
		metrics.RecordBacktestRun("selection", "error")
		return nil, fmt.Errorf("failed to load markets: %w", err)
	}

	picks := SelectPicks(views, res.selectionParams(e.location))
	result, err := e.summarize(runID, picks, f)
	if err != nil {
		metrics.RecordBacktestRun("selection", "error")
		return nil, err
	}
	result.MarketsScanned = len(views)

	duration := time.Since(started)
	metrics.RecordBacktestRun("selection", "success")
	metrics.RecordBacktestResult(duration.Seconds(), len(picks), result.Summary.Units)
	e.logger.LogBacktestCompleted(runID, len(views), len(picks), result.Summary.Units, result.Summary.ROI, duration)

	return result, nil
}

func (e *Engine) summarize(runID string, picks []SelectedPick, filters Filters) (*Result, error) {
	perfPicks, err := PerformancePicks(picks, filters.StakeUnits, e.location)
	if err != nil {
		return nil, err
	}

	summary := analytics.CalculatePerformanceIn(perfPicks, e.location)
	filled, err := analytics.FillMissingDates(summary.EquityCurve)
	if err != nil {
		return nil, err
	}
	summary.EquityCurve = filled

	return &Result{
		RunID:   runID,
		Picks:   picks,
		Summary: summary,
		Daily:   BuildDaily(picks),
		Filters: filters,
	}, nil
}
