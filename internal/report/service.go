package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/edgeboard/internal/analytics"
	"github.com/yourusername/edgeboard/internal/config"
	"github.com/yourusername/edgeboard/internal/logger"
	"github.com/yourusername/edgeboard/internal/metrics"
	"github.com/yourusername/edgeboard/internal/models"
	"github.com/yourusername/edgeboard/internal/repository"
)

// bankrollUnits is the stake every report row is realized and sized at
const bankrollUnits = 1.0

// Settings holds the report defaults
type Settings struct {
	LookbackDays          int
	HighWinMinProbability float64
	PositiveEVMinEV       float64
	MinSamples            int
	ShortWindowDays       int
	LongWindowDays        int
	Timezone              string
	LeaguesCacheTTL       time.Duration
}

// DefaultSettings returns the built-in report defaults
func DefaultSettings() Settings {
	return Settings{
		LookbackDays:          30,
		HighWinMinProbability: 0.6,
		PositiveEVMinEV:       0,
		ShortWindowDays:       20,
		LongWindowDays:        60,
		LeaguesCacheTTL:       5 * time.Minute,
	}
}

// SettingsFromConfig builds report settings from app config
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	if cfg == nil {
		return s
	}
	r := cfg.Report
	if r.LookbackDays > 0 {
		s.LookbackDays = r.LookbackDays
	}
	s.HighWinMinProbability = r.HighWinMinProbability
	s.PositiveEVMinEV = r.PositiveEVMinEV
	s.MinSamples = r.MinSamples
	if r.ShortWindowDays > 0 {
		s.ShortWindowDays = r.ShortWindowDays
	}
	if r.LongWindowDays > 0 {
		s.LongWindowDays = r.LongWindowDays
	}
	s.Timezone = cfg.App.Timezone
	s.LeaguesCacheTTL = cfg.Server.LeaguesCacheTTL()
	return s
}

// Service generates reports, overviews and listings
type Service struct {
	markets  repository.MarketRepository
	games    repository.GameRepository
	leagues  *LeaguesCache
	settings Settings
	location *time.Location
	logger   *logger.RunLogger
	now      func() time.Time
}

// NewService creates a new report service
func NewService(markets repository.MarketRepository, games repository.GameRepository, settings Settings, log *logrus.Logger) (*Service, error) {
	if markets == nil {
		return nil, fmt.Errorf("market repository is required")
	}
	if games == nil {
		return nil, fmt.Errorf("game repository is required")
	}
	if log == nil {
		log = logrus.New()
	}

	return &Service{
		markets:  markets,
		games:    games,
		leagues:  NewLeaguesCache(settings.LeaguesCacheTTL),
		settings: settings,
		location: analytics.LoadLocation(settings.Timezone),
		logger:   logger.NewRunLogger(log),
		now:      time.Now,
	}, nil
}

// SetClock overrides the time source used to resolve open ranges
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// LeaguesCache exposes the leagues cache so imports can invalidate it
func (s *Service) LeaguesCache() *LeaguesCache {
	return s.leagues
}

// thresholds resolves the mode defaults. Both predicates always apply; the
// mode only decides which one defaults to a real floor.
func (s *Service) thresholds(mode Mode, filters Filters) (float64, float64) {
	minProbability := 0.0
	minEV := math.Inf(-1)
	switch mode {
	case ModeHighWin:
		minProbability = s.settings.HighWinMinProbability
	case ModePositiveEV:
		minEV = s.settings.PositiveEVMinEV
	}
	if filters.MinProbability != nil {
		minProbability = *filters.MinProbability
	}
	if filters.MinEV != nil {
		minEV = *filters.MinEV
	}
	return minProbability, minEV
}

// Generate builds the report for mode over the filtered markets
func (s *Service) Generate(ctx context.Context, mode Mode, filters Filters) (*Result, error) {
	started := time.Now()
	result, scanned, err := s.generate(ctx, mode, filters)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordReport(string(mode), status, time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}
	s.logger.LogReportGenerated(string(mode), scanned, len(result.Rows), result.Summary.EnoughSamples, time.Since(started))
	return result, nil
}

func (s *Service) generate(ctx context.Context, mode Mode, filters Filters) (*Result, int, error) {
	if mode != ModeHighWin && mode != ModePositiveEV {
		return nil, 0, fmt.Errorf("%w: unknown report mode %q", models.ErrInvalidInput, mode)
	}
	minProbability, minEV := s.thresholds(mode, filters)
	if math.IsNaN(minProbability) || math.IsNaN(minEV) {
		return nil, 0, fmt.Errorf("%w: thresholds must be numbers", models.ErrInvalidInput)
	}
	minSamples := s.settings.MinSamples
	if filters.MinSamples != nil {
		minSamples = *filters.MinSamples
	}

	start, end, err := analytics.ResolveRange(filters.StartDate, filters.EndDate, s.settings.LookbackDays, s.now(), s.location)
	if err != nil {
		return nil, 0, err
	}

	views, err := s.markets.FindMarkets(ctx, models.MarketFilter{
		Start:       start,
		End:         end,
		Leagues:     filters.Leagues,
		MarketTypes: filters.MarketTypes,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load markets: %w", err)
	}

	implied := impliedProbabilities(views)
	rows := make([]Row, 0)
	for i := range views {
		view := &views[i]
		if !view.Actionable() {
			continue
		}
		pModel := view.Model.PModel
		odds := view.Odds.OddsDecimal
		ev := analytics.ExpectedValue(pModel, odds)
		if pModel < minProbability || ev < minEV {
			continue
		}
		rows = append(rows, s.buildRow(view, ev, implied))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Date == rows[j].Date {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].Date > rows[j].Date
	})

	perf, err := s.performance(rows, time.Time{})
	if err != nil {
		return nil, 0, err
	}

	echo := filters
	echo.StartDate = analytics.DateKeyIn(start, s.location)
	echo.EndDate = analytics.DateKeyIn(end, s.location)
	echo.MinSamples = &minSamples
	if !math.IsInf(minEV, 0) {
		echo.MinEV = &minEV
	}
	echo.MinProbability = &minProbability

	return &Result{
		Rows: rows,
		Summary: Summary{
			Summary:       perf,
			EnoughSamples: len(rows) >= minSamples,
			TotalPicks:    len(rows),
		},
		Filters: echo,
		Mode:    mode,
	}, len(views), nil
}

func (s *Service) buildRow(view *models.MarketView, ev float64, implied map[int64]float64) Row {
	odds := view.Odds.OddsDecimal
	kelly := analytics.KellyFraction(view.Model.PModel, odds)

	var pImplied *float64
	if p, ok := implied[view.MarketID]; ok {
		rounded := analytics.Round(p, 3)
		pImplied = &rounded
	} else if p, err := analytics.ImpliedProbability(odds); err == nil {
		rounded := analytics.Round(p, 3)
		pImplied = &rounded
	}

	outcome := view.SettledOutcome()
	return Row{
		ID:            view.MarketID,
		Date:          analytics.DateKeyIn(view.GameDate, s.location),
		League:        view.League,
		Matchup:       view.Matchup(),
		MarketType:    view.Type,
		Selection:     view.Selection,
		OddsDecimal:   analytics.Round(odds, 2),
		Bookmaker:     view.Odds.Bookmaker,
		PModel:        analytics.Round(view.Model.PModel, 3),
		ModelTag:      view.Model.ModelTag,
		PImplied:      pImplied,
		EV:            analytics.Round(ev, 3),
		KellyFraction: analytics.Round(kelly, 3),
		KellyTiers:    analytics.KellyStakeTiers(bankrollUnits, kelly),
		Result:        outcome,
		UnitsDelta:    analytics.Profit(outcome, odds, bankrollUnits),
	}
}

// performance aggregates rows dated at noon of their day. Rows before since
// are skipped when since is set. PENDING counts as PUSH.
func (s *Service) performance(rows []Row, since time.Time) (analytics.Summary, error) {
	picks := make([]analytics.Pick, 0, len(rows))
	for _, row := range rows {
		date, err := analytics.ParseDay(row.Date, 12, s.location)
		if err != nil {
			return analytics.Summary{}, err
		}
		if !since.IsZero() && date.Before(since) {
			continue
		}
		outcome := row.Result
		if outcome == models.OutcomePending {
			outcome = models.OutcomePush
		}
		picks = append(picks, analytics.Pick{
			Date:        date,
			StakeUnits:  bankrollUnits,
			OddsDecimal: row.OddsDecimal,
			Outcome:     outcome,
		})
	}

	summary := analytics.CalculatePerformanceIn(picks, s.location)
	filled, err := analytics.FillMissingDates(summary.EquityCurve)
	if err != nil {
		return analytics.Summary{}, err
	}
	summary.EquityCurve = filled
	return summary, nil
}

// impliedProbabilities de-vigs the latest odds of every game and market type
// group. Markets without odds are left out of their group.
func impliedProbabilities(views []models.MarketView) map[int64]float64 {
	type group struct {
		ids  []int64
		odds []float64
	}
	groups := make(map[string]*group)
	for i := range views {
		view := &views[i]
		if view.Odds == nil {
			continue
		}
		key := fmt.Sprintf("%d-%s", view.GameID, view.Type)
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
		}
		g.ids = append(g.ids, view.MarketID)
		g.odds = append(g.odds, view.Odds.OddsDecimal)
	}

	implied := make(map[int64]float64)
	for _, g := range groups {
		probs, err := analytics.RemoveVig(g.odds)
		if err != nil {
			continue
		}
		for i, id := range g.ids {
			implied[id] = probs[i]
		}
	}
	return implied
}
