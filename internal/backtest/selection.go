package backtest

import (
	"sort"
	"time"

	"github.com/yourusername/edgeboard/internal/analytics"
	"github.com/yourusername/edgeboard/internal/models"
)

// SelectionParams are the thresholds applied to each day's candidates
type SelectionParams struct {
	MinProbability float64
	MinEV          float64
	StakeUnits     float64
	MaxConcurrent  int
	Location       *time.Location
}

// SelectedPick is a market admitted by the selection rules, realized at the
// run's stake. Odds, probability and EV are rounded for display.
type SelectedPick struct {
	MarketID    int64             `json:"id"`
	Date        string            `json:"date"`
	League      string            `json:"league"`
	Matchup     string            `json:"matchup"`
	MarketType  models.MarketType `json:"marketType"`
	Selection   models.Selection  `json:"selection"`
	OddsDecimal float64           `json:"oddsDecimal"`
	PModel      float64           `json:"pModel"`
	EV          float64           `json:"ev"`
	Result      models.Outcome    `json:"result"`
	Profit      float64           `json:"profit"`
}

type candidate struct {
	view *models.MarketView
	ev   float64
}

// SelectPicks groups actionable markets by game day, keeps those meeting both
// thresholds, ranks each day by EV and admits at most MaxConcurrent per day.
// Days are emitted in ascending order. Unsettled markets realize as PUSH.
func SelectPicks(views []models.MarketView, params SelectionParams) []SelectedPick {
	picks := make([]SelectedPick, 0)
	if params.MaxConcurrent <= 0 {
		return picks
	}

	byDay := make(map[string][]*models.MarketView)
	days := make([]string, 0)
	for i := range views {
		view := &views[i]
		if !view.Actionable() {
			continue
		}
		key := analytics.DateKeyIn(view.GameDate, params.Location)
		if _, ok := byDay[key]; !ok {
			days = append(days, key)
		}
		byDay[key] = append(byDay[key], view)
	}
	sort.Strings(days)

	for _, day := range days {
		eligible := make([]candidate, 0, len(byDay[day]))
		for _, view := range byDay[day] {
			ev := analytics.ExpectedValue(view.Model.PModel, view.Odds.OddsDecimal)
			if view.Model.PModel < params.MinProbability || ev < params.MinEV {
				continue
			}
			eligible = append(eligible, candidate{view: view, ev: ev})
		}

		sort.SliceStable(eligible, func(i, j int) bool {
			return eligible[i].ev > eligible[j].ev
		})
		if len(eligible) > params.MaxConcurrent {
			eligible = eligible[:params.MaxConcurrent]
		}

		for _, c := range eligible {
			outcome := models.OutcomePush
			if c.view.Outcome != nil {
				outcome = *c.view.Outcome
			}
			picks = append(picks, SelectedPick{
				MarketID:    c.view.MarketID,
				Date:        day,
				League:      c.view.League,
				Matchup:     c.view.Matchup(),
				MarketType:  c.view.Type,
				Selection:   c.view.Selection,
				OddsDecimal: analytics.Round(c.view.Odds.OddsDecimal, 2),
				PModel:      analytics.Round(c.view.Model.PModel, 3),
				EV:          analytics.Round(c.ev, 3),
				Result:      outcome,
				Profit:      analytics.Profit(outcome, c.view.Odds.OddsDecimal, params.StakeUnits),
			})
		}
	}

	return picks
}

// PerformancePicks converts selected picks into metric inputs dated at noon
// of their day, using the displayed odds.
func PerformancePicks(picks []SelectedPick, stakeUnits float64, loc *time.Location) ([]analytics.Pick, error) {
	out := make([]analytics.Pick, 0, len(picks))
	for _, pick := range picks {
		date, err := analytics.ParseDay(pick.Date, 12, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, analytics.Pick{
			Date:        date,
			StakeUnits:  stakeUnits,
			OddsDecimal: pick.OddsDecimal,
			Outcome:     pick.Result,
		})
	}
	return out, nil
}

// DailyRow is one day of realized profit with the running total
type DailyRow struct {
	Date       string  `json:"date"`
	Units      float64 `json:"units"`
	Cumulative float64 `json:"cumulative"`
}

// BuildDaily sums pick profit per day in ascending day order
func BuildDaily(picks []SelectedPick) []DailyRow {
	totals := make(map[string]float64)
	days := make([]string, 0)
	for _, pick := range picks {
		if _, ok := totals[pick.Date]; !ok {
			days = append(days, pick.Date)
		}
		totals[pick.Date] += pick.Profit
	}
	sort.Strings(days)

	rows := make([]DailyRow, 0, len(days))
	cumulative := 0.0
	for _, day := range days {
		cumulative += totals[day]
		rows = append(rows, DailyRow{Date: day, Units: totals[day], Cumulative: cumulative})
	}
	return rows
}
