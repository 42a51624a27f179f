package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/edgeboard/internal/analytics"
	"github.com/yourusername/edgeboard/internal/models"
)

// Overview returns the positiveEv report over the long window together with
// the performance of the short and long trailing windows.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	now := s.now()
	longSince := now.Add(-time.Duration(s.settings.LongWindowDays) * 24 * time.Hour)
	shortSince := now.Add(-time.Duration(s.settings.ShortWindowDays) * 24 * time.Hour)

	report, err := s.Generate(ctx, ModePositiveEV, Filters{
		StartDate: analytics.DateKeyIn(longSince, s.location),
	})
	if err != nil {
		return nil, err
	}

	shortTerm, err := s.performance(report.Rows, shortSince)
	if err != nil {
		return nil, err
	}
	longTerm, err := s.performance(report.Rows, longSince)
	if err != nil {
		return nil, err
	}

	return &Overview{
		Summary:   report.Summary,
		ShortTerm: shortTerm,
		LongTerm:  longTerm,
		ShortDays: s.settings.ShortWindowDays,
		LongDays:  s.settings.LongWindowDays,
		Rows:      report.Rows,
	}, nil
}

// Games lists games in the query range, newest first, with each market's
// latest odds, model estimate and result.
func (s *Service) Games(ctx context.Context, query GamesQuery) ([]GameRow, error) {
	var marketType models.MarketType
	if strings.TrimSpace(query.MarketType) != "" {
		parsed, err := models.ParseMarketType(query.MarketType)
		if err != nil {
			return nil, err
		}
		marketType = parsed
	}

	start, end, err := analytics.ResolveRange(query.StartDate, query.EndDate, s.settings.LookbackDays, s.now(), s.location)
	if err != nil {
		return nil, err
	}

	games, err := s.games.FindGames(ctx, models.GameFilter{
		Start:      start,
		End:        end,
		League:     strings.TrimSpace(query.League),
		MarketType: marketType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}

	rows := make([]GameRow, 0, len(games))
	for _, game := range games {
		row := GameRow{
			ID:        game.ID,
			Date:      analytics.DateKeyIn(game.Date, s.location),
			League:    game.League,
			HomeTeam:  game.HomeTeam,
			AwayTeam:  game.AwayTeam,
			Finalized: game.Finalized,
			Markets:   make([]GameMarket, 0, len(game.Markets)),
		}
		for _, view := range game.Markets {
			row.Markets = append(row.Markets, gameMarket(view))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func gameMarket(view models.MarketView) GameMarket {
	market := GameMarket{
		ID:        view.MarketID,
		Type:      view.Type,
		Selection: view.Selection,
		Line:      view.Line,
		Result:    view.Outcome,
	}
	if view.Odds != nil {
		odds := view.Odds.OddsDecimal
		bookmaker := view.Odds.Bookmaker
		market.Odds = &odds
		market.Bookmaker = &bookmaker
	}
	if view.Model != nil {
		pModel := view.Model.PModel
		tag := view.Model.ModelTag
		market.PModel = &pModel
		market.ModelTag = &tag
	}
	return market
}

// Leagues returns the distinct leagues, served from cache when fresh
func (s *Service) Leagues(ctx context.Context) ([]string, error) {
	if leagues, ok := s.leagues.Get(); ok {
		return leagues, nil
	}

	leagues, err := s.markets.ListLeagues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load leagues: %w", err)
	}
	s.leagues.Set(leagues)
	return leagues, nil
}

// InvalidateLeagues drops the cached leagues after new data is imported
func (s *Service) InvalidateLeagues() {
	s.leagues.Invalidate()
}
