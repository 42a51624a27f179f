package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/edgeboard/internal/database"
	"github.com/yourusername/edgeboard/internal/models"
)

// marketViewSelect materializes a market with its game, teams, latest odds,
// latest model estimate and result. Nullable columns are coalesced and paired
// with a presence flag so every column scans into a plain value.
const marketViewSelect = `
	SELECT
		m.id, g.id, g.date, g.league, ht.name, awt.name, g.finalized,
		m.type, m.selection,
		m.line IS NOT NULL, COALESCE(m.line, 0),
		lo.id IS NOT NULL, COALESCE(lo.odds_decimal, 0), COALESCE(lo.bookmaker, ''), COALESCE(lo.created_at, g.date),
		lm.id IS NOT NULL, COALESCE(lm.p_model, 0), COALESCE(lm.model_tag, ''), COALESCE(lm.created_at, g.date),
		r.market_id IS NOT NULL, COALESCE(r.outcome, ''), COALESCE(r.settled_at, g.date)
	FROM markets m
	JOIN games g ON g.id = m.game_id
	JOIN teams ht ON ht.id = g.home_team_id
	JOIN teams awt ON awt.id = g.away_team_id
	LEFT JOIN LATERAL (
		SELECT o.id, o.odds_decimal, o.bookmaker, o.created_at
		FROM odds o
		WHERE o.market_id = m.id
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT 1
	) lo ON TRUE
	LEFT JOIN LATERAL (
		SELECT mp.id, mp.p_model, mp.model_tag, mp.created_at
		FROM model_probs mp
		WHERE mp.market_id = m.id
		ORDER BY mp.created_at DESC, mp.id DESC
		LIMIT 1
	) lm ON TRUE
	LEFT JOIN results r ON r.market_id = m.id
`

// PostgresMarketRepository implements MarketRepository for PostgreSQL
type PostgresMarketRepository struct {
	db database.Querier
}

// NewPostgresMarketRepository creates a new market repository
func NewPostgresMarketRepository(db database.Querier) MarketRepository {
	return &PostgresMarketRepository{db: db}
}

// FindMarkets returns every market whose game falls inside the filter range,
// ordered by game date then market id.
func (r *PostgresMarketRepository) FindMarkets(ctx context.Context, filter models.MarketFilter) ([]models.MarketView, error) {
	query := marketViewSelect + `
	WHERE g.date >= $1 AND g.date <= $2
		AND m.type = ANY($3)
		AND (cardinality($4::text[]) = 0 OR g.league = ANY($4))
	ORDER BY g.date ASC, m.id ASC
	`

	rows, err := r.db.Query(ctx, query, filter.Start, filter.End, marketTypeArgs(filter.MarketTypes), leagueArgs(filter.Leagues))
	if err != nil {
		return nil, fmt.Errorf("failed to query markets: %w", database.Classify(err))
	}
	defer rows.Close()

	views, err := scanMarketViews(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan markets: %w", database.Classify(err))
	}
	return views, nil
}

// ListLeagues returns the distinct leagues that have games, sorted by name
func (r *PostgresMarketRepository) ListLeagues(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT league FROM games ORDER BY league ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query leagues: %w", database.Classify(err))
	}
	defer rows.Close()

	leagues := make([]string, 0)
	for rows.Next() {
		var league string
		if err := rows.Scan(&league); err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, league)
	}

	return leagues, rows.Err()
}

func scanMarketViews(rows pgx.Rows) ([]models.MarketView, error) {
	views := make([]models.MarketView, 0)
	for rows.Next() {
		view, err := scanMarketView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

func scanMarketView(row pgx.Row) (models.MarketView, error) {
	var (
		view                  models.MarketView
		marketType, selection string
		hasLine               bool
		line                  float64
		hasOdds               bool
		odds                  float64
		bookmaker             string
		oddsAt                time.Time
		hasModel              bool
		pModel                float64
		modelTag              string
		modelAt               time.Time
		hasResult             bool
		outcome               string
		settledAt             time.Time
	)

	err := row.Scan(
		&view.MarketID, &view.GameID, &view.GameDate, &view.League, &view.HomeTeam, &view.AwayTeam, &view.Finalized,
		&marketType, &selection,
		&hasLine, &line,
		&hasOdds, &odds, &bookmaker, &oddsAt,
		&hasModel, &pModel, &modelTag, &modelAt,
		&hasResult, &outcome, &settledAt,
	)
	if err != nil {
		return view, err
	}

	view.Type = models.MarketType(marketType)
	view.Selection = models.Selection(selection)
	if hasLine {
		l := line
		view.Line = &l
	}
	if hasOdds {
		view.Odds = &models.OddsQuote{MarketID: view.MarketID, OddsDecimal: odds, Bookmaker: bookmaker, ObservedAt: oddsAt}
	}
	if hasModel {
		view.Model = &models.ModelProbability{MarketID: view.MarketID, PModel: pModel, ModelTag: modelTag, ObservedAt: modelAt}
	}
	if hasResult {
		o := models.Outcome(outcome)
		view.Outcome = &o
	}
	return view, nil
}

// marketTypeArgs expands an empty filter to every market type
func marketTypeArgs(types []models.MarketType) []string {
	if len(types) == 0 {
		types = models.AllMarketTypes
	}
	args := make([]string, len(types))
	for i, t := range types {
		args[i] = string(t)
	}
	return args
}

func leagueArgs(leagues []string) []string {
	if leagues == nil {
		return []string{}
	}
	return leagues
}
