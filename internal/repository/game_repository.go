package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/edgeboard/internal/database"
	"github.com/yourusername/edgeboard/internal/models"
)

// PostgresGameRepository implements GameRepository for PostgreSQL
type PostgresGameRepository struct {
	db database.Querier
}

// NewPostgresGameRepository creates a new game repository
func NewPostgresGameRepository(db database.Querier) GameRepository {
	return &PostgresGameRepository{db: db}
}

// FindGames returns games in the filter range, newest first. The market type
// filter narrows the markets attached to each game, never the games.
func (r *PostgresGameRepository) FindGames(ctx context.Context, filter models.GameFilter) ([]models.GameView, error) {
	query := `
		SELECT g.id, g.date, g.league, ht.name, awt.name, g.finalized
		FROM games g
		JOIN teams ht ON ht.id = g.home_team_id
		JOIN teams awt ON awt.id = g.away_team_id
		WHERE g.date >= $1 AND g.date <= $2
			AND ($3 = '' OR g.league = $3)
		ORDER BY g.date DESC, g.id DESC
	`

	rows, err := r.db.Query(ctx, query, filter.Start, filter.End, filter.League)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", database.Classify(err))
	}
	defer rows.Close()

	games := make([]models.GameView, 0)
	index := make(map[int64]int)
	ids := make([]int64, 0)
	for rows.Next() {
		var game models.GameView
		if err := rows.Scan(&game.ID, &game.Date, &game.League, &game.HomeTeam, &game.AwayTeam, &game.Finalized); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		game.Markets = make([]models.MarketView, 0)
		index[game.ID] = len(games)
		ids = append(ids, game.ID)
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate games: %w", database.Classify(err))
	}

	if len(games) == 0 {
		return games, nil
	}

	marketQuery := marketViewSelect + `
	WHERE m.game_id = ANY($1)
		AND ($2 = '' OR m.type = $2)
	ORDER BY m.game_id ASC, m.id ASC
	`

	marketRows, err := r.db.Query(ctx, marketQuery, ids, string(filter.MarketType))
	if err != nil {
		return nil, fmt.Errorf("failed to query game markets: %w", database.Classify(err))
	}
	defer marketRows.Close()

	views, err := scanMarketViews(marketRows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan game markets: %w", database.Classify(err))
	}

	for _, view := range views {
		if i, ok := index[view.GameID]; ok {
			games[i].Markets = append(games[i].Markets, view)
		}
	}

	return games, nil
}
