package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/edgeboard/internal/database"
	"github.com/yourusername/edgeboard/internal/models"
)

// PostgresIngestionRepository implements IngestionRepository for PostgreSQL
type PostgresIngestionRepository struct {
	db database.Querier
}

// NewPostgresIngestionRepository creates a new ingestion repository
func NewPostgresIngestionRepository(db database.Querier) IngestionRepository {
	return &PostgresIngestionRepository{db: db}
}

// UpsertTeam returns the id of the team, creating it when missing
func (r *PostgresIngestionRepository) UpsertTeam(ctx context.Context, league, name string) (int64, error) {
	query := `
		INSERT INTO teams (league, name)
		VALUES ($1, $2)
		ON CONFLICT (league, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRow(ctx, query, league, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert team %s/%s: %w", league, name, database.Classify(err))
	}
	return id, nil
}

// FindOrCreateGame looks a game up by league, date and teams and creates it
// when absent. The finalized flag only applies to newly created games.
func (r *PostgresIngestionRepository) FindOrCreateGame(ctx context.Context, game *models.Game) (int64, error) {
	findQuery := `
		SELECT id FROM games
		WHERE league = $1 AND date = $2 AND home_team_id = $3 AND away_team_id = $4
		ORDER BY id ASC
		LIMIT 1
	`

	var id int64
	err := r.db.QueryRow(ctx, findQuery, game.League, game.Date, game.HomeTeamID, game.AwayTeamID).Scan(&id)
	if err == nil {
		game.ID = id
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to find game: %w", database.Classify(err))
	}

	insertQuery := `
		INSERT INTO games (league, date, home_team_id, away_team_id, finalized)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if err := r.db.QueryRow(ctx, insertQuery, game.League, game.Date, game.HomeTeamID, game.AwayTeamID, game.Finalized).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create game: %w", database.Classify(err))
	}
	game.ID = id
	return id, nil
}

// SetGameFinalized updates the finalized flag of a game
func (r *PostgresIngestionRepository) SetGameFinalized(ctx context.Context, gameID int64, finalized bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE games SET finalized = $2 WHERE id = $1`, gameID, finalized)
	if err != nil {
		return fmt.Errorf("failed to update game %d: %w", gameID, database.Classify(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("game %d: %w", gameID, models.ErrNotFound)
	}
	return nil
}

// EnsureMarket returns the id of the (game, type, selection) market, creating
// it when missing. An existing line is only replaced when a new one is given.
func (r *PostgresIngestionRepository) EnsureMarket(ctx context.Context, market *models.Market) (int64, error) {
	query := `
		INSERT INTO markets (game_id, type, selection, line)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id, type, selection) DO UPDATE SET line = COALESCE(EXCLUDED.line, markets.line)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query, market.GameID, string(market.Type), string(market.Selection), market.Line).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure market: %w", database.Classify(err))
	}
	market.ID = id
	return id, nil
}

// UpsertResult records the settlement of a market, replacing any previous one
func (r *PostgresIngestionRepository) UpsertResult(ctx context.Context, result *models.Result) error {
	switch result.Outcome {
	case models.OutcomeWin, models.OutcomeLose, models.OutcomePush:
	default:
		return fmt.Errorf("%w: cannot store result outcome %q", models.ErrInvalidInput, result.Outcome)
	}

	query := `
		INSERT INTO results (market_id, outcome, settled_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (market_id) DO UPDATE SET outcome = EXCLUDED.outcome, settled_at = EXCLUDED.settled_at
	`
	if _, err := r.db.Exec(ctx, query, result.MarketID, string(result.Outcome), result.SettledAt); err != nil {
		return fmt.Errorf("failed to upsert result: %w", database.Classify(err))
	}
	return nil
}

// InsertOdds appends an odds quote for a market
func (r *PostgresIngestionRepository) InsertOdds(ctx context.Context, quote *models.OddsQuote) error {
	if !(quote.OddsDecimal > 1) {
		return fmt.Errorf("%w: %v", models.ErrInvalidOdds, quote.OddsDecimal)
	}

	query := `
		INSERT INTO odds (market_id, bookmaker, odds_decimal, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Exec(ctx, query, quote.MarketID, quote.Bookmaker, quote.OddsDecimal, quote.ObservedAt); err != nil {
		return fmt.Errorf("failed to insert odds: %w", database.Classify(err))
	}
	return nil
}

// InsertModelProbability appends a model estimate for a market
func (r *PostgresIngestionRepository) InsertModelProbability(ctx context.Context, prob *models.ModelProbability) error {
	if prob.PModel < 0 || prob.PModel > 1 {
		return fmt.Errorf("%w: model probability %v outside [0, 1]", models.ErrInvalidInput, prob.PModel)
	}

	query := `
		INSERT INTO model_probs (market_id, p_model, model_tag, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Exec(ctx, query, prob.MarketID, prob.PModel, prob.ModelTag, prob.ObservedAt); err != nil {
		return fmt.Errorf("failed to insert model probability: %w", database.Classify(err))
	}
	return nil
}

// InsertUploadLog records an import and returns its id
func (r *PostgresIngestionRepository) InsertUploadLog(ctx context.Context, log *models.UploadLog) (int64, error) {
	meta, err := json.Marshal(log.Meta)
	if err != nil {
		return 0, fmt.Errorf("failed to encode upload meta: %w", err)
	}

	query := `
		INSERT INTO upload_logs (filename, meta, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRow(ctx, query, log.Filename, meta, log.CreatedAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert upload log: %w", database.Classify(err))
	}
	log.ID = id
	return id, nil
}
