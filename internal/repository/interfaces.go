package repository

import (
	"context"

	"github.com/yourusername/edgeboard/internal/models"
)

// MarketRepository reads fully materialized markets. Each view carries at
// most one latest odds quote and one latest model estimate.
type MarketRepository interface {
	FindMarkets(ctx context.Context, filter models.MarketFilter) ([]models.MarketView, error)
	ListLeagues(ctx context.Context) ([]string, error)
}

// GameRepository lists games together with their markets
type GameRepository interface {
	FindGames(ctx context.Context, filter models.GameFilter) ([]models.GameView, error)
}

// IngestionRepository writes imported datasets
type IngestionRepository interface {
	UpsertTeam(ctx context.Context, league, name string) (int64, error)
	FindOrCreateGame(ctx context.Context, game *models.Game) (int64, error)
	SetGameFinalized(ctx context.Context, gameID int64, finalized bool) error
	EnsureMarket(ctx context.Context, market *models.Market) (int64, error)
	UpsertResult(ctx context.Context, result *models.Result) error
	InsertOdds(ctx context.Context, quote *models.OddsQuote) error
	InsertModelProbability(ctx context.Context, prob *models.ModelProbability) error
	InsertUploadLog(ctx context.Context, log *models.UploadLog) (int64, error)
}
