package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/edgeboard/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Market    MarketRepository
	Game      GameRepository
	Ingestion IngestionStore
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Market:    NewPostgresMarketRepository(db.GetPool()),
		Game:      NewPostgresGameRepository(db.GetPool()),
		Ingestion: NewPostgresIngestionStore(db),
	}, nil
}

// IngestionStore runs a unit of ingestion work atomically
type IngestionStore interface {
	InTx(ctx context.Context, fn func(IngestionRepository) error) error
}

// PostgresIngestionStore implements IngestionStore on top of database transactions
type PostgresIngestionStore struct {
	db *database.DB
}

// NewPostgresIngestionStore creates a new ingestion store
func NewPostgresIngestionStore(db *database.DB) IngestionStore {
	return &PostgresIngestionStore{db: db}
}

// InTx runs fn with a repository bound to a single transaction.
// Any error returned by fn rolls the transaction back.
func (s *PostgresIngestionStore) InTx(ctx context.Context, fn func(IngestionRepository) error) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context, q database.Querier) error {
		return fn(NewPostgresIngestionRepository(q))
	})
}
