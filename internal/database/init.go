package database

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/yourusername/edgeboard/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// RequiredTables are the tables the analytics queries depend on
var RequiredTables = []string{"teams", "games", "markets", "odds", "model_probs", "results", "upload_logs"}

// Initialize creates a database connection pool and verifies the schema.
// When migrate is true the schema is created first.
func Initialize(ctx context.Context, cfg *config.Config, migrate bool) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if migrate {
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := db.VerifySchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates any missing tables and indexes
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", Classify(err))
	}
	return nil
}

// VerifySchema checks that every required table exists
func (db *DB) VerifySchema(ctx context.Context) error {
	missing := make([]string, 0)
	for _, table := range RequiredTables {
		var exists bool
		err := db.pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", "public."+table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, Classify(err))
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("database schema incomplete, missing tables: %s (run with --migrate)", strings.Join(missing, ", "))
	}
	return nil
}
