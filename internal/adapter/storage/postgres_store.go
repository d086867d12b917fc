// internal/adapter/storage/postgres_store.go

package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS mentions (
		id              TEXT PRIMARY KEY,
		brand           TEXT NOT NULL,
		source          TEXT NOT NULL,
		content         TEXT NOT NULL,
		sentiment_score DOUBLE PRECISION NOT NULL,
		sentiment_label TEXT NOT NULL,
		engagement      INTEGER NOT NULL DEFAULT 0,
		"timestamp"     TIMESTAMPTZ NOT NULL,
		url             TEXT,
		venue           TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS mentions_brand_timestamp_idx
		ON mentions (brand, "timestamp" DESC);

	CREATE INDEX IF NOT EXISTS mentions_timestamp_idx
		ON mentions ("timestamp" DESC);

	CREATE TABLE IF NOT EXISTS analytics (
		id                      TEXT PRIMARY KEY,
		brand                   TEXT NOT NULL,
		total_mentions          INTEGER NOT NULL,
		sentiment_avg           DOUBLE PRECISION NOT NULL,
		sentiment_trend         TEXT NOT NULL,
		market_share_prediction DOUBLE PRECISION NOT NULL,
		engagement_score        INTEGER NOT NULL,
		"timestamp"             TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS analytics_brand_timestamp_idx
		ON analytics (brand, "timestamp" DESC);
`

// PostgresStore implements storage for mentions and analytics snapshots.
// Both tables are append-only.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new postgres store
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

// EnsureSchema creates the tables and indexes if they do not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("error pinging database: %w", err)
	}
	return nil
}
