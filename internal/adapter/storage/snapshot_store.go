// internal/adapter/storage/snapshot_store.go

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"fashionpulse/internal/domain/analytics"
)

const snapshotColumns = `
	id, brand, total_mentions, sentiment_avg, sentiment_trend,
	market_share_prediction, engagement_score, "timestamp"
`

// SaveSnapshot appends an analytics snapshot
func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap analytics.Snapshot) error {
	query := `INSERT INTO analytics (` + snapshotColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.Exec(
		ctx,
		query,
		snap.ID,
		snap.Brand,
		snap.TotalMentions,
		snap.SentimentAvg,
		string(snap.SentimentTrend),
		snap.MarketSharePrediction,
		snap.EngagementScore,
		snap.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("error inserting snapshot: %w", err)
	}

	return nil
}

// LatestSnapshot returns the most recent snapshot of a brand
func (s *PostgresStore) LatestSnapshot(ctx context.Context, brand string) (*analytics.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM analytics WHERE brand = $1 ORDER BY "timestamp" DESC LIMIT 1`

	snap, err := scanSnapshot(s.db.QueryRow(ctx, query, brand))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, analytics.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying snapshot: %w", err)
	}

	return &snap, nil
}

// RecentSnapshots returns up to limit snapshots of a brand, newest first
func (s *PostgresStore) RecentSnapshots(ctx context.Context, brand string, limit int) ([]analytics.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM analytics WHERE brand = $1 ORDER BY "timestamp" DESC`
	args := []interface{}{brand}

	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []analytics.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snaps, nil
}

// Brands returns the distinct brands that have snapshots
func (s *PostgresStore) Brands(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT brand FROM analytics ORDER BY brand`)
	if err != nil {
		return nil, fmt.Errorf("error querying brands: %w", err)
	}
	defer rows.Close()

	var brands []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("error scanning brand: %w", err)
		}
		brands = append(brands, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brands: %w", err)
	}

	return brands, nil
}

func scanSnapshot(row pgx.Row) (analytics.Snapshot, error) {
	var snap analytics.Snapshot
	var trend string

	err := row.Scan(
		&snap.ID,
		&snap.Brand,
		&snap.TotalMentions,
		&snap.SentimentAvg,
		&trend,
		&snap.MarketSharePrediction,
		&snap.EngagementScore,
		&snap.Timestamp,
	)
	if err != nil {
		return snap, err
	}

	snap.SentimentTrend = analytics.Trend(trend)
	snap.Timestamp = snap.Timestamp.UTC()
	return snap, nil
}
