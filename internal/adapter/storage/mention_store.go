// internal/adapter/storage/mention_store.go

package storage

import (
	"context"
	"fmt"

	"fashionpulse/internal/domain/mention"
)

// SaveMention appends a mention
func (s *PostgresStore) SaveMention(ctx context.Context, m mention.Mention) error {
	query := `
		INSERT INTO mentions (
			id, brand, source, content,
			sentiment_score, sentiment_label, engagement,
			"timestamp", url, venue
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10
		)
	`

	_, err := s.db.Exec(
		ctx,
		query,
		m.ID,
		m.Brand,
		string(m.Source),
		m.Content,
		m.SentimentScore,
		string(m.SentimentLabel),
		m.Engagement,
		m.Timestamp,
		m.URL,
		m.Venue,
	)
	if err != nil {
		return fmt.Errorf("error inserting mention: %w", err)
	}

	return nil
}

// RecentMentions returns mentions newest first, optionally for one brand
func (s *PostgresStore) RecentMentions(ctx context.Context, filter mention.Filter) ([]mention.Mention, error) {
	query := `
		SELECT
			id, brand, source, content,
			sentiment_score, sentiment_label, engagement,
			"timestamp", url, venue
		FROM mentions
	`

	var args []interface{}
	argIndex := 1

	if filter.Brand != "" {
		query += fmt.Sprintf(" WHERE brand = $%d", argIndex)
		args = append(args, filter.Brand)
		argIndex++
	}

	query += ` ORDER BY "timestamp" DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying mentions: %w", err)
	}
	defer rows.Close()

	var mentions []mention.Mention
	for rows.Next() {
		var m mention.Mention
		var source, label string

		err := rows.Scan(
			&m.ID,
			&m.Brand,
			&source,
			&m.Content,
			&m.SentimentScore,
			&label,
			&m.Engagement,
			&m.Timestamp,
			&m.URL,
			&m.Venue,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning mention: %w", err)
		}

		m.Source = mention.Source(source)
		m.SentimentLabel = mention.Label(label)
		m.Timestamp = m.Timestamp.UTC()
		mentions = append(mentions, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mentions: %w", err)
	}

	return mentions, nil
}
