// internal/domain/analytics/model.go

package analytics

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no snapshot exists for a brand
var ErrNotFound = errors.New("snapshot not found")

// Trend is the direction of a brand's recent sentiment
type Trend string

// Trend directions
const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// Snapshot is one brand's computed analytics for one cycle
type Snapshot struct {
	ID                    string    `json:"id"`
	Brand                 string    `json:"brand"`
	TotalMentions         int       `json:"total_mentions"`
	SentimentAvg          float64   `json:"sentiment_avg"`
	SentimentTrend        Trend     `json:"sentiment_trend"`
	MarketSharePrediction float64   `json:"market_share_prediction"`
	EngagementScore       int       `json:"engagement_score"`
	Timestamp             time.Time `json:"timestamp"`
}

// CycleSummary reports the outcome of one aggregation cycle
type CycleSummary struct {
	CycleID               string        `json:"cycle_id"`
	BrandsProcessed       int           `json:"brands_processed"`
	TotalMentions         int           `json:"total_mentions"`
	MentionsPersisted     int           `json:"mentions_persisted"`
	SnapshotsWritten      int           `json:"snapshots_written"`
	BrandsWithoutMentions []string      `json:"brands_without_mentions"`
	StartedAt             time.Time     `json:"started_at"`
	Duration              time.Duration `json:"duration"`
}
