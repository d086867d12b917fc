// internal/service/insight/service.go

package insight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fashionpulse/internal/domain/analytics"
	"fashionpulse/internal/domain/brand"
	"fashionpulse/internal/domain/mention"
)

// Read limits of the query views
const (
	TrendPoints        = 10
	DashboardMentions  = 20
	BrandHistoryLimit  = 30
	BrandMentionsLimit = 50
)

// Store is the read side of storage used by the query views
type Store interface {
	LatestSnapshot(ctx context.Context, brand string) (*analytics.Snapshot, error)
	RecentSnapshots(ctx context.Context, brand string, limit int) ([]analytics.Snapshot, error)
	RecentMentions(ctx context.Context, filter mention.Filter) ([]mention.Mention, error)
}

// BrandOverview is the dashboard row of one brand's latest snapshot
type BrandOverview struct {
	Brand           string          `json:"brand"`
	SentimentAvg    float64         `json:"sentiment_avg"`
	SentimentTrend  analytics.Trend `json:"sentiment_trend"`
	TotalMentions   int             `json:"total_mentions"`
	EngagementScore int             `json:"engagement_score"`
	MarketShare     float64         `json:"market_share"`
}

// Dashboard is the cross-brand overview
type Dashboard struct {
	BrandsOverview    []BrandOverview      `json:"brands_overview"`
	SentimentTrends   map[string][]float64 `json:"sentiment_trends"`
	MarketPredictions map[string]float64   `json:"market_predictions"`
	RecentMentions    []mention.Mention    `json:"recent_mentions"`
	LastUpdated       time.Time            `json:"last_updated"`
}

// BrandDetail is the history of one brand
type BrandDetail struct {
	Brand            string               `json:"brand"`
	AnalyticsHistory []analytics.Snapshot `json:"analytics_history"`
	RecentMentions   []mention.Mention    `json:"recent_mentions"`
	TotalAnalytics   int                  `json:"total_analytics"`
	TotalMentions    int                  `json:"total_mentions"`
}

// BrandList is the tracked catalog
type BrandList struct {
	Brands      map[string][]string `json:"brands"`
	TotalBrands int                 `json:"total_brands"`
}

// Service builds read-only views over stored analytics
type Service struct {
	catalog *brand.Catalog
	store   Store
	now     func() time.Time
}

// NewService creates a new insight service
func NewService(catalog *brand.Catalog, store Store) *Service {
	return &Service{
		catalog: catalog,
		store:   store,
		now:     time.Now,
	}
}

// Dashboard returns the latest snapshot of every brand that has one, each
// brand's recent sentiment series and the most recent mentions
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{
		BrandsOverview:    []BrandOverview{},
		SentimentTrends:   make(map[string][]float64),
		MarketPredictions: make(map[string]float64),
	}

	for _, b := range s.catalog.All() {
		snaps, err := s.store.RecentSnapshots(ctx, b, TrendPoints)
		if err != nil {
			return nil, fmt.Errorf("error loading snapshots for %s: %w", b, err)
		}
		if len(snaps) == 0 {
			continue
		}

		latest := snaps[0]
		d.BrandsOverview = append(d.BrandsOverview, BrandOverview{
			Brand:           b,
			SentimentAvg:    latest.SentimentAvg,
			SentimentTrend:  latest.SentimentTrend,
			TotalMentions:   latest.TotalMentions,
			EngagementScore: latest.EngagementScore,
			MarketShare:     latest.MarketSharePrediction,
		})

		// snapshots come newest first; the series reads oldest first
		series := make([]float64, len(snaps))
		for i, snap := range snaps {
			series[len(snaps)-1-i] = snap.SentimentAvg
		}
		d.SentimentTrends[b] = series
		d.MarketPredictions[b] = latest.MarketSharePrediction
	}

	mentions, err := s.store.RecentMentions(ctx, mention.Filter{Limit: DashboardMentions})
	if err != nil {
		return nil, fmt.Errorf("error loading recent mentions: %w", err)
	}
	d.RecentMentions = nonNil(mentions)
	d.LastUpdated = s.now().UTC()

	return d, nil
}

// BrandAnalytics returns a tracked brand's snapshot history and recent mentions
func (s *Service) BrandAnalytics(ctx context.Context, name string) (*BrandDetail, error) {
	if !s.catalog.Contains(name) {
		return nil, fmt.Errorf("%w: %s", brand.ErrUnknownBrand, name)
	}

	snaps, err := s.store.RecentSnapshots(ctx, name, BrandHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("error loading snapshots for %s: %w", name, err)
	}

	mentions, err := s.store.RecentMentions(ctx, mention.Filter{Brand: name, Limit: BrandMentionsLimit})
	if err != nil {
		return nil, fmt.Errorf("error loading mentions for %s: %w", name, err)
	}

	return &BrandDetail{
		Brand:            name,
		AnalyticsHistory: nonNil(snaps),
		RecentMentions:   nonNil(mentions),
		TotalAnalytics:   len(snaps),
		TotalMentions:    len(mentions),
	}, nil
}

// LatestSnapshot returns a tracked brand's most recent snapshot
func (s *Service) LatestSnapshot(ctx context.Context, name string) (*analytics.Snapshot, error) {
	if !s.catalog.Contains(name) {
		return nil, fmt.Errorf("%w: %s", brand.ErrUnknownBrand, name)
	}

	snap, err := s.store.LatestSnapshot(ctx, name)
	if errors.Is(err, analytics.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("error loading latest snapshot for %s: %w", name, err)
	}
	return snap, nil
}

// Brands returns the tracked catalog
func (s *Service) Brands() BrandList {
	return BrandList{
		Brands:      s.catalog.Groups(),
		TotalBrands: s.catalog.Len(),
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
