// internal/service/aggregation/cycle.go

package aggregation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fashionpulse/internal/domain/analytics"
	"fashionpulse/internal/domain/brand"
	"fashionpulse/internal/domain/mention"
	"fashionpulse/internal/metrics"
	"fashionpulse/internal/service/forecast"
	"fashionpulse/internal/service/listening"
	"fashionpulse/pkg/logger"
)

// Store is the storage collaborator used by the cycle
type Store interface {
	// SaveMention appends a mention
	SaveMention(ctx context.Context, m mention.Mention) error

	// RecentMentions returns mentions newest first
	RecentMentions(ctx context.Context, filter mention.Filter) ([]mention.Mention, error)

	// SaveSnapshot appends an analytics snapshot
	SaveSnapshot(ctx context.Context, s analytics.Snapshot) error
}

// Publisher announces cycle results
type Publisher interface {
	PublishSnapshot(ctx context.Context, s analytics.Snapshot) error
	PublishCycle(ctx context.Context, summary analytics.CycleSummary) error
}

// CycleConfig contains configuration for the aggregation cycle
type CycleConfig struct {
	MaxConcurrentBrands int
	HistoryLimit        int
}

// Cycle collects mentions for every catalog brand and rolls them into snapshots
type Cycle struct {
	catalog   *brand.Catalog
	feeds     []listening.Feed
	finisher  *listening.Finisher
	store     Store
	publisher Publisher
	metrics   *metrics.Metrics
	config    CycleConfig
	log       *logger.Logger
	seq       atomic.Int64
	now       func() time.Time
}

// NewCycle creates a new aggregation cycle
func NewCycle(
	catalog *brand.Catalog,
	feeds []listening.Feed,
	finisher *listening.Finisher,
	store Store,
	publisher Publisher,
	m *metrics.Metrics,
	config CycleConfig,
) *Cycle {
	if config.MaxConcurrentBrands <= 0 {
		config.MaxConcurrentBrands = 1
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = forecast.TrendWindow
	}

	return &Cycle{
		catalog:   catalog,
		feeds:     feeds,
		finisher:  finisher,
		store:     store,
		publisher: publisher,
		metrics:   m,
		config:    config,
		log:       logger.Get().With("component", "aggregation_cycle"),
		now:       time.Now,
	}
}

// collection accumulates one cycle's mentions across brand goroutines
type collection struct {
	mu        sync.Mutex
	byBrand   map[string][]mention.Mention
	processed int
	attempted int
	persisted int
}

// Run executes one cycle. Source and single-record failures are logged and
// skipped; only structural failures are returned.
func (c *Cycle) Run(ctx context.Context) (analytics.CycleSummary, error) {
	started := c.now()
	summary := analytics.CycleSummary{
		CycleID:   uuid.New().String(),
		StartedAt: started.UTC(),
	}

	if c.catalog == nil || c.catalog.Len() == 0 {
		return summary, fmt.Errorf("%w: nothing to collect", brand.ErrInvalidCatalog)
	}

	cycleNo := c.seq.Add(1) - 1
	for _, f := range c.feeds {
		if obs, ok := f.Source.(listening.CycleObserver); ok {
			obs.BeginCycle(cycleNo)
		}
	}

	log := c.log.With("cycle_id", summary.CycleID)
	log.Infow("Starting aggregation cycle", "brands", c.catalog.Len(), "sources", len(c.feeds))

	brands := c.catalog.All()
	col := &collection{byBrand: make(map[string][]mention.Mention)}

	g := new(errgroup.Group)
	g.SetLimit(c.config.MaxConcurrentBrands)
	for _, b := range brands {
		if ctx.Err() != nil {
			log.Infow("Cycle interrupted by shutdown, not starting remaining brands")
			break
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			c.collectBrand(ctx, log, b, col)
			return nil
		})
	}
	_ = g.Wait()

	summary.BrandsProcessed = col.processed
	summary.MentionsPersisted = col.persisted

	if col.attempted > 0 && col.persisted == 0 {
		summary.Duration = c.now().Sub(started)
		return summary, fmt.Errorf("%w: all %d mention writes failed", mention.ErrStorageUnavailable, col.attempted)
	}

	// current cycle mentions across all brands, in catalog order
	var all []mention.Mention
	for _, b := range brands {
		all = append(all, col.byBrand[b]...)
	}
	summary.TotalMentions = len(all)
	shares := forecast.EstimateShares(all)

	attempted := 0
	for _, b := range brands {
		current := col.byBrand[b]
		if len(current) == 0 {
			summary.BrandsWithoutMentions = append(summary.BrandsWithoutMentions, b)
			continue
		}

		snapshot := c.buildSnapshot(ctx, log, b, current, shares[b])

		attempted++
		// a started snapshot write is never cut short by shutdown
		if err := c.store.SaveSnapshot(context.WithoutCancel(ctx), snapshot); err != nil {
			log.Errorw("Error saving snapshot", "brand", b, "error", err)
			c.metrics.PersistError("snapshot")
			continue
		}
		summary.SnapshotsWritten++
		c.metrics.SnapshotWritten(b, snapshot.MarketSharePrediction, snapshot.SentimentAvg)

		if c.publisher != nil {
			if err := c.publisher.PublishSnapshot(ctx, snapshot); err != nil {
				log.Warnw("Error publishing snapshot event", "brand", b, "error", err)
			}
		}
	}

	summary.Duration = c.now().Sub(started)

	if attempted > 0 && summary.SnapshotsWritten == 0 {
		return summary, fmt.Errorf("%w: all %d snapshot writes failed", mention.ErrStorageUnavailable, attempted)
	}

	if c.publisher != nil {
		if err := c.publisher.PublishCycle(ctx, summary); err != nil {
			log.Warnw("Error publishing cycle event", "error", err)
		}
	}

	log.Infow("Aggregation cycle completed",
		"brands_processed", summary.BrandsProcessed,
		"total_mentions", summary.TotalMentions,
		"snapshots_written", summary.SnapshotsWritten,
		"duration", summary.Duration,
	)

	return summary, nil
}

// collectBrand pulls every source for one brand and appends the mentions
func (c *Cycle) collectBrand(ctx context.Context, log *logger.Logger, b string, col *collection) {
	raws := c.gather(ctx, log, b)

	// writes for a brand that has started are allowed to finish on shutdown
	writeCtx := context.WithoutCancel(ctx)

	mentions := make([]mention.Mention, 0, len(raws))
	attempted, persisted := 0, 0
	for _, raw := range raws {
		m := c.finisher.Finish(raw)
		mentions = append(mentions, m)
		c.metrics.MentionCollected(string(m.Source))

		attempted++
		if err := c.store.SaveMention(writeCtx, m); err != nil {
			log.Errorw("Error saving mention", "brand", b, "source", m.Source, "error", err)
			c.metrics.PersistError("mention")
			continue
		}
		persisted++
	}

	col.mu.Lock()
	col.byBrand[b] = mentions
	col.processed++
	col.attempted += attempted
	col.persisted += persisted
	col.mu.Unlock()

	log.Debugw("Collected brand mentions", "brand", b, "mentions", len(mentions))
}

// gather fans out to every source of a brand; each call is isolated
func (c *Cycle) gather(ctx context.Context, log *logger.Logger, b string) []mention.Raw {
	results := make([][]mention.Raw, len(c.feeds))

	var wg sync.WaitGroup
	for i, f := range c.feeds {
		wg.Add(1)
		go func(i int, f listening.Feed) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Errorw("Source panicked", "brand", b, "source", f.Source.Name(), "panic", r)
					c.metrics.SourceError(string(f.Source.Name()))
				}
			}()

			raws, err := f.Source.Collect(ctx, b, f.Desired)
			if err != nil {
				log.Errorw("Error collecting mentions", "brand", b, "source", f.Source.Name(), "error", err)
				c.metrics.SourceError(string(f.Source.Name()))
				return
			}
			results[i] = raws
		}(i, f)
	}
	wg.Wait()

	var raws []mention.Raw
	for _, r := range results {
		for _, raw := range r {
			raw.Brand = b
			raws = append(raws, raw)
		}
	}
	return raws
}

// buildSnapshot computes one brand's analytics for this cycle
func (c *Cycle) buildSnapshot(
	ctx context.Context,
	log *logger.Logger,
	b string,
	current []mention.Mention,
	share float64,
) analytics.Snapshot {
	engagement := 0
	for _, m := range current {
		engagement += m.Engagement
	}

	return analytics.Snapshot{
		ID:                    uuid.New().String(),
		Brand:                 b,
		TotalMentions:         len(current),
		SentimentAvg:          forecast.Round(forecast.Mean(current), 3),
		SentimentTrend:        forecast.EstimateTrend(c.history(ctx, log, b, current)),
		MarketSharePrediction: share,
		EngagementScore:       engagement,
		Timestamp:             c.now().UTC(),
	}
}

// history returns the brand's stored scores merged with this cycle's, oldest first
func (c *Cycle) history(ctx context.Context, log *logger.Logger, b string, current []mention.Mention) []float64 {
	merged := make(map[string]mention.Mention, len(current)+c.config.HistoryLimit)

	stored, err := c.store.RecentMentions(context.WithoutCancel(ctx), mention.Filter{Brand: b, Limit: c.config.HistoryLimit})
	if err != nil {
		log.Warnw("Error loading mention history, using current cycle only", "brand", b, "error", err)
	}
	for _, m := range stored {
		merged[m.ID] = m
	}
	for _, m := range current {
		merged[m.ID] = m
	}

	ordered := make([]mention.Mention, 0, len(merged))
	for _, m := range merged {
		ordered = append(ordered, m)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Timestamp.Equal(ordered[j].Timestamp) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	scores := make([]float64, len(ordered))
	for i, m := range ordered {
		scores[i] = m.SentimentScore
	}
	return scores
}
