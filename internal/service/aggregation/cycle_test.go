package aggregation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fashionpulse/internal/adapter/storage"
	"fashionpulse/internal/domain/analytics"
	"fashionpulse/internal/domain/brand"
	"fashionpulse/internal/domain/mention"
	"fashionpulse/internal/metrics"
	"fashionpulse/internal/service/listening"
	"fashionpulse/internal/service/sentiment"
)

// seededSource returns fixed raw mentions per brand
type seededSource struct {
	name  mention.Source
	byKey map[string][]mention.Raw
	err   error
	panic bool
}

func (s *seededSource) Name() mention.Source { return s.name }

func (s *seededSource) Collect(ctx context.Context, b string, desired int) ([]mention.Raw, error) {
	if s.panic {
		panic("source blew up")
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.byKey[b], nil
}

func seeded(scores ...float64) []mention.Raw {
	raws := make([]mention.Raw, len(scores))
	for i, score := range scores {
		raws[i] = mention.Raw{
			Source:     mention.SourceSyntheticSocial,
			Content:    "seeded mention",
			Engagement: 10,
			Seed:       &score,
		}
	}
	return raws
}

// faultyStore rejects writes according to its flags
type faultyStore struct {
	*storage.MemoryStore

	mu             sync.Mutex
	failMentions   bool
	failSnapshots  bool
	failEveryOther bool
	mentionCalls   int
}

func (f *faultyStore) SaveMention(ctx context.Context, m mention.Mention) error {
	f.mu.Lock()
	f.mentionCalls++
	call := f.mentionCalls
	f.mu.Unlock()

	if f.failMentions || (f.failEveryOther && call%2 == 0) {
		return errors.New("connection refused")
	}
	return f.MemoryStore.SaveMention(ctx, m)
}

func (f *faultyStore) SaveSnapshot(ctx context.Context, s analytics.Snapshot) error {
	if f.failSnapshots {
		return errors.New("connection refused")
	}
	return f.MemoryStore.SaveSnapshot(ctx, s)
}

type recordingPublisher struct {
	mu        sync.Mutex
	snapshots []analytics.Snapshot
	cycles    []analytics.CycleSummary
}

func (p *recordingPublisher) PublishSnapshot(ctx context.Context, s analytics.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, s)
	return nil
}

func (p *recordingPublisher) PublishCycle(ctx context.Context, summary analytics.CycleSummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cycles = append(p.cycles, summary)
	return nil
}

func newTestCycle(t *testing.T, catalog *brand.Catalog, store Store, pub Publisher, m *metrics.Metrics, sources ...listening.Source) *Cycle {
	t.Helper()

	feeds := make([]listening.Feed, len(sources))
	for i, s := range sources {
		feeds[i] = listening.Feed{Source: s, Desired: 5}
	}

	c := NewCycle(catalog, feeds, listening.NewFinisher(sentiment.NewScorer()), store, pub, m, CycleConfig{MaxConcurrentBrands: 2})
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }
	return c
}

func twoBrandCatalog(t *testing.T) *brand.Catalog {
	t.Helper()
	catalog, err := brand.NewCatalog([]string{"A"}, []string{"B"})
	require.NoError(t, err)
	return catalog
}

func TestCycle_EndToEnd(t *testing.T) {
	store := storage.NewMemoryStore()
	pub := &recordingPublisher{}
	src := &seededSource{
		name:  mention.SourceSyntheticSocial,
		byKey: map[string][]mention.Raw{"A": seeded(0.2, 0.3, -0.1, 0.5)},
	}

	c := newTestCycle(t, twoBrandCatalog(t), store, pub, nil, src)

	summary, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.BrandsProcessed)
	assert.Equal(t, 4, summary.TotalMentions)
	assert.Equal(t, 4, summary.MentionsPersisted)
	assert.Equal(t, 1, summary.SnapshotsWritten)
	assert.Equal(t, []string{"B"}, summary.BrandsWithoutMentions)

	mentions, err := store.RecentMentions(context.Background(), mention.Filter{Brand: "A"})
	require.NoError(t, err)
	assert.Len(t, mentions, 4)

	snap, err := store.LatestSnapshot(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 4, snap.TotalMentions)
	assert.InDelta(t, 0.225, snap.SentimentAvg, 1e-9)
	assert.Equal(t, 40, snap.EngagementScore)
	assert.InDelta(t, 100.0, snap.MarketSharePrediction, 1e-9)

	_, err = store.LatestSnapshot(context.Background(), "B")
	assert.ErrorIs(t, err, analytics.ErrNotFound)

	require.Len(t, pub.snapshots, 1)
	assert.Equal(t, "A", pub.snapshots[0].Brand)
	require.Len(t, pub.cycles, 1)
	assert.Equal(t, summary.CycleID, pub.cycles[0].CycleID)
}

func TestCycle_SharesSumToHundred(t *testing.T) {
	store := storage.NewMemoryStore()
	src := &seededSource{
		name: mention.SourceSyntheticNews,
		byKey: map[string][]mention.Raw{
			"A": seeded(0.4, 0.1),
			"B": seeded(-0.2, 0.6, 0.3),
		},
	}

	c := newTestCycle(t, twoBrandCatalog(t), store, nil, nil, src)
	_, err := c.Run(context.Background())
	require.NoError(t, err)

	a, err := store.LatestSnapshot(context.Background(), "A")
	require.NoError(t, err)
	b, err := store.LatestSnapshot(context.Background(), "B")
	require.NoError(t, err)

	assert.InDelta(t, 100.0, a.MarketSharePrediction+b.MarketSharePrediction, 0.02)
	assert.Greater(t, b.MarketSharePrediction, a.MarketSharePrediction)
}

func TestCycle_SourceFailuresIsolated(t *testing.T) {
	store := storage.NewMemoryStore()
	good := &seededSource{
		name:  mention.SourceSyntheticNews,
		byKey: map[string][]mention.Raw{"A": seeded(0.5), "B": seeded(0.1)},
	}
	failing := &seededSource{name: mention.SourceLiveSearch, err: errors.New("timeout")}
	panicking := &seededSource{name: mention.SourceSyntheticSocial, panic: true}

	c := newTestCycle(t, twoBrandCatalog(t), store, nil, nil, failing, good, panicking)

	summary, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalMentions)
	assert.Equal(t, 2, summary.SnapshotsWritten)
}

func TestCycle_SingleWriteFailureSkipped(t *testing.T) {
	store := &faultyStore{MemoryStore: storage.NewMemoryStore(), failEveryOther: true}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	src := &seededSource{
		name:  mention.SourceSyntheticSocial,
		byKey: map[string][]mention.Raw{"A": seeded(0.2, 0.3, -0.1, 0.5)},
	}

	c := newTestCycle(t, twoBrandCatalog(t), store, nil, m, src)

	summary, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.MentionsPersisted)
	assert.Equal(t, 1, summary.SnapshotsWritten)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.PersistErrors.WithLabelValues("mention")))

	// the snapshot covers every collected mention, stored or not
	snap, err := store.LatestSnapshot(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 4, snap.TotalMentions)
}

func TestCycle_AllMentionWritesFail(t *testing.T) {
	store := &faultyStore{MemoryStore: storage.NewMemoryStore(), failMentions: true}
	src := &seededSource{
		name:  mention.SourceSyntheticSocial,
		byKey: map[string][]mention.Raw{"A": seeded(0.2), "B": seeded(0.1)},
	}

	c := newTestCycle(t, twoBrandCatalog(t), store, nil, nil, src)

	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, mention.ErrStorageUnavailable)

	brands, err := store.Brands(context.Background())
	require.NoError(t, err)
	assert.Empty(t, brands)
}

func TestCycle_AllSnapshotWritesFail(t *testing.T) {
	store := &faultyStore{MemoryStore: storage.NewMemoryStore(), failSnapshots: true}
	pub := &recordingPublisher{}
	src := &seededSource{
		name:  mention.SourceSyntheticSocial,
		byKey: map[string][]mention.Raw{"A": seeded(0.2)},
	}

	c := newTestCycle(t, twoBrandCatalog(t), store, pub, nil, src)

	_, err := c.Run(context.Background())
	assert.ErrorIs(t, err, mention.ErrStorageUnavailable)
	assert.Empty(t, pub.cycles)
}

func TestCycle_NoMentionsAnywhere(t *testing.T) {
	store := storage.NewMemoryStore()
	src := &seededSource{name: mention.SourceLiveSearch}

	c := newTestCycle(t, twoBrandCatalog(t), store, nil, nil, src)

	summary, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.SnapshotsWritten)
	assert.ElementsMatch(t, []string{"A", "B"}, summary.BrandsWithoutMentions)
}

func TestCycle_NilCatalog(t *testing.T) {
	c := newTestCycle(t, nil, storage.NewMemoryStore(), nil, nil)

	_, err := c.Run(context.Background())
	assert.ErrorIs(t, err, brand.ErrInvalidCatalog)
}

func TestCycle_CancelledBeforeStart(t *testing.T) {
	store := storage.NewMemoryStore()
	src := &seededSource{
		name:  mention.SourceSyntheticSocial,
		byKey: map[string][]mention.Raw{"A": seeded(0.2), "B": seeded(0.1)},
	}
	c := newTestCycle(t, twoBrandCatalog(t), store, nil, nil, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.BrandsProcessed)
}

func TestCycle_TrendUsesStoredHistory(t *testing.T) {
	store := storage.NewMemoryStore()
	catalog, err := brand.NewCatalog([]string{"A"}, nil)
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, score := range []float64{-0.6, -0.4, -0.2, 0.0} {
		require.NoError(t, store.SaveMention(context.Background(), mention.Mention{
			ID:             string(rune('a' + i)),
			Brand:          "A",
			SentimentScore: score,
			Timestamp:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	src := &seededSource{
		name:  mention.SourceSyntheticNews,
		byKey: map[string][]mention.Raw{"A": seeded(0.3)},
	}
	c := newTestCycle(t, catalog, store, nil, nil, src)

	_, err = c.Run(context.Background())
	require.NoError(t, err)

	snap, err := store.LatestSnapshot(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, analytics.TrendRising, snap.SentimentTrend)
}
