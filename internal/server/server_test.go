package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fashionpulse/internal/adapter/events"
	"fashionpulse/internal/adapter/storage"
	"fashionpulse/internal/config"
	"fashionpulse/internal/domain/analytics"
	"fashionpulse/internal/domain/brand"
	"fashionpulse/internal/domain/mention"
	"fashionpulse/internal/metrics"
	"fashionpulse/internal/service/aggregation"
	"fashionpulse/internal/service/insight"
)

type fakeCollector struct {
	summary analytics.CycleSummary
	err     error
	calls   int
}

func (f *fakeCollector) Trigger(ctx context.Context) (analytics.CycleSummary, error) {
	f.calls++
	return f.summary, f.err
}

func (f *fakeCollector) Status() aggregation.Status {
	return aggregation.Status{State: aggregation.StateBackoff, Runs: 3, Failures: 1, LastError: "storage unavailable"}
}

type fixture struct {
	store     *storage.MemoryStore
	bus       *events.LocalBus
	collector *fakeCollector
	handler   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog, err := brand.NewCatalog([]string{"Nykaa Fashion", "Ajio"}, []string{"H&M", "Zara"})
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	bus := events.NewLocalBus()
	collector := &fakeCollector{}

	reg := prometheus.NewRegistry()
	metrics.New(reg)

	srv := NewServer(config.ServerConfig{CorsOrigins: []string{"*"}}, Dependencies{
		Insights:   insight.NewService(catalog, store),
		Collector:  collector,
		Bus:        bus,
		EventTopic: "analytics",
		Gatherer:   reg,
	})

	return &fixture{store: store, bus: bus, collector: collector, handler: srv.Handler()}
}

func (f *fixture) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestServer_Banner(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/", "/api/"} {
		rec := f.do(t, http.MethodGet, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		body := decode(t, rec)
		assert.Equal(t, "running", body["status"])
		assert.Equal(t, "Fashion Market Analyst API", body["message"])
	}

	rec := f.do(t, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestServer_CollectData(t *testing.T) {
	f := newFixture(t)
	f.collector.summary = analytics.CycleSummary{CycleID: "c1", BrandsProcessed: 4, TotalMentions: 52, SnapshotsWritten: 4}

	rec := f.do(t, http.MethodPost, "/api/collect-data")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Data collected for 4 brands", body["message"])
	assert.Equal(t, float64(52), body["total_mentions"])
	assert.Equal(t, float64(4), body["snapshots_written"])
	assert.Equal(t, 1, f.collector.calls)
}

func TestServer_CollectDataFailure(t *testing.T) {
	f := newFixture(t)
	f.collector.err = errors.New("storage unavailable")

	rec := f.do(t, http.MethodPost, "/api/collect-data")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode(t, rec), "error")
}

func TestServer_Dashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.SaveSnapshot(ctx, analytics.Snapshot{
		ID: "s1", Brand: "Zara", TotalMentions: 13, SentimentAvg: 0.21,
		SentimentTrend: analytics.TrendStable, MarketSharePrediction: 12.5,
		EngagementScore: 900, Timestamp: time.Now().UTC(),
	}))
	require.NoError(t, f.store.SaveMention(ctx, mention.Mention{
		ID: "m1", Brand: "Zara", Source: mention.SourceSyntheticNews,
		Content: "Zara launches new sustainable fashion line",
		SentimentLabel: mention.LabelPositive, Timestamp: time.Now().UTC(),
	}))

	rec := f.do(t, http.MethodGet, "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	overview := body["brands_overview"].([]interface{})
	require.Len(t, overview, 1)
	row := overview[0].(map[string]interface{})
	assert.Equal(t, "Zara", row["brand"])
	assert.Equal(t, 12.5, row["market_share"])

	assert.Equal(t, map[string]interface{}{"Zara": 12.5}, body["market_predictions"])
	mentions := body["recent_mentions"].([]interface{})
	require.Len(t, mentions, 1)
	assert.NotContains(t, mentions[0].(map[string]interface{}), "url")
	assert.Contains(t, body, "last_updated")
}

func TestServer_Brands(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/brands")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(4), body["total_brands"])
	groups := body["brands"].(map[string]interface{})
	assert.Equal(t, []interface{}{"H&M", "Zara"}, groups["global"])
}

func TestServer_BrandAnalytics(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveSnapshot(context.Background(), analytics.Snapshot{
		ID: "s1", Brand: "Nykaa Fashion", Timestamp: time.Now().UTC(),
	}))

	rec := f.do(t, http.MethodGet, "/api/brand/Nykaa%20Fashion/analytics")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Nykaa Fashion", body["brand"])
	assert.Equal(t, float64(1), body["total_analytics"])
	assert.Equal(t, []interface{}{}, body["recent_mentions"])

	rec = f.do(t, http.MethodGet, "/api/brand/H&M/analytics")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/brand/Gucci/analytics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_LatestSnapshot(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/brand/Ajio/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, f.store.SaveSnapshot(context.Background(), analytics.Snapshot{
		ID: "s1", Brand: "Ajio", TotalMentions: 9, Timestamp: time.Now().UTC(),
	}))

	rec = f.do(t, http.MethodGet, "/api/brand/Ajio/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(9), decode(t, rec)["total_mentions"])
}

func TestServer_SchedulerStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/scheduler")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "backoff", body["state"])
	assert.Equal(t, float64(1), body["failures"])
}

func TestServer_Metrics(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fashionpulse_cycle_duration_seconds")
}

func TestServer_AnalyticsFeed(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/analytics"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var welcome map[string]interface{}
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, "welcome", welcome["type"])

	pub := events.NewPublisher(f.bus, "analytics")
	require.NoError(t, pub.PublishSnapshot(context.Background(), analytics.Snapshot{Brand: "Zara", TotalMentions: 5}))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event events.Event
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, events.TypeSnapshot, event.Type)

	var snap analytics.Snapshot
	require.NoError(t, json.Unmarshal(event.Data, &snap))
	assert.Equal(t, "Zara", snap.Brand)
}
