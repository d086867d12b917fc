// internal/metrics/metrics.go

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fashionpulse"

// Metrics holds the pipeline's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CycleRuns         *prometheus.CounterVec
	CycleDuration     prometheus.Histogram
	CycleLastSuccess  prometheus.Gauge
	MentionsCollected *prometheus.CounterVec
	SourceErrors      *prometheus.CounterVec
	PersistErrors     *prometheus.CounterVec
	SnapshotsWritten  prometheus.Counter
	SchedulerState    prometheus.Gauge
	MarketShare       *prometheus.GaugeVec
	SentimentAvg      *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CycleRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycle_runs_total",
				Help:      "Total number of aggregation cycles",
			},
			[]string{"status"}, // status: success|error
		),
		CycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Aggregation cycle duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
		CycleLastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cycle_last_success_timestamp",
				Help:      "Unix timestamp of the last successful cycle",
			},
		),
		MentionsCollected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mentions_collected_total",
				Help:      "Mentions collected by source",
			},
			[]string{"source"},
		),
		SourceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_errors_total",
				Help:      "Failed source or venue calls",
			},
			[]string{"source"},
		),
		PersistErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_errors_total",
				Help:      "Records that could not be written to storage",
			},
			[]string{"kind"}, // kind: mention|snapshot
		),
		SnapshotsWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshots_written_total",
				Help:      "Analytics snapshots written",
			},
		),
		SchedulerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "scheduler_state",
				Help:      "Scheduler state (0=idle, 1=running, 2=backoff, 3=stopped)",
			},
		),
		MarketShare: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "brand_market_share_percent",
				Help:      "Latest market share prediction per brand",
			},
			[]string{"brand"},
		),
		SentimentAvg: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "brand_sentiment_avg",
				Help:      "Latest average sentiment per brand",
			},
			[]string{"brand"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.CycleRuns,
			m.CycleDuration,
			m.CycleLastSuccess,
			m.MentionsCollected,
			m.SourceErrors,
			m.PersistErrors,
			m.SnapshotsWritten,
			m.SchedulerState,
			m.MarketShare,
			m.SentimentAvg,
		)
	}

	return m
}

// CycleFinished records the outcome of one cycle
func (m *Metrics) CycleFinished(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.CycleDuration.Observe(duration.Seconds())
	if err != nil {
		m.CycleRuns.WithLabelValues("error").Inc()
		return
	}
	m.CycleRuns.WithLabelValues("success").Inc()
	m.CycleLastSuccess.SetToCurrentTime()
}

// MentionCollected counts one collected mention
func (m *Metrics) MentionCollected(source string) {
	if m == nil {
		return
	}
	m.MentionsCollected.WithLabelValues(source).Inc()
}

// SourceError counts one failed source call
func (m *Metrics) SourceError(source string) {
	if m == nil {
		return
	}
	m.SourceErrors.WithLabelValues(source).Inc()
}

// PersistError counts one failed write
func (m *Metrics) PersistError(kind string) {
	if m == nil {
		return
	}
	m.PersistErrors.WithLabelValues(kind).Inc()
}

// SnapshotWritten records a persisted snapshot's headline values
func (m *Metrics) SnapshotWritten(brand string, share, sentimentAvg float64) {
	if m == nil {
		return
	}
	m.SnapshotsWritten.Inc()
	m.MarketShare.WithLabelValues(brand).Set(share)
	m.SentimentAvg.WithLabelValues(brand).Set(sentimentAvg)
}

// SetSchedulerState records the scheduler state
func (m *Metrics) SetSchedulerState(state int) {
	if m == nil {
		return
	}
	m.SchedulerState.Set(float64(state))
}
