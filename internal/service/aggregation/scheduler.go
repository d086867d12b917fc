// internal/service/aggregation/scheduler.go

package aggregation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"fashionpulse/internal/domain/analytics"
	"fashionpulse/internal/metrics"
	"fashionpulse/pkg/logger"
)

// ErrAlreadyRunning is returned when Run is called on a running scheduler
var ErrAlreadyRunning = errors.New("scheduler already running")

// State is the scheduler's position in its run loop
type State int32

// Scheduler states
const (
	StateIdle State = iota
	StateRunning
	StateBackoff
	StateStopped
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateBackoff:
		return "backoff"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state as its name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Runner executes one aggregation cycle
type Runner interface {
	Run(ctx context.Context) (analytics.CycleSummary, error)
}

// Clock abstracts timers so the loop can be driven in tests
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SchedulerConfig contains configuration for the scheduler
type SchedulerConfig struct {
	Interval      time.Duration
	RetryInterval time.Duration
}

// Status is a point-in-time view of the scheduler
type Status struct {
	State       State                   `json:"state"`
	Runs        int64                   `json:"runs"`
	Failures    int64                   `json:"failures"`
	LastRun     time.Time               `json:"last_run"`
	LastError   string                  `json:"last_error,omitempty"`
	LastSummary *analytics.CycleSummary `json:"last_summary,omitempty"`
	NextRun     time.Time               `json:"next_run"`
}

// Scheduler runs the aggregation cycle on a fixed interval, backing off
// to a shorter retry interval after a structural failure
type Scheduler struct {
	runner  Runner
	config  SchedulerConfig
	clock   Clock
	metrics *metrics.Metrics
	log     *logger.Logger

	// serializes scheduled and on-demand cycles
	runMu   sync.Mutex
	started atomic.Bool

	mu          sync.RWMutex
	state       State
	runs        int64
	failures    int64
	lastRun     time.Time
	lastErr     error
	lastSummary *analytics.CycleSummary
	nextRun     time.Time
}

// NewScheduler creates a new scheduler
func NewScheduler(runner Runner, config SchedulerConfig, m *metrics.Metrics) *Scheduler {
	return NewSchedulerWithClock(runner, config, m, realClock{})
}

// NewSchedulerWithClock creates a scheduler driven by clock
func NewSchedulerWithClock(runner Runner, config SchedulerConfig, m *metrics.Metrics, clock Clock) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Minute
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = time.Minute
	}

	return &Scheduler{
		runner:  runner,
		config:  config,
		clock:   clock,
		metrics: m,
		log:     logger.Get().With("component", "scheduler"),
		state:   StateIdle,
	}
}

// Run fires the cycle immediately and then forever on the configured
// interval until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.setState(StateStopped)

	s.log.Infow("Scheduler started", "interval", s.config.Interval, "retry_interval", s.config.RetryInterval)

	for {
		_, err := s.execute(ctx, false)
		if ctx.Err() != nil {
			s.log.Info("Scheduler stopped")
			return nil
		}

		wait := s.config.Interval
		if err != nil {
			wait = s.config.RetryInterval
			s.setState(StateBackoff)
			s.log.Errorw("Aggregation cycle failed, backing off", "error", err, "retry_in", wait)
		} else {
			s.setState(StateIdle)
		}

		s.mu.Lock()
		s.nextRun = s.clock.Now().Add(wait)
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			s.log.Info("Scheduler stopped")
			return nil
		case <-s.clock.After(wait):
		}
	}
}

// Trigger runs one cycle on demand. It waits for a scheduled cycle in
// progress to finish instead of overlapping with it.
func (s *Scheduler) Trigger(ctx context.Context) (analytics.CycleSummary, error) {
	return s.execute(ctx, true)
}

// Status returns the scheduler status
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		State:       s.state,
		Runs:        s.runs,
		Failures:    s.failures,
		LastRun:     s.lastRun,
		LastSummary: s.lastSummary,
		NextRun:     s.nextRun,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// State returns the current state
func (s *Scheduler) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// execute runs one cycle with panic containment. A manual run restores the
// state the loop was in once it is done.
func (s *Scheduler) execute(ctx context.Context, manual bool) (summary analytics.CycleSummary, err error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	prev := s.State()
	s.setState(StateRunning)
	start := s.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("aggregation cycle panicked: %v", r)
		}
		s.record(start, summary, err)
		if manual {
			s.setState(prev)
		}
	}()

	return s.runner.Run(ctx)
}

func (s *Scheduler) record(start time.Time, summary analytics.CycleSummary, err error) {
	duration := s.clock.Now().Sub(start)
	s.metrics.CycleFinished(duration, err)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs++
	s.lastRun = start
	s.lastErr = err
	if err != nil {
		s.failures++
		return
	}
	s.lastSummary = &summary
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.metrics.SetSchedulerState(int(state))
}
