package aggregation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fashionpulse/internal/adapter/storage"
	"fashionpulse/internal/domain/analytics"
	"fashionpulse/internal/domain/mention"
)

// fakeClock reports every requested wait and fires only when told to
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	waits chan time.Duration
	fire  chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		waits: make(chan time.Duration, 16),
		fire:  make(chan time.Time),
	}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.waits <- d
	return c.fire
}

func (c *fakeClock) nextWait(t *testing.T) time.Duration {
	t.Helper()
	select {
	case d := <-c.waits:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not wait")
		return 0
	}
}

// mockRunner counts runs and returns scripted results
type mockRunner struct {
	runs    atomic.Int32
	err     error
	panics  bool
	block   chan struct{}
	started chan struct{}
}

func (r *mockRunner) Run(ctx context.Context) (analytics.CycleSummary, error) {
	r.runs.Add(1)
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	if r.panics {
		panic("cycle exploded")
	}
	return analytics.CycleSummary{CycleID: "cycle", TotalMentions: 3}, r.err
}

func runScheduler(t *testing.T, s *Scheduler) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return cancel, done
}

func TestScheduler_WaitsIntervalAfterSuccess(t *testing.T) {
	clock := newFakeClock()
	runner := &mockRunner{}
	s := NewSchedulerWithClock(runner, SchedulerConfig{}, nil, clock)

	cancel, done := runScheduler(t, s)

	assert.Equal(t, 300*time.Second, clock.nextWait(t))
	assert.Equal(t, int32(1), runner.runs.Load())

	st := s.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, int64(1), st.Runs)
	require.NotNil(t, st.LastSummary)
	assert.Equal(t, 3, st.LastSummary.TotalMentions)
	assert.Equal(t, clock.Now().Add(300*time.Second), st.NextRun)

	clock.fire <- clock.Now()
	assert.Equal(t, 300*time.Second, clock.nextWait(t))
	assert.Equal(t, int32(2), runner.runs.Load())

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, StateStopped, s.State())
}

func TestScheduler_BacksOffWhenStorageRejectsWrites(t *testing.T) {
	clock := newFakeClock()
	store := &faultyStore{MemoryStore: storage.NewMemoryStore(), failMentions: true, failSnapshots: true}
	src := &seededSource{
		name:  mention.SourceSyntheticSocial,
		byKey: map[string][]mention.Raw{"A": seeded(0.2), "B": seeded(-0.4)},
	}
	cycle := newTestCycle(t, twoBrandCatalog(t), store, nil, nil, src)

	s := NewSchedulerWithClock(cycle, SchedulerConfig{
		Interval:      300 * time.Second,
		RetryInterval: 60 * time.Second,
	}, nil, clock)

	cancel, done := runScheduler(t, s)

	assert.Equal(t, 60*time.Second, clock.nextWait(t))

	st := s.Status()
	assert.Equal(t, StateBackoff, st.State)
	assert.Equal(t, int64(1), st.Failures)
	assert.Contains(t, st.LastError, mention.ErrStorageUnavailable.Error())

	// storage recovers
	store.mu.Lock()
	store.failMentions = false
	store.failSnapshots = false
	store.mu.Unlock()

	clock.fire <- clock.Now()
	assert.Equal(t, 300*time.Second, clock.nextWait(t))
	assert.Equal(t, StateIdle, s.State())

	cancel()
	require.NoError(t, <-done)
}

func TestScheduler_PanicTreatedAsFailure(t *testing.T) {
	clock := newFakeClock()
	runner := &mockRunner{panics: true}
	s := NewSchedulerWithClock(runner, SchedulerConfig{}, nil, clock)

	cancel, done := runScheduler(t, s)

	assert.Equal(t, 60*time.Second, clock.nextWait(t))
	assert.Contains(t, s.Status().LastError, "panicked")

	cancel()
	require.NoError(t, <-done)
}

func TestScheduler_RunTwice(t *testing.T) {
	clock := newFakeClock()
	s := NewSchedulerWithClock(&mockRunner{}, SchedulerConfig{}, nil, clock)

	cancel, done := runScheduler(t, s)
	clock.nextWait(t)

	assert.ErrorIs(t, s.Run(context.Background()), ErrAlreadyRunning)

	cancel()
	require.NoError(t, <-done)
}

func TestScheduler_Trigger(t *testing.T) {
	clock := newFakeClock()
	runner := &mockRunner{}
	s := NewSchedulerWithClock(runner, SchedulerConfig{}, nil, clock)

	summary, err := s.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cycle", summary.CycleID)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, int64(1), s.Status().Runs)
}

func TestScheduler_TriggerKeepsBackoff(t *testing.T) {
	clock := newFakeClock()
	runner := &mockRunner{err: errors.New("storage down")}
	s := NewSchedulerWithClock(runner, SchedulerConfig{}, nil, clock)

	cancel, done := runScheduler(t, s)
	clock.nextWait(t)
	require.Equal(t, StateBackoff, s.State())

	_, err := s.Trigger(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateBackoff, s.State())
	assert.Equal(t, int64(2), s.Status().Failures)

	cancel()
	require.NoError(t, <-done)
}

func TestScheduler_TriggerWaitsForRunningCycle(t *testing.T) {
	clock := newFakeClock()
	runner := &mockRunner{block: make(chan struct{}), started: make(chan struct{}, 2)}
	s := NewSchedulerWithClock(runner, SchedulerConfig{}, nil, clock)

	cancel, done := runScheduler(t, s)
	<-runner.started
	assert.Equal(t, StateRunning, s.State())

	triggered := make(chan error, 1)
	go func() {
		_, err := s.Trigger(context.Background())
		triggered <- err
	}()

	// the on-demand run cannot start until the scheduled one is released
	select {
	case <-runner.started:
		t.Fatal("cycles overlapped")
	case <-time.After(50 * time.Millisecond):
	}

	close(runner.block)
	require.NoError(t, <-triggered)
	assert.Equal(t, int32(2), runner.runs.Load())

	cancel()
	require.NoError(t, <-done)
}
