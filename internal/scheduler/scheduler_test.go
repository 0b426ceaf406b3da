package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) Chan() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()                  { f.stopped.Store(true) }

type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) last() *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[len(c.tickers)-1]
}

func (c *fakeClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		if !t.stopped.Load() {
			n++
		}
	}
	return n
}

type countingPoller struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (p *countingPoller) Name() string { return "test" }

func (p *countingPoller) Fetch(ctx context.Context) error {
	p.calls.Add(1)
	if p.gate != nil {
		<-p.gate
	}
	return p.err
}

func TestStart_FetchesImmediately(t *testing.T) {
	clock := &fakeClock{}
	p := &countingPoller{}
	s := New(p, WithClock(clock))
	defer s.Stop()

	s.Start(time.Minute)
	s.Wait()
	assert.Equal(t, int32(1), p.calls.Load())
	assert.True(t, s.Running())
}

func TestStart_NonPositiveIntervalFetchesOnce(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		clock := &fakeClock{}
		p := &countingPoller{}
		s := New(p, WithClock(clock))

		require.NotPanics(t, func() { s.Start(interval) })
		s.Wait()
		assert.Equal(t, int32(1), p.calls.Load())
		assert.False(t, s.Running())
		assert.Equal(t, 0, clock.active())
		s.Stop()
	}
}

func TestTick_FetchesAgain(t *testing.T) {
	clock := &fakeClock{}
	p := &countingPoller{}
	s := New(p, WithClock(clock))
	defer s.Stop()

	s.Start(time.Minute)
	s.Wait()
	clock.last().ch <- time.Now()
	require.Eventually(t, func() bool { return p.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestTick_SkippedWhileBusy(t *testing.T) {
	clock := &fakeClock{}
	p := &countingPoller{gate: make(chan struct{})}
	s := New(p, WithClock(clock))
	defer s.Stop()

	s.Start(time.Minute)
	require.Eventually(t, s.Busy, time.Second, time.Millisecond)

	clock.last().ch <- time.Now()
	require.Eventually(t, func() bool { return s.Skipped() == 1 }, time.Second, time.Millisecond)
	assert.False(t, s.Trigger())

	close(p.gate)
	s.Wait()
	assert.Equal(t, int32(1), p.calls.Load())
	assert.Equal(t, int64(2), s.Skipped())
}

func TestStop_Twice(t *testing.T) {
	clock := &fakeClock{}
	s := New(&countingPoller{}, WithClock(clock))

	s.Stop()
	s.Start(time.Minute)
	s.Stop()
	assert.NotPanics(t, s.Stop)
	assert.False(t, s.Running())
	assert.Equal(t, 0, clock.active())
}

func TestStart_TwiceLeavesOneTimer(t *testing.T) {
	clock := &fakeClock{}
	p := &countingPoller{}
	s := New(p, WithClock(clock))
	defer s.Stop()

	s.Start(time.Minute)
	s.Wait()
	s.Start(time.Minute)
	s.Wait()

	assert.Len(t, clock.tickers, 2)
	assert.True(t, clock.tickers[0].stopped.Load())
	assert.Equal(t, 1, clock.active())
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestStop_LetsInFlightFetchFinish(t *testing.T) {
	clock := &fakeClock{}
	p := &countingPoller{gate: make(chan struct{})}
	s := New(p, WithClock(clock))

	s.Start(time.Minute)
	require.Eventually(t, s.Busy, time.Second, time.Millisecond)
	s.Stop()
	assert.True(t, s.Busy())

	close(p.gate)
	s.Wait()
	assert.False(t, s.Busy())
}

func TestFetchErrorsAreLogged(t *testing.T) {
	log := logger.NewBufferLogger()
	p := &countingPoller{err: errors.New(errors.ErrTransport, "boom", "")}
	s := New(p, WithClock(&fakeClock{}), WithLogger(log))
	defer s.Stop()

	s.Start(time.Minute)
	s.Wait()
	assert.True(t, log.Contains("warn", "boom"))

	log.Clear()
	p.err = errors.NewNotConfigured("Plex")
	s.Trigger()
	s.Wait()
	assert.False(t, log.HasLevel("warn"))
}

func TestGroup(t *testing.T) {
	clock := &fakeClock{}
	a := New(&countingPoller{}, WithClock(clock))
	g := NewGroup()
	g.Add(a, time.Minute)

	got, ok := g.Get("test")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, []string{"test"}, g.Names())

	g.StartAll()
	g.Wait()
	assert.True(t, a.Running())
	g.StopAll()
	assert.False(t, a.Running())
}
