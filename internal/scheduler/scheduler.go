// Package scheduler drives pollers on fixed intervals.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/logger"
	"github.com/rileyhilliard/homestats/internal/observability"
	"github.com/rileyhilliard/homestats/internal/source"
)

// DefaultFetchTimeout bounds one fetch cycle.
const DefaultFetchTimeout = 30 * time.Second

// Ticker is the part of *time.Ticker the scheduler uses.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// Clock creates tickers.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type realClock struct{}

func (realClock) NewTicker(d time.Duration) Ticker { return &realTicker{t: time.NewTicker(d)} }

type realTicker struct{ t *time.Ticker }

func (r *realTicker) Chan() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()                  { r.t.Stop() }

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the real ticker source.
func WithClock(c Clock) Option { return func(s *Scheduler) { s.clock = c } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(s *Scheduler) { s.log = l } }

// WithFetchTimeout bounds each cycle.
func WithFetchTimeout(d time.Duration) Option { return func(s *Scheduler) { s.timeout = d } }

// WithBaseContext sets the context fetches derive from. Cancelling it
// aborts in-flight fetches; Stop does not.
func WithBaseContext(ctx context.Context) Option { return func(s *Scheduler) { s.base = ctx } }

// Scheduler runs one poller: an immediate fetch on Start, then one per
// interval. A tick that arrives while the previous fetch is still running
// is skipped.
type Scheduler struct {
	poller  source.Poller
	clock   Clock
	log     logger.Logger
	timeout time.Duration
	base    context.Context

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	busy    atomic.Bool
	wg      sync.WaitGroup
	skipped atomic.Int64
}

// New returns a stopped scheduler for p.
func New(p source.Poller, opts ...Option) *Scheduler {
	s := &Scheduler{
		poller:  p,
		clock:   realClock{},
		log:     logger.Noop(),
		timeout: DefaultFetchTimeout,
		base:    context.Background(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Poller returns the driven poller.
func (s *Scheduler) Poller() source.Poller { return s.poller }

// Start begins polling every interval. Calling Start on a running
// scheduler restarts it, so exactly one timer is ever active. A
// non-positive interval fetches once and starts no timer.
func (s *Scheduler) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	if interval <= 0 {
		s.log.Warn("%s: interval %s is not positive, fetching once", s.poller.Name(), interval)
		s.trigger()
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done
	ticker := s.clock.NewTicker(interval)

	s.trigger()
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				s.trigger()
			}
		}
	}()
	s.log.Debug("%s: polling every %s", s.poller.Name(), interval)
}

// Stop cancels the timer. An in-flight fetch runs to completion. Stop is
// safe to call any number of times.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop, s.done = nil, nil
}

// Running reports whether a timer is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// Busy reports whether a fetch is in flight.
func (s *Scheduler) Busy() bool { return s.busy.Load() }

// Skipped returns how many ticks were dropped because a fetch was running.
func (s *Scheduler) Skipped() int64 { return s.skipped.Load() }

// Trigger runs an out-of-band fetch, honoring the busy guard. It returns
// false when a fetch was already running.
func (s *Scheduler) Trigger() bool { return s.trigger() }

// Wait blocks until every fetch started so far has returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) trigger() bool {
	name := s.poller.Name()
	if !s.busy.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		observability.FetchTotal.WithLabelValues(name, observability.ResultSkipped).Inc()
		s.log.Debug("%s: previous fetch still running, skipping tick", name)
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.busy.Store(false)
		s.run(name)
	}()
	return true
}

func (s *Scheduler) run(name string) {
	ctx, cancel := context.WithTimeout(s.base, s.timeout)
	defer cancel()

	start := time.Now()
	err := s.poller.Fetch(ctx)
	observability.FetchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	observability.FetchTotal.WithLabelValues(name, observability.ResultOf(err)).Inc()
	if err != nil {
		if errors.IsCode(err, errors.ErrNotConfigured) {
			s.log.Debug("%s: %s", name, errors.Summary(err))
			return
		}
		s.log.Warn("%s: fetch failed: %s", name, errors.Summary(err))
		return
	}
	observability.LastSuccess.WithLabelValues(name).SetToCurrentTime()
}
