package source

import (
	"sync"
	"time"

	"github.com/rileyhilliard/homestats/internal/errors"
)

// State is the published state of one poller: the last good snapshot, the
// last error, and when each happened. Snapshots are replaced wholesale and
// must not be mutated after Publish.
type State[T any] struct {
	mu       sync.RWMutex
	value    T
	hasValue bool
	err      error
	updated  time.Time
	failed   time.Time
	loading  bool
	subs     map[int]chan T
	nextID   int
	now      func() time.Time
}

// NewState returns an empty State.
func NewState[T any]() *State[T] {
	return &State[T]{subs: make(map[int]chan T), now: time.Now}
}

// SetClock overrides time.Now. Intended for tests.
func (s *State[T]) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Publish replaces the snapshot, clears the error and notifies subscribers.
func (s *State[T]) Publish(v T) {
	s.mu.Lock()
	s.value = v
	s.hasValue = true
	s.err = nil
	s.updated = s.now()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, v)
}

// Fail records err without touching the last good snapshot. Subscribers
// are notified with that snapshot so they can pick up the error.
func (s *State[T]) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.failed = s.now()
	v := s.value
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, v)
}

func (s *State[T]) subscribersLocked() []chan T {
	subs := make([]chan T, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	return subs
}

// notify replaces whatever is buffered in each channel with v.
func notify[T any](subs []chan T, v T) {
	for _, ch := range subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// SetLoading flags a cycle in progress.
func (s *State[T]) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// Snapshot returns the current value and whether one was ever published.
func (s *State[T]) Snapshot() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.hasValue
}

// LastError returns the error from the most recent failed cycle, or nil if
// the most recent cycle succeeded.
func (s *State[T]) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// LastUpdated returns when the snapshot was last published.
func (s *State[T]) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}

// LastFailed returns when the last error was recorded.
func (s *State[T]) LastFailed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failed
}

// Loading reports whether a cycle is in progress.
func (s *State[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Subscribe returns a channel that always holds the latest value. It is
// signalled on every Publish and every Fail; after a Fail the value is the
// last good snapshot. Slow readers skip intermediate values.
func (s *State[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 1)
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Status is a JSON-friendly view of a State.
type Status[T any] struct {
	Value       T         `json:"value"`
	HasValue    bool      `json:"has_value"`
	Loading     bool      `json:"loading"`
	Error       string    `json:"error,omitempty"`
	ErrorCode   string    `json:"error_code,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// StatusOf captures s for serialization.
func StatusOf[T any](s *State[T]) Status[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status[T]{
		Value:       s.value,
		HasValue:    s.hasValue,
		Loading:     s.loading,
		LastUpdated: s.updated,
	}
	if s.err != nil {
		st.Error = errors.Summary(s.err)
		st.ErrorCode = errors.CodeOf(s.err)
	}
	return st
}
