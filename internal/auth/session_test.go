package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	hserrors "github.com/rileyhilliard/homestats/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func countingLogin(calls *int32, res LoginResult) LoginFunc {
	return func(ctx context.Context) (LoginResult, error) {
		atomic.AddInt32(calls, 1)
		return res, nil
	}
}

func TestSession_LoginAndCache(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	var calls int32
	a := NewSessionAuth("Pi-hole", "sid", countingLogin(&calls, LoginResult{Valid: true, SID: "abc", Validity: 1800 * time.Second}))
	a.SetClock(clock.Now)

	s, err := a.EnsureAuthenticated(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", s.ID)
	assert.Equal(t, clock.Now().Add(1800*time.Second-SafetyMargin), s.ValidUntil())

	_, err = a.EnsureAuthenticated(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	clock.Advance(1800*time.Second - SafetyMargin)
	_, err = a.EnsureAuthenticated(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "renewed once inside the safety margin")
}

func TestSession_MarginTriggersReauth(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}

	tests := []struct {
		name      string
		expiresIn time.Duration
		wantLogin bool
	}{
		{"30s left is inside the margin", 30 * time.Second, true},
		{"3600s left is fine", 3600 * time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			a := NewSessionAuth("Pi-hole", "sid", countingLogin(&calls, LoginResult{Valid: true, SID: "new", Validity: time.Hour}))
			a.SetClock(clock.Now)
			a.SetSession(&Session{ID: "old", ExpiresAt: clock.Now().Add(tt.expiresIn)})

			s, err := a.EnsureAuthenticated(context.Background())
			require.NoError(t, err)
			if tt.wantLogin {
				assert.Equal(t, int32(1), calls)
				assert.Equal(t, "new", s.ID)
			} else {
				assert.Zero(t, calls)
				assert.Equal(t, "old", s.ID)
			}
		})
	}
}

func TestSession_InvalidLoginNotCached(t *testing.T) {
	var calls int32
	a := NewSessionAuth("Pi-hole", "sid", countingLogin(&calls, LoginResult{Valid: false}))

	_, err := a.EnsureAuthenticated(context.Background())
	require.Error(t, err)
	assert.True(t, hserrors.IsCode(err, hserrors.ErrAuth))
	_, ok := a.Current()
	assert.False(t, ok)

	_, err = a.EnsureAuthenticated(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), calls)
}

func TestSession_LoginErrors(t *testing.T) {
	a := NewSessionAuth("Pi-hole", "sid", func(ctx context.Context) (LoginResult, error) {
		return LoginResult{}, errors.New("boom")
	})
	_, err := a.EnsureAuthenticated(context.Background())
	assert.True(t, hserrors.IsCode(err, hserrors.ErrAuth))

	a = NewSessionAuth("Pi-hole", "sid", func(ctx context.Context) (LoginResult, error) {
		return LoginResult{}, hserrors.Transport("Pi-hole", errors.New("refused"))
	})
	_, err = a.EnsureAuthenticated(context.Background())
	assert.True(t, hserrors.IsCode(err, hserrors.ErrTransport), "coded errors pass through")
}

func TestSession_SingleLoginInFlight(t *testing.T) {
	var calls, inFlight, maxInFlight int32
	release := make(chan struct{})
	a := NewSessionAuth("Pi-hole", "sid", func(ctx context.Context) (LoginResult, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		atomic.AddInt32(&calls, 1)
		<-release
		atomic.AddInt32(&inFlight, -1)
		return LoginResult{Valid: true, SID: "s", Validity: time.Hour}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.EnsureAuthenticated(context.Background())
			assert.NoError(t, err)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSession_AuthorizeAndInvalidate(t *testing.T) {
	var calls int32
	a := NewSessionAuth("Pi-hole", "sid", countingLogin(&calls, LoginResult{Valid: true, SID: "xyz", Validity: time.Hour}))

	req := newRequest(t, "http://pi.hole/api/stats/summary")
	require.NoError(t, a.Authorize(context.Background(), req))
	assert.Equal(t, "xyz", req.Header.Get("sid"))

	a.Invalidate()
	require.NoError(t, a.Authorize(context.Background(), req))
	assert.Equal(t, int32(2), calls)
}
