package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/observability"
)

// SafetyMargin is how long before expiry a session stops being used.
const SafetyMargin = 60 * time.Second

// Session is a time-bounded credential from a login exchange.
type Session struct {
	ID        string
	ExpiresAt time.Time
}

// ValidUntil is the last instant the session may be used for a request.
func (s Session) ValidUntil() time.Time {
	return s.ExpiresAt.Add(-SafetyMargin)
}

// LoginResult is the decoded answer of a login exchange.
type LoginResult struct {
	Valid    bool
	SID      string
	Validity time.Duration
}

// LoginFunc performs one login exchange.
type LoginFunc func(ctx context.Context) (LoginResult, error)

// SessionAuth caches a session and renews it through a LoginFunc. At most
// one login runs at a time; concurrent callers wait for it and share the
// result.
type SessionAuth struct {
	service string
	header  string
	login   LoginFunc
	now     func() time.Time

	mu      sync.RWMutex
	loginMu sync.Mutex
	session *Session
}

// NewSessionAuth returns an authenticator that sends the session id in header.
func NewSessionAuth(service, header string, login LoginFunc) *SessionAuth {
	return &SessionAuth{service: service, header: header, login: login, now: time.Now}
}

// SetClock overrides time.Now. Intended for tests.
func (a *SessionAuth) SetClock(now func() time.Time) {
	a.now = now
}

// SetSession installs a session directly. Intended for tests.
func (a *SessionAuth) SetSession(s *Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = s
}

// Current returns the cached session, if any.
func (a *SessionAuth) Current() (Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return Session{}, false
	}
	return *a.session, true
}

func (a *SessionAuth) usable() (Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session != nil && a.now().Before(a.session.ValidUntil()) {
		return *a.session, true
	}
	return Session{}, false
}

// EnsureAuthenticated returns a session that is valid for at least the
// safety margin, logging in first if needed.
func (a *SessionAuth) EnsureAuthenticated(ctx context.Context) (Session, error) {
	if s, ok := a.usable(); ok {
		return s, nil
	}

	a.loginMu.Lock()
	defer a.loginMu.Unlock()

	// Another caller may have logged in while we waited.
	if s, ok := a.usable(); ok {
		return s, nil
	}

	res, err := a.login(ctx)
	if err != nil {
		observability.SessionLogins.WithLabelValues(a.service, observability.ResultError).Inc()
		if errors.CodeOf(err) != "" {
			return Session{}, err
		}
		return Session{}, errors.NewAuthFailed(a.service, err)
	}
	if !res.Valid || res.SID == "" {
		observability.SessionLogins.WithLabelValues(a.service, "rejected").Inc()
		a.Invalidate()
		return Session{}, errors.NewAuthFailed(a.service, nil)
	}

	s := Session{ID: res.SID, ExpiresAt: a.now().Add(res.Validity)}
	a.mu.Lock()
	a.session = &s
	a.mu.Unlock()
	observability.SessionLogins.WithLabelValues(a.service, observability.ResultOK).Inc()
	return s, nil
}

// Authorize implements Authenticator.
func (a *SessionAuth) Authorize(ctx context.Context, req *http.Request) error {
	s, err := a.EnsureAuthenticated(ctx)
	if err != nil {
		return err
	}
	req.Header.Set(a.header, s.ID)
	return nil
}

// Invalidate drops the cached session so the next call logs in again.
func (a *SessionAuth) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = nil
}
