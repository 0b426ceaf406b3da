// Package pihole polls a Pi-hole v6 instance through its session API.
package pihole

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rileyhilliard/homestats/internal/auth"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/logger"
	"github.com/rileyhilliard/homestats/internal/observability"
	"github.com/rileyhilliard/homestats/internal/source"
	"github.com/rileyhilliard/homestats/internal/store"
)

const (
	serviceName = "Pi-hole"
	// SessionHeader carries the session id on data requests.
	SessionHeader = "sid"
)

// Slice names, used for logs, metrics and Snapshot.Errors.
const (
	SliceSummary = "summary"
	SliceHistory = "history"
)

// Poller logs in once per session lifetime and then fetches the summary
// and the query history concurrently. A failed slice keeps its previous
// value.
type Poller struct {
	cfg     store.Source
	clients *source.Clients
	session *auth.SessionAuth
	state   *source.State[Snapshot]
	log     logger.Logger

	mu       sync.Mutex
	identity string
}

// NewPoller returns a Pi-hole poller.
func NewPoller(cfg store.Source, clients *source.Clients, log logger.Logger) *Poller {
	if log == nil {
		log = logger.Noop()
	}
	p := &Poller{cfg: cfg, clients: clients, state: source.NewState[Snapshot](), log: log}
	p.session = auth.NewSessionAuth(serviceName, SessionHeader, p.login)
	return p
}

// Name implements source.Poller.
func (p *Poller) Name() string { return "pihole" }

// State returns the published snapshot.
func (p *Poller) State() *source.State[Snapshot] { return p.state }

// Session exposes the session authenticator.
func (p *Poller) Session() *auth.SessionAuth { return p.session }

func (p *Poller) settings() (*store.PiholeConfig, bool) {
	cfg := p.cfg.Current()
	return cfg.Pihole, cfg.AllowInsecureCerts
}

func (p *Poller) login(ctx context.Context) (auth.LoginResult, error) {
	pc, insecure := p.settings()
	if pc == nil || pc.URL == "" {
		return auth.LoginResult{}, errors.NewNotConfigured(serviceName)
	}
	endpoint, err := source.Endpoint(pc.URL, "api/auth", nil)
	if err != nil {
		return auth.LoginResult{}, errors.WrapWithCode(err, errors.ErrConfig, "Pi-hole URL is invalid", "")
	}

	var resp authResponse
	err = source.GetJSON(ctx, p.clients.For(insecure), source.Request{
		Service: serviceName,
		Method:  http.MethodPost,
		URL:     endpoint,
		Body:    map[string]string{"password": pc.APIToken},
	}, "Pi-hole session", &resp)
	if err != nil {
		if code, ok := errors.StatusCode(err); ok && code == http.StatusUnauthorized {
			return auth.LoginResult{}, errors.NewAuthFailed(serviceName, err)
		}
		return auth.LoginResult{}, err
	}
	return auth.LoginResult{
		Valid:    resp.Session.Valid,
		SID:      resp.Session.SID,
		Validity: time.Duration(resp.Session.Validity) * time.Second,
	}, nil
}

// Fetch implements source.Poller. Authentication failures abort the
// cycle; sub-fetch failures only stale their own slice. The cycle fails
// as a whole when neither slice could be refreshed.
func (p *Poller) Fetch(ctx context.Context) error {
	p.state.SetLoading(true)
	defer p.state.SetLoading(false)

	pc, insecure := p.settings()
	if pc == nil || pc.URL == "" {
		err := errors.NewNotConfigured(serviceName)
		p.state.Fail(err)
		return err
	}
	p.resetOnChange(pc)

	if _, err := p.session.EnsureAuthenticated(ctx); err != nil {
		p.state.Fail(err)
		return err
	}

	client := p.clients.For(insecure)

	var (
		wg         sync.WaitGroup
		summary    Summary
		history    historyResponse
		summaryErr error
		historyErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		summaryErr = p.get(ctx, client, pc.URL, "api/stats/summary", SliceSummary, &summary)
	}()
	go func() {
		defer wg.Done()
		historyErr = p.get(ctx, client, pc.URL, "api/history", SliceHistory, &history)
	}()
	wg.Wait()

	if summaryErr != nil && historyErr != nil {
		p.state.Fail(summaryErr)
		return summaryErr
	}

	prev, _ := p.state.Snapshot()
	next := Snapshot{Summary: prev.Summary, History: prev.History}
	if summaryErr == nil {
		s := summary
		next.Summary = &s
	} else {
		next.Errors = map[string]string{SliceSummary: errors.Summary(summaryErr)}
	}
	if historyErr == nil {
		next.History = history.History
	} else {
		next.Errors = map[string]string{SliceHistory: errors.Summary(historyErr)}
	}
	p.state.Publish(next)
	return nil
}

func (p *Poller) get(ctx context.Context, client *http.Client, base, path, slice string, out interface{}) error {
	endpoint, err := source.Endpoint(base, path, nil)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Pi-hole URL is invalid", "")
	}
	err = source.GetJSON(ctx, client, source.Request{Service: serviceName, URL: endpoint, Auth: p.session}, "Pi-hole "+slice, out)
	if err == nil {
		return nil
	}
	observability.SubFetchErrors.WithLabelValues(p.Name(), slice).Inc()
	p.log.Warn("pihole: %s fetch failed, keeping previous data: %s", slice, errors.Summary(err))
	if code, ok := errors.StatusCode(err); ok && code == http.StatusUnauthorized {
		// Revoked server side; log in again next cycle.
		p.session.Invalidate()
	}
	return err
}

// resetOnChange drops the session when the URL or password changed.
func (p *Poller) resetOnChange(pc *store.PiholeConfig) {
	id := pc.URL + "\x00" + pc.APIToken
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.identity != "" && p.identity != id {
		p.session.Invalidate()
	}
	p.identity = id
}
