// Package media polls the media cluster: Plex recently added, the Sonarr
// calendar, the Radarr library and the SABnzbd download queue.
package media

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/logger"
	"github.com/rileyhilliard/homestats/internal/observability"
	"github.com/rileyhilliard/homestats/internal/source"
	"github.com/rileyhilliard/homestats/internal/store"
)

// Slice names, used for logs, metrics and Snapshot.Errors.
const (
	SlicePlex    = "plex"
	SliceSonarr  = "sonarr"
	SliceRadarr  = "radarr"
	SliceSABnzbd = "sabnzbd"
)

type fetcher struct {
	client *http.Client
	now    func() time.Time
}

func (f fetcher) get(ctx context.Context, r source.Request, what string, out interface{}) error {
	return source.GetJSON(ctx, f.client, r, what, out)
}

// Poller fans out to every configured media backend and joins the
// results. Each backend is an independent slice: a failure keeps that
// slice's previous value and the others still publish.
type Poller struct {
	cfg     store.Source
	clients *source.Clients
	state   *source.State[Snapshot]
	log     logger.Logger
	now     func() time.Time
}

// NewPoller returns a media poller.
func NewPoller(cfg store.Source, clients *source.Clients, log logger.Logger) *Poller {
	if log == nil {
		log = logger.Noop()
	}
	return &Poller{cfg: cfg, clients: clients, state: source.NewState[Snapshot](), log: log, now: time.Now}
}

// SetClock overrides time.Now. Intended for tests.
func (p *Poller) SetClock(now func() time.Time) { p.now = now }

// Name implements source.Poller.
func (p *Poller) Name() string { return "media" }

// State returns the published snapshot.
func (p *Poller) State() *source.State[Snapshot] { return p.state }

type sliceResult struct {
	name string
	err  error
}

// Fetch implements source.Poller. It fails only when nothing is
// configured or every configured slice failed.
func (p *Poller) Fetch(ctx context.Context) error {
	p.state.SetLoading(true)
	defer p.state.SetLoading(false)

	cfg := p.cfg.Current()
	f := fetcher{client: p.clients.For(cfg.AllowInsecureCerts), now: p.now}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		results  []sliceResult
		plex     []PlexItem
		upcoming []Episode
		movies   []Movie
		queue    *Queue
	)
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := fn()
			mu.Lock()
			results = append(results, sliceResult{name: name, err: err})
			mu.Unlock()
		}()
	}

	if cfg.Plex != nil && cfg.Plex.URL != "" {
		run(SlicePlex, func() (err error) {
			plex, err = fetchPlex(ctx, cfg.Plex, f)
			return err
		})
	}
	if cfg.Sonarr != nil && cfg.Sonarr.URL != "" {
		run(SliceSonarr, func() (err error) {
			upcoming, err = fetchSonarr(ctx, cfg.Sonarr, f)
			return err
		})
	}
	if cfg.Radarr != nil && cfg.Radarr.URL != "" {
		run(SliceRadarr, func() (err error) {
			movies, err = fetchRadarr(ctx, cfg.Radarr, f)
			return err
		})
	}
	if cfg.SABnzbd != nil && cfg.SABnzbd.URL != "" {
		run(SliceSABnzbd, func() (err error) {
			queue, err = fetchSABnzbd(ctx, cfg.SABnzbd, f)
			return err
		})
	}
	wg.Wait()

	if len(results) == 0 {
		err := errors.NewNotConfigured("Media")
		p.state.Fail(err)
		return err
	}

	prev, _ := p.state.Snapshot()
	next := Snapshot{
		RecentShows:  prev.RecentShows,
		RecentMovies: prev.RecentMovies,
		Upcoming:     prev.Upcoming,
		Movies:       prev.Movies,
		Downloads:    prev.Downloads,
	}

	var firstErr error
	for _, r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			if next.Errors == nil {
				next.Errors = make(map[string]string)
			}
			next.Errors[r.name] = errors.Summary(r.err)
			observability.SubFetchErrors.WithLabelValues(p.Name(), r.name).Inc()
			p.log.Warn("media: %s fetch failed, keeping previous data: %s", r.name, errors.Summary(r.err))
			continue
		}
		switch r.name {
		case SlicePlex:
			next.RecentShows, next.RecentMovies = PartitionRecent(plex)
		case SliceSonarr:
			next.Upcoming = upcoming
		case SliceRadarr:
			next.Movies = movies
		case SliceSABnzbd:
			next.Downloads = queue
		}
	}

	if len(next.Errors) == len(results) {
		p.state.Fail(firstErr)
		return firstErr
	}
	p.state.Publish(next)
	return nil
}
