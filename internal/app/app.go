// Package app wires the config store, pollers and schedulers into one
// process-scoped object that the CLI, TUI and HTTP server share.
package app

import (
	"context"
	"time"

	"github.com/rileyhilliard/homestats/internal/config"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/logger"
	"github.com/rileyhilliard/homestats/internal/scheduler"
	"github.com/rileyhilliard/homestats/internal/source"
	"github.com/rileyhilliard/homestats/internal/source/homeassistant"
	"github.com/rileyhilliard/homestats/internal/source/media"
	"github.com/rileyhilliard/homestats/internal/source/pihole"
	"github.com/rileyhilliard/homestats/internal/source/proxmox"
	"github.com/rileyhilliard/homestats/internal/store"
)

// Poller names.
const (
	SourceHomeAssistant = "home-assistant"
	SourceDevices       = "devices"
	SourceProxmox       = "proxmox"
	SourcePihole        = "pihole"
	SourceMedia         = "media"
)

// Sources lists every poller name in display order.
var Sources = []string{SourceHomeAssistant, SourceDevices, SourceProxmox, SourcePihole, SourceMedia}

// ServiceCallRate caps Home Assistant writes per second.
const ServiceCallRate = 5

// WatchRetryDelay is how long a dropped replica watch waits to reconnect.
const WatchRetryDelay = 5 * time.Second

// App holds everything one homestats process runs.
type App struct {
	Settings   *config.Config
	Store      *store.Manager
	Clients    *source.Clients
	HA         *homeassistant.Client
	Entities   *homeassistant.Poller
	Devices    *homeassistant.Poller
	Proxmox    *proxmox.Poller
	Pihole     *pihole.Poller
	Media      *media.Poller
	Schedulers *scheduler.Group

	replica store.Replica
	log     logger.Logger
	cancel  context.CancelFunc
}

type options struct {
	replica    store.Replica
	hasReplica bool
	clients    *source.Clients
	clock      scheduler.Clock
	log        logger.Logger
}

// Option configures New.
type Option func(*options)

// WithReplica uses r instead of the one the settings describe. A nil r
// keeps the config local only.
func WithReplica(r store.Replica) Option {
	return func(o *options) { o.replica, o.hasReplica = r, true }
}

// WithClients routes every poller through c.
func WithClients(c *source.Clients) Option {
	return func(o *options) { o.clients = c }
}

// WithSchedulerClock replaces the scheduler tickers.
func WithSchedulerClock(c scheduler.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the base logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// New opens the config store and builds every poller and scheduler. Nothing
// polls until Start.
func New(ctx context.Context, settings *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if settings == nil {
		settings = config.DefaultConfig()
	}

	replica := o.replica
	if !o.hasReplica {
		r, err := OpenReplica(ctx, settings.Replica)
		if err != nil {
			return nil, err
		}
		replica = r
	}

	local, err := OpenLocal(settings)
	if err != nil {
		if replica != nil {
			_ = replica.Close()
		}
		return nil, err
	}

	manager := store.NewManager(ctx, local, replica, store.WithLogger(withComponent(o.log, "store")))

	clients := o.clients
	if clients == nil {
		clients = &source.Clients{Timeout: settings.RequestTimeout}
	}

	a := &App{
		Settings:   settings,
		Store:      manager,
		Clients:    clients,
		Schedulers: scheduler.NewGroup(),
		replica:    replica,
		log:        withComponent(o.log, "app"),
	}
	a.HA = homeassistant.NewClient(manager, clients, ServiceCallRate)
	a.Entities = homeassistant.NewPoller(SourceHomeAssistant, a.HA,
		source.NewFilterSpec(settings.Filters.Domains, settings.Filters.Names), withComponent(o.log, SourceHomeAssistant))
	a.Devices = homeassistant.NewUnfilteredPoller(SourceDevices, a.HA, withComponent(o.log, SourceDevices))
	a.Proxmox = proxmox.NewPoller(manager, clients, withComponent(o.log, SourceProxmox))
	a.Pihole = pihole.NewPoller(manager, clients, withComponent(o.log, SourcePihole))
	a.Media = media.NewPoller(manager, clients, withComponent(o.log, SourceMedia))

	intervals := map[string]time.Duration{
		SourceHomeAssistant: settings.Refresh.HomeAssistant,
		SourceDevices:       settings.Refresh.Dashboard,
		SourceProxmox:       settings.Refresh.Proxmox,
		SourcePihole:        settings.Refresh.Pihole,
		SourceMedia:         settings.Refresh.Media,
	}
	for _, p := range a.pollers() {
		schedOpts := []scheduler.Option{
			scheduler.WithLogger(withComponent(o.log, p.Name())),
			scheduler.WithBaseContext(ctx),
		}
		if o.clock != nil {
			schedOpts = append(schedOpts, scheduler.WithClock(o.clock))
		}
		a.Schedulers.Add(scheduler.New(p, schedOpts...), intervals[p.Name()])
	}
	return a, nil
}

func (a *App) pollers() []source.Poller {
	return []source.Poller{a.Entities, a.Devices, a.Proxmox, a.Pihole, a.Media}
}

// Poller returns the poller registered under name.
func (a *App) Poller(name string) (source.Poller, bool) {
	for _, p := range a.pollers() {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Start runs every scheduler, follows replica changes, and re-polls
// immediately whenever the synced config changes.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.Schedulers.StartAll()
	go a.Store.Watch(ctx, WatchRetryDelay)

	changes, stop := a.Store.Subscribe()
	go func() {
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				a.log.Info("config changed, refreshing all sources")
				a.Schedulers.TriggerAll()
			}
		}
	}()
}

// Stop halts polling. In-flight fetches finish on their own.
func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.Schedulers.StopAll()
}

// Close stops polling and releases the replica connection.
func (a *App) Close() error {
	a.Stop()
	if a.replica != nil {
		return a.replica.Close()
	}
	return nil
}

// FetchOnce runs a single cycle of the named poller.
func (a *App) FetchOnce(ctx context.Context, name string) error {
	p, ok := a.Poller(name)
	if !ok {
		return unknownSource(name)
	}
	ctx, cancel := context.WithTimeout(ctx, scheduler.DefaultFetchTimeout)
	defer cancel()
	return p.Fetch(ctx)
}

// Status returns the JSON-ready state of the named poller.
func (a *App) Status(name string) (interface{}, error) {
	switch name {
	case SourceHomeAssistant:
		return source.StatusOf(a.Entities.State()), nil
	case SourceDevices:
		return source.StatusOf(a.Devices.State()), nil
	case SourceProxmox:
		return source.StatusOf(a.Proxmox.State()), nil
	case SourcePihole:
		return source.StatusOf(a.Pihole.State()), nil
	case SourceMedia:
		return source.StatusOf(a.Media.State()), nil
	}
	return nil, unknownSource(name)
}

func unknownSource(name string) error {
	return errors.New(errors.ErrConfig,
		"Unknown source '"+name+"'",
		"Use one of: home-assistant, devices, proxmox, pihole, media")
}

// withComponent tags the process logger with component unless a logger
// was injected, in which case every component shares it.
func withComponent(l logger.Logger, component string) logger.Logger {
	if l != nil {
		return l
	}
	return logger.WithComponent(component)
}
