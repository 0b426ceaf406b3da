package homeassistant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/logger"
	"github.com/rileyhilliard/homestats/internal/source"
)

// SettleDelay is how long a write is given to converge before the
// follow-up fetch.
const SettleDelay = 500 * time.Millisecond

// Poller keeps a filtered, sorted entity list fresh.
type Poller struct {
	name   string
	client *Client
	filter source.FilterSpec
	state  *source.State[[]source.Entity]
	log    logger.Logger

	// fetchMu serializes cycles so a refetch after a write cannot be
	// overtaken by an older scheduled cycle.
	fetchMu sync.Mutex

	settle time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewPoller returns a poller that applies filter before publishing.
func NewPoller(name string, client *Client, filter source.FilterSpec, log logger.Logger) *Poller {
	if log == nil {
		log = logger.Noop()
	}
	return &Poller{
		name:   name,
		client: client,
		filter: filter,
		state:  source.NewState[[]source.Entity](),
		log:    log,
		settle: SettleDelay,
		sleep:  sleepCtx,
	}
}

// NewUnfilteredPoller returns a poller over the raw entity universe, for
// device dashboards.
func NewUnfilteredPoller(name string, client *Client, log logger.Logger) *Poller {
	return NewPoller(name, client, source.Unfiltered(), log)
}

// SetSettleDelay overrides SettleDelay. Intended for tests.
func (p *Poller) SetSettleDelay(d time.Duration) {
	p.settle = d
}

// Name implements source.Poller.
func (p *Poller) Name() string { return p.name }

// State returns the published entity list.
func (p *Poller) State() *source.State[[]source.Entity] { return p.state }

// Client returns the underlying client.
func (p *Poller) Client() *Client { return p.client }

// Fetch implements source.Poller. A failed cycle keeps the previous list.
// Concurrent calls run one after another.
func (p *Poller) Fetch(ctx context.Context) error {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()

	p.state.SetLoading(true)
	defer p.state.SetLoading(false)

	entities, err := p.client.States(ctx)
	if err != nil {
		p.state.Fail(err)
		return err
	}
	visible := source.Apply(p.filter, entities)
	p.state.Publish(visible)
	p.log.Debug("%s: published %d of %d entities", p.name, len(visible), len(entities))
	return nil
}

// Lookup returns an entity from the latest snapshot.
func (p *Poller) Lookup(entityID string) (source.Entity, bool) {
	entities, _ := p.state.Snapshot()
	for _, e := range entities {
		if e.ID == entityID {
			return e, true
		}
	}
	return source.Entity{}, false
}

// ToggleService picks the service that flips an entity's state.
func ToggleService(domain, state string) string {
	switch domain {
	case "cover":
		if state == "closed" {
			return "open_cover"
		}
		return "close_cover"
	case "lock":
		if state == "locked" {
			return "unlock"
		}
		return "lock"
	default:
		return "toggle"
	}
}

// Toggle flips e, waits for the backend to settle, and refetches.
func (p *Poller) Toggle(ctx context.Context, e source.Entity) error {
	return p.call(ctx, e.Domain, ToggleService(e.Domain, e.State), e.ID)
}

// ToggleByID toggles an entity found in the latest snapshot.
func (p *Poller) ToggleByID(ctx context.Context, entityID string) error {
	e, ok := p.Lookup(entityID)
	if !ok {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Entity %s is not in the current snapshot", entityID),
			"Check the entity id, or wait for the next refresh")
	}
	return p.Toggle(ctx, e)
}

// PressButton fires button.press without a follow-up fetch.
func (p *Poller) PressButton(ctx context.Context, entityID string) error {
	return p.client.CallService(ctx, "button", "press", entityID)
}

// GarageDoorService returns close_cover for an open door, else open_cover.
func GarageDoorService(state string) string {
	if state == "open" {
		return "close_cover"
	}
	return "open_cover"
}

// ToggleGarageDoor opens or closes a garage cover and refetches.
func (p *Poller) ToggleGarageDoor(ctx context.Context, entityID string) error {
	state := "unknown"
	if e, ok := p.Lookup(entityID); ok {
		state = e.State
	}
	return p.call(ctx, "cover", GarageDoorService(state), entityID)
}

// SetLights turns every listed light on or off, then refetches once.
// All calls are attempted; the first error is returned.
func (p *Poller) SetLights(ctx context.Context, entityIDs []string, on bool) error {
	service := "turn_off"
	if on {
		service = "turn_on"
	}
	var firstErr error
	for _, id := range entityIDs {
		if err := p.client.CallService(ctx, "light", service, id); err != nil {
			p.log.Warn("light.%s %s failed: %s", service, id, errors.Summary(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if err := p.Fetch(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (p *Poller) call(ctx context.Context, domain, service, entityID string) error {
	if err := p.client.CallService(ctx, domain, service, entityID); err != nil {
		return err
	}
	if err := p.sleep(ctx, p.settle); err != nil {
		return err
	}
	return p.Fetch(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
