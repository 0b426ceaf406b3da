package app

import (
	"time"

	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/source"
)

// Health states.
const (
	HealthOK            = "ok"
	HealthFailed        = "failed"
	HealthNotConfigured = "not_configured"
	HealthPending       = "pending"
)

// Health summarizes one poller without its payload.
type Health struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Updated time.Time `json:"updated"`
	Error   string    `json:"error,omitempty"`
	Loading bool      `json:"loading"`
}

// Health reports the named poller. Unknown names report pending.
func (a *App) Health(name string) Health {
	switch name {
	case SourceHomeAssistant:
		return healthOf(name, a.Entities.State())
	case SourceDevices:
		return healthOf(name, a.Devices.State())
	case SourceProxmox:
		return healthOf(name, a.Proxmox.State())
	case SourcePihole:
		return healthOf(name, a.Pihole.State())
	case SourceMedia:
		return healthOf(name, a.Media.State())
	}
	return Health{Name: name, Status: HealthPending}
}

// HealthAll reports every poller in Sources order.
func (a *App) HealthAll() []Health {
	out := make([]Health, 0, len(Sources))
	for _, name := range Sources {
		out = append(out, a.Health(name))
	}
	return out
}

// Refresh asks the named scheduler for an immediate cycle. It reports
// false if the source is unknown or already fetching.
func (a *App) Refresh(name string) bool {
	s, ok := a.Schedulers.Get(name)
	if !ok {
		return false
	}
	return s.Trigger()
}

// RefreshAll triggers every scheduler.
func (a *App) RefreshAll() {
	a.Schedulers.TriggerAll()
}

func healthOf[T any](name string, st *source.State[T]) Health {
	h := Health{Name: name, Status: HealthPending, Updated: st.LastUpdated(), Loading: st.Loading()}
	_, has := st.Snapshot()
	err := st.LastError()
	switch {
	case errors.IsCode(err, errors.ErrNotConfigured):
		h.Status = HealthNotConfigured
		h.Error = errors.Summary(err)
	case err != nil:
		h.Status = HealthFailed
		h.Error = errors.Summary(err)
	case has:
		h.Status = HealthOK
	}
	return h
}
