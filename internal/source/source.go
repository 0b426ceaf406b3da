// Package source holds what every backend poller shares: the poller
// contract, the generic entity record, the snapshot container, and the
// HTTP plumbing that maps failures onto the error taxonomy.
package source

import (
	"context"
	"strings"
	"time"
)

// Poller performs one authenticate, fetch, decode, publish cycle.
type Poller interface {
	Name() string
	Fetch(ctx context.Context) error
}

// PollerFunc adapts a function to Poller.
type PollerFunc struct {
	ID string
	Fn func(ctx context.Context) error
}

// Name implements Poller.
func (p PollerFunc) Name() string { return p.ID }

// Fetch implements Poller.
func (p PollerFunc) Fetch(ctx context.Context) error { return p.Fn(ctx) }

// Entity is the common shape a backend object is decoded into: a light,
// sensor, VM, queue item and so on.
type Entity struct {
	ID          string                 `json:"entity_id"`
	Domain      string                 `json:"domain"`
	State       string                 `json:"state"`
	Attributes  map[string]interface{} `json:"attributes"`
	LastChanged time.Time              `json:"last_changed"`
	LastUpdated time.Time              `json:"last_updated"`
}

// Attr returns a string attribute, or "" if missing or not a string.
func (e Entity) Attr(key string) string {
	if v, ok := e.Attributes[key].(string); ok {
		return v
	}
	return ""
}

// AttrFloat returns a numeric attribute. Numeric strings are accepted.
func (e Entity) AttrFloat(key string) (float64, bool) {
	return toFloat(e.Attributes[key])
}

// EntityDomain implements Named.
func (e Entity) EntityDomain() string { return e.Domain }

// DisplayName is friendly_name, falling back to the object id.
func (e Entity) DisplayName() string {
	if name := e.Attr("friendly_name"); name != "" {
		return name
	}
	if i := strings.Index(e.ID, "."); i >= 0 {
		return e.ID[i+1:]
	}
	return e.ID
}

// IsOn reports whether the state reads as active.
func (e Entity) IsOn() bool {
	switch strings.ToLower(e.State) {
	case "on", "home", "playing":
		return true
	}
	return false
}

// DomainOf returns the part of an entity id before the first dot.
func DomainOf(entityID string) string {
	if i := strings.Index(entityID, "."); i >= 0 {
		return entityID[:i]
	}
	return "unknown"
}
