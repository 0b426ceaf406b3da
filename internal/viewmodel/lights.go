package viewmodel

import (
	"fmt"

	"github.com/rileyhilliard/homestats/internal/config"
	"github.com/rileyhilliard/homestats/internal/source"
)

// LightGroup is the on/off aggregate of a room of lights.
type LightGroup struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids"`
	OnCount   int      `json:"on_count"`
	IsOn      bool     `json:"is_on"`
}

// StatusText renders the aggregate: "All Off", "All On" or "<n> On".
func (g LightGroup) StatusText() string {
	switch {
	case g.OnCount == 0:
		return "All Off"
	case g.OnCount == len(g.MemberIDs):
		return "All On"
	default:
		return fmt.Sprintf("%d On", g.OnCount)
	}
}

// BuildLightGroup counts members whose state is exactly "on". Members
// missing from the snapshot count as off.
func BuildLightGroup(id, name string, members []string, byID map[string]source.Entity) LightGroup {
	on := 0
	for _, m := range members {
		if e, ok := byID[m]; ok && e.State == "on" {
			on++
		}
	}
	return LightGroup{
		ID:        id,
		Name:      name,
		MemberIDs: append([]string(nil), members...),
		OnCount:   on,
		IsOn:      on > 0,
	}
}

// BuildLightGroups aggregates every configured group in order.
func BuildLightGroups(groups []config.LightGroupConfig, entities []source.Entity) []LightGroup {
	byID := Index(entities)
	out := make([]LightGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, BuildLightGroup(g.ID, g.Name, g.Entities, byID))
	}
	return out
}

// LightsToTurnOff returns the members of every group that is on, for the
// "all lights off" command.
func LightsToTurnOff(groups []LightGroup) []string {
	var ids []string
	for _, g := range groups {
		if g.IsOn {
			ids = append(ids, g.MemberIDs...)
		}
	}
	return ids
}

// FindGroup returns the group with id.
func FindGroup(groups []LightGroup, id string) (LightGroup, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return LightGroup{}, false
}

// Index maps entity ids to entities.
func Index(entities []source.Entity) map[string]source.Entity {
	m := make(map[string]source.Entity, len(entities))
	for _, e := range entities {
		m[e.ID] = e
	}
	return m
}
