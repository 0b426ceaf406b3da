package viewmodel

import (
	"github.com/rileyhilliard/homestats/internal/source/pihole"
)

// PiholeView is the DNS-blocker card.
type PiholeView struct {
	TotalQueries   int       `json:"total_queries"`
	Blocked        int       `json:"blocked"`
	BlockedPercent float64   `json:"blocked_percent"`
	ActiveClients  int       `json:"active_clients"`
	DomainsBlocked int       `json:"domains_blocked"`
	Cached         int       `json:"cached"`
	Forwarded      int       `json:"forwarded"`
	TotalHistory   []float64 `json:"total_history"`
	BlockedHistory []float64 `json:"blocked_history"`
	// Stale lists slices whose last fetch failed.
	Stale map[string]string `json:"stale,omitempty"`
}

// BuildPihole derives the card. A snapshot with no summary yet yields
// zero counters and whatever history is present.
func BuildPihole(snap pihole.Snapshot) PiholeView {
	var v PiholeView
	if s := snap.Summary; s != nil {
		v.TotalQueries = s.Queries.Total
		v.Blocked = s.Queries.Blocked
		v.BlockedPercent = Percent(float64(s.Queries.Blocked), float64(s.Queries.Total))
		v.ActiveClients = s.Clients.Active
		v.DomainsBlocked = s.Gravity.DomainsBeingBlocked
		v.Cached = s.Queries.Cached
		v.Forwarded = s.Queries.Forwarded
	}
	v.TotalHistory = make([]float64, 0, len(snap.History))
	v.BlockedHistory = make([]float64, 0, len(snap.History))
	for _, h := range snap.History {
		v.TotalHistory = append(v.TotalHistory, float64(h.Total))
		v.BlockedHistory = append(v.BlockedHistory, float64(h.Blocked))
	}
	v.Stale = snap.Errors
	return v
}
