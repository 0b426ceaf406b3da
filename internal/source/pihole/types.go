package pihole

import "time"

// Queries is the query block of /api/stats/summary.
type Queries struct {
	Total          int     `json:"total"`
	Blocked        int     `json:"blocked"`
	PercentBlocked float64 `json:"percent_blocked"`
	UniqueDomains  int     `json:"unique_domains"`
	Forwarded      int     `json:"forwarded"`
	Cached         int     `json:"cached"`
}

// Clients is the client block of /api/stats/summary.
type Clients struct {
	Active int `json:"active"`
	Total  int `json:"total"`
}

// Gravity is the blocklist block of /api/stats/summary.
type Gravity struct {
	DomainsBeingBlocked int   `json:"domains_being_blocked"`
	LastUpdate          int64 `json:"last_update"`
}

// Summary is /api/stats/summary.
type Summary struct {
	Queries Queries `json:"queries"`
	Clients Clients `json:"clients"`
	Gravity Gravity `json:"gravity"`
}

// BlockedPercent is blocked/total*100, or 0 with no queries.
func (s Summary) BlockedPercent() float64 {
	if s.Queries.Total <= 0 {
		return 0
	}
	return float64(s.Queries.Blocked) / float64(s.Queries.Total) * 100
}

// HistoryPoint is one bucket of /api/history.
type HistoryPoint struct {
	Timestamp int64 `json:"timestamp"`
	Total     int   `json:"total"`
	Cached    int   `json:"cached"`
	Blocked   int   `json:"blocked"`
	Forwarded int   `json:"forwarded"`
}

// At returns the bucket start.
func (h HistoryPoint) At() time.Time {
	return time.Unix(h.Timestamp, 0)
}

// Snapshot is what one Pi-hole cycle publishes. Summary is nil until the
// first successful summary fetch. Errors holds this cycle's failure per
// slice; a failed slice keeps its previous value.
type Snapshot struct {
	Summary *Summary          `json:"summary,omitempty"`
	History []HistoryPoint    `json:"history"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type authResponse struct {
	Session struct {
		Valid    bool   `json:"valid"`
		SID      string `json:"sid"`
		Validity int    `json:"validity"`
	} `json:"session"`
}

type historyResponse struct {
	History []HistoryPoint `json:"history"`
}
