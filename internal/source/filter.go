package source

import (
	"sort"
	"strings"
)

// DefaultDomains is the displayable-domain set used when no allow-list is
// configured.
var DefaultDomains = []string{
	"light", "switch", "sensor", "binary_sensor", "climate", "fan", "cover",
	"lock", "media_player", "person", "device_tracker", "weather", "input_boolean",
}

// FilterSpec selects which entities become visible state.
type FilterSpec struct {
	// AllowedDomains is an allow-list. Nil means DefaultDomains.
	AllowedDomains map[string]bool
	// NameSubstrings match case-insensitively; any match passes. Empty
	// disables name filtering.
	NameSubstrings []string
	// Disabled passes every entity through untouched.
	Disabled bool
}

// NewFilterSpec builds a FilterSpec from settings. An empty domain list
// means the default set.
func NewFilterSpec(domains, names []string) FilterSpec {
	spec := FilterSpec{}
	if len(domains) > 0 {
		spec.AllowedDomains = make(map[string]bool, len(domains))
		for _, d := range domains {
			spec.AllowedDomains[strings.TrimSpace(d)] = true
		}
	}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			spec.NameSubstrings = append(spec.NameSubstrings, strings.ToLower(n))
		}
	}
	return spec
}

// Unfiltered is the FilterSpec used by device dashboards that need the
// raw entity universe.
func Unfiltered() FilterSpec {
	return FilterSpec{Disabled: true}
}

var defaultDomainSet = func() map[string]bool {
	m := make(map[string]bool, len(DefaultDomains))
	for _, d := range DefaultDomains {
		m[d] = true
	}
	return m
}()

// Allows reports whether an entity with this domain and display name passes.
func (f FilterSpec) Allows(domain, name string) bool {
	if f.Disabled {
		return true
	}
	allowed := f.AllowedDomains
	if allowed == nil {
		allowed = defaultDomainSet
	}
	if !allowed[domain] {
		return false
	}
	if len(f.NameSubstrings) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, sub := range f.NameSubstrings {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// Named is anything with a domain and a display name.
type Named interface {
	EntityDomain() string
	DisplayName() string
}

// Apply filters items and sorts the survivors by (domain, name) ascending.
// The input slice is not modified.
func Apply[T Named](f FilterSpec, items []T) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if f.Allows(it.EntityDomain(), it.DisplayName()) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].EntityDomain(), out[j].EntityDomain()
		if di != dj {
			return di < dj
		}
		return out[i].DisplayName() < out[j].DisplayName()
	})
	return out
}
