// Package store owns the user-editable service configuration: the typed
// config document, its local copy, the remote replica it is mirrored to,
// and the Manager that keeps the three consistent.
package store

import (
	"strings"

	"github.com/google/uuid"
)

// Key is the fixed slot the config is stored under in every replica.
const Key = "HomeStatsConfig"

// LocalKey names the local copy.
const LocalKey = "HomeStatsConfig_Local"

// AppMode selects how much detail the dashboards show.
type AppMode string

const (
	AppModeSimple   AppMode = "Simple"
	AppModeAdvanced AppMode = "Advanced"
)

// Config is the synced configuration document. The JSON shape is shared by
// the local copy and the replica.
type Config struct {
	AppMode            AppMode              `json:"appMode"`
	HomeAssistant      *HomeAssistantConfig `json:"homeAssistant,omitempty"`
	Plex               *PlexConfig          `json:"plex,omitempty"`
	Sonarr             *ServiceConfig       `json:"sonarr,omitempty"`
	Radarr             *ServiceConfig       `json:"radarr,omitempty"`
	SABnzbd            *ServiceConfig       `json:"sabnzbd,omitempty"`
	Proxmox            *ProxmoxConfig       `json:"proxmox,omitempty"`
	Pihole             *PiholeConfig        `json:"pihole,omitempty"`
	Printers           []PrinterConfig      `json:"printers"`
	AllowInsecureCerts bool                 `json:"allowInsecureCerts"`
}

// HomeAssistantConfig holds a long-lived access token.
type HomeAssistantConfig struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// PlexConfig holds an X-Plex-Token.
type PlexConfig struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// ServiceConfig is the URL + API key pair used by Sonarr, Radarr and SABnzbd.
type ServiceConfig struct {
	URL    string `json:"url"`
	APIKey string `json:"apiKey"`
}

// ProxmoxConfig holds an API token: Username is the token id
// (user@realm!name) and Password the token secret.
type ProxmoxConfig struct {
	URL      string   `json:"url"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	Nodes    []string `json:"nodes"`
}

// PrimaryNode returns the node the dashboards query, or "" if none.
func (p *ProxmoxConfig) PrimaryNode() string {
	if p == nil || len(p.Nodes) == 0 {
		return ""
	}
	return p.Nodes[0]
}

// PiholeConfig holds the web password used for the session login.
type PiholeConfig struct {
	URL      string `json:"url"`
	APIToken string `json:"apiToken,omitempty"`
}

// PrinterConfig identifies a 3D printer exposed through Home Assistant.
type PrinterConfig struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PrinterID  string `json:"printerId"`
	AccessCode string `json:"accessCode"`
	AMSID      string `json:"amsId,omitempty"`
}

// NewPrinter returns a printer entry with a fresh id.
func NewPrinter(name, printerID, accessCode, amsID string) PrinterConfig {
	return PrinterConfig{
		ID:         strings.ToUpper(uuid.NewString()),
		Name:       name,
		PrinterID:  printerID,
		AccessCode: accessCode,
		AMSID:      amsID,
	}
}

// Source yields the current config. *Manager satisfies it.
type Source interface {
	Current() Config
}

// Static is a Source that never changes.
type Static Config

// Current implements Source.
func (s Static) Current() Config { return Config(s) }

// Empty returns the config a first run starts with.
func Empty() Config {
	return Config{AppMode: AppModeSimple, Printers: []PrinterConfig{}}
}

// Clone returns a deep copy so callers can edit without touching the
// manager's instance.
func (c Config) Clone() Config {
	out := c
	if c.HomeAssistant != nil {
		v := *c.HomeAssistant
		out.HomeAssistant = &v
	}
	if c.Plex != nil {
		v := *c.Plex
		out.Plex = &v
	}
	out.Sonarr = cloneService(c.Sonarr)
	out.Radarr = cloneService(c.Radarr)
	out.SABnzbd = cloneService(c.SABnzbd)
	if c.Proxmox != nil {
		v := *c.Proxmox
		v.Nodes = append([]string(nil), c.Proxmox.Nodes...)
		out.Proxmox = &v
	}
	if c.Pihole != nil {
		v := *c.Pihole
		out.Pihole = &v
	}
	out.Printers = append([]PrinterConfig{}, c.Printers...)
	return out
}

func cloneService(s *ServiceConfig) *ServiceConfig {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// IsConfigured reports whether the service has a block in c.
func (c Config) IsConfigured(s ServiceType) bool {
	switch s {
	case HomeAssistant:
		return c.HomeAssistant != nil
	case Plex:
		return c.Plex != nil
	case Sonarr:
		return c.Sonarr != nil
	case Radarr:
		return c.Radarr != nil
	case SABnzbd:
		return c.SABnzbd != nil
	case Proxmox:
		return c.Proxmox != nil
	case Pihole:
		return c.Pihole != nil
	}
	return false
}

// ServiceType enumerates the backends a config can describe.
type ServiceType string

const (
	HomeAssistant ServiceType = "Home Assistant"
	Plex          ServiceType = "Plex"
	Sonarr        ServiceType = "Sonarr"
	Radarr        ServiceType = "Radarr"
	SABnzbd       ServiceType = "SABnzbd"
	Proxmox       ServiceType = "Proxmox"
	Pihole        ServiceType = "Pi-hole"
)

// AllServices lists every service type in display order.
var AllServices = []ServiceType{HomeAssistant, Plex, Sonarr, Radarr, SABnzbd, Proxmox, Pihole}

// Category groups services for display.
type Category string

const (
	CategorySmartHome      Category = "Smart Home"
	CategoryMedia          Category = "Media"
	CategoryInfrastructure Category = "Infrastructure"
)

// Category returns the display group of s.
func (s ServiceType) Category() Category {
	switch s {
	case HomeAssistant:
		return CategorySmartHome
	case Plex, Sonarr, Radarr, SABnzbd:
		return CategoryMedia
	default:
		return CategoryInfrastructure
	}
}

// HelpText tells the user where to find the credential for s.
func (s ServiceType) HelpText() string {
	switch s {
	case HomeAssistant:
		return "Create a Long-Lived Access Token in Home Assistant: Profile → Security → Long-Lived Access Tokens"
	case Plex:
		return "Find your Plex token at plex.tv/claim or in Plex app XML responses"
	case Sonarr, Radarr:
		return "Find the API key in Settings → General → Security"
	case SABnzbd:
		return "Find the API key in Config → General → Security"
	case Proxmox:
		return "Create an API token in Datacenter → Permissions → API Tokens (user@pam!name)"
	case Pihole:
		return "Use the Pi-hole web interface password"
	}
	return ""
}

// Slug is the lower-case identifier used on the command line.
func (s ServiceType) Slug() string {
	switch s {
	case HomeAssistant:
		return "homeassistant"
	case Pihole:
		return "pihole"
	}
	return strings.ToLower(string(s))
}

// ParseServiceType accepts a display name or slug, case-insensitively.
func ParseServiceType(name string) (ServiceType, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, s := range AllServices {
		if n == strings.ToLower(string(s)) || n == s.Slug() {
			return s, true
		}
	}
	switch n {
	case "ha", "hass", "home-assistant":
		return HomeAssistant, true
	case "pve":
		return Proxmox, true
	case "sab":
		return SABnzbd, true
	}
	return "", false
}
