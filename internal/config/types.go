package config

import (
	"time"

	"github.com/rileyhilliard/homestats/internal/logger"
)

// CurrentConfigVersion is the schema version for the settings file.
// Increment when making breaking changes to the settings structure.
const CurrentConfigVersion = 1

// Replica backends.
const (
	ReplicaNone     = "none"
	ReplicaRedis    = "redis"
	ReplicaPostgres = "postgres"
)

// Config represents the complete .homestats.yaml settings file.
// Service credentials are not here: they live in the synced store.
type Config struct {
	Version        int             `yaml:"version" mapstructure:"version"`
	StateDir       string          `yaml:"state_dir" mapstructure:"state_dir"`
	RequestTimeout time.Duration   `yaml:"request_timeout" mapstructure:"request_timeout"`
	Store          StoreConfig     `yaml:"store" mapstructure:"store"`
	Replica        ReplicaConfig   `yaml:"replica" mapstructure:"replica"`
	Refresh        RefreshConfig   `yaml:"refresh" mapstructure:"refresh"`
	Filters        FilterConfig    `yaml:"filters" mapstructure:"filters"`
	Dashboard      DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Log            logger.Config   `yaml:"log" mapstructure:"log"`
	Serve          ServeConfig     `yaml:"serve" mapstructure:"serve"`
}

// StoreConfig controls the local copy of the synced configuration.
type StoreConfig struct {
	// KeyFile holds a hex-encoded 32-byte key. When set, the local copy is
	// sealed at rest; the replica always receives plain JSON.
	KeyFile string `yaml:"key_file" mapstructure:"key_file"`
}

// ReplicaConfig selects where the synced configuration is mirrored.
type ReplicaConfig struct {
	// Backend is "none", "redis", or "postgres".
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Addr, Password and DB address a Redis server.
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`

	// DSN is a Postgres connection string.
	DSN string `yaml:"dsn" mapstructure:"dsn"`

	// Key is the slot the configuration is stored under.
	Key string `yaml:"key" mapstructure:"key"`
}

// RefreshConfig holds per-source polling intervals.
type RefreshConfig struct {
	HomeAssistant time.Duration `yaml:"home_assistant" mapstructure:"home_assistant"`
	Dashboard     time.Duration `yaml:"dashboard" mapstructure:"dashboard"`
	Proxmox       time.Duration `yaml:"proxmox" mapstructure:"proxmox"`
	Pihole        time.Duration `yaml:"pihole" mapstructure:"pihole"`
	Media         time.Duration `yaml:"media" mapstructure:"media"`
}

// FilterConfig limits which Home Assistant entities are shown.
type FilterConfig struct {
	// Domains is an allow-list. Empty means the built-in displayable set.
	Domains []string `yaml:"domains" mapstructure:"domains"`
	// Names are case-insensitive substrings; an entity matching any passes.
	Names []string `yaml:"names" mapstructure:"names"`
}

// DashboardConfig names the Home Assistant entities the home view reads.
type DashboardConfig struct {
	GarageDoor   string             `yaml:"garage_door" mapstructure:"garage_door"`
	GarageCamera string             `yaml:"garage_camera" mapstructure:"garage_camera"`
	Climate      []NamedEntity      `yaml:"climate" mapstructure:"climate"`
	Weather      []NamedEntity      `yaml:"weather" mapstructure:"weather"`
	LightGroups  []LightGroupConfig `yaml:"light_groups" mapstructure:"light_groups"`
}

// NamedEntity pairs a display label with an entity id.
type NamedEntity struct {
	Name     string `yaml:"name" mapstructure:"name"`
	EntityID string `yaml:"entity_id" mapstructure:"entity_id"`
}

// LightGroupConfig is a named room of lights.
type LightGroupConfig struct {
	ID       string   `yaml:"id" mapstructure:"id"`
	Name     string   `yaml:"name" mapstructure:"name"`
	Entities []string `yaml:"entities" mapstructure:"entities"`
}

// ServeConfig controls the headless HTTP API.
type ServeConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:        CurrentConfigVersion,
		RequestTimeout: 15 * time.Second,
		Replica: ReplicaConfig{
			Backend: ReplicaNone,
			Addr:    "localhost:6379",
			Key:     "HomeStatsConfig",
		},
		Refresh: RefreshConfig{
			HomeAssistant: 10 * time.Second,
			Dashboard:     10 * time.Second,
			Proxmox:       30 * time.Second,
			Pihole:        30 * time.Second,
			Media:         60 * time.Second,
		},
		Filters: FilterConfig{},
		Dashboard: DashboardConfig{
			Climate:     []NamedEntity{},
			Weather:     []NamedEntity{},
			LightGroups: []LightGroupConfig{},
		},
		Log: logger.Config{
			Level:  "info",
			Output: "stderr",
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8765",
		},
	}
}
