package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rs/zerolog"
)

// MinRefreshInterval is the shortest polling interval accepted.
const MinRefreshInterval = time.Second

// Validate checks the settings for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Settings are nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("These settings are from the future (version %d, but homestats only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade homestats or lower the version field.")
	}

	if cfg.RequestTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("request_timeout must be positive, got %s", cfg.RequestTimeout),
			"Try something like 'request_timeout: 15s'.")
	}

	if err := validateRefresh(cfg.Refresh); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'refresh' section in your .homestats.yaml.")
	}

	if err := validateReplica(cfg.Replica); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'replica' section in your .homestats.yaml.")
	}

	if err := validateDashboard(cfg.Dashboard); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'dashboard' section in your .homestats.yaml.")
	}

	if cfg.Log.Level != "" {
		if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Unknown log level '%s'", cfg.Log.Level),
				"Use one of: debug, info, warn, error.")
		}
	}

	return nil
}

func validateRefresh(r RefreshConfig) error {
	intervals := []struct {
		name string
		d    time.Duration
	}{
		{"home_assistant", r.HomeAssistant},
		{"dashboard", r.Dashboard},
		{"proxmox", r.Proxmox},
		{"pihole", r.Pihole},
		{"media", r.Media},
	}
	for _, iv := range intervals {
		if iv.d < MinRefreshInterval {
			return fmt.Errorf("refresh.%s is %s, minimum is %s", iv.name, iv.d, MinRefreshInterval)
		}
	}
	return nil
}

func validateReplica(r ReplicaConfig) error {
	switch r.Backend {
	case "", ReplicaNone:
		return nil
	case ReplicaRedis:
		if strings.TrimSpace(r.Addr) == "" {
			return fmt.Errorf("replica.addr is required for the redis backend")
		}
	case ReplicaPostgres:
		if strings.TrimSpace(r.DSN) == "" {
			return fmt.Errorf("replica.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown replica backend '%s' (want none, redis, or postgres)", r.Backend)
	}
	if strings.TrimSpace(r.Key) == "" {
		return fmt.Errorf("replica.key cannot be empty")
	}
	return nil
}

func validateDashboard(d DashboardConfig) error {
	seen := make(map[string]bool)
	for i, g := range d.LightGroups {
		if g.ID == "" {
			return fmt.Errorf("light group at position %d needs an id", i)
		}
		if seen[g.ID] {
			return fmt.Errorf("light group id '%s' is used twice", g.ID)
		}
		seen[g.ID] = true
		if len(g.Entities) == 0 {
			return fmt.Errorf("light group '%s' has no entities", g.ID)
		}
		for _, e := range g.Entities {
			if !strings.HasPrefix(e, "light.") {
				return fmt.Errorf("light group '%s' entity '%s' is not a light", g.ID, e)
			}
		}
	}
	for _, w := range d.Weather {
		if !strings.HasPrefix(w.EntityID, "weather.") {
			return fmt.Errorf("weather entry '%s' must reference a weather.* entity", w.Name)
		}
	}
	for _, c := range d.Climate {
		if c.EntityID == "" {
			return fmt.Errorf("climate entry '%s' has no entity_id", c.Name)
		}
	}
	return nil
}
