package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default settings file name.
	ConfigFileName = ".homestats.yaml"
	// GlobalConfigDir is the directory for global settings.
	GlobalConfigDir = ".config/homestats"
	// GlobalConfigFile is the global settings file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix namespaces environment overrides, e.g. HOMESTATS_REFRESH_PIHOLE=15s.
	EnvPrefix = "HOMESTATS"
)

// Load reads settings from the specified path.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Settings file not found",
				"Run 'homestats config init' to create one, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read settings file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the settings file using the search order:
// 1. Explicit path (from --config flag)
// 2. .homestats.yaml in current directory
// 3. .homestats.yaml in parent directories (stops at git root or home)
// 4. ~/.config/homestats/config.yaml
//
// Returns the path to the settings file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		explicit = ExpandTilde(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified settings file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access settings file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	home, _ := os.UserHomeDir()
	dir := cwd
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if home != "" && parent == home {
			break
		}
		dir = parent

		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		if isGitRoot(dir) {
			break
		}
	}

	if home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads settings from the found path, or returns defaults if
// nothing was found. Environment overrides apply in both cases.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		cfg, err := parseConfig(newViper(), "environment")
		return cfg, "", err
	}

	cfg, err := Load(path)
	return cfg, path, err
}

// GlobalPath returns where 'config init --global' writes the settings file.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine home directory",
			"Set $HOME or pass an explicit path")
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// parseConfig converts viper settings to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid settings format",
			"Check the YAML syntax in "+path)
	}

	cfg.StateDir = ExpandTilde(cfg.StateDir)
	cfg.Store.KeyFile = ExpandTilde(cfg.Store.KeyFile)
	if cfg.Log.Output != "stderr" && cfg.Log.Output != "stdout" {
		cfg.Log.Output = ExpandTilde(cfg.Log.Output)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys the
// file does not mention.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("state_dir", d.StateDir)
	v.SetDefault("request_timeout", d.RequestTimeout.String())
	v.SetDefault("store.key_file", d.Store.KeyFile)
	v.SetDefault("replica.backend", d.Replica.Backend)
	v.SetDefault("replica.addr", d.Replica.Addr)
	v.SetDefault("replica.password", d.Replica.Password)
	v.SetDefault("replica.db", d.Replica.DB)
	v.SetDefault("replica.dsn", d.Replica.DSN)
	v.SetDefault("replica.key", d.Replica.Key)
	v.SetDefault("refresh.home_assistant", d.Refresh.HomeAssistant.String())
	v.SetDefault("refresh.dashboard", d.Refresh.Dashboard.String())
	v.SetDefault("refresh.proxmox", d.Refresh.Proxmox.String())
	v.SetDefault("refresh.pihole", d.Refresh.Pihole.String())
	v.SetDefault("refresh.media", d.Refresh.Media.String())
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("log.pretty", d.Log.Pretty)
	v.SetDefault("serve.addr", d.Serve.Addr)
}

// ResolveStateDir returns the directory holding the local config copy,
// falling back to the user's config directory.
func ResolveStateDir(cfg *Config) (string, error) {
	if cfg != nil && cfg.StateDir != "" {
		return cfg.StateDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine a state directory",
			"Set state_dir in .homestats.yaml")
	}
	return filepath.Join(base, "homestats"), nil
}

// isGitRoot checks if a directory is a git repository root.
func isGitRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	if err != nil {
		return false
	}
	return info.IsDir()
}
