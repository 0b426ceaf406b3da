package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/homestats/internal/config"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/store"
)

func decodeJSON(t *testing.T, out string) JSONEnvelope {
	t.Helper()
	var env JSONEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	return env
}

func TestConfigSetAndShow(t *testing.T) {
	env := newTestEnv(t).withHA(t)

	out, err := env.run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, env.haURL)
	assert.Contains(t, out, "****1234")
	assert.NotContains(t, out, "token-1234")
	assert.Contains(t, out, "not configured")

	out, err = env.run(t, "config", "show", "--show-secrets")
	require.NoError(t, err)
	assert.Contains(t, out, "token-1234")
}

func TestConfigSetMergesAndClears(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "config", "set", "pve", "--url", "https://pve:8006/", "--username", "root@pam!hs", "--secret", "s3cret", "--nodes", "pve1,pve2")
	require.NoError(t, err)
	_, err = env.run(t, "config", "set", "proxmox", "--secret", "rotated")
	require.NoError(t, err)

	out, err := env.run(t, "config", "show", "--json", "--show-secrets")
	require.NoError(t, err)
	var payload struct {
		Data store.Config `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.NotNil(t, payload.Data.Proxmox)
	assert.Equal(t, "https://pve:8006", payload.Data.Proxmox.URL)
	assert.Equal(t, "root@pam!hs", payload.Data.Proxmox.Username)
	assert.Equal(t, "rotated", payload.Data.Proxmox.Password)
	assert.Equal(t, []string{"pve1", "pve2"}, payload.Data.Proxmox.Nodes)

	_, err = env.run(t, "config", "set", "proxmox", "--clear")
	require.NoError(t, err)
	out, err = env.run(t, "config", "show", "--json")
	require.NoError(t, err)
	payload.Data = store.Config{}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Nil(t, payload.Data.Proxmox)
}

func TestConfigSetUnknownService(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "config", "set", "jellyfin", "--url", "http://x")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "homeassistant")
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	out, err := executeCLI(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, config.ConfigFileName)

	loaded, err := config.Load(filepath.Join(dir, config.ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Refresh, loaded.Refresh)

	_, err = executeCLI(t, "config", "init")
	assert.Error(t, err, "refuses to overwrite")
	_, err = executeCLI(t, "config", "init", "--force")
	assert.NoError(t, err)
}

func TestConfigPath(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, env.configPath)
	assert.Contains(t, out, filepath.Join(env.dir, "state"))
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t).withHA(t)

	out, err := env.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "home-assistant")
	assert.Contains(t, out, "not configured")
	assert.Contains(t, out, "Config sync: ")

	out, err = env.run(t, "status", "--json")
	require.NoError(t, err)
	var payload struct {
		Success bool         `json:"success"`
		Data    StatusReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.True(t, payload.Success)
	require.Len(t, payload.Data.Sources, 5)

	byName := map[string]string{}
	for _, h := range payload.Data.Sources {
		byName[h.Name] = h.Status
	}
	assert.Equal(t, "ok", byName["home-assistant"])
	assert.Equal(t, "ok", byName["devices"])
	assert.Equal(t, "not_configured", byName["proxmox"])
	assert.Equal(t, "not_configured", byName["media"])
}

func TestSnapshot(t *testing.T) {
	env := newTestEnv(t).withHA(t)

	out, err := env.run(t, "snapshot", "home-assistant", "--json")
	require.NoError(t, err)
	envl := decodeJSON(t, out)
	assert.True(t, envl.Success)
	assert.Contains(t, out, "light.desk")
	assert.NotContains(t, out, "cover.garage_door", "filtered to lights and switches")

	_, err = env.run(t, "snapshot", "pihole")
	assert.True(t, errors.IsCode(err, errors.ErrNotConfigured))

	_, err = env.run(t, "snapshot", "weather")
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestDeviceCommands(t *testing.T) {
	env := newTestEnv(t).withHA(t)

	out, err := env.run(t, "toggle", "switch.fan")
	require.NoError(t, err)
	assert.Contains(t, out, "Toggled switch.fan")

	_, err = env.run(t, "garage")
	require.NoError(t, err)

	_, err = env.run(t, "lights", "office", "on")
	require.NoError(t, err)

	_, err = env.run(t, "lights", "off")
	require.NoError(t, err)

	_, err = env.run(t, "press", "button.doorbell")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/api/services/switch/toggle switch.fan",
		"/api/services/cover/open_cover cover.garage_door",
		"/api/services/light/turn_on light.desk",
		"/api/services/light/turn_on light.lamp",
		"/api/services/light/turn_off light.desk",
		"/api/services/button/press button.doorbell",
	}, env.ha.Calls())
}

func TestLightsArgumentErrors(t *testing.T) {
	env := newTestEnv(t).withHA(t)

	_, err := env.run(t, "lights", "office")
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	_, err = env.run(t, "lights", "office", "dim")
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	_, err = env.run(t, "lights", "attic", "on")
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Empty(t, env.ha.Calls())
}

func TestDeviceCommandWithoutHomeAssistant(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "garage")
	assert.True(t, errors.IsCode(err, errors.ErrNotConfigured))
}

func TestPrinterLifecycle(t *testing.T) {
	env := newTestEnv(t).withHA(t)

	out, err := env.run(t, "printer", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No printers configured")

	_, err = env.run(t, "printer", "add", "--name", "X1 Carbon", "--entity", "x1c_00m", "--access-code", "12345678")
	require.NoError(t, err)

	_, err = env.run(t, "printer", "add", "--name", "x1 carbon", "--entity", "other")
	assert.True(t, errors.IsCode(err, errors.ErrConfig), "duplicate name")

	out, err = env.run(t, "printer", "list", "--json")
	require.NoError(t, err)
	var payload struct {
		Data []store.PrinterConfig `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Len(t, payload.Data, 1)
	assert.Equal(t, "x1c_00m", payload.Data[0].PrinterID)
	assert.Equal(t, "****5678", payload.Data[0].AccessCode)
	assert.NotEmpty(t, payload.Data[0].ID)

	_, err = env.run(t, "printer", "press", "X1 Carbon", "pause_printing")
	require.NoError(t, err)
	assert.Equal(t, []string{"/api/services/button/press button.x1c_00m_pause_printing"}, env.ha.Calls())

	_, err = env.run(t, "printer", "press", "Prusa", "pause_printing")
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	_, err = env.run(t, "printer", "remove", "x1c_00m")
	require.NoError(t, err)
	out, err = env.run(t, "printer", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No printers configured")

	_, err = env.run(t, "printer", "remove", "X1 Carbon")
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestConnectionTest(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "test")
	assert.True(t, errors.IsCode(err, errors.ErrNotConfigured))

	env.withHA(t)
	out, err := env.run(t, "test", "--json")
	require.NoError(t, err)
	var payload struct {
		Data []ConnectionResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Len(t, payload.Data, 1)
	assert.True(t, payload.Data[0].OK)
	assert.Equal(t, "Home Assistant", payload.Data[0].Service)

	_, err = env.run(t, "test", "sonarr", "--json")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTransport))
}

func TestSyncRequiresReplica(t *testing.T) {
	env := newTestEnv(t)
	for _, sub := range []string{"pull", "push"} {
		_, err := env.run(t, "sync", sub)
		require.Error(t, err, sub)
		assert.Contains(t, errors.Summary(err), "No replica")
	}
}

func TestFilters(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "filters", "add-domain", "Sensor")
	require.NoError(t, err)
	_, err = env.run(t, "filters", "add-name", "garage")
	require.NoError(t, err)
	_, err = env.run(t, "filters", "add-name", "garage")
	require.NoError(t, err, "adding twice is a no-op")

	loaded, err := config.Load(env.configPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"light", "switch", "sensor"}, loaded.Filters.Domains)
	assert.Equal(t, []string{"garage"}, loaded.Filters.Names)

	out, err := env.run(t, "filters", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "light, switch, sensor")

	_, err = env.run(t, "filters", "add-name", " ")
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestUnknownCommand(t *testing.T) {
	_, err := executeCLI(t, "dash-board")
	require.Error(t, err)
	assert.True(t, isUnknownCommandError(err))
	assert.Equal(t, "dash-board", extractUnknownCommand(err))
}

func TestMaskSecrets(t *testing.T) {
	cfg := store.Empty()
	cfg.Pihole = &store.PiholeConfig{URL: "http://pi.hole", APIToken: "pw"}
	cfg.Sonarr = &store.ServiceConfig{URL: "http://sonarr", APIKey: "abcdef123456"}

	masked := maskSecrets(cfg)
	assert.Equal(t, "****", masked.Pihole.APIToken)
	assert.Equal(t, "****3456", masked.Sonarr.APIKey)
	assert.Equal(t, "abcdef123456", cfg.Sonarr.APIKey, "original untouched")
}
