package viewmodel

import (
	"testing"

	"github.com/rileyhilliard/homestats/internal/config"
	"github.com/rileyhilliard/homestats/internal/source"
	"github.com/rileyhilliard/homestats/internal/source/pihole"
	"github.com/rileyhilliard/homestats/internal/source/proxmox"
	"github.com/rileyhilliard/homestats/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entity(id, state string, attrs map[string]interface{}) source.Entity {
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	return source.Entity{ID: id, Domain: source.DomainOf(id), State: state, Attributes: attrs}
}

func TestLightGroup_TwoOfFive(t *testing.T) {
	members := []string{"light.a", "light.b", "light.c", "light.d", "light.e"}
	byID := Index([]source.Entity{
		entity("light.a", "on", nil),
		entity("light.b", "off", nil),
		entity("light.c", "on", nil),
		entity("light.d", "unavailable", nil),
	})

	g := BuildLightGroup("kitchen", "Kitchen", members, byID)
	assert.Equal(t, 2, g.OnCount)
	assert.True(t, g.IsOn)
	assert.Equal(t, "2 On", g.StatusText())
}

func TestLightGroup_StatusText(t *testing.T) {
	assert.Equal(t, "All Off", LightGroup{MemberIDs: []string{"a", "b"}}.StatusText())
	assert.Equal(t, "All On", LightGroup{MemberIDs: []string{"a", "b"}, OnCount: 2, IsOn: true}.StatusText())
	assert.Equal(t, "1 On", LightGroup{MemberIDs: []string{"a", "b"}, OnCount: 1, IsOn: true}.StatusText())
}

func TestLightsToTurnOff(t *testing.T) {
	groups := BuildLightGroups([]config.LightGroupConfig{
		{ID: "k", Entities: []string{"light.k1", "light.k2"}},
		{ID: "b", Entities: []string{"light.b1"}},
	}, []source.Entity{entity("light.k2", "on", nil), entity("light.b1", "off", nil)})

	assert.Equal(t, []string{"light.k1", "light.k2"}, LightsToTurnOff(groups))
	g, ok := FindGroup(groups, "b")
	require.True(t, ok)
	assert.False(t, g.IsOn)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(0, 0))
	assert.Equal(t, 50.0, Percent(50, 100))
	assert.Equal(t, 0.0, Percent(10, -1))
	assert.Equal(t, 25.0, CPUPercent(0.25))
	assert.Equal(t, 1.0, Mbps(125000))
}

func TestPartitionResources(t *testing.T) {
	res := PartitionResources([]proxmox.Resource{
		{ID: "qemu/100", Type: "qemu", Status: "running", VMID: 100, CPU: 0.5, Mem: 50, MaxMem: 100},
		{ID: "qemu/101", Type: "qemu", Status: "stopped", VMID: 101},
		{ID: "lxc/200", Type: "lxc", Status: "running", VMID: 200},
		{ID: "lxc/201", Type: "lxc", Status: "stopped", VMID: 201},
		{ID: "node/pve", Type: "node", Status: "online"},
	})
	require.Len(t, res.RunningVMs, 1)
	assert.Equal(t, 50.0, res.RunningVMs[0].CPUPercent)
	assert.Equal(t, 50.0, res.RunningVMs[0].MemoryPercent)
	assert.Len(t, res.StoppedVMs, 1)
	assert.Len(t, res.RunningContainers, 1)
	assert.Len(t, res.StoppedContainers, 1)
	assert.Equal(t, 4, res.Total())
	assert.Equal(t, 0.0, res.StoppedVMs[0].MemoryPercent)
}

func TestBuildNode(t *testing.T) {
	var snap proxmox.Snapshot
	snap.Node = "pve"
	snap.Status.CPU = 0.1
	snap.Status.Memory.Used = 4
	snap.Status.Memory.Total = 16
	snap.RRD = []proxmox.RRDPoint{{CPU: 0.2, MemUsed: 1, MemTotal: 4}, {CPU: 0.3, NetIn: 250000, NetOut: 125000}}

	v := BuildNode(snap)
	assert.InDelta(t, 10.0, v.CPUPercent, 1e-9)
	assert.Equal(t, 25.0, v.MemoryPercent)
	assert.InDeltaSlice(t, []float64{20, 30}, v.CPUHistory, 1e-9)
	assert.Equal(t, []float64{25, 0}, v.MemoryHistory)
	assert.Equal(t, 2.0, v.NetInMbps)
	assert.Equal(t, 1.0, v.NetOutMbps)
}

func TestWeather(t *testing.T) {
	tests := []struct {
		state, text, icon string
	}{
		{"sunny", "Sunny", IconSunny},
		{"clear", "Clear", IconSunny},
		{"partly-cloudy", "Partly Cloudy", IconPartlyCloudy},
		{"partlycloudy", "Partlycloudy", IconPartlyCloudy},
		{"rainy", "Rainy", IconRain},
		{"lightning", "Lightning", IconLightning},
		{"clear-night", "Clear Night", IconCloudy},
		{"exceptional", "Exceptional", IconCloudy},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			w := WeatherFrom(entity("weather.home", tt.state, map[string]interface{}{"temperature": 71.5, "humidity": 40.0}), "Home")
			assert.Equal(t, tt.text, w.Condition)
			assert.Equal(t, tt.icon, w.Icon)
			require.NotNil(t, w.Temperature)
			assert.Equal(t, 71.5, *w.Temperature)
			require.NotNil(t, w.Humidity)
			assert.Equal(t, 40, *w.Humidity)
		})
	}

	w := WeatherFrom(entity("weather.x", "fog", nil), "X")
	assert.Nil(t, w.Temperature)
	assert.Nil(t, w.Humidity)
}

func TestBuildPihole(t *testing.T) {
	snap := pihole.Snapshot{
		Summary: &pihole.Summary{Queries: pihole.Queries{Total: 1000, Blocked: 200}},
		History: []pihole.HistoryPoint{{Total: 10, Blocked: 2}},
	}
	v := BuildPihole(snap)
	assert.InDelta(t, 20.0, v.BlockedPercent, 1e-9)
	assert.Equal(t, []float64{2}, v.BlockedHistory)

	assert.Equal(t, 0.0, BuildPihole(pihole.Snapshot{}).BlockedPercent)
	assert.Empty(t, v.Stale)

	snap.Errors = map[string]string{pihole.SliceHistory: "Pi-hole returned HTTP 500"}
	assert.Contains(t, BuildPihole(snap).Stale, pihole.SliceHistory)
}

func TestBuildPrinter(t *testing.T) {
	entities := []source.Entity{
		entity("binary_sensor.x1c_abc_online", "on", nil),
		entity("sensor.x1c_abc_print_status", "PAUSE", nil),
		entity("sensor.x1c_abc_print_progress", "42.7", nil),
		entity("sensor.x1c_abc_remaining_time", "125", nil),
		entity("sensor.x1c_abc_nozzle_temperature", "219.5", nil),
		entity("sensor.x1c_abc_total_layer_count", "300", nil),
		entity("sensor.x1c_abc_task_name", "benchy", nil),
		entity("sensor.ams_9_ams_1_humidity_index", "25", nil),
		entity("sensor.ams_9_ams_1_tray_1", "PLA", nil),
		entity("camera.x1c_abc_camera", "idle", nil),
	}
	p := store.PrinterConfig{ID: "P1", Name: "Shop", PrinterID: "x1c_abc", AMSID: "ams_9"}

	v := BuildPrinter(p, entities)
	assert.True(t, v.Online)
	assert.Equal(t, PrintPaused, v.StatusCategory)
	assert.Equal(t, 42, v.Progress)
	assert.Equal(t, "2h 5m", v.Remaining)
	assert.Equal(t, 219.5, v.NozzleTemp)
	assert.Equal(t, 300, v.TotalLayers)
	assert.Equal(t, 0, v.CurrentLayer)
	assert.Equal(t, "benchy", v.TaskName)
	assert.Equal(t, "unknown", v.ActiveTray)
	assert.Equal(t, HumidityMedium, v.HumidityBand)
	require.Len(t, v.Trays, 4)
	assert.Equal(t, "PLA", v.Trays[0].Material)
	assert.Equal(t, "unknown", v.Trays[1].Material)
	assert.Equal(t, "camera.x1c_abc_camera", v.CameraEntity)

	assert.Equal(t, "button.x1c_abc_pause_printing", PrinterButtonID(p.PrinterID, ButtonPause))
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "--", FormatRemaining(0))
	assert.Equal(t, "45m", FormatRemaining(45))
	assert.Equal(t, "1h 0m", FormatRemaining(60))
}

func TestBuildHome(t *testing.T) {
	d := config.DashboardConfig{
		GarageDoor:   "cover.garage",
		GarageCamera: "camera.garage",
		Climate:      []config.NamedEntity{{Name: "Family", EntityID: "climate.family"}, {Name: "Gone", EntityID: "climate.gone"}},
		Weather:      []config.NamedEntity{{Name: "Greenhouse", EntityID: "weather.gh"}, {Name: "Missing", EntityID: "weather.none"}},
		LightGroups:  []config.LightGroupConfig{{ID: "k", Name: "Kitchen", Entities: []string{"light.k1", "light.k2"}}},
	}
	entities := []source.Entity{
		entity("cover.garage", "open", nil),
		entity("camera.garage", "idle", map[string]interface{}{"entity_picture": "/api/camera_proxy/camera.garage?token=t"}),
		entity("climate.family", "heat", map[string]interface{}{"current_temperature": 68.0}),
		entity("weather.gh", "partly-cloudy", map[string]interface{}{"temperature": 55.0}),
		entity("light.k1", "on", nil),
		entity("light.k2", "on", nil),
	}

	v := BuildHome(d, "http://ha.local:8123/", entities)
	assert.Equal(t, "open", v.GarageDoor)
	assert.Equal(t, "http://ha.local:8123/api/camera_proxy/camera.garage?token=t", v.GarageCameraURL)
	require.Len(t, v.Climate, 2)
	require.NotNil(t, v.Climate[0].Temperature)
	assert.Equal(t, 68.0, *v.Climate[0].Temperature)
	assert.Nil(t, v.Climate[1].Temperature)
	require.Len(t, v.Weather, 1)
	assert.Equal(t, "Partly Cloudy", v.Weather[0].Condition)
	require.Len(t, v.LightGroups, 1)
	assert.Equal(t, "All On", v.LightGroups[0].StatusText())
	assert.Equal(t, 2, v.LightsOn)

	empty := BuildHome(d, "", nil)
	assert.Equal(t, "unknown", empty.GarageDoor)
}
