package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/homestats/internal/config"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/logger"
	"github.com/rileyhilliard/homestats/internal/source"
	"github.com/rileyhilliard/homestats/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const states = `[
  {"entity_id":"light.desk","state":"on","attributes":{"friendly_name":"Desk"}},
  {"entity_id":"light.lamp","state":"off","attributes":{"friendly_name":"Lamp"}},
  {"entity_id":"cover.garage_door","state":"closed","attributes":{}},
  {"entity_id":"climate.upstairs","state":"heat","attributes":{"current_temperature":21.5}},
  {"entity_id":"switch.fan","state":"off","attributes":{}}
]`

type fakeHA struct {
	mu    sync.Mutex
	posts []string
}

func (f *fakeHA) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.posts = append(f.posts, r.URL.Path+" "+body["entity_id"])
		f.mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
		return
	}
	_, _ = w.Write([]byte(states))
}

func (f *fakeHA) Posts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.posts...)
}

func testSettings(t *testing.T) *config.Config {
	t.Helper()
	settings := config.DefaultConfig()
	settings.StateDir = t.TempDir()
	settings.Filters.Domains = []string{"light"}
	settings.Dashboard = config.DashboardConfig{
		GarageDoor: "cover.garage_door",
		Climate:    []config.NamedEntity{{Name: "Upstairs", EntityID: "climate.upstairs"}},
		LightGroups: []config.LightGroupConfig{
			{ID: "office", Name: "Office", Entities: []string{"light.desk", "light.lamp"}},
		},
	}
	return settings
}

func newTestApp(t *testing.T) (*App, *fakeHA, *logger.BufferLogger) {
	t.Helper()
	fake := &fakeHA{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	log := logger.NewBufferLogger()
	a, err := New(context.Background(), testSettings(t),
		WithReplica(nil),
		WithClients(source.Fixed(srv.Client())),
		WithLogger(log))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	a.Entities.SetSettleDelay(0)
	a.Devices.SetSettleDelay(0)
	require.NoError(t, a.Store.Set(context.Background(), store.Config{
		HomeAssistant: &store.HomeAssistantConfig{URL: srv.URL, Token: "tok"},
		Printers:      []store.PrinterConfig{},
	}))
	return a, fake, log
}

func TestNew_RegistersEverySource(t *testing.T) {
	a, _, _ := newTestApp(t)

	assert.ElementsMatch(t, Sources, a.Schedulers.Names())
	for _, name := range Sources {
		p, ok := a.Poller(name)
		require.True(t, ok, name)
		assert.Equal(t, name, p.Name())
	}
	_, ok := a.Poller("nope")
	assert.False(t, ok)
}

func TestFetchOnce_FilteredAndUnfiltered(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.FetchOnce(ctx, SourceHomeAssistant))
	require.NoError(t, a.FetchOnce(ctx, SourceDevices))

	filtered, _ := a.Entities.State().Snapshot()
	all, _ := a.Devices.State().Snapshot()
	assert.Len(t, filtered, 2)
	assert.Len(t, all, 5)

	err := a.FetchOnce(ctx, "nope")
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestFetchOnce_UnconfiguredSources(t *testing.T) {
	a, _, _ := newTestApp(t)
	for _, name := range []string{SourceProxmox, SourcePihole, SourceMedia} {
		err := a.FetchOnce(context.Background(), name)
		assert.True(t, errors.IsCode(err, errors.ErrNotConfigured), name)
	}
}

func TestStatus(t *testing.T) {
	a, _, _ := newTestApp(t)
	require.NoError(t, a.FetchOnce(context.Background(), SourceHomeAssistant))

	st, err := a.Status(SourceHomeAssistant)
	require.NoError(t, err)
	status, ok := st.(source.Status[[]source.Entity])
	require.True(t, ok)
	assert.Len(t, status.Value, 2)

	_, err = a.Status("weather")
	assert.Error(t, err)
}

func TestHome(t *testing.T) {
	a, _, _ := newTestApp(t)
	require.NoError(t, a.FetchOnce(context.Background(), SourceDevices))

	home := a.Home()
	assert.Equal(t, "closed", home.GarageDoor)
	require.Len(t, home.Climate, 1)
	require.NotNil(t, home.Climate[0].Temperature)
	assert.InDelta(t, 21.5, *home.Climate[0].Temperature, 0.001)
	require.Len(t, home.LightGroups, 1)
	assert.Equal(t, "1 On", home.LightGroups[0].StatusText())
	assert.Equal(t, 1, home.LightsOn)
}

func TestLightCommands(t *testing.T) {
	a, fake, _ := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, a.FetchOnce(ctx, SourceDevices))

	require.NoError(t, a.SetLightGroup(ctx, "office", true))
	assert.Equal(t, []string{
		"/api/services/light/turn_on light.desk",
		"/api/services/light/turn_on light.lamp",
	}, fake.Posts())

	err := a.SetLightGroup(ctx, "attic", true)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	require.NoError(t, a.AllLightsOff(ctx))
	assert.Contains(t, fake.Posts(), "/api/services/light/turn_off light.desk")
	assert.NotContains(t, fake.Posts(), "/api/services/light/turn_off light.lamp")
}

func TestToggleAndGarage(t *testing.T) {
	a, fake, _ := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, a.FetchOnce(ctx, SourceHomeAssistant))
	require.NoError(t, a.FetchOnce(ctx, SourceDevices))

	require.NoError(t, a.Toggle(ctx, "switch.fan"))
	require.NoError(t, a.ToggleGarage(ctx))
	assert.Equal(t, []string{
		"/api/services/switch/toggle switch.fan",
		"/api/services/cover/open_cover cover.garage_door",
	}, fake.Posts())
}

func TestPressPrinterButton(t *testing.T) {
	a, fake, _ := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.PressPrinterButton(ctx, "x1c_00m", "pause_printing"))
	assert.Equal(t, []string{"/api/services/button/press button.x1c_00m_pause_printing"}, fake.Posts())

	err := a.PressPrinterButton(ctx, "x1c_00m", "explode")
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestStart_ConfigChangeTriggersRefresh(t *testing.T) {
	fake := &fakeHA{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	a, err := New(context.Background(), testSettings(t),
		WithReplica(nil),
		WithClients(source.Fixed(srv.Client())),
		WithLogger(logger.Noop()))
	require.NoError(t, err)
	defer a.Close()

	a.Start(context.Background())
	require.Eventually(t, func() bool {
		return errors.IsCode(a.Devices.State().LastError(), errors.ErrNotConfigured)
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Store.Set(context.Background(), store.Config{
		HomeAssistant: &store.HomeAssistantConfig{URL: srv.URL, Token: "tok"},
	}))
	assert.Eventually(t, func() bool {
		entities, ok := a.Devices.State().Snapshot()
		return ok && len(entities) == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOpenReplica(t *testing.T) {
	r, err := OpenReplica(context.Background(), config.ReplicaConfig{Backend: config.ReplicaNone})
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = OpenReplica(context.Background(), config.ReplicaConfig{Backend: "etcd"})
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestOpenLocal_SealedWithKeyFile(t *testing.T) {
	settings := testSettings(t)
	settings.Store.KeyFile = settings.StateDir + "/key"
	require.NoError(t, store.GenerateKeyFile(settings.Store.KeyFile))

	local, err := OpenLocal(settings)
	require.NoError(t, err)
	require.NoError(t, local.Save([]byte(`{"appMode":"Simple"}`)))
	data, err := local.Load()
	require.NoError(t, err)
	assert.JSONEq(t, `{"appMode":"Simple"}`, string(data))
}

func TestHealth(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()

	assert.Equal(t, HealthPending, a.Health(SourceDevices).Status)

	require.NoError(t, a.FetchOnce(ctx, SourceDevices))
	_ = a.FetchOnce(ctx, SourcePihole)

	devices := a.Health(SourceDevices)
	assert.Equal(t, HealthOK, devices.Status)
	assert.False(t, devices.Updated.IsZero())

	pihole := a.Health(SourcePihole)
	assert.Equal(t, HealthNotConfigured, pihole.Status)
	assert.Contains(t, pihole.Error, "Pi-hole")

	all := a.HealthAll()
	require.Len(t, all, len(Sources))
	assert.Equal(t, SourceHomeAssistant, all[0].Name)

	assert.False(t, a.Refresh("nope"))
}
