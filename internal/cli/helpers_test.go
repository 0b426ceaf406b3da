package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/homestats/internal/app"
	"github.com/rileyhilliard/homestats/internal/config"
	"github.com/rileyhilliard/homestats/internal/logger"
	"github.com/rileyhilliard/homestats/internal/source"
)

const haStates = `[
  {"entity_id":"light.desk","state":"on","attributes":{"friendly_name":"Desk"}},
  {"entity_id":"light.lamp","state":"off","attributes":{"friendly_name":"Lamp"}},
  {"entity_id":"cover.garage_door","state":"closed","attributes":{}},
  {"entity_id":"switch.fan","state":"off","attributes":{"friendly_name":"Fan"}}
]`

// fakeHA answers /api/states and records service calls as
// "<path> <entity_id>".
type fakeHA struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeHA) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost:
		var body struct {
			EntityID json.RawMessage `json:"entity_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.calls = append(f.calls, r.URL.Path+" "+strings.Trim(string(body.EntityID), `"`))
		f.mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
	case strings.HasSuffix(r.URL.Path, "/api/states"):
		_, _ = w.Write([]byte(haStates))
	default:
		_, _ = w.Write([]byte(`{"message":"API running."}`))
	}
}

func (f *fakeHA) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// testEnv is a settings file in a temp dir plus a fake Home Assistant.
type testEnv struct {
	dir        string
	configPath string
	ha         *fakeHA
	haURL      string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	stateDir := filepath.Join(dir, "state")

	settings := `version: 1
state_dir: ` + stateDir + `
log:
  level: error
filters:
  domains: [light, switch]
dashboard:
  garage_door: cover.garage_door
  light_groups:
    - id: office
      name: Office
      entities: [light.desk, light.lamp]
`
	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(settings), 0o644))

	ha := &fakeHA{}
	srv := httptest.NewServer(ha)
	t.Cleanup(srv.Close)

	orig := openApp
	t.Cleanup(func() { openApp = orig })
	openApp = func(ctx context.Context, settings *config.Config, opts ...app.Option) (*app.App, error) {
		opts = append([]app.Option{
			app.WithReplica(nil),
			app.WithClients(source.Fixed(srv.Client())),
			app.WithLogger(logger.Noop()),
		}, opts...)
		a, err := app.New(ctx, settings, opts...)
		if err != nil {
			return nil, err
		}
		a.Entities.SetSettleDelay(0)
		a.Devices.SetSettleDelay(0)
		return a, nil
	}

	return &testEnv{dir: dir, configPath: path, ha: ha, haURL: srv.URL}
}

// run executes homestats with the env's settings file.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCLI(t, append([]string{"--config", e.configPath}, args...)...)
}

// withHA stores the fake Home Assistant credentials.
func (e *testEnv) withHA(t *testing.T) *testEnv {
	t.Helper()
	_, err := e.run(t, "config", "set", "homeassistant", "--url", e.haURL, "--secret", "token-1234")
	require.NoError(t, err)
	return e
}

// executeCLI runs the real root command with every flag back at its default.
func executeCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	_, err := rootCmd.ExecuteContextC(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
