package ui

import (
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string { return ansi.ReplaceAllString(s, "") }

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.ANSI)
	os.Exit(m.Run())
}

func TestThresholdColor(t *testing.T) {
	tests := []struct {
		percent float64
		want    lipgloss.Color
	}{
		{0, ColorSuccess},
		{59.9, ColorSuccess},
		{60, ColorWarning},
		{79.9, ColorWarning},
		{80, ColorError},
		{100, ColorError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ThresholdColor(tt.percent), "%.1f", tt.percent)
	}
}

func TestSparkline(t *testing.T) {
	assert.Empty(t, Sparkline(nil, 10))
	assert.Empty(t, Sparkline([]float64{1, 2}, 0))

	assert.Equal(t, "▁▂▄▆█", Sparkline([]float64{0, 25, 50, 75, 100}, 10))
	assert.Equal(t, "▅▅▅", Sparkline([]float64{7, 7, 7}, 10))
	// Only the newest points fit.
	assert.Equal(t, "▁█", Sparkline([]float64{100, 0, 5, 10}, 2))
}

func TestRenderSparkline_ColoredByLastValue(t *testing.T) {
	out := RenderSparkline([]float64{10, 95}, 10)
	assert.Equal(t, "▁█", stripANSI(out))
	assert.NotEqual(t, out, stripANSI(out), "expected ANSI color codes")
	assert.Empty(t, RenderSparkline(nil, 5))
}

func TestRenderProgressBar(t *testing.T) {
	assert.Empty(t, RenderProgressBar(50, 0))
	assert.Equal(t, "[█████░░░░░]  50%", stripANSI(RenderProgressBar(50, 10)))
	assert.Equal(t, "[░░░░]   0%", stripANSI(RenderProgressBar(-5, 4)))
	assert.Equal(t, "[████] 100%", stripANSI(RenderProgressBar(140, 4)))
	assert.Equal(t, "██░░  50%", stripANSI(RenderPlainBar(50, 4, ColorInfo)))
}

func TestRenderStatusTable(t *testing.T) {
	assert.Equal(t, "No sources", RenderStatusTable(nil))

	out := stripANSI(RenderStatusTable([]StatusRow{
		{Status: HealthOK, Name: "proxmox", Updated: "3s ago"},
		{Status: HealthFailed, Name: "pihole", Detail: "Pi-hole login failed"},
		{Status: HealthNotConfigured, Name: "media", Detail: "not configured"},
	}))
	assert.Contains(t, out, "SOURCE")
	assert.Contains(t, out, SymbolComplete+" proxmox")
	assert.Contains(t, out, SymbolFail+" pihole")
	assert.Contains(t, out, "Pi-hole login failed")
	assert.Contains(t, out, SymbolSkipped+" media")
}

func TestRenderSimpleTable(t *testing.T) {
	assert.Empty(t, RenderSimpleTable([]TableColumn{{Title: "Name", Width: 8}}, nil))
	out := RenderSimpleTable(
		[]TableColumn{{Title: "VMID", Width: 6}, {Title: "Name", Width: 12}},
		[][]string{{"100", "gateway"}, {"105", "plex"}},
	)
	assert.Contains(t, out, "VMID")
	assert.Contains(t, out, "gateway")
	assert.Contains(t, out, "plex")
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "abcdef", padRight("abcdef", 4))
}

type capture struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (c *capture) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.WriteString(s)
}

func (c *capture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func TestSpinner_Lifecycle(t *testing.T) {
	out := &capture{}
	s := NewSpinner("Testing Plex")
	s.SetOutput(out.write)
	assert.Equal(t, SpinnerPending, s.State())
	assert.Zero(t, s.Elapsed())

	s.Start()
	s.Start()
	assert.Equal(t, SpinnerInProgress, s.State())
	time.Sleep(20 * time.Millisecond)
	s.SetDetail("(12 libraries)")
	s.Success()
	s.Stop()

	assert.Equal(t, SpinnerSuccess, s.State())
	final := stripANSI(out.String())
	assert.Contains(t, final, SymbolSuccess+" Testing Plex (12 libraries)")
	assert.True(t, strings.HasSuffix(final, "s\n"))
}

func TestSpinner_FailAndSkip(t *testing.T) {
	for _, tt := range []struct {
		finish func(*Spinner)
		state  SpinnerState
		symbol string
	}{
		{(*Spinner).Fail, SpinnerFailed, SymbolFail},
		{(*Spinner).Skip, SpinnerSkipped, SymbolSkipped},
	} {
		out := &capture{}
		s := NewSpinner("Radarr")
		s.SetOutput(out.write)
		s.Start()
		tt.finish(s)
		require.Equal(t, tt.state, s.State())
		assert.Contains(t, stripANSI(out.String()), tt.symbol+" Radarr")
	}
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0.05s", FormatElapsed(50*time.Millisecond))
	assert.Equal(t, "1.2s", FormatElapsed(1200*time.Millisecond))
}

func TestDisableColors(t *testing.T) {
	defer lipgloss.SetColorProfile(termenv.ANSI)
	DisableColors()
	assert.Equal(t, "x", lipgloss.NewStyle().Foreground(ColorError).Render("x"))
}
