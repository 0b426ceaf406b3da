package monitor

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/homestats/internal/app"
	"github.com/rileyhilliard/homestats/internal/errors"
	"github.com/rileyhilliard/homestats/internal/source/media"
	"github.com/rileyhilliard/homestats/internal/viewmodel"
)

// Backend is what the dashboard reads and drives. *app.App implements it.
// Reads must not block: they return the latest published snapshots.
type Backend interface {
	HealthAll() []app.Health
	Home() viewmodel.HomeView
	Printers() []viewmodel.PrinterView
	NodeCard() (viewmodel.NodeView, bool)
	Guests() viewmodel.Resources
	PiholeCard() (viewmodel.PiholeView, bool)
	MediaSnapshot() (media.Snapshot, bool)

	RefreshAll()
	SetLightGroup(ctx context.Context, groupID string, on bool) error
	AllLightsOff(ctx context.Context) error
	ToggleGarage(ctx context.Context) error
	PressPrinterButton(ctx context.Context, printerID, button string) error
}

// Layout breakpoints.
const (
	BreakpointWide  = 120
	DefaultWidth    = 80
	MaxSectionWidth = 100
)

// DefaultCommandTimeout bounds a single dashboard command.
const DefaultCommandTimeout = 15 * time.Second

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	backend  Backend
	history  *History
	interval time.Duration
	timeout  time.Duration

	snap       snapshot
	lastUpdate time.Time

	tab      Tab
	selected int
	button   int

	width    int
	height   int
	showHelp bool
	quitting bool

	notice    string
	noticeErr bool
	busy      int
}

// snapshot is everything the view renders, read from the backend at once.
type snapshot struct {
	health    []app.Health
	home      viewmodel.HomeView
	printers  []viewmodel.PrinterView
	node      viewmodel.NodeView
	hasNode   bool
	guests    viewmodel.Resources
	pihole    viewmodel.PiholeView
	hasPihole bool
	media     media.Snapshot
	hasMedia  bool
}

// tickMsg signals a periodic re-read of the backend.
type tickMsg time.Time

// snapshotMsg carries a fresh read of the backend.
type snapshotMsg struct {
	snap snapshot
	time time.Time
}

// commandResultMsg reports a finished command.
type commandResultMsg struct {
	label string
	err   error
}

// NewModel creates a dashboard model. The backend is re-read every
// interval; commands time out after timeout (0 uses DefaultCommandTimeout).
func NewModel(backend Backend, interval, timeout time.Duration) Model {
	if interval <= 0 {
		interval = time.Second
	}
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return Model{
		backend:  backend,
		history:  NewHistory(DefaultHistorySize),
		interval: interval,
		timeout:  timeout,
	}
}

// Init starts the tick timer and reads the backend once.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.loadCmd())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tea.Batch(m.tickCmd(), m.loadCmd())

	case snapshotMsg:
		m.applySnapshot(msg.snap, msg.time)

	case commandResultMsg:
		m.busy = max(m.busy-1, 0)
		if msg.err != nil {
			m.notice = msg.label + ": " + errors.Summary(msg.err)
			m.noticeErr = true
		} else {
			m.setNotice(msg.label + " done")
		}
		return m, m.loadCmd()
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	dashboard := m.renderDashboard()
	if m.showHelp {
		return m.renderHelpOverlay(dashboard)
	}
	return dashboard
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// loadCmd reads every view from the backend.
func (m Model) loadCmd() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		var s snapshot
		s.health = b.HealthAll()
		s.home = b.Home()
		s.printers = b.Printers()
		s.node, s.hasNode = b.NodeCard()
		s.guests = b.Guests()
		s.pihole, s.hasPihole = b.PiholeCard()
		s.media, s.hasMedia = b.MediaSnapshot()
		return snapshotMsg{snap: s, time: time.Now()}
	}
}

// runCommand runs fn off the UI loop and reports back with a
// commandResultMsg.
func (m *Model) runCommand(label string, fn func(context.Context) error) tea.Cmd {
	m.busy++
	m.notice = label + "..."
	m.noticeErr = false
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return commandResultMsg{label: label, err: fn(ctx)}
	}
}

func (m *Model) applySnapshot(s snapshot, at time.Time) {
	m.snap = s
	m.lastUpdate = at

	for _, c := range s.home.Climate {
		if c.Temperature != nil {
			m.history.Push("climate:"+c.EntityID, *c.Temperature)
		}
	}
	m.history.Push("lights", float64(s.home.LightsOn))
	for _, p := range s.printers {
		if p.Online {
			m.history.Push("nozzle:"+p.ID, p.NozzleTemp)
		}
	}

	// Rows can disappear between reads.
	if n := m.selectableCount(); m.selected >= n {
		m.selected = max(n-1, 0)
	}
}

func (m *Model) setNotice(s string) {
	m.notice = s
	m.noticeErr = false
}

// SelectedTab returns the active tab.
func (m Model) SelectedTab() Tab {
	return m.tab
}

// Selected returns the cursor row on the active tab.
func (m Model) Selected() int {
	return m.selected
}

// SecondsSinceUpdate returns the age of the last backend read.
func (m Model) SecondsSinceUpdate() int {
	if m.lastUpdate.IsZero() {
		return 0
	}
	return int(time.Since(m.lastUpdate).Seconds())
}

// sectionWidth is the width of the bordered sections.
func (m Model) sectionWidth() int {
	if m.width <= 0 {
		return DefaultWidth
	}
	return min(m.width, MaxSectionWidth)
}
