package monitor

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/homestats/internal/viewmodel"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(keyMsg(key))
	return updated.(Model), cmd
}

func TestTab_String(t *testing.T) {
	tests := []struct {
		tab    Tab
		expect string
	}{
		{TabHome, "Home"},
		{TabInfra, "Infra"},
		{TabNetwork, "Network"},
		{TabMedia, "Media"},
		{TabPrinters, "Printers"},
		{Tab(99), "Home"},
	}
	for _, tt := range tests {
		t.Run(tt.expect, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.tab.String())
		})
	}
}

func TestTab_Cycle(t *testing.T) {
	assert.Equal(t, TabInfra, TabHome.Next())
	assert.Equal(t, TabHome, TabPrinters.Next())
	assert.Equal(t, TabPrinters, TabHome.Prev())
	assert.Equal(t, TabNetwork, TabMedia.Prev())
}

func TestHandleKey_SwitchTabs(t *testing.T) {
	m := loaded(t, newFakeBackend())

	m, _ = press(t, m, "tab")
	assert.Equal(t, TabInfra, m.SelectedTab())
	m, _ = press(t, m, "shift+tab")
	assert.Equal(t, TabHome, m.SelectedTab())
	m, _ = press(t, m, "5")
	assert.Equal(t, TabPrinters, m.SelectedTab())
	m, _ = press(t, m, "3")
	assert.Equal(t, TabNetwork, m.SelectedTab())
}

func TestHandleKey_SwitchTabResetsCursor(t *testing.T) {
	m := loaded(t, newFakeBackend())
	m, _ = press(t, m, "down")
	require.Equal(t, 1, m.Selected())

	m, _ = press(t, m, "5")
	assert.Equal(t, 0, m.Selected())
}

func TestHandleKey_SelectionBounds(t *testing.T) {
	m := loaded(t, newFakeBackend())

	m, _ = press(t, m, "up")
	assert.Equal(t, 0, m.Selected())
	m, _ = press(t, m, "j")
	m, _ = press(t, m, "j")
	assert.Equal(t, 1, m.Selected(), "two light groups")
	m, _ = press(t, m, "k")
	assert.Equal(t, 0, m.Selected())
}

func TestHandleKey_ToggleLightGroup(t *testing.T) {
	b := newFakeBackend()
	m := loaded(t, b)

	m, cmd := press(t, m, "enter")
	assert.Equal(t, "Office off...", m.notice)
	assert.Equal(t, 1, m.busy)
	m = run(t, m, cmd)
	assert.Equal(t, "Office off done", m.notice)

	m, _ = press(t, m, "down")
	_, cmd = press(t, m, " ")
	run(t, m, cmd)

	assert.Equal(t, []string{"group office off", "group kitchen on"}, b.Calls())
}

func TestHandleKey_HomeShortcuts(t *testing.T) {
	b := newFakeBackend()
	m := loaded(t, b)

	_, cmd := press(t, m, "o")
	run(t, m, cmd)
	_, cmd = press(t, m, "g")
	run(t, m, cmd)
	assert.Equal(t, []string{"lights off", "garage"}, b.Calls())

	// Shortcuts are scoped to the home tab.
	m, _ = press(t, m, "2")
	_, cmd = press(t, m, "g")
	assert.Nil(t, cmd)
	assert.Len(t, b.Calls(), 2)
}

func TestHandleKey_PrinterButtons(t *testing.T) {
	b := newFakeBackend()
	m := loaded(t, b)
	m, _ = press(t, m, "5")

	m, _ = press(t, m, "right")
	assert.Equal(t, 1, m.button)
	m, _ = press(t, m, "left")
	m, _ = press(t, m, "left")
	assert.Equal(t, len(viewmodel.PrinterButtons)-1, m.button, "wraps around")

	m, _ = press(t, m, "l")
	_, cmd := press(t, m, "enter")
	run(t, m, cmd)
	assert.Equal(t, []string{"press x1c_0123 pause_printing"}, b.Calls())
}

func TestHandleKey_EnterWithNothingSelected(t *testing.T) {
	b := newFakeBackend()
	b.home.LightGroups = nil
	m := loaded(t, b)

	_, cmd := press(t, m, "enter")
	assert.Nil(t, cmd)

	m, _ = press(t, m, "3")
	_, cmd = press(t, m, "enter")
	assert.Nil(t, cmd)
	assert.Empty(t, b.Calls())
}

func TestHandleKey_Refresh(t *testing.T) {
	b := newFakeBackend()
	m := loaded(t, b)

	m, _ = press(t, m, "r")
	assert.Equal(t, 1, b.refreshes)
	assert.Equal(t, "Refreshing all sources", m.notice)
}

func TestHandleKey_Help(t *testing.T) {
	m := loaded(t, newFakeBackend())

	m, _ = press(t, m, "?")
	assert.True(t, m.showHelp)
	m, _ = press(t, m, "esc")
	assert.False(t, m.showHelp)
	m, _ = press(t, m, "?")
	m, _ = press(t, m, "?")
	assert.False(t, m.showHelp)
}

func TestHandleKey_Quit(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		t.Run(key, func(t *testing.T) {
			m := loaded(t, newFakeBackend())
			m, cmd := press(t, m, key)
			assert.True(t, m.quitting)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())
		})
	}
}

func TestHandleKey_Unhandled(t *testing.T) {
	m := loaded(t, newFakeBackend())
	handled, cmd := m.HandleKeyMsg(keyMsg("z"))
	assert.False(t, handled)
	assert.Nil(t, cmd)
}
