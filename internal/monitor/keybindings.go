package monitor

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/homestats/internal/viewmodel"
)

// Tab is one dashboard page.
type Tab int

const (
	TabHome Tab = iota
	TabInfra
	TabNetwork
	TabMedia
	TabPrinters
	tabCount
)

// String returns the tab label.
func (t Tab) String() string {
	switch t {
	case TabHome:
		return "Home"
	case TabInfra:
		return "Infra"
	case TabNetwork:
		return "Network"
	case TabMedia:
		return "Media"
	case TabPrinters:
		return "Printers"
	default:
		return "Home"
	}
}

// Next cycles forward through the tabs.
func (t Tab) Next() Tab {
	return (t + 1) % tabCount
}

// Prev cycles backward through the tabs.
func (t Tab) Prev() Tab {
	return (t + tabCount - 1) % tabCount
}

// Key bindings.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyRefresh     = "r"
	KeyNextTab     = "tab"
	KeyPrevTab     = "shift+tab"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeyButtonPrev  = "left"
	KeyButtonPrevH = "h"
	KeyButtonNext  = "right"
	KeyButtonNextL = "l"
	KeyActivate    = "enter"
	KeyActivateAlt = " "
	KeyLightsOff   = "o"
	KeyGarage      = "g"
	KeyClose       = "esc"
	KeyToggleHelp  = "?"
)

// HandleKeyMsg processes keyboard input. It returns true if the key was
// handled.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key == KeyClose {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyRefresh:
		m.backend.RefreshAll()
		m.setNotice("Refreshing all sources")
		return true, nil

	case KeyNextTab:
		m.setTab(m.tab.Next())
		return true, nil

	case KeyPrevTab:
		m.setTab(m.tab.Prev())
		return true, nil

	case "1", "2", "3", "4", "5":
		m.setTab(Tab(key[0] - '1'))
		return true, nil

	case KeySelectPrev, KeySelectPrevK:
		if m.selected > 0 {
			m.selected--
		}
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		if m.selected < m.selectableCount()-1 {
			m.selected++
		}
		return true, nil

	case KeyButtonPrev, KeyButtonPrevH:
		if m.tab == TabPrinters {
			m.button = (m.button + len(viewmodel.PrinterButtons) - 1) % len(viewmodel.PrinterButtons)
			return true, nil
		}

	case KeyButtonNext, KeyButtonNextL:
		if m.tab == TabPrinters {
			m.button = (m.button + 1) % len(viewmodel.PrinterButtons)
			return true, nil
		}

	case KeyActivate, KeyActivateAlt:
		return true, m.activateSelected()

	case KeyLightsOff:
		if m.tab == TabHome {
			return true, m.runCommand("All lights off", m.backend.AllLightsOff)
		}

	case KeyGarage:
		if m.tab == TabHome {
			return true, m.runCommand("Garage door", m.backend.ToggleGarage)
		}
	}

	return false, nil
}

// activateSelected toggles the selected light group on the home tab or
// presses the chosen button on the selected printer.
func (m *Model) activateSelected() tea.Cmd {
	switch m.tab {
	case TabHome:
		groups := m.snap.home.LightGroups
		if m.selected < 0 || m.selected >= len(groups) {
			return nil
		}
		g := groups[m.selected]
		on := !g.IsOn
		label := fmt.Sprintf("%s %s", g.Name, onOff(on))
		return m.runCommand(label, func(ctx context.Context) error {
			return m.backend.SetLightGroup(ctx, g.ID, on)
		})

	case TabPrinters:
		printers := m.snap.printers
		if m.selected < 0 || m.selected >= len(printers) {
			return nil
		}
		p := printers[m.selected]
		button := viewmodel.PrinterButtons[m.button]
		label := fmt.Sprintf("%s: %s", p.Name, buttonLabel(button))
		return m.runCommand(label, func(ctx context.Context) error {
			return m.backend.PressPrinterButton(ctx, p.PrinterID, button)
		})
	}
	return nil
}

// selectableCount is the number of rows the cursor moves over on the
// current tab.
func (m Model) selectableCount() int {
	switch m.tab {
	case TabHome:
		return len(m.snap.home.LightGroups)
	case TabPrinters:
		return len(m.snap.printers)
	default:
		return 0
	}
}

func (m *Model) setTab(t Tab) {
	if t < 0 || t >= tabCount || t == m.tab {
		return
	}
	m.tab = t
	m.selected = 0
	m.button = 0
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func buttonLabel(button string) string {
	switch button {
	case viewmodel.ButtonPause:
		return "Pause"
	case viewmodel.ButtonResume:
		return "Resume"
	case viewmodel.ButtonStop:
		return "Stop"
	case viewmodel.ButtonForceRefresh:
		return "Refresh"
	default:
		return button
	}
}
