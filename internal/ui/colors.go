package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Semantic colors.
const (
	ColorSuccess lipgloss.Color = "2"
	ColorError   lipgloss.Color = "1"
	ColorWarning lipgloss.Color = "3"
	ColorInfo    lipgloss.Color = "6"
)

// Text colors.
const (
	ColorPrimary   lipgloss.Color = "7"
	ColorSecondary lipgloss.Color = "4"
	ColorMuted     lipgloss.Color = "8"
)

// Accent cycles through these while a spinner runs.
var Accent = []lipgloss.Color{"5", "13", "6", "14"}

// Thresholds for percentage coloring.
const (
	WarnPercent     = 60.0
	CriticalPercent = 80.0
)

// ThresholdColor colors a 0-100 percentage: green, then amber at
// WarnPercent, then red at CriticalPercent.
func ThresholdColor(percent float64) lipgloss.Color {
	switch {
	case percent >= CriticalPercent:
		return ColorError
	case percent >= WarnPercent:
		return ColorWarning
	default:
		return ColorSuccess
	}
}

// DisableColors switches lipgloss to plain ASCII output.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// Muted renders s in the muted color.
func Muted(s string) string {
	return lipgloss.NewStyle().Foreground(ColorMuted).Render(s)
}

// Bold renders s bold.
func Bold(s string) string {
	return lipgloss.NewStyle().Bold(true).Render(s)
}
