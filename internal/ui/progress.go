package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderProgressBar draws "[████░░░░]  50%". percent is clamped to 0-100
// and the bar is colored by ThresholdColor.
func RenderProgressBar(percent float64, width int) string {
	bar := progressBar(percent, width)
	if bar == "" {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(ThresholdColor(clampPercent(percent)))
	return style.Render("["+bar+"]") + fmt.Sprintf(" %3.0f%%", clampPercent(percent))
}

// RenderPlainBar draws the bar in a fixed color, for progress that is not a
// load (print jobs, downloads).
func RenderPlainBar(percent float64, width int, color lipgloss.Color) string {
	bar := progressBar(percent, width)
	if bar == "" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(color).Render(bar) + fmt.Sprintf(" %3.0f%%", clampPercent(percent))
}

func progressBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(clampPercent(percent) / 100 * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func clampPercent(p float64) float64 {
	return max(0, min(p, 100))
}
