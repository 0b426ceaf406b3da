package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// RenderSparkline draws the last width points of data scaled between their
// own min and max. A flat series renders at mid height. The line is colored
// by ThresholdColor of the last value, so pass percentages.
func RenderSparkline(data []float64, width int) string {
	line := Sparkline(data, width)
	if line == "" {
		return ""
	}
	last := data[len(data)-1]
	return lipgloss.NewStyle().Foreground(ThresholdColor(last)).Render(line)
}

// Sparkline is RenderSparkline without color, for counts and rates.
func Sparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	lo, hi := data[0], data[0]
	for _, v := range data {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	levels := len(sparkBlocks)
	var sb strings.Builder
	for _, v := range data {
		level := levels / 2
		if hi > lo {
			level = int((v - lo) / (hi - lo) * float64(levels-1))
			level = max(0, min(level, levels-1))
		}
		sb.WriteRune(sparkBlocks[level])
	}
	return sb.String()
}
