package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/homestats/internal/app"
	"github.com/rileyhilliard/homestats/internal/ui"
)

// Dashboard color palette - neon on a dark surface
const (
	ColorDarkBg    = lipgloss.Color("#0A0A0F")
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	ColorHealthy  = lipgloss.Color("#39FF14") // Neon green
	ColorWarning  = lipgloss.Color("#FFAA00") // Electric amber
	ColorCritical = lipgloss.Color("#FF0055") // Hot red-pink

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent    = lipgloss.Color("#FF2E97") // Neon pink
	ColorAccentDim = lipgloss.Color("#BF40FF") // Neon purple
	ColorGraph     = lipgloss.Color("#00FFFF") // Neon cyan
)

// Thresholds for percentage metrics.
const (
	WarningThreshold  = 70.0
	CriticalThreshold = 90.0
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	TabActiveStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Underline(true).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ColorHealthy)
)

// Health glyphs shown next to each source in the header.
const (
	GlyphOK            = "◉"
	GlyphFailed        = "◌"
	GlyphPending       = "◐"
	GlyphNotConfigured = "○"
)

// HealthGlyph returns the styled glyph for a source health status.
func HealthGlyph(status string) string {
	switch status {
	case app.HealthOK:
		return lipgloss.NewStyle().Foreground(ColorHealthy).Render(GlyphOK)
	case app.HealthFailed:
		return lipgloss.NewStyle().Foreground(ColorCritical).Render(GlyphFailed)
	case app.HealthNotConfigured:
		return lipgloss.NewStyle().Foreground(ColorTextMuted).Render(GlyphNotConfigured)
	default:
		return lipgloss.NewStyle().Foreground(ColorWarning).Render(GlyphPending)
	}
}

// MetricColor maps a percentage to green, amber or red.
func MetricColor(percent float64) lipgloss.Color {
	switch {
	case percent >= CriticalThreshold:
		return ColorCritical
	case percent >= WarningThreshold:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// MetricStyle returns a style colored for the metric.
func MetricStyle(percent float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(MetricColor(percent))
}

// ProgressBar renders a bracketless bar colored by threshold.
func ProgressBar(width int, percent float64) string {
	return coloredBar(width, percent, MetricColor(percent))
}

// NeutralBar renders a bar in the accent color, for values where high is
// not bad (print progress, block rate).
func NeutralBar(width int, percent float64) string {
	return coloredBar(width, percent, ColorGraph)
}

func coloredBar(width int, percent float64, color lipgloss.Color) string {
	if width < 1 {
		width = 1
	}
	percent = max(0, min(percent, 100))

	filled := min(int(percent/100.0*float64(width)), width)
	bar := strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
	return lipgloss.NewStyle().Foreground(color).Render(bar)
}

// Graph renders a cyan sparkline of the last width points.
func Graph(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Foreground(ColorGraph).Render(ui.Sparkline(data, width))
}

// SectionHeader renders the top border of a section with a title on the
// left and a value on the right.
// Format: ╭─ Title ──────────────────────── Value ╮
func SectionHeader(title, value string, width int) string {
	width = max(width, 10)

	leftWidth := 3 + lipgloss.Width(title) + 1
	rightWidth := 1 + lipgloss.Width(value) + 2
	fill := max(width-leftWidth-rightWidth, 1)

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	titleStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(ColorGraph).Bold(true)

	return borderStyle.Render("╭─ ") +
		titleStyle.Render(title) +
		borderStyle.Render(" "+strings.Repeat("─", fill)+" ") +
		valueStyle.Render(value) +
		borderStyle.Render(" ╮")
}

// SectionFooter renders the bottom border of a section.
func SectionFooter(width int) string {
	width = max(width, 2)
	return lipgloss.NewStyle().Foreground(ColorBorder).Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionContentLine renders one bordered content line padded to width.
// Content wider than the section is truncated.
func SectionContentLine(content string, width int) string {
	width = max(width, 4)
	border := lipgloss.NewStyle().Foreground(ColorBorder).Render("│")

	inner := width - 4
	if lipgloss.Width(content) > inner {
		content = lipgloss.NewStyle().MaxWidth(inner).Render(content)
	}
	padding := max(inner-lipgloss.Width(content), 0)

	return border + " " + content + strings.Repeat(" ", padding) + " " + border
}

// Section renders a titled box around lines.
func Section(title, value string, lines []string, width int) string {
	var b strings.Builder
	b.WriteString(SectionHeader(title, value, width))
	b.WriteString("\n")
	for _, line := range lines {
		b.WriteString(SectionContentLine(line, width))
		b.WriteString("\n")
	}
	b.WriteString(SectionFooter(width))
	return b.String()
}
