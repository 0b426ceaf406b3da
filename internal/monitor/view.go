package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/homestats/internal/app"
)

// renderDashboard renders header, tab bar, the active tab and the footer.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch m.tab {
	case TabHome:
		b.WriteString(m.renderHome())
	case TabInfra:
		b.WriteString(m.renderInfra())
	case TabNetwork:
		b.WriteString(m.renderNetwork())
	case TabMedia:
		b.WriteString(m.renderMedia())
	case TabPrinters:
		b.WriteString(m.renderPrinters())
	}

	b.WriteString("\n")
	if m.notice != "" {
		style := NoticeStyle
		if m.noticeErr {
			style = ErrorTextStyle
		}
		b.WriteString(style.Render(" " + m.notice))
		b.WriteString("\n")
	}
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader shows the title, one health glyph per source and the age
// of the last read.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("homestats")

	var sources []string
	for _, h := range m.snap.health {
		sources = append(sources, HealthGlyph(h.Status)+" "+h.Name)
	}

	var updated string
	switch secs := m.SecondsSinceUpdate(); {
	case m.lastUpdate.IsZero():
		updated = "loading"
	case secs <= 0:
		updated = "just now"
	default:
		updated = fmt.Sprintf("%ds ago", secs)
	}

	stats := LabelStyle.Render(" | " + strings.Join(sources, "  ") + " | " + updated)
	return HeaderStyle.Render(title + stats)
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, tabCount)
	for t := TabHome; t < tabCount; t++ {
		label := fmt.Sprintf("%d %s", int(t)+1, t)
		if t == m.tab {
			tabs = append(tabs, TabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, TabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderFooter() string {
	hints := []string{"q quit", "tab/1-5 switch", "r refresh"}
	switch m.tab {
	case TabHome:
		hints = append(hints, "↑↓ select", "enter toggle", "o all off", "g garage")
	case TabPrinters:
		hints = append(hints, "↑↓ printer", "←→ button", "enter press")
	}
	hints = append(hints, "? help")
	return FooterStyle.Render(strings.Join(hints, " | "))
}

// healthLine explains why a tab has nothing to show.
func (m Model) healthLine(source string) string {
	for _, h := range m.snap.health {
		if h.Name != source {
			continue
		}
		switch h.Status {
		case app.HealthNotConfigured:
			return LabelStyle.Render("Not configured. Run 'homestats config edit' to add it.")
		case app.HealthFailed:
			return ErrorTextStyle.Render(h.Error)
		}
	}
	return LabelStyle.Render("Waiting for data...")
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// FormatUptime renders seconds as "3d 4h", "4h 12m" or "12m".
func FormatUptime(seconds int64) string {
	if seconds <= 0 {
		return "-"
	}
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

func formatTemp(t *float64) string {
	if t == nil {
		return "--"
	}
	return fmt.Sprintf("%.1f°", *t)
}

func cursor(selected bool) string {
	if selected {
		return SelectedStyle.Render("▸ ")
	}
	return "  "
}
