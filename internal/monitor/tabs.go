package monitor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/homestats/internal/app"
	"github.com/rileyhilliard/homestats/internal/source/media"
	"github.com/rileyhilliard/homestats/internal/util"
	"github.com/rileyhilliard/homestats/internal/viewmodel"
)

// maxListRows caps the media lists.
const maxListRows = 8

func (m Model) sourceOK(name string) bool {
	for _, h := range m.snap.health {
		if h.Name == name {
			return h.Status == app.HealthOK
		}
	}
	return false
}

func (m Model) renderHome() string {
	w := m.sectionWidth()
	home := m.snap.home
	var sections []string

	if !m.sourceOK(app.SourceDevices) {
		sections = append(sections, m.healthLine(app.SourceDevices))
	}

	garage := []string{LabelStyle.Render("Door ") + ValueStyle.Render(home.GarageDoor)}
	if home.GarageCameraURL != "" {
		garage = append(garage, LabelStyle.Render("Camera ")+home.GarageCameraURL)
	}
	sections = append(sections, Section("Garage", home.GarageDoor, garage, w))

	if len(home.Climate) > 0 {
		var lines []string
		for _, c := range home.Climate {
			line := fmt.Sprintf("%-18s %8s  ", c.Name, formatTemp(c.Temperature))
			lines = append(lines, line+Graph(m.history.Get("climate:"+c.EntityID, 0), w-36))
		}
		sections = append(sections, Section("Climate", "", lines, w))
	}

	if len(home.Weather) > 0 {
		var lines []string
		for _, wx := range home.Weather {
			line := fmt.Sprintf("%s %-14s %-16s %s", wx.Icon, wx.Location, wx.Condition, formatTemp(wx.Temperature))
			if wx.Humidity != nil {
				line += fmt.Sprintf("  %d%%", *wx.Humidity)
			}
			lines = append(lines, line)
		}
		sections = append(sections, Section("Weather", "", lines, w))
	}

	lights := make([]string, 0, len(home.LightGroups))
	for i, g := range home.LightGroups {
		status := LabelStyle.Render(g.StatusText())
		if g.IsOn {
			status = NoticeStyle.Render(g.StatusText())
		}
		name := fmt.Sprintf("%-20s", g.Name)
		if i == m.selected {
			name = SelectedStyle.Render(name)
		}
		lights = append(lights, cursor(i == m.selected)+name+" "+status)
	}
	if len(lights) == 0 {
		lights = append(lights, LabelStyle.Render("No light groups configured"))
	}
	sections = append(sections, Section("Lights", fmt.Sprintf("%d on", home.LightsOn), lights, w))

	return strings.Join(sections, "\n")
}

func (m Model) renderInfra() string {
	w := m.sectionWidth()
	if !m.snap.hasNode {
		return Section("Proxmox", "", []string{m.healthLine(app.SourceProxmox)}, w)
	}

	n := m.snap.node
	barWidth := max(w-30, 10)
	nodeLines := []string{
		fmt.Sprintf("%-6s %s %s", "CPU", ProgressBar(barWidth, n.CPUPercent), MetricStyle(n.CPUPercent).Render(fmt.Sprintf("%5.1f%%", n.CPUPercent))),
		fmt.Sprintf("%-6s %s %s", "Memory", ProgressBar(barWidth, n.MemoryPercent), MetricStyle(n.MemoryPercent).Render(fmt.Sprintf("%5.1f%%", n.MemoryPercent))),
	}
	if len(n.CPUHistory) > 0 {
		nodeLines = append(nodeLines, fmt.Sprintf("%-6s %s", "Hist", Graph(n.CPUHistory, barWidth)))
	}
	nodeLines = append(nodeLines,
		LabelStyle.Render("Uptime ")+FormatUptime(n.UptimeSeconds)+
			LabelStyle.Render("  Load ")+strings.Join(n.LoadAvg, " "),
		LabelStyle.Render("Net    ")+fmt.Sprintf("↓ %.1f Mbps  ↑ %.1f Mbps", n.NetInMbps, n.NetOutMbps),
	)
	if n.CPUModel != "" {
		nodeLines = append(nodeLines, LabelStyle.Render(fmt.Sprintf("%s (%d CPUs)", n.CPUModel, n.CPUs)))
	}
	value := n.Name
	if n.PVEVersion != "" {
		value += " " + n.PVEVersion
	}
	sections := []string{Section("Node", value, nodeLines, w)}

	g := m.snap.guests
	var guestLines []string
	appendGuests := func(kind string, rows []viewmodel.ResourceView, running bool) {
		for _, r := range rows {
			glyph := lipgloss.NewStyle().Foreground(ColorTextMuted).Render(GlyphNotConfigured)
			detail := LabelStyle.Render("stopped")
			if running {
				glyph = lipgloss.NewStyle().Foreground(ColorHealthy).Render(GlyphOK)
				detail = MetricStyle(r.CPUPercent).Render(fmt.Sprintf("cpu %5.1f%%", r.CPUPercent)) +
					"  " + MetricStyle(r.MemoryPercent).Render(fmt.Sprintf("mem %s/%s", formatBytes(r.MemUsed), formatBytes(r.MemMax))) +
					"  " + LabelStyle.Render("up "+FormatUptime(r.Uptime))
			}
			guestLines = append(guestLines, fmt.Sprintf("%s %-3s %5d %-20s %s", glyph, kind, r.VMID, r.Name, detail))
		}
	}
	appendGuests("vm", g.RunningVMs, true)
	appendGuests("ct", g.RunningContainers, true)
	appendGuests("vm", g.StoppedVMs, false)
	appendGuests("ct", g.StoppedContainers, false)
	if len(guestLines) == 0 {
		guestLines = append(guestLines, LabelStyle.Render("No guests"))
	}
	running := len(g.RunningVMs) + len(g.RunningContainers)
	sections = append(sections, Section("Guests", fmt.Sprintf("%d/%d running", running, g.Total()), guestLines, w))

	return strings.Join(sections, "\n")
}

func (m Model) renderNetwork() string {
	w := m.sectionWidth()
	if !m.snap.hasPihole {
		return Section("Pi-hole", "", []string{m.healthLine(app.SourcePihole)}, w)
	}

	p := m.snap.pihole
	barWidth := max(w-30, 10)
	lines := []string{
		LabelStyle.Render("Queries  ") + ValueStyle.Render(fmt.Sprintf("%d", p.TotalQueries)),
		LabelStyle.Render("Blocked  ") + ValueStyle.Render(fmt.Sprintf("%d", p.Blocked)) +
			"  " + NeutralBar(barWidth/2, p.BlockedPercent) + fmt.Sprintf(" %.1f%%", p.BlockedPercent),
		LabelStyle.Render("Clients  ") + fmt.Sprintf("%d", p.ActiveClients) +
			LabelStyle.Render("  Gravity ") + fmt.Sprintf("%d domains", p.DomainsBlocked),
		LabelStyle.Render("Cached   ") + fmt.Sprintf("%d", p.Cached) +
			LabelStyle.Render("  Forwarded ") + fmt.Sprintf("%d", p.Forwarded),
	}
	if len(p.TotalHistory) > 0 {
		lines = append(lines, LabelStyle.Render("Total    ")+Graph(p.TotalHistory, barWidth))
	}
	if len(p.BlockedHistory) > 0 {
		lines = append(lines, LabelStyle.Render("Blocked  ")+Graph(p.BlockedHistory, barWidth))
	}
	for _, name := range sortedKeys(p.Stale) {
		lines = append(lines, ErrorTextStyle.Render(name+" stale: "+p.Stale[name]))
	}
	return Section("Pi-hole", fmt.Sprintf("%.1f%% blocked", p.BlockedPercent), lines, w)
}

func (m Model) renderMedia() string {
	w := m.sectionWidth()
	if !m.snap.hasMedia {
		return Section("Media", "", []string{m.healthLine(app.SourceMedia)}, w)
	}

	snap := m.snap.media
	var sections []string

	if q := snap.Downloads; q != nil {
		var lines []string
		for i, d := range q.Slots {
			if i == maxListRows {
				break
			}
			pct := d.Progress * 100
			lines = append(lines, fmt.Sprintf("%s %5.1f%% %-30s %s", NeutralBar(12, pct), pct, util.Truncate(d.Name, 30), LabelStyle.Render(d.ETA)))
		}
		if len(lines) == 0 {
			lines = append(lines, LabelStyle.Render("Queue empty"))
		}
		value := q.Speed
		if q.Paused {
			value = "paused"
		}
		sections = append(sections, Section(fmt.Sprintf("Downloads (%d)", q.QueueCount), value, lines, w))
	}

	if len(snap.Upcoming) > 0 {
		var lines []string
		for i, e := range snap.Upcoming {
			if i == maxListRows {
				break
			}
			lines = append(lines, fmt.Sprintf("%s  %s S%02dE%02d %s",
				LabelStyle.Render(e.AirDate.Local().Format("Mon Jan 02")), e.SeriesTitle, e.SeasonNumber, e.EpisodeNumber, LabelStyle.Render(e.EpisodeTitle)))
		}
		sections = append(sections, Section("Upcoming", "", lines, w))
	}

	items := make([]media.PlexItem, 0, len(snap.RecentShows)+len(snap.RecentMovies))
	items = append(items, snap.RecentShows...)
	items = append(items, snap.RecentMovies...)
	recent := make([]string, 0, maxListRows)
	for _, item := range items {
		if len(recent) == maxListRows {
			break
		}
		title := item.Title
		if item.Year > 0 {
			title += fmt.Sprintf(" (%d)", item.Year)
		}
		recent = append(recent, fmt.Sprintf("%-6s %s", string(item.Kind), title))
	}
	if len(recent) > 0 {
		sections = append(sections, Section("Recently added", "", recent, w))
	}

	if len(snap.Movies) > 0 {
		var lines []string
		for i, mv := range snap.Movies {
			if i == maxListRows {
				break
			}
			state := LabelStyle.Render(mv.Status)
			if mv.HasFile {
				state = NoticeStyle.Render("downloaded")
			}
			lines = append(lines, fmt.Sprintf("%-36s %s", fmt.Sprintf("%s (%d)", util.Truncate(mv.Title, 28), mv.Year), state))
		}
		sections = append(sections, Section("Movies", "", lines, w))
	}

	if len(snap.Errors) > 0 {
		names := sortedKeys(snap.Errors)
		lines := make([]string, 0, len(names))
		for _, name := range names {
			lines = append(lines, ErrorTextStyle.Render(name+": "+snap.Errors[name]))
		}
		sections = append(sections, Section("Errors", "", lines, w))
	}

	if len(sections) == 0 {
		return Section("Media", "", []string{LabelStyle.Render("Nothing to show yet")}, w)
	}
	return strings.Join(sections, "\n")
}

func (m Model) renderPrinters() string {
	w := m.sectionWidth()
	if len(m.snap.printers) == 0 {
		return Section("Printers", "", []string{LabelStyle.Render("No printers. Add one with 'homestats printer add'.")}, w)
	}

	sections := make([]string, 0, len(m.snap.printers)+1)
	for i, p := range m.snap.printers {
		sections = append(sections, m.renderPrinter(p, i == m.selected, w))
	}

	buttons := make([]string, 0, len(viewmodel.PrinterButtons))
	for i, b := range viewmodel.PrinterButtons {
		label := "[" + buttonLabel(b) + "]"
		if i == m.button {
			label = SelectedStyle.Render(label)
		} else {
			label = LabelStyle.Render(label)
		}
		buttons = append(buttons, label)
	}
	sections = append(sections, " "+strings.Join(buttons, " "))
	return strings.Join(sections, "\n")
}

func (m Model) renderPrinter(p viewmodel.PrinterView, selected bool, w int) string {
	title := cursor(selected) + p.Name
	if !p.Online {
		return Section(title, "offline", []string{LabelStyle.Render("Printer is offline")}, w)
	}

	lines := []string{
		fmt.Sprintf("%s %3d%%  %s", NeutralBar(max(w-40, 10), float64(p.Progress)), p.Progress, LabelStyle.Render(p.Remaining)),
	}
	if p.TaskName != "" {
		lines = append(lines, LabelStyle.Render("Job    ")+util.Truncate(p.TaskName, w-12))
	}
	if p.TotalLayers > 0 {
		lines = append(lines, LabelStyle.Render("Layer  ")+fmt.Sprintf("%d/%d", p.CurrentLayer, p.TotalLayers))
	}
	lines = append(lines,
		LabelStyle.Render("Nozzle ")+fmt.Sprintf("%.0f°/%.0f°", p.NozzleTemp, p.NozzleTarget)+
			"  "+Graph(m.history.Get("nozzle:"+p.ID, 0), 20),
		LabelStyle.Render("Bed    ")+fmt.Sprintf("%.0f°/%.0f°", p.BedTemp, p.BedTarget),
		LabelStyle.Render("Fans   ")+fmt.Sprintf("part %d%%  chamber %d%%  aux %d%%", p.CoolingFan, p.ChamberFan, p.AuxFan),
	)
	if len(p.Trays) > 0 {
		trays := make([]string, 0, len(p.Trays))
		for _, t := range p.Trays {
			trays = append(trays, fmt.Sprintf("%d:%s", t.Number, t.Material))
		}
		line := LabelStyle.Render("AMS    ") + strings.Join(trays, "  ")
		if p.Humidity != "" {
			line += LabelStyle.Render("  humidity ") + p.Humidity
		}
		lines = append(lines, line)
	}

	return Section(title, p.PrintStatus, lines, w)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
