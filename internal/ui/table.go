package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn is a titled fixed-width column.
type TableColumn struct {
	Title string
	Width int
}

// NewTable returns an unfocused bubbles table sized to its rows.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.Foreground(ColorPrimary)
	// Nothing is focused, so the selected row should look like any other.
	s.Selected = s.Cell
	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders rows as static text.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}
	return NewTable(columns, tableRows).View()
}

// Source health values for StatusRow.Status.
const (
	HealthOK            = "ok"
	HealthFailed        = "failed"
	HealthNotConfigured = "not_configured"
	HealthPending       = "pending"
)

// StatusRow is one line of RenderStatusTable.
type StatusRow struct {
	Status  string
	Name    string
	Updated string
	Detail  string
}

// RenderStatusTable renders a source health listing.
func RenderStatusTable(rows []StatusRow) string {
	if len(rows) == 0 {
		return "No sources"
	}

	ok := lipgloss.NewStyle().Foreground(ColorSuccess)
	bad := lipgloss.NewStyle().Foreground(ColorError)
	warn := lipgloss.NewStyle().Foreground(ColorWarning)
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorMuted)

	var b strings.Builder
	b.WriteString(header.Render("  " + padRight("SOURCE", 18) + padRight("UPDATED", 12) + "DETAIL"))
	b.WriteString("\n")
	for _, row := range rows {
		icon, detail := Muted(SymbolPending), Muted(row.Detail)
		switch row.Status {
		case HealthOK:
			icon = ok.Render(SymbolComplete)
		case HealthFailed:
			icon, detail = bad.Render(SymbolFail), bad.Render(row.Detail)
		case HealthNotConfigured:
			icon = warn.Render(SymbolSkipped)
		}
		b.WriteString(icon + " " + padRight(row.Name, 18) + padRight(row.Updated, 12) + detail + "\n")
	}
	return b.String()
}

func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
