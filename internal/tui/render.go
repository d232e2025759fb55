// Package tui renders resource tables in the terminal for hrctl.
package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/datatable"
)

const maxCellWidth = 32

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	focusStyle   = headerStyle.Reverse(true)
	cellStyle    = lipgloss.NewStyle()
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	titleStyle   = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	selectedItem = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
)

// printable drops the action column, which has nothing to show in a terminal.
func printable(headers []datatable.Header) []datatable.Header {
	out := make([]datatable.Header, 0, len(headers))
	for _, h := range headers {
		if h.Key != datatable.ActionKey {
			out = append(out, h)
		}
	}
	return out
}

// RenderTable draws a table view as aligned text. focus is the index of the
// highlighted header among printable columns, or -1.
func RenderTable(v datatable.View[core.Record], focus int) string {
	headers := printable(v.Headers)
	if len(headers) == 0 {
		return mutedStyle.Render(v.EmptyMessage)
	}

	labels := make([]string, len(headers))
	widths := make([]int, len(headers))
	for i, h := range headers {
		labels[i] = h.Label + sortGlyph(h)
		widths[i] = lipgloss.Width(labels[i])
	}

	cells := make([][]string, len(v.Items))
	for r, item := range v.Items {
		cells[r] = make([]string, len(headers))
		for i, h := range headers {
			text := truncate(item.Row.Text(h.Key), maxCellWidth)
			cells[r][i] = text
			widths[i] = max(widths[i], lipgloss.Width(text))
		}
	}

	var b strings.Builder
	head := make([]string, len(headers))
	for i, h := range headers {
		style := headerStyle
		if i == focus {
			style = focusStyle
		}
		head[i] = style.Width(widths[i]).Align(position(h.Align)).Render(labels[i])
	}
	b.WriteString(strings.Join(head, "  "))
	b.WriteByte('\n')

	switch v.Status {
	case datatable.StatusEmpty:
		b.WriteString(mutedStyle.Render(v.EmptyMessage))
		b.WriteByte('\n')
	case datatable.StatusLoading:
		b.WriteString(mutedStyle.Render("Loading records"))
		b.WriteByte('\n')
	default:
		for _, row := range cells {
			line := make([]string, len(headers))
			for i, h := range headers {
				line[i] = cellStyle.Width(widths[i]).Align(position(h.Align)).Render(row[i])
			}
			b.WriteString(strings.Join(line, "  "))
			b.WriteByte('\n')
		}
	}

	b.WriteString(mutedStyle.Render(Footer(v.Pagination)))
	return b.String()
}

// Footer describes the visible range and page position.
func Footer(pg datatable.Pagination) string {
	if pg.TotalRows == 0 {
		return "No records"
	}
	return "Showing " + strconv.Itoa(pg.From) + "–" + strconv.Itoa(pg.To) + " of " + strconv.Itoa(pg.TotalRows) +
		" · page " + strconv.Itoa(pg.Page) + "/" + strconv.Itoa(pg.TotalPages) +
		" · " + strconv.Itoa(pg.RowsPerPage) + " per page"
}

func sortGlyph(h datatable.Header) string {
	if !h.Active {
		return ""
	}
	if h.Direction == datatable.Desc {
		return " ▼"
	}
	return " ▲"
}

func position(a datatable.Align) lipgloss.Position {
	switch a {
	case datatable.AlignRight:
		return lipgloss.Right
	case datatable.AlignCenter:
		return lipgloss.Center
	default:
		return lipgloss.Left
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
