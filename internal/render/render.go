// Package render formats tickets and dashboards for the terminal.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spec-kit/queue-repair/internal/domain"
	"github.com/spec-kit/queue-repair/internal/service"
)

const (
	maxCellWidth = 32
	barWidth     = 30
	columnGap    = "  "
)

var tableHeader = []string{
	"ID", "Device", "Serial", "Issue", "Submitted By", "Contact", "Status", "Date Repaired", "Date Submitted",
}

var statusOrder = []domain.TicketStatus{
	domain.TicketStatusPending,
	domain.TicketStatusRepaired,
	domain.TicketStatusCanceled,
}

// Theme holds the styles used by a Renderer.
type Theme struct {
	Header   lipgloss.Style
	Faint    lipgloss.Style
	Title    lipgloss.Style
	Label    lipgloss.Style
	Pending  lipgloss.Style
	Repaired lipgloss.Style
	Canceled lipgloss.Style
}

// Renderer builds styled strings. Colors are dropped automatically when the
// output is not a terminal.
type Renderer struct {
	theme Theme
}

// NewRenderer detects the color profile of out.
func NewRenderer(out io.Writer) *Renderer {
	r := lipgloss.NewRenderer(out)
	return &Renderer{theme: Theme{
		Header:   r.NewStyle().Bold(true).Underline(true),
		Faint:    r.NewStyle().Faint(true),
		Title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Label:    r.NewStyle().Bold(true),
		Pending:  r.NewStyle().Foreground(lipgloss.Color("11")),
		Repaired: r.NewStyle().Foreground(lipgloss.Color("10")),
		Canceled: r.NewStyle().Foreground(lipgloss.Color("9")),
	}}
}

func (r *Renderer) statusStyle(status domain.TicketStatus) lipgloss.Style {
	switch status {
	case domain.TicketStatusRepaired:
		return r.theme.Repaired
	case domain.TicketStatusCanceled:
		return r.theme.Canceled
	default:
		return r.theme.Pending
	}
}

// Table renders tickets as aligned columns followed by summary, when non-empty.
func (r *Renderer) Table(tickets []domain.Ticket, summary string) string {
	rows := make([][]string, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, []string{
			fmt.Sprint(t.ID), t.Device, t.Serial, t.Issue, t.Submitted,
			t.Contact, string(t.Status), t.DateRepaired, t.DateSubmitted,
		})
	}

	widths := make([]int, len(tableHeader))
	for i, h := range tableHeader {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], min(lipgloss.Width(cell), maxCellWidth))
		}
	}

	var b strings.Builder
	header := make([]string, len(tableHeader))
	for i, h := range tableHeader {
		header[i] = r.theme.Header.Render(pad(h, widths[i]))
	}
	b.WriteString(strings.TrimRight(strings.Join(header, columnGap), " "))
	b.WriteByte('\n')

	for ri, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = pad(truncate(cell, maxCellWidth), widths[i])
		}
		status := statusIndex(tableHeader)
		cells[status] = r.statusStyle(tickets[ri].Status).Render(cells[status])
		b.WriteString(strings.TrimRight(strings.Join(cells, columnGap), " "))
		b.WriteByte('\n')
	}

	if summary != "" {
		b.WriteString(r.theme.Faint.Render(summary))
		b.WriteByte('\n')
	}
	return b.String()
}

// Details renders the copyable details block with bold labels.
func (r *Renderer) Details(t domain.Ticket) string {
	lines := strings.Split(service.Details(t), "\n")
	for i, line := range lines {
		label, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		lines[i] = r.theme.Label.Render(label+":") + " " + value
	}
	return strings.Join(lines, "\n") + "\n"
}

// Dashboard renders per-status counts with proportional bars and the recent activity list.
func (r *Renderer) Dashboard(d service.Dashboard) string {
	var b strings.Builder
	b.WriteString(r.theme.Title.Render("Repair Dashboard"))
	b.WriteString("\n\n")

	pct, ok := d.Stats.Percentages()
	if !ok {
		b.WriteString(r.theme.Faint.Render("No data available"))
		b.WriteString("\n")
	} else {
		for _, status := range statusOrder {
			filled := int(math.Round(pct[status] / 100 * barWidth))
			bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
			fmt.Fprintf(&b, "%s %s %5.1f%% (%d)\n",
				pad(string(status), 9),
				r.statusStyle(status).Render(bar),
				pct[status],
				d.Stats.Count(status))
		}
		fmt.Fprintf(&b, "Total: %d\n", d.Stats.Total)
	}

	b.WriteString("\n")
	b.WriteString(r.theme.Title.Render("Recent Activity"))
	b.WriteString("\n")
	if len(d.Recent) == 0 {
		b.WriteString(r.theme.Faint.Render("Nothing yet"))
		b.WriteString("\n")
	}
	for _, t := range d.Recent {
		b.WriteString(r.statusStyle(t.Status).Render(service.ActivityLine(t)))
		b.WriteString("\n")
	}
	return b.String()
}

func statusIndex(header []string) int {
	for i, h := range header {
		if h == "Status" {
			return i
		}
	}
	return 0
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
