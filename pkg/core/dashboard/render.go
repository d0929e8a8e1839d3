package dashboard

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"financial_dashboard/pkg/core/chart"
	"financial_dashboard/pkg/core/series"
)

// Styles used by the text renderer.
type Styles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Muted   lipgloss.Style
	Good    lipgloss.Style
	Bad     lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
}

// DefaultStyles returns the terminal palette.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2196F3")),
		Header:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:    lipgloss.NewStyle().Padding(0, 1),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Good:    lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		Bad:     lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")),
	}
}

// PlainStyles renders without color, for pipes and tests.
func PlainStyles() Styles {
	p := lipgloss.NewStyle()
	return Styles{
		Title:   p,
		Header:  p.Padding(0, 1),
		Cell:    p.Padding(0, 1),
		Muted:   p,
		Good:    p,
		Bad:     p,
		Error:   p,
		Success: p,
	}
}

// RenderTable lays out headers and rows in aligned columns.
func RenderTable(st Styles, headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				if w := lipgloss.Width(cell); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}
	for i := range widths {
		widths[i] += 2
	}

	var sb strings.Builder
	line := func(style lipgloss.Style, cells []string) {
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(style.Width(widths[i]).Render(cell))
			if i < len(widths)-1 {
				sb.WriteString(st.Muted.Render("|"))
			}
		}
		sb.WriteString("\n")
	}

	line(st.Header, headers)
	for i, w := range widths {
		sb.WriteString(st.Muted.Render(strings.Repeat("-", w)))
		if i < len(widths)-1 {
			sb.WriteString(st.Muted.Render("+"))
		}
	}
	sb.WriteString("\n")
	for _, row := range rows {
		line(st.Cell, row)
	}
	return sb.String()
}

// RenderStatus renders the status line.
func RenderStatus(st Styles, s Status) string {
	switch s.Kind {
	case StatusError:
		return st.Error.Render("✗ " + s.Message)
	case StatusSuccess:
		return st.Success.Render("✓ " + s.Message)
	default:
		return st.Muted.Render(s.Message)
	}
}

// RenderKPIs renders the KPI cards as a table.
func RenderKPIs(st Styles, cards []KPICard) string {
	if len(cards) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(cards))
	for i, c := range cards {
		badge := c.Badge
		if c.HasTarget() {
			if c.Favorable {
				badge = st.Good.Render(badge)
			} else {
				badge = st.Bad.Render(badge)
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("Tab %d", i+1),
			c.Label,
			fmt.Sprintf("%s (%s)", c.CurrentText, orDash(c.CurrentYear)),
			fmt.Sprintf("%s (%s)", c.PriorText, orDash(c.PriorYear)),
			badge,
			bar(c.FillPct),
		})
	}
	return RenderTable(st, []string{"", "KPI", "VALUE", "TARGET", "", "0%   50%  100%  150%"}, rows)
}

// bar draws a 20-cell fill for a percentage in [0,150].
func bar(fill float64) string {
	const cells = 20
	n := int(fill / series.MaxFillPct * cells)
	if n < 0 {
		n = 0
	}
	if n > cells {
		n = cells
	}
	return strings.Repeat("█", n) + strings.Repeat("░", cells-n)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// RenderChart prints a chart spec as a year-by-dataset grid.
func RenderChart(st Styles, spec chart.Spec) string {
	headers := []string{"Year"}
	for _, d := range spec.Datasets {
		headers = append(headers, fmt.Sprintf("%s [%s]", d.Label, d.Kind))
	}
	rows := make([][]string, len(spec.Labels))
	for i, y := range spec.Labels {
		row := []string{y}
		for _, d := range spec.Datasets {
			var v interface{}
			if i < len(d.Data) && d.Data[i] != nil {
				v = *d.Data[i]
			}
			row = append(row, FormatValue(v))
		}
		rows[i] = row
	}
	title := spec.Title
	if title == "" {
		title = spec.ID
	}
	return st.Title.Render(title) + "  " + st.Muted.Render("#"+spec.ID) + "\n" + RenderTable(st, headers, rows)
}

// Render writes the whole dashboard as text.
func Render(w io.Writer, st Styles, v *View, status Status) error {
	var sb strings.Builder
	sb.WriteString(RenderStatus(st, status))
	sb.WriteString("\n")
	if v == nil {
		_, err := io.WriteString(w, sb.String())
		return err
	}

	header := v.SourceFile
	if v.Symbol != "" {
		header = v.Symbol + "  " + st.Muted.Render(v.SourceFile)
	}
	sb.WriteString("\n" + st.Title.Render(header) + "\n\n")

	sb.WriteString(RenderTable(st, v.Table.Columns, v.Table.Rows))
	if k := RenderKPIs(st, v.KPIs); k != "" {
		sb.WriteString("\n" + k)
	}
	for _, c := range v.Charts {
		sb.WriteString("\n" + RenderChart(st, c))
	}

	if len(v.RatioPair) > 0 {
		tabs := make([]string, len(chart.RatioTabs))
		for i, t := range chart.RatioTabs {
			if t.Name == v.RatioTab {
				tabs[i] = "[" + t.Name + "]"
			} else {
				tabs[i] = t.Name
			}
		}
		sb.WriteString("\n" + st.Muted.Render(strings.Join(tabs, "  ")) + "\n")
		for _, c := range v.RatioPair {
			sb.WriteString(RenderChart(st, c))
		}
	}

	for _, g := range v.Groups {
		sb.WriteString(fmt.Sprintf("\n%s\n", st.Title.Render(fmt.Sprintf("%s (%d)", g.Category, len(g.Charts)))))
		for _, c := range g.Charts {
			sb.WriteString(RenderChart(st, c))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// RenderAnalysis lays out the AI panel. A degraded panel shows the error.
func RenderAnalysis(st Styles, a Analysis) string {
	var sb strings.Builder
	sb.WriteString(st.Title.Render("AI analysis") + "\n")
	if a.Degraded {
		msg := "AI analysis unavailable"
		if a.Error != "" {
			msg += ": " + a.Error
		}
		sb.WriteString(st.Error.Render(msg) + "\n")
		return sb.String()
	}
	if a.Text != "" {
		sb.WriteString(a.Text + "\n")
		return sb.String()
	}
	fields := []struct{ label, text string }{
		{"Quality", a.Quality},
		{"Profitability & Efficiency", a.Profitability},
		{"Valuation", a.Valuation},
		{"Risks", a.Risks},
		{"View", a.View},
		{"Suitable For", a.SuitableFor},
	}
	for _, f := range fields {
		sb.WriteString(st.Header.Render(f.label) + "\n" + orDash(f.text) + "\n\n")
	}
	return sb.String()
}
