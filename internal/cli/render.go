package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/spice-dashboard/internal/export"
)

// statusColumns name the columns whose values StyleStatus colors.
var statusColumns = map[string]bool{"Status": true, "Severity": true}

// RenderTable renders an export table for the terminal: a title, the
// key/value block, then each section as aligned columns.
func RenderTable(t export.Table) string {
	var b strings.Builder
	b.WriteString(FormatTitle(t.Title))
	b.WriteString("\n")

	for _, kv := range t.Meta {
		b.WriteString(MetaKeyStyle.Render(kv[0]))
		b.WriteString(kv[1])
		b.WriteString("\n")
	}

	for _, sec := range t.Sections {
		b.WriteString("\n")
		if sec.Title != "" {
			b.WriteString(BoldStyle.Render(sec.Title))
			b.WriteString("\n")
		}
		if len(sec.Rows) == 0 {
			b.WriteString(SubtleStyle.Render("(none)"))
			b.WriteString("\n")
			continue
		}
		b.WriteString(renderSection(sec))
	}
	return b.String()
}

// PrintTable writes RenderTable's output to w.
func PrintTable(w io.Writer, t export.Table) error {
	_, err := fmt.Fprint(w, RenderTable(t))
	return err
}

func renderSection(sec export.Section) string {
	widths := make([]int, len(sec.Header))
	for i, h := range sec.Header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range sec.Rows {
		for i := range widths {
			if i < len(row) {
				widths[i] = max(widths[i], lipgloss.Width(row[i]))
			}
		}
	}

	var b strings.Builder
	cells := make([]string, len(sec.Header))
	for i, h := range sec.Header {
		cells[i] = TableHeaderStyle.Inherit(TableCellStyle).Width(widths[i] + 2).Render(h)
	}
	b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " "))
	b.WriteString("\n")

	for _, row := range sec.Rows {
		for i := range cells {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			if statusColumns[sec.Header[i]] {
				value = StyleStatus(value)
			}
			cells[i] = TableCellStyle.Width(widths[i] + 2).Render(value)
		}
		b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " "))
		b.WriteString("\n")
	}
	return b.String()
}
