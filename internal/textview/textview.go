// Package textview renders tables and summaries for the terminal.
package textview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"

	"github.com/KaramelBytes/datalens/internal/analysis"
	"github.com/KaramelBytes/datalens/internal/table"
)

var (
	colorText    = lipgloss.Color("#e6edf3")
	colorTextDim = lipgloss.Color("#8b949e")
	colorBlue    = lipgloss.Color("#58a6ff")
	colorGreen   = lipgloss.Color("#3fb950")
	colorDivider = lipgloss.Color("#30363d")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	metaStyle   = lipgloss.NewStyle().Foreground(colorTextDim)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorGreen).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(colorText).Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(colorDivider)
)

// Preview renders a preview grid under a "name  rows × cols" title line.
// Numeric-looking cells are right aligned.
func Preview(name string, t *table.Table, p table.Preview) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(name))
	b.WriteString("  ")
	b.WriteString(metaStyle.Render(fmt.Sprintf("%d rows × %d columns", t.Rows(), t.NumCols())))
	b.WriteString("\n")
	if len(p.Headers) == 0 {
		b.WriteString(metaStyle.Render("(no columns)"))
		b.WriteString("\n")
		return b.String()
	}
	numeric := make([]bool, len(p.Headers))
	for j, h := range p.Headers {
		if c, ok := t.Lookup(h); ok && c.Kind == table.KindNumeric {
			numeric[j] = true
		}
	}
	tbl := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(p.Headers...).
		Rows(p.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == lgtable.HeaderRow:
				return headerStyle
			case col < len(numeric) && numeric[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})
	b.WriteString(tbl.Render())
	b.WriteString("\n")
	if hidden := t.NumCols() - len(p.Headers); hidden > 0 {
		b.WriteString(metaStyle.Render(fmt.Sprintf("… %d more columns", hidden)))
		b.WriteString("\n")
	}
	return b.String()
}

// Summary renders the describe() block with a styled title.
func Summary(s *analysis.Summary) string {
	var b strings.Builder
	title := "Summary Statistics"
	if s.Name != "" {
		title += " · " + s.Name
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(s.String())
	return b.String()
}
