package gui

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"github.com/KaramelBytes/datalens/internal/table"
)

const columnWidth = 140

// previewGrid is a read-only table with a header row of column names and a
// header column of row numbers.
type previewGrid struct {
	table   *widget.Table
	preview table.Preview
}

func newPreviewGrid() *previewGrid {
	g := &previewGrid{}
	g.table = widget.NewTableWithHeaders(
		func() (int, int) {
			return len(g.preview.Rows), len(g.preview.Headers)
		},
		func() fyne.CanvasObject {
			l := widget.NewLabel("")
			l.Truncation = fyne.TextTruncateEllipsis
			return l
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(g.cell(id.Row, id.Col))
		},
	)
	g.table.CreateHeader = func() fyne.CanvasObject {
		l := widget.NewLabel("")
		l.TextStyle = fyne.TextStyle{Bold: true}
		return l
	}
	g.table.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		l := o.(*widget.Label)
		switch {
		case id.Row < 0 && id.Col >= 0:
			l.SetText(g.header(id.Col))
		case id.Col < 0 && id.Row >= 0:
			l.SetText(strconv.Itoa(id.Row))
		default:
			l.SetText("")
		}
	}
	return g
}

func (g *previewGrid) set(p table.Preview) {
	g.preview = p
	for j := range p.Headers {
		g.table.SetColumnWidth(j, columnWidth)
	}
	g.table.ScrollToTop()
	g.table.Refresh()
}

func (g *previewGrid) header(col int) string {
	if col < len(g.preview.Headers) {
		return g.preview.Headers[col]
	}
	return ""
}

func (g *previewGrid) cell(row, col int) string {
	if row < len(g.preview.Rows) && col < len(g.preview.Rows[row]) {
		return g.preview.Rows[row][col]
	}
	return ""
}

func formatStatus(name string, rows, cols, numeric int) string {
	return fmt.Sprintf("%s: %d rows × %d columns, %d numeric", name, rows, cols, numeric)
}
