package loader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/datalens/internal/table"
)

// readXLSX reads the first sheet of an .xlsx workbook; the first non-blank
// row is the header.
func readXLSX(path string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromGrid(rows)
}

// readXLS reads the first sheet of a legacy BIFF .xls workbook.
func readXLS(path string) (*table.Table, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("cannot read first sheet")
	}
	var grid [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		// read through LastCol and trim the blank tail
		cells := make([]string, 0, row.LastCol()+1)
		for j := 0; j <= row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		grid = append(grid, cells)
	}
	return fromGrid(grid)
}

// fromGrid turns a ragged cell grid into a table. Leading and trailing
// blank rows are dropped, the first remaining row is the header, and blank
// rows between data rows stay as all-missing rows. Cells to the right of
// the header become "Unnamed: <i>" columns.
func fromGrid(grid [][]string) (*table.Table, error) {
	first, last := -1, -1
	for i, r := range grid {
		if isBlankRow(r) {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return nil, errors.New("no columns to parse from sheet")
	}
	rows := grid[first : last+1]
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	header := make([]string, width)
	copy(header, rows[0])
	return table.FromRecords(header, rows[1:])
}

func isBlankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
