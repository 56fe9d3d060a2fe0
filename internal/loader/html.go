package loader

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/KaramelBytes/datalens/internal/table"
)

var errNoTables = errors.New("no tables found")

// maxColspan bounds how many columns one cell may span.
const maxColspan = 1000

// readHTML parses the first <table> in the document. The header comes from
// <thead>, or from the first row when it holds only <th> cells. Cells with a
// colspan are repeated across the columns they span.
func readHTML(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	tbl := doc.Find("table").First()
	if tbl.Length() == 0 {
		return nil, errNoTables
	}

	var header []string
	var rows [][]string
	tbl.Find("tr").Each(func(i int, tr *goquery.Selection) {
		// skip rows belonging to nested tables
		if tr.ParentsFiltered("table").First().Get(0) != tbl.Get(0) {
			return
		}
		cells := tr.ChildrenFiltered("th, td")
		if cells.Length() == 0 {
			return
		}
		row := htmlRow(cells)
		inHead := tr.ParentsFiltered("thead").Length() > 0
		allTH := cells.Filter("td").Length() == 0
		if header == nil && len(rows) == 0 && (inHead || allTH) {
			header = row
			return
		}
		if inHead {
			return
		}
		rows = append(rows, row)
	})
	if header == nil && len(rows) == 0 {
		return nil, errNoTables
	}
	width := len(header)
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	if header == nil {
		header = make([]string, width)
		for i := range header {
			header[i] = strconv.Itoa(i)
		}
	}
	for len(header) < width {
		header = append(header, "")
	}
	return table.FromRecords(header, rows)
}

func htmlRow(cells *goquery.Selection) []string {
	var row []string
	cells.Each(func(_ int, c *goquery.Selection) {
		text := strings.Join(strings.Fields(c.Text()), " ")
		span := 1
		if v, ok := c.Attr("colspan"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 1 {
				span = min(n, maxColspan)
			}
		}
		for k := 0; k < span; k++ {
			row = append(row, text)
		}
	})
	return row
}
