package loader

import (
	"fmt"

	"github.com/scritchley/orc"

	"github.com/KaramelBytes/datalens/internal/table"
)

func readORC(path string) (*table.Table, error) {
	r, err := orc.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open orc: %w", err)
	}
	defer r.Close()

	names := r.Schema().Columns()
	vals := make([][]any, len(names))
	c := r.Select(names...)
	defer c.Close()
	for c.Stripes() {
		for c.Next() {
			row := c.Row()
			for j := range vals {
				var v any
				if j < len(row) {
					v = row[j]
				}
				vals[j] = append(vals[j], v)
			}
		}
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("read orc: %w", err)
	}
	cols := make([]table.Column, len(names))
	for j, name := range names {
		cols[j] = table.FromValues(name, vals[j])
	}
	return table.New(cols...)
}
