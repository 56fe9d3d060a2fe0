package loader

import (
	"github.com/KaramelBytes/datalens/internal/rdata"
	"github.com/KaramelBytes/datalens/internal/table"
)

// readRData loads the first data.frame of an R workspace.
func readRData(path string) (*table.Table, error) {
	obj, err := rdata.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := rdata.FirstDataFrame(obj)
	if err != nil {
		return nil, err
	}
	cols := make([]table.Column, len(f.Names))
	for i, name := range f.Names {
		cols[i] = table.FromValues(name, f.Columns[i])
	}
	return table.New(cols...)
}
