package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/kshedden/datareader"

	"github.com/KaramelBytes/datalens/internal/table"
)

// statReader is the part of the datareader readers the loader drives.
type statReader interface {
	ColumnNames() []string
	RowCount() int
	Read(rows int) ([]*datareader.Series, error)
}

const statChunk = 10000

func readSAS(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	r, err := datareader.NewSAS7BDATReader(f)
	if err != nil {
		return nil, fmt.Errorf("open sas7bdat: %w", err)
	}
	return readStat(r)
}

func readStata(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	r, err := datareader.NewStataReader(f)
	if err != nil {
		return nil, fmt.Errorf("open dta: %w", err)
	}
	return readStat(r)
}

func readStat(r statReader) (*table.Table, error) {
	names := r.ColumnNames()
	vals := make([][]any, len(names))
	total := r.RowCount()
	read := 0
	for read < total {
		chunk, err := r.Read(statChunk)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rows: %w", err)
		}
		if len(chunk) == 0 {
			break
		}
		n := 0
		for j, s := range chunk {
			if j >= len(vals) || s == nil {
				continue
			}
			got := seriesValues(s)
			if len(got) > n {
				n = len(got)
			}
			vals[j] = append(vals[j], got...)
		}
		if n == 0 {
			break
		}
		read += n
	}
	cols := make([]table.Column, len(names))
	for j, name := range names {
		cols[j] = table.FromValues(name, vals[j])
	}
	return table.New(cols...)
}

// seriesValues flattens a series' typed slice into Go values, honoring its
// missing mask.
func seriesValues(s *datareader.Series) []any {
	rv := reflect.ValueOf(s.Data())
	if rv.Kind() != reflect.Slice {
		return nil
	}
	missing := s.Missing()
	out := make([]any, rv.Len())
	for i := range out {
		if missing != nil && i < len(missing) && missing[i] {
			continue
		}
		out[i] = rv.Index(i).Interface()
	}
	return out
}
