package loader

import (
	"fmt"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"

	"github.com/KaramelBytes/datalens/internal/table"
)

// readPickle accepts two payload shapes: a dict mapping column names to
// lists, and a list of dict records.
func readPickle(path string) (*table.Table, error) {
	obj, err := pickle.Load(path)
	if err != nil {
		return nil, fmt.Errorf("unpickle: %w", err)
	}
	switch v := obj.(type) {
	case *types.Dict:
		return pickleColumns(v)
	case *types.List:
		return pickleRecords(v)
	default:
		return nil, fmt.Errorf("unsupported pickle payload %T", obj)
	}
}

func pickleColumns(d *types.Dict) (*table.Table, error) {
	var cols []table.Column
	for _, k := range d.Keys() {
		raw, _ := d.Get(k)
		vals, ok := pickleSeq(raw)
		if !ok {
			return nil, fmt.Errorf("column %v is %T, want a list", k, raw)
		}
		cols = append(cols, table.FromValues(fmt.Sprint(k), vals))
	}
	return table.New(cols...)
}

func pickleRecords(l *types.List) (*table.Table, error) {
	var names []string
	index := map[string]int{}
	var rows []map[string]any
	for i := 0; i < l.Len(); i++ {
		d, ok := l.Get(i).(*types.Dict)
		if !ok {
			return nil, fmt.Errorf("record %d is %T, want a dict", i, l.Get(i))
		}
		row := map[string]any{}
		for _, k := range d.Keys() {
			name := fmt.Sprint(k)
			if _, seen := index[name]; !seen {
				index[name] = len(names)
				names = append(names, name)
			}
			row[name], _ = d.Get(k)
		}
		rows = append(rows, row)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no columns to parse from file")
	}
	cols := make([]table.Column, len(names))
	for j, name := range names {
		vals := make([]any, len(rows))
		for i, r := range rows {
			vals[i] = r[name]
		}
		cols[j] = table.FromValues(name, vals)
	}
	return table.New(cols...)
}

func pickleSeq(v any) ([]any, bool) {
	switch s := v.(type) {
	case *types.List:
		out := make([]any, s.Len())
		for i := range out {
			out[i] = s.Get(i)
		}
		return out, true
	case *types.Tuple:
		out := make([]any, s.Len())
		for i := range out {
			out[i] = s.Get(i)
		}
		return out, true
	}
	return nil, false
}
