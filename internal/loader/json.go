package loader

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/KaramelBytes/datalens/internal/table"
)

// readJSON accepts three layouts, all order-preserving:
//   - records: [{"a":1,"b":2}, ...]
//   - rows: [[1,2], ...] with columns named "0", "1", ...
//   - columns: {"a":{"0":1,"1":2}, ...} or {"a":[1,2], ...}
func readJSON(path string) (*table.Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if !gjson.ValidBytes(b) {
		return nil, errors.New("invalid JSON document")
	}
	root := gjson.ParseBytes(b)
	switch {
	case root.IsArray():
		return jsonArray(root.Array())
	case root.IsObject():
		return jsonColumns(root)
	default:
		return nil, errors.New("expected a JSON array or object at the top level")
	}
}

func jsonArray(items []gjson.Result) (*table.Table, error) {
	if len(items) == 0 {
		return table.New()
	}
	switch {
	case items[0].IsObject():
		var names []string
		index := map[string]int{}
		var records []map[string]gjson.Result
		for i, it := range items {
			if !it.IsObject() {
				return nil, fmt.Errorf("element %d is not an object", i)
			}
			rec := map[string]gjson.Result{}
			it.ForEach(func(k, v gjson.Result) bool {
				key := k.String()
				if _, ok := index[key]; !ok {
					index[key] = len(names)
					names = append(names, key)
				}
				rec[key] = v
				return true
			})
			records = append(records, rec)
		}
		cols := make([]table.Column, len(names))
		for j, name := range names {
			vals := make([]any, len(records))
			for i, rec := range records {
				if v, ok := rec[name]; ok {
					vals[i] = jsonValue(v)
				}
			}
			cols[j] = table.FromValues(name, vals)
		}
		return table.New(cols...)
	case items[0].IsArray():
		width := 0
		rows := make([][]gjson.Result, len(items))
		for i, it := range items {
			if !it.IsArray() {
				return nil, fmt.Errorf("element %d is not an array", i)
			}
			rows[i] = it.Array()
			if len(rows[i]) > width {
				width = len(rows[i])
			}
		}
		cols := make([]table.Column, width)
		for j := 0; j < width; j++ {
			vals := make([]any, len(rows))
			for i, r := range rows {
				if j < len(r) {
					vals[i] = jsonValue(r[j])
				}
			}
			cols[j] = table.FromValues(strconv.Itoa(j), vals)
		}
		return table.New(cols...)
	default:
		return nil, errors.New("expected an array of objects or an array of arrays")
	}
}

func jsonColumns(root gjson.Result) (*table.Table, error) {
	var names []string
	var bodies []gjson.Result
	root.ForEach(func(k, v gjson.Result) bool {
		names = append(names, k.String())
		bodies = append(bodies, v)
		return true
	})
	// Object-valued columns are aligned on the union of their index keys.
	var idx []string
	seen := map[string]struct{}{}
	for _, body := range bodies {
		if !body.IsObject() {
			continue
		}
		body.ForEach(func(k, _ gjson.Result) bool {
			key := k.String()
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				idx = append(idx, key)
			}
			return true
		})
	}
	cols := make([]table.Column, len(names))
	for j, body := range bodies {
		switch {
		case body.IsArray():
			arr := body.Array()
			vals := make([]any, len(arr))
			for i, v := range arr {
				vals[i] = jsonValue(v)
			}
			cols[j] = table.FromValues(names[j], vals)
		case body.IsObject():
			m := map[string]gjson.Result{}
			body.ForEach(func(k, v gjson.Result) bool {
				m[k.String()] = v
				return true
			})
			vals := make([]any, len(idx))
			for i, key := range idx {
				if v, ok := m[key]; ok {
					vals[i] = jsonValue(v)
				}
			}
			cols[j] = table.FromValues(names[j], vals)
		default:
			return nil, fmt.Errorf("column %q: all scalar values, an index is required", names[j])
		}
	}
	return table.New(cols...)
}

func jsonValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		return v.Float()
	case gjson.String:
		return v.String()
	default:
		return v.Raw
	}
}
