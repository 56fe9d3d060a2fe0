package loader

import (
	"strings"

	"github.com/KaramelBytes/datalens/internal/matfile"
	"github.com/KaramelBytes/datalens/internal/table"
)

// readMAT turns every array variable into one column of its flattened
// values. Cell and struct arrays become text columns with one cell per
// element. Variables of differing sizes make the load fail.
func readMAT(path string) (*table.Table, error) {
	vars, err := matfile.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cols := make([]table.Column, 0, len(vars))
	for i := range vars {
		v := &vars[i]
		switch {
		case v.Class == matfile.ClassChar:
			cols = append(cols, table.TextColumn(v.Name, v.Strings))
		case v.Class == matfile.ClassCell:
			cells := v.Cells()
			texts := make([]string, len(cells))
			for k := range cells {
				texts[k] = matText(&cells[k])
			}
			cols = append(cols, table.TextColumn(v.Name, texts))
		case v.Class == matfile.ClassStruct:
			recs := v.Records()
			texts := make([]string, len(recs))
			for k, rec := range recs {
				texts[k] = matRecord(rec)
			}
			cols = append(cols, table.TextColumn(v.Name, texts))
		case v.Logical:
			flat := v.Flatten()
			vals := make([]any, len(flat))
			for k, f := range flat {
				vals[k] = f != 0
			}
			cols = append(cols, table.FromValues(v.Name, vals))
		default:
			cols = append(cols, table.NumericColumn(v.Name, v.Flatten()))
		}
	}
	return table.New(cols...)
}

// matText renders a nested array as a single cell: scalars as their value,
// vectors in brackets, cells in braces.
func matText(v *matfile.Variable) string {
	switch {
	case v.Class == matfile.ClassChar:
		return strings.Join(v.Strings, " ")
	case v.Class == matfile.ClassCell:
		cells := v.Cells()
		parts := make([]string, len(cells))
		for i := range cells {
			parts[i] = matText(&cells[i])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case v.Class == matfile.ClassStruct:
		recs := v.Records()
		if len(recs) == 1 {
			return matRecord(recs[0])
		}
		parts := make([]string, len(recs))
		for i, rec := range recs {
			parts[i] = matRecord(rec)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case v.Numeric():
		flat := v.Flatten()
		parts := make([]string, len(flat))
		for i, f := range flat {
			switch {
			case !v.Logical:
				parts[i] = table.FormatFloat(f)
			case f != 0:
				parts[i] = "True"
			default:
				parts[i] = "False"
			}
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	return ""
}

func matRecord(fields []matfile.Variable) string {
	parts := make([]string, len(fields))
	for i := range fields {
		parts[i] = matText(&fields[i])
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
