package table

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// missingMarkers are cell values treated as absent when inferring from text.
var missingMarkers = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-nan": {}, "-NaN": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "<NA>": {},
}

// IsMissingText reports whether s is one of the recognized missing markers.
func IsMissingText(s string) bool {
	_, ok := missingMarkers[strings.TrimSpace(s)]
	return ok
}

// FromRecords builds a table from a header and string rows, inferring the
// kind of every column. Short rows are padded with missing cells; a row with
// more cells than the header is an error.
func FromRecords(header []string, rows [][]string) (*Table, error) {
	names := NormalizeHeader(header)
	ncol := len(names)
	for i, r := range rows {
		if len(r) > ncol {
			return nil, fmt.Errorf("expected %d fields in row %d, saw %d", ncol, i+1, len(r))
		}
	}
	cols := make([]Column, ncol)
	cells := make([]string, len(rows))
	for j := 0; j < ncol; j++ {
		for i, r := range rows {
			if j < len(r) {
				cells[i] = r[j]
			} else {
				cells[i] = ""
			}
		}
		cols[j] = InferText(names[j], cells)
	}
	return New(cols...)
}

// NormalizeHeader names blank header cells "Unnamed: <i>" and mangles
// duplicates as name, name.1, name.2, ...
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[name]; ok {
			candidate := fmt.Sprintf("%s.%d", name, n)
			for {
				if _, taken := seen[candidate]; !taken {
					break
				}
				n++
				candidate = fmt.Sprintf("%s.%d", name, n)
			}
			seen[name] = n + 1
			seen[candidate] = 1
			name = candidate
		} else {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}

// InferText builds a column from string cells. A column whose non-missing
// cells all parse as numbers is numeric (an all-missing column is numeric
// too); one whose cells are all True/False is boolean; anything else is text.
func InferText(name string, cells []string) Column {
	numeric, boolean := true, true
	present := 0
	for _, s := range cells {
		if IsMissingText(s) {
			continue
		}
		present++
		v := strings.TrimSpace(s)
		if numeric {
			if _, ok := parseNumber(v); !ok {
				numeric = false
			}
		}
		if boolean {
			if _, ok := parseBool(v); !ok {
				boolean = false
			}
		}
		if !numeric && !boolean {
			break
		}
	}
	switch {
	case numeric:
		vals := make([]float64, len(cells))
		for i, s := range cells {
			if IsMissingText(s) {
				vals[i] = math.NaN()
				continue
			}
			vals[i], _ = parseNumber(s)
		}
		return Column{Name: name, Kind: KindNumeric, Floats: vals}
	case boolean && present > 0:
		vals := make([]bool, len(cells))
		valid := make([]bool, len(cells))
		for i, s := range cells {
			if IsMissingText(s) {
				continue
			}
			vals[i], _ = parseBool(strings.TrimSpace(s))
			valid[i] = true
		}
		return Column{Name: name, Kind: KindBool, Bools: vals, Valid: compactValid(valid)}
	default:
		vals := make([]string, len(cells))
		valid := make([]bool, len(cells))
		for i, s := range cells {
			if IsMissingText(s) {
				continue
			}
			vals[i] = s
			valid[i] = true
		}
		return Column{Name: name, Kind: KindText, Texts: vals, Valid: compactValid(valid)}
	}
}

// parseNumber parses a decimal number. Hex literals and underscore digit
// separators are text, even though strconv accepts them.
func parseNumber(s string) (float64, bool) {
	v := strings.TrimSpace(s)
	body := strings.TrimLeft(v, "+-")
	if strings.ContainsRune(body, '_') {
		return 0, false
	}
	if len(body) > 1 && body[0] == '0' && (body[1] == 'x' || body[1] == 'X') {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	}
	return false, false
}

// compactValid drops the mask when every cell is present.
func compactValid(valid []bool) []bool {
	for _, v := range valid {
		if !v {
			return valid
		}
	}
	return nil
}

type valueKind int

const (
	vkMissing valueKind = iota
	vkNumber
	vkBool
	vkTime
	vkOther
)

func classify(v any) valueKind {
	switch x := v.(type) {
	case nil:
		return vkMissing
	case float64:
		if math.IsNaN(x) {
			return vkMissing
		}
		return vkNumber
	case float32:
		if math.IsNaN(float64(x)) {
			return vkMissing
		}
		return vkNumber
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, *big.Int:
		return vkNumber
	case bool:
		return vkBool
	case time.Time:
		if x.IsZero() {
			return vkMissing
		}
		return vkTime
	default:
		return vkOther
	}
}

// FromValues builds a column from decoded Go values. nil (and NaN) cells are
// missing. Only Go numeric values make a numeric column; strings are never
// coerced. Mixed columns fall back to text.
func FromValues(name string, values []any) Column {
	kind := vkMissing
	for _, v := range values {
		k := classify(v)
		if k == vkMissing {
			continue
		}
		if kind == vkMissing {
			kind = k
			continue
		}
		if k != kind {
			kind = vkOther
			break
		}
	}
	n := len(values)
	switch kind {
	case vkMissing, vkNumber:
		vals := make([]float64, n)
		for i, v := range values {
			vals[i] = toFloat(v)
		}
		return Column{Name: name, Kind: KindNumeric, Floats: vals}
	case vkBool:
		vals := make([]bool, n)
		valid := make([]bool, n)
		for i, v := range values {
			if b, ok := v.(bool); ok {
				vals[i], valid[i] = b, true
			}
		}
		return Column{Name: name, Kind: KindBool, Bools: vals, Valid: compactValid(valid)}
	case vkTime:
		vals := make([]time.Time, n)
		valid := make([]bool, n)
		for i, v := range values {
			if t, ok := v.(time.Time); ok && !t.IsZero() {
				vals[i], valid[i] = t, true
			}
		}
		return Column{Name: name, Kind: KindDatetime, Times: vals, Valid: compactValid(valid)}
	default:
		vals := make([]string, n)
		valid := make([]bool, n)
		for i, v := range values {
			if classify(v) == vkMissing {
				continue
			}
			vals[i], valid[i] = toText(v), true
		}
		return Column{Name: name, Kind: KindText, Texts: vals, Valid: compactValid(valid)}
	}
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case nil:
		return math.NaN()
	case *big.Int:
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return math.NaN()
	}
	return f
}

func toText(v any) string {
	switch x := v.(type) {
	case float64:
		return FormatFloat(x)
	case float32:
		return FormatFloat(float64(x))
	case bool:
		if x {
			return "True"
		}
		return "False"
	case time.Time:
		return x.Format(time.RFC3339)
	case *big.Int:
		return x.String()
	case []byte:
		return string(x)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// NumericColumn builds a numeric column from float64 values.
func NumericColumn(name string, vals []float64) Column {
	return Column{Name: name, Kind: KindNumeric, Floats: vals}
}

// TextColumn builds a text column; empty strings are kept as values.
func TextColumn(name string, vals []string) Column {
	return Column{Name: name, Kind: KindText, Texts: vals}
}
