package rdata

import (
	"fmt"
	"math"
	"time"
)

// Frame is a data.frame decoded into named columns of Go values.
type Frame struct {
	// Name is the workspace variable the frame was bound to, if any.
	Name    string
	Names   []string
	Columns [][]any
}

// FirstDataFrame returns o when it is a data.frame, or the first
// data.frame bound in a save() workspace.
func FirstDataFrame(o *Object) (*Frame, error) {
	if o == nil {
		return nil, ErrNoDataFrame
	}
	if o.Type == ListType && o.Inherits("data.frame") {
		return DataFrame("", o)
	}
	if o.Type == PairType {
		for _, p := range o.Pairs {
			if v := p.Value; v != nil && v.Type == ListType && v.Inherits("data.frame") {
				return DataFrame(p.Tag, v)
			}
		}
	}
	return nil, ErrNoDataFrame
}

// DataFrame converts a data.frame list. Columns that are not atomic vectors
// are skipped.
func DataFrame(name string, o *Object) (*Frame, error) {
	names := o.Attr("names").Names()
	f := &Frame{Name: name}
	rows := -1
	for i, col := range o.Items {
		vals, ok := Values(col)
		if !ok {
			continue
		}
		colName := fmt.Sprintf("V%d", i+1)
		if i < len(names) && names[i] != "" {
			colName = names[i]
		}
		if rows >= 0 && len(vals) != rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", colName, len(vals), rows)
		}
		rows = len(vals)
		f.Names = append(f.Names, colName)
		f.Columns = append(f.Columns, vals)
	}
	return f, nil
}

// Values converts an atomic vector into Go values, applying the factor,
// Date and POSIXct classes. NA becomes nil.
func Values(o *Object) ([]any, bool) {
	if o == nil {
		return nil, false
	}
	switch o.Type {
	case IntType:
		out := make([]any, len(o.Ints))
		levels := o.Attr("levels")
		switch {
		case levels != nil && o.Inherits("factor"):
			for i, v := range o.Ints {
				if v != NAInteger && int(v) >= 1 && int(v) <= len(levels.Strings) && !levels.Strings[v-1].NA {
					out[i] = levels.Strings[v-1].S
				}
			}
		case o.Inherits("Date"), o.Inherits("POSIXct"):
			scale := dateScale(o)
			for i, v := range o.Ints {
				if v != NAInteger {
					out[i] = unixTime(float64(v) * scale)
				}
			}
		default:
			for i, v := range o.Ints {
				if v != NAInteger {
					out[i] = v
				}
			}
		}
		return out, true
	case LogicalType:
		out := make([]any, len(o.Ints))
		for i, v := range o.Ints {
			if v != NAInteger {
				out[i] = v != 0
			}
		}
		return out, true
	case RealType, ComplexType:
		out := make([]any, len(o.Reals))
		timed := o.Inherits("Date") || o.Inherits("POSIXct")
		scale := dateScale(o)
		for i, v := range o.Reals {
			switch {
			case math.IsNaN(v):
			case timed && !math.IsInf(v, 0):
				out[i] = unixTime(v * scale)
			default:
				out[i] = v
			}
		}
		return out, true
	case StringType:
		out := make([]any, len(o.Strings))
		for i, s := range o.Strings {
			if !s.NA {
				out[i] = s.S
			}
		}
		return out, true
	}
	return nil, false
}

// dateScale returns seconds per unit: days for Date, seconds for POSIXct.
func dateScale(o *Object) float64 {
	if o.Inherits("Date") {
		return 86400
	}
	return 1
}

func unixTime(sec float64) time.Time {
	whole := math.Floor(sec)
	return time.Unix(int64(whole), int64((sec-whole)*1e9)).UTC()
}
