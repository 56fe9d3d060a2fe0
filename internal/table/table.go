package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind is the inferred type of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindBool
	KindDatetime
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindBool:
		return "bool"
	case KindDatetime:
		return "datetime"
	default:
		return "text"
	}
}

// Column is a named sequence of scalar values of a single kind.
// Exactly one of the value slices is populated, selected by Kind.
type Column struct {
	Name string
	Kind Kind
	// Floats holds numeric values; NaN marks a missing cell.
	Floats []float64
	// Texts holds text values; Valid marks which cells are present.
	Texts []string
	// Bools holds boolean values; Valid marks which cells are present.
	Bools []bool
	// Times holds datetime values; Valid marks which cells are present.
	Times []time.Time
	// Valid is nil when every cell is present. Unused for numeric columns.
	Valid []bool
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case KindNumeric:
		return len(c.Floats)
	case KindBool:
		return len(c.Bools)
	case KindDatetime:
		return len(c.Times)
	default:
		return len(c.Texts)
	}
}

// IsMissing reports whether cell i holds no value.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == KindNumeric {
		return math.IsNaN(c.Floats[i])
	}
	return c.Valid != nil && !c.Valid[i]
}

// Format renders cell i for display. Missing cells render as "NaN".
func (c *Column) Format(i int) string {
	if c.IsMissing(i) {
		return "NaN"
	}
	switch c.Kind {
	case KindNumeric:
		return FormatFloat(c.Floats[i])
	case KindBool:
		if c.Bools[i] {
			return "True"
		}
		return "False"
	case KindDatetime:
		t := c.Times[i]
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04:05")
	default:
		return c.Texts[i]
	}
}

// FormatFloat renders integral values without a fractional part.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// Table is an immutable, ordered set of equal-length columns.
type Table struct {
	cols []Column
	rows int
}

// ErrLengthMismatch is returned when columns differ in length.
var ErrLengthMismatch = errors.New("all arrays must be of the same length")

// New assembles a table from columns. All columns must have the same length.
func New(cols ...Column) (*Table, error) {
	t := &Table{cols: cols}
	for i := range cols {
		n := cols[i].Len()
		if i == 0 {
			t.rows = n
			continue
		}
		if n != t.rows {
			return nil, fmt.Errorf("%w: column %q has %d values, expected %d", ErrLengthMismatch, cols[i].Name, n, t.rows)
		}
	}
	return t, nil
}

// Rows returns the row count.
func (t *Table) Rows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Column returns the i-th column.
func (t *Table) Column(i int) *Column { return &t.cols[i] }

// Names returns all column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i := range t.cols {
		out[i] = t.cols[i].Name
	}
	return out
}

// Lookup returns the first column with the given name.
func (t *Table) Lookup(name string) (*Column, bool) {
	for i := range t.cols {
		if t.cols[i].Name == name {
			return &t.cols[i], true
		}
	}
	return nil, false
}

// NumericColumns returns the names of numeric columns in their original order.
func (t *Table) NumericColumns() []string {
	var out []string
	for i := range t.cols {
		if t.cols[i].Kind == KindNumeric {
			out = append(out, t.cols[i].Name)
		}
	}
	return out
}

// Preview is a rectangular, display-ready excerpt of a table.
type Preview struct {
	Headers []string
	Rows    [][]string
}

// Head returns the first maxCols columns and first maxRows rows.
// Non-positive limits mean no limit.
func (t *Table) Head(maxRows, maxCols int) Preview {
	nc := len(t.cols)
	if maxCols > 0 && nc > maxCols {
		nc = maxCols
	}
	nr := t.rows
	if maxRows > 0 && nr > maxRows {
		nr = maxRows
	}
	p := Preview{Headers: make([]string, nc), Rows: make([][]string, nr)}
	for j := 0; j < nc; j++ {
		p.Headers[j] = t.cols[j].Name
	}
	for i := 0; i < nr; i++ {
		row := make([]string, nc)
		for j := 0; j < nc; j++ {
			row[j] = t.cols[j].Format(i)
		}
		p.Rows[i] = row
	}
	return p
}
