package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/datalens/internal/table"
)

// StatNames are the statistic labels in describe order.
var StatNames = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// ColumnStats captures descriptive statistics for one numeric column.
type ColumnStats struct {
	Name  string
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q1    float64
	Q2    float64
	Q3    float64
	Max   float64
}

// Values returns the statistics in StatNames order.
func (c ColumnStats) Values() []float64 {
	return []float64{float64(c.Count), c.Mean, c.Std, c.Min, c.Q1, c.Q2, c.Q3, c.Max}
}

// MarshalJSON encodes NaN statistics as null and infinities as the
// strings "inf" and "-inf".
func (c ColumnStats) MarshalJSON() ([]byte, error) {
	out := map[string]any{"name": c.Name}
	for i, v := range c.Values() {
		switch {
		case math.IsNaN(v):
			out[StatNames[i]] = nil
		case math.IsInf(v, 1):
			out[StatNames[i]] = "inf"
		case math.IsInf(v, -1):
			out[StatNames[i]] = "-inf"
		default:
			out[StatNames[i]] = v
		}
	}
	return json.Marshal(out)
}

// Summary is the describe() result over the numeric columns of a table.
type Summary struct {
	Name string        `json:"name,omitempty"`
	Rows int           `json:"rows"`
	Cols []ColumnStats `json:"columns"`
}

// Describe computes per-numeric-column statistics in original column order.
// Missing values are excluded; std uses the sample (n-1) denominator and is
// NaN when fewer than two values are present.
func Describe(t *table.Table) *Summary {
	s := &Summary{Rows: t.Rows()}
	for i := 0; i < t.NumCols(); i++ {
		c := t.Column(i)
		if c.Kind != table.KindNumeric {
			continue
		}
		s.Cols = append(s.Cols, describeColumn(c.Name, c.Floats))
	}
	return s
}

func describeColumn(name string, vals []float64) ColumnStats {
	st := ColumnStats{Name: name}
	sorted := FiniteValues(vals)
	sort.Float64s(sorted)
	// Welford update
	var mean, m2, sum float64
	for i, x := range sorted {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
		sum += x
	}
	if math.IsInf(sum, 0) || math.IsNaN(sum) {
		mean = sum / float64(len(sorted))
	}
	st.Count = len(sorted)
	if st.Count == 0 {
		nan := math.NaN()
		st.Mean, st.Std, st.Min, st.Q1, st.Q2, st.Q3, st.Max = nan, nan, nan, nan, nan, nan, nan
		return st
	}
	st.Mean = mean
	st.Std = math.NaN()
	if st.Count > 1 {
		st.Std = math.Sqrt(m2 / float64(st.Count-1))
	}
	st.Min = sorted[0]
	st.Max = sorted[len(sorted)-1]
	st.Q1 = Quantile(sorted, 0.25)
	st.Q2 = Quantile(sorted, 0.5)
	st.Q3 = Quantile(sorted, 0.75)
	return st
}

// FiniteValues returns a copy of vals without NaN entries.
func FiniteValues(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Quantile returns the q-th quantile of sorted values using linear
// interpolation between closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// String renders the summary as a right-aligned monospace block with one
// row per numeric column.
func (s *Summary) String() string {
	if len(s.Cols) == 0 {
		return "(no numeric columns)\n"
	}
	cells := make([][]string, len(s.Cols))
	nameW := 0
	widths := make([]int, len(StatNames))
	for j, h := range StatNames {
		widths[j] = len(h)
	}
	for i, c := range s.Cols {
		if len(c.Name) > nameW {
			nameW = len(c.Name)
		}
		row := make([]string, len(StatNames))
		for j, v := range c.Values() {
			row[j] = formatStat(v)
			if len(row[j]) > widths[j] {
				widths[j] = len(row[j])
			}
		}
		cells[i] = row
	}
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", nameW))
	for j, h := range StatNames {
		b.WriteString(fmt.Sprintf("  %*s", widths[j], h))
	}
	b.WriteString("\n")
	for i, c := range s.Cols {
		b.WriteString(fmt.Sprintf("%-*s", nameW, c.Name))
		for j, v := range cells[i] {
			b.WriteString(fmt.Sprintf("  %*s", widths[j], v))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Markdown renders a compact report suitable for standalone docs.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[SUMMARY STATISTICS]\n")
	if s.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", s.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Numeric columns: %d\n", len(s.Cols)))
	if len(s.Cols) == 0 {
		return b.String()
	}
	b.WriteString("\n| column | ")
	b.WriteString(strings.Join(StatNames, " | "))
	b.WriteString(" |\n|---")
	b.WriteString(strings.Repeat("|---", len(StatNames)))
	b.WriteString("|\n")
	for _, c := range s.Cols {
		b.WriteString("| ")
		b.WriteString(safeVal(safeName(c.Name)))
		for _, v := range c.Values() {
			b.WriteString(" | ")
			b.WriteString(formatStat(v))
		}
		b.WriteString(" |\n")
	}
	return b.String()
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.6f", v)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
