package textview

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/datalens/internal/analysis"
	"github.com/KaramelBytes/datalens/internal/table"
)

func TestPreviewShowsHeadersAndShape(t *testing.T) {
	tb, err := table.FromRecords(
		[]string{"a", "b", "c", "d", "e", "f"},
		[][]string{{"1", "x", "2", "3", "4", "5"}, {"6", "y", "7", "8", "9", "10"}},
	)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	out := Preview("data.csv", tb, tb.Head(10, 5))
	for _, want := range []string{"data.csv", "2 rows × 6 columns", "a", "e", "x", "… 1 more columns"} {
		if !strings.Contains(out, want) {
			t.Fatalf("preview missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "│ f") {
		t.Fatalf("sixth column should be hidden:\n%s", out)
	}
}

func TestSummaryTitle(t *testing.T) {
	tb, _ := table.New(table.NumericColumn("v", []float64{1, 2, 3}))
	s := analysis.Describe(tb)
	s.Name = "v.csv"
	out := Summary(s)
	if !strings.Contains(out, "Summary Statistics · v.csv") || !strings.Contains(out, "count") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}
