package loader

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/scritchley/orc"
)

func TestLoadORC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.orc")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	schema, err := orc.ParseSchema("struct<a:double,n:bigint,s:string>")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	w, err := orc.NewWriter(f, orc.SetSchema(schema))
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	rows := []struct {
		a float64
		n int64
		s string
	}{{1.5, 10, "u"}, {2.5, 20, "v"}, {3.5, 30, "w"}}
	for _, r := range rows {
		if err := w.Write(r.a, r.n, r.s); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	f.Close()

	tb := mustLoad(t, path)
	if !reflect.DeepEqual(tb.Names(), []string{"a", "n", "s"}) || tb.Rows() != 3 {
		t.Fatalf("names=%v rows=%d", tb.Names(), tb.Rows())
	}
	if got := tb.NumericColumns(); !reflect.DeepEqual(got, []string{"a", "n"}) {
		t.Fatalf("numeric columns = %v", got)
	}
	if tb.Column(1).Floats[2] != 30 || tb.Column(2).Format(1) != "v" {
		t.Fatalf("unexpected cells %v %v", tb.Column(1).Floats, tb.Column(2).Texts)
	}
}
