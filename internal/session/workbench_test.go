package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/KaramelBytes/datalens/internal/loader"
	"github.com/KaramelBytes/datalens/internal/plot"
)

func writeCSV(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func exampleCSV() string {
	var sb strings.Builder
	sb.WriteString("a,b,c\n")
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&sb, "%d,%d,label%d\n", i, i*i, i)
	}
	return sb.String()
}

func newWorkbench() *Workbench {
	opts := DefaultOptions()
	opts.Chart = plot.Options{Width: 300, Height: 200, Bins: 10}
	return New(loader.New(nil), nil, opts)
}

func TestExampleSession(t *testing.T) {
	w := newWorkbench()
	if err := w.Upload(writeCSV(t, t.TempDir(), "data.csv", exampleCSV())); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	tb, ok := w.Table()
	if !ok || tb.NumCols() != 3 || tb.Rows() != 12 {
		t.Fatalf("unexpected table after upload")
	}
	if got := w.Choices(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Choices = %v", got)
	}
	p, err := w.Preview()
	if err != nil || len(p.Rows) != 10 || len(p.Headers) != 3 {
		t.Fatalf("Preview = %+v, %v", p, err)
	}

	if err := w.SelectX("a"); err != nil {
		t.Fatalf("SelectX: %v", err)
	}
	ch, err := w.Analyze()
	if err != nil || ch.Title != "Box Plot of a" {
		t.Fatalf("box: %v %v", ch, err)
	}

	w.SetKind(plot.KindScatter)
	_ = w.SelectY("b")
	ch, err = w.Analyze()
	if err != nil || ch.Title != "Scatter Plot (a vs b)" {
		t.Fatalf("scatter: %v %v", ch, err)
	}

	s, err := w.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(s.Cols) != 2 || s.Name != "data.csv" {
		t.Fatalf("summary = %+v", s)
	}
}

func TestUploadResetsSelection(t *testing.T) {
	dir := t.TempDir()
	w := newWorkbench()
	first := writeCSV(t, dir, "one.csv", exampleCSV())
	second := writeCSV(t, dir, "two.csv", "p,q\n1,2\n3,4\n")
	for i := 0; i < 2; i++ {
		if err := w.Upload(first); err != nil {
			t.Fatalf("Upload: %v", err)
		}
		_ = w.SelectX("a")
		_ = w.SelectY("b")
		w.SetKind(plot.KindLine)
		if err := w.Upload(second); err != nil {
			t.Fatalf("Upload: %v", err)
		}
		if x, y := w.Selection(); x != "" || y != "" || w.Kind() != plot.KindBox {
			t.Fatalf("selection not reset: %q %q %s", x, y, w.Kind())
		}
		if got := w.Choices(); !reflect.DeepEqual(got, []string{"p", "q"}) {
			t.Fatalf("Choices = %v", got)
		}
	}
	if err := w.SelectX("a"); err == nil {
		t.Fatalf("stale column accepted")
	}
}

func TestFailedUploadKeepsState(t *testing.T) {
	dir := t.TempDir()
	w := newWorkbench()
	good := writeCSV(t, dir, "data.csv", exampleCSV())
	if err := w.Upload(good); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	_ = w.SelectX("b")

	err := w.Upload(filepath.Join(dir, "data.weird"))
	var ue *loader.UnsupportedFormatError
	if !errors.As(err, &ue) || Title(err) != TitleUnsupported {
		t.Fatalf("expected unsupported format, got %v", err)
	}
	err = w.Upload(writeCSV(t, dir, "broken.json", "{not json"))
	var pe *loader.ParseError
	if !errors.As(err, &pe) || Title(err) != TitleError {
		t.Fatalf("expected parse error, got %v", err)
	}
	if w.Path() != good {
		t.Fatalf("path changed to %s", w.Path())
	}
	if x, _ := w.Selection(); x != "b" {
		t.Fatalf("selection lost after failed upload: %q", x)
	}
}

func TestActionsRequireTable(t *testing.T) {
	w := newWorkbench()
	if w.Loaded() {
		t.Fatalf("new workbench should be empty")
	}
	var pe *PreconditionError
	if _, err := w.Analyze(); !errors.As(err, &pe) || Title(err) != TitleError {
		t.Fatalf("Analyze: %v", err)
	}
	if _, err := w.Summary(); !errors.As(err, &pe) {
		t.Fatalf("Summary: %v", err)
	}
	if _, err := w.Preview(); !errors.As(err, &pe) {
		t.Fatalf("Preview: %v", err)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	w := newWorkbench()
	if err := w.Upload(writeCSV(t, t.TempDir(), "data.csv", exampleCSV())); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	var ve *ValidationError
	if _, err := w.Analyze(); !errors.As(err, &ve) {
		t.Fatalf("expected validation error without X, got %v", err)
	}
	_ = w.SelectX("a")
	w.SetKind(plot.KindScatter)
	ch, err := w.Analyze()
	if !errors.As(err, &ve) || ch != nil {
		t.Fatalf("expected validation error without Y, got %v", err)
	}
	if Title(err) != TitleMissing || err.Error() != "Select both X and Y for Scatter plot." {
		t.Fatalf("unexpected message %q / %q", Title(err), err)
	}
	if err := w.SelectY("c"); err == nil {
		t.Fatalf("text column accepted as Y")
	}
}

func TestMessageUnwrapsParseError(t *testing.T) {
	err := &loader.ParseError{Path: "x.csv", Format: loader.FormatCSV, Err: errors.New("bad row")}
	if got := Message(err); got != "bad row" {
		t.Fatalf("Message = %q", got)
	}
	if got := Message(&PreconditionError{}); got != "Please upload a file first." {
		t.Fatalf("Message = %q", got)
	}
}
