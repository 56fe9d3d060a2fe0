// Package session holds the loaded table and the user's selections, and
// runs the upload, preview, analyze and summary actions against them.
package session

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/google/uuid"

	"github.com/KaramelBytes/datalens/internal/analysis"
	"github.com/KaramelBytes/datalens/internal/plot"
	"github.com/KaramelBytes/datalens/internal/table"
)

// Loader loads a file into a table.
type Loader interface {
	Load(path string) (*table.Table, error)
}

// Options size the preview and charts.
type Options struct {
	PreviewRows int
	PreviewCols int
	Chart       plot.Options
}

// DefaultOptions returns a 10x5 preview and default charts.
func DefaultOptions() Options {
	return Options{PreviewRows: 10, PreviewCols: 5, Chart: plot.DefaultOptions()}
}

// Workbench is one interactive session. Selections are reset whenever a
// new table is loaded, so they always name numeric columns of the current
// table.
type Workbench struct {
	ID string

	state   State
	loader  Loader
	logger  *slog.Logger
	opts    Options
	path    string
	choices []string
	x, y    string
	kind    plot.Kind
}

// New returns an empty workbench.
func New(l Loader, logger *slog.Logger, opts Options) *Workbench {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Workbench{
		ID:     id,
		loader: l,
		logger: logger.With("session_id", id),
		opts:   opts,
		kind:   plot.KindBox,
	}
}

// Upload loads path. On success the table replaces the current one and the
// column choices, selections and plot kind are reset. On failure nothing
// changes and the loader's error is returned.
func (w *Workbench) Upload(path string) error {
	t, err := w.loader.Load(path)
	if err != nil {
		w.logger.Info("upload failed", "path", path, "error", err)
		return err
	}
	w.state.Replace(t)
	w.path = path
	w.choices = t.NumericColumns()
	w.x, w.y = "", ""
	w.kind = plot.KindBox
	w.logger.Info("uploaded", "path", path, "rows", t.Rows(), "cols", t.NumCols(), "numeric", len(w.choices))
	return nil
}

// Loaded reports whether a table is present.
func (w *Workbench) Loaded() bool {
	_, ok := w.state.Current()
	return ok
}

// Table returns the current table.
func (w *Workbench) Table() (*table.Table, bool) { return w.state.Current() }

// Path returns the path of the current table, or "".
func (w *Workbench) Path() string { return w.path }

// Name returns the base name of the current file.
func (w *Workbench) Name() string {
	if w.path == "" {
		return ""
	}
	return filepath.Base(w.path)
}

// Preview returns the first rows and columns of the current table.
func (w *Workbench) Preview() (table.Preview, error) {
	t, ok := w.state.Current()
	if !ok {
		return table.Preview{}, &PreconditionError{Action: "preview"}
	}
	return t.Head(w.opts.PreviewRows, w.opts.PreviewCols), nil
}

// Choices returns the numeric columns offered for X and Y.
func (w *Workbench) Choices() []string { return slices.Clone(w.choices) }

// SelectX sets the X column; "" clears it.
func (w *Workbench) SelectX(name string) error {
	if err := w.checkChoice(name); err != nil {
		return err
	}
	w.x = name
	return nil
}

// SelectY sets the Y column; "" clears it.
func (w *Workbench) SelectY(name string) error {
	if err := w.checkChoice(name); err != nil {
		return err
	}
	w.y = name
	return nil
}

func (w *Workbench) checkChoice(name string) error {
	if name == "" || slices.Contains(w.choices, name) {
		return nil
	}
	return &ValidationError{Msg: fmt.Sprintf("%q is not a numeric column of the current file.", name)}
}

// Selection returns the current X and Y columns.
func (w *Workbench) Selection() (x, y string) { return w.x, w.y }

// SetKind sets the plot kind.
func (w *Workbench) SetKind(k plot.Kind) { w.kind = k }

// Kind returns the plot kind.
func (w *Workbench) Kind() plot.Kind { return w.kind }

// Analyze renders the selected chart.
func (w *Workbench) Analyze() (*plot.Chart, error) {
	t, ok := w.state.Current()
	if !ok {
		return nil, &PreconditionError{Action: "analyze"}
	}
	if w.x == "" {
		return nil, &ValidationError{Msg: "Select a column to plot first."}
	}
	if w.kind.NeedsY() && w.y == "" {
		return nil, &ValidationError{Msg: "Select both X and Y for Scatter plot."}
	}
	req := plot.Request{Kind: w.kind, X: w.x}
	if w.kind.NeedsY() {
		req.Y = w.y
	}
	ch, err := plot.Render(t, req, w.opts.Chart)
	if err != nil {
		w.logger.Warn("render failed", "kind", w.kind.Slug(), "x", w.x, "y", req.Y, "error", err)
		return nil, err
	}
	w.logger.Debug("rendered", "title", ch.Title, "bytes", len(ch.PNG))
	return ch, nil
}

// Summary describes the numeric columns of the current table.
func (w *Workbench) Summary() (*analysis.Summary, error) {
	t, ok := w.state.Current()
	if !ok {
		return nil, &PreconditionError{Action: "summary"}
	}
	s := analysis.Describe(t)
	s.Name = w.Name()
	return s, nil
}
