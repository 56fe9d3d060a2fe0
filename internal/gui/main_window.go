// Package gui is the desktop front end: one main window with a toolbar and
// a preview grid, plus transient chart and summary windows.
package gui

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/KaramelBytes/datalens/internal/loader"
	"github.com/KaramelBytes/datalens/internal/plot"
	"github.com/KaramelBytes/datalens/internal/session"
)

// Title is the main window title.
const Title = "Advanced Data Analyzer"

// Config holds the dependencies of MainWindow.
type Config struct {
	App       fyne.App
	Workbench *session.Workbench
	Logger    *slog.Logger
	// Size of the main window; zero means 850x600.
	Width, Height float32
	// ChartWidth and ChartHeight size the chart window.
	ChartWidth, ChartHeight float32
}

// MainWindow is the application window.
type MainWindow struct {
	app    fyne.App
	window fyne.Window
	wb     *session.Workbench
	logger *slog.Logger

	chartSize fyne.Size

	uploadBtn  *widget.Button
	kindSelect *widget.Select
	xSelect    *widget.Select
	ySelect    *widget.Select
	analyzeBtn *widget.Button
	summaryBtn *widget.Button
	status     *widget.Label
	grid       *previewGrid
}

// NewMainWindow builds the main window. It is not shown until Show.
func NewMainWindow(cfg *Config) *MainWindow {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	width, height := cfg.Width, cfg.Height
	if width <= 0 || height <= 0 {
		width, height = 850, 600
	}
	cw, chh := cfg.ChartWidth, cfg.ChartHeight
	if cw <= 0 || chh <= 0 {
		cw, chh = 800, 600
	}

	w := &MainWindow{
		app:       cfg.App,
		window:    cfg.App.NewWindow(Title),
		wb:        cfg.Workbench,
		logger:    cfg.Logger.With("component", "gui"),
		chartSize: fyne.NewSize(cw, chh),
	}

	toolbar := w.createToolbar()
	w.grid = newPreviewGrid()
	w.status = widget.NewLabel("No file loaded")

	content := container.NewBorder(toolbar, w.status, nil, nil, w.grid.table)
	w.window.SetContent(content)
	w.window.Resize(fyne.NewSize(width, height))
	w.window.SetMaster()
	return w
}

func (w *MainWindow) createToolbar() fyne.CanvasObject {
	w.uploadBtn = widget.NewButtonWithIcon("Upload File", theme.FolderOpenIcon(), w.handleUpload)

	w.kindSelect = widget.NewSelect(plot.Labels(), func(s string) {
		k, err := plot.ParseKind(s)
		if err != nil {
			return
		}
		w.wb.SetKind(k)
	})
	w.kindSelect.SetSelected(plot.KindBox.String())

	w.xSelect = widget.NewSelect(nil, func(s string) {
		if err := w.wb.SelectX(s); err != nil {
			w.showError(err)
		}
	})
	w.xSelect.PlaceHolder = "(none)"

	w.ySelect = widget.NewSelect(nil, func(s string) {
		if err := w.wb.SelectY(s); err != nil {
			w.showError(err)
		}
	})
	w.ySelect.PlaceHolder = "(none)"

	w.analyzeBtn = widget.NewButtonWithIcon("Analyze", theme.MediaPlayIcon(), w.handleAnalyze)
	w.summaryBtn = widget.NewButtonWithIcon("Show Summary", theme.InfoIcon(), w.handleSummary)

	// [Upload] | Plot Type [▼] | X / Column [▼] | Y (if Scatter) [▼] | spacer | [Analyze] [Show Summary]
	return container.NewHBox(
		w.uploadBtn,
		widget.NewSeparator(),
		widget.NewLabel("Plot Type:"),
		w.kindSelect,
		widget.NewLabel("X / Column:"),
		w.xSelect,
		widget.NewLabel("Y (if Scatter):"),
		w.ySelect,
		layout.NewSpacer(),
		w.analyzeBtn,
		w.summaryBtn,
	)
}

// Show displays the main window.
func (w *MainWindow) Show() { w.window.Show() }

// ShowAndRun displays the window and runs the event loop until it closes.
func (w *MainWindow) ShowAndRun() { w.window.ShowAndRun() }

// Window returns the underlying fyne window.
func (w *MainWindow) Window() fyne.Window { return w.window }

func (w *MainWindow) handleUpload() {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			w.showError(err)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		rc.Close()
		w.Open(path)
	}, w.window)
	d.SetFilter(storage.NewExtensionFileFilter(loader.Extensions()))
	d.Resize(fyne.NewSize(720, 480))
	d.Show()
}

// Open loads path into the session and refreshes the toolbar and grid.
// It reports whether the load succeeded; failures are shown in a dialog.
func (w *MainWindow) Open(path string) bool {
	if err := w.wb.Upload(path); err != nil {
		w.showError(err)
		return false
	}
	w.refresh()
	dialog.ShowInformation("Success", "File loaded successfully!", w.window)
	return true
}

// refresh resets the selects to the session's post-upload state.
func (w *MainWindow) refresh() {
	choices := w.wb.Choices()
	w.xSelect.Options = choices
	w.xSelect.ClearSelected()
	w.ySelect.Options = choices
	w.ySelect.ClearSelected()
	w.kindSelect.SetSelected(w.wb.Kind().String())

	p, err := w.wb.Preview()
	if err != nil {
		w.showError(err)
		return
	}
	w.grid.set(p)
	if t, ok := w.wb.Table(); ok {
		w.status.SetText(formatStatus(w.wb.Name(), t.Rows(), t.NumCols(), len(choices)))
	}
}

func (w *MainWindow) handleAnalyze() {
	x, y := w.wb.Selection()
	w.logger.Debug("analyze", "kind", w.wb.Kind().Slug(), "x", x, "y", y)
	ch, err := w.wb.Analyze()
	if err != nil {
		w.showError(err)
		return
	}
	if _, err := w.showChart(ch); err != nil {
		w.showError(err)
	}
}

func (w *MainWindow) handleSummary() {
	s, err := w.wb.Summary()
	if err != nil {
		w.showError(err)
		return
	}
	w.showSummary(s)
}

// showError shows err in a modal titled by its kind.
func (w *MainWindow) showError(err error) {
	title := session.Title(err)
	w.logger.Debug("showing error", "title", title, "error", err)
	dialog.ShowInformation(title, session.Message(err), w.window)
}
