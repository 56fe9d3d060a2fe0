package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/KaramelBytes/datalens/internal/analysis"
	"github.com/KaramelBytes/datalens/internal/plot"
)

// showChart opens a transient window holding the rendered chart.
func (w *MainWindow) showChart(ch *plot.Chart) (fyne.Window, error) {
	img, err := ch.Image()
	if err != nil {
		return nil, err
	}
	c := canvas.NewImageFromImage(img)
	c.FillMode = canvas.ImageFillContain
	c.SetMinSize(fyne.NewSize(float32(ch.Width)/2, float32(ch.Height)/2))

	win := w.app.NewWindow(ch.Title)
	win.SetContent(c)
	win.Resize(w.chartSize)
	win.Show()
	w.logger.Debug("chart window opened", "title", ch.Title)
	return win, nil
}

// showSummary opens a transient "Summary Statistics" window with the
// describe() block in a monospace grid.
func (w *MainWindow) showSummary(s *analysis.Summary) fyne.Window {
	grid := widget.NewTextGridFromString(s.String())
	grid.ShowLineNumbers = false

	win := w.app.NewWindow("Summary Statistics")
	win.SetContent(container.NewScroll(grid))
	win.Resize(fyne.NewSize(720, 320))
	win.Show()
	return win
}
