// Package plot renders box, histogram, line and scatter charts of table
// columns to PNG.
package plot

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/datalens/internal/analysis"
	"github.com/KaramelBytes/datalens/internal/table"
)

var (
	// ErrNoColumn is returned when no X column is given.
	ErrNoColumn = errors.New("no column selected")
	// ErrNoY is returned for a scatter plot without a Y column.
	ErrNoY = errors.New("scatter plot needs both X and Y columns")
)

var (
	boxColor    = drawing.ColorFromHex("1f77b4")
	medianColor = drawing.ColorFromHex("ff7f0e")
)

// Request names what to draw.
type Request struct {
	Kind Kind
	X    string
	Y    string
}

// Options control chart geometry.
type Options struct {
	Width  int
	Height int
	// Bins is the histogram bin count.
	Bins int
}

// DefaultOptions matches the window and histogram defaults.
func DefaultOptions() Options {
	return Options{Width: 800, Height: 600, Bins: 20}
}

// Chart is a rendered chart.
type Chart struct {
	Title  string
	Width  int
	Height int
	PNG    []byte
}

// Image decodes the PNG bytes.
func (c *Chart) Image() (image.Image, error) {
	return png.Decode(bytes.NewReader(c.PNG))
}

// Title returns the chart title for req.
func Title(req Request) string {
	switch req.Kind {
	case KindScatter:
		return fmt.Sprintf("Scatter Plot (%s vs %s)", req.X, req.Y)
	default:
		return fmt.Sprintf("%s of %s", req.Kind, req.X)
	}
}

// Render draws req against t.
func Render(t *table.Table, req Request, opts Options) (*Chart, error) {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.Bins <= 0 {
		opts.Bins = def.Bins
	}
	if req.X == "" {
		return nil, ErrNoColumn
	}
	x, err := numeric(t, req.X)
	if err != nil {
		return nil, err
	}

	ch := chart.Chart{
		Title:      Title(req),
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 24, Bottom: 16}},
	}
	switch req.Kind {
	case KindBox:
		err = box(&ch, req.X, x.Floats)
	case KindHistogram:
		err = histogram(&ch, req.X, x.Floats, opts.Bins)
	case KindLine:
		err = line(&ch, req.X, x.Floats)
	case KindScatter:
		if req.Y == "" {
			return nil, ErrNoY
		}
		y, yerr := numeric(t, req.Y)
		if yerr != nil {
			return nil, yerr
		}
		err = scatter(&ch, req.X, req.Y, x.Floats, y.Floats)
	default:
		return nil, fmt.Errorf("unknown plot kind %d", int(req.Kind))
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return &Chart{Title: ch.Title, Width: opts.Width, Height: opts.Height, PNG: buf.Bytes()}, nil
}

func numeric(t *table.Table, name string) (*table.Column, error) {
	if t == nil {
		return nil, errors.New("no table loaded")
	}
	c, ok := t.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	if c.Kind != table.KindNumeric {
		return nil, fmt.Errorf("column %q is not numeric", name)
	}
	return c, nil
}

func noValues(name string) error {
	return fmt.Errorf("column %q has no values to plot", name)
}

func stroke(c drawing.Color) chart.Style {
	return chart.Style{StrokeColor: c, StrokeWidth: 1.5}
}

func dots(c drawing.Color) chart.Style {
	return chart.Style{StrokeWidth: chart.Disabled, DotColor: c, DotWidth: 3}
}

// padded returns a range around [lo, hi] with 5% margins.
func padded(lo, hi float64) *chart.ContinuousRange {
	if lo == hi {
		return &chart.ContinuousRange{Min: lo - 0.5, Max: hi + 0.5}
	}
	m := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - m, Max: hi + m}
}

func box(ch *chart.Chart, name string, vals []float64) error {
	sorted := finite(vals)
	if len(sorted) == 0 {
		return noValues(name)
	}
	sort.Float64s(sorted)
	q1, q2, q3 := analysis.Quantile(sorted, 0.25), analysis.Quantile(sorted, 0.5), analysis.Quantile(sorted, 0.75)
	iqr := q3 - q1
	loFence, hiFence := q1-1.5*iqr, q3+1.5*iqr
	lo, hi := q1, q3
	var ox, oy []float64
	for _, v := range sorted {
		if v < loFence || v > hiFence {
			ox = append(ox, 1)
			oy = append(oy, v)
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	series := []chart.Series{
		chart.ContinuousSeries{Name: "box", XValues: []float64{0.85, 1.15, 1.15, 0.85, 0.85}, YValues: []float64{q1, q1, q3, q3, q1}, Style: stroke(boxColor)},
		chart.ContinuousSeries{Name: "median", XValues: []float64{0.85, 1.15}, YValues: []float64{q2, q2}, Style: stroke(medianColor)},
		chart.ContinuousSeries{Name: "lower whisker", XValues: []float64{1, 1}, YValues: []float64{q1, lo}, Style: stroke(boxColor)},
		chart.ContinuousSeries{Name: "upper whisker", XValues: []float64{1, 1}, YValues: []float64{q3, hi}, Style: stroke(boxColor)},
		chart.ContinuousSeries{Name: "lower cap", XValues: []float64{0.925, 1.075}, YValues: []float64{lo, lo}, Style: stroke(boxColor)},
		chart.ContinuousSeries{Name: "upper cap", XValues: []float64{0.925, 1.075}, YValues: []float64{hi, hi}, Style: stroke(boxColor)},
	}
	if len(ox) > 0 {
		series = append(series, chart.ContinuousSeries{Name: "outliers", XValues: ox, YValues: oy, Style: dots(boxColor)})
	}
	ch.Series = series
	ch.XAxis = chart.XAxis{
		Range: &chart.ContinuousRange{Min: 0.5, Max: 1.5},
		Ticks: []chart.Tick{{Value: 0.5, Label: ""}, {Value: 1, Label: name}, {Value: 1.5, Label: ""}},
	}
	ch.YAxis = chart.YAxis{Range: padded(sorted[0], sorted[len(sorted)-1])}
	return nil
}

// Bins splits vals into n equal-width bins over [min, max], the last bin
// closed on the right. A constant column uses [v-0.5, v+0.5].
func Bins(vals []float64, n int) (edges []float64, counts []int) {
	present := finite(vals)
	if len(present) == 0 || n <= 0 {
		return nil, nil
	}
	lo, hi := bounds(present)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)
	edges = make([]float64, n+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[n] = hi
	counts = make([]int, n)
	for _, v := range present {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		counts[i]++
	}
	return edges, counts
}

func histogram(ch *chart.Chart, name string, vals []float64, n int) error {
	edges, counts := Bins(vals, n)
	if edges == nil {
		return noValues(name)
	}
	xs := []float64{edges[0]}
	ys := []float64{0}
	top := 0
	for i, c := range counts {
		xs = append(xs, edges[i], edges[i+1])
		ys = append(ys, float64(c), float64(c))
		if c > top {
			top = c
		}
	}
	xs = append(xs, edges[n])
	ys = append(ys, 0)
	ch.Series = []chart.Series{chart.ContinuousSeries{
		Name:    name,
		XValues: xs,
		YValues: ys,
		Style:   chart.Style{StrokeColor: boxColor, StrokeWidth: 1, FillColor: boxColor.WithAlpha(160)},
	}}
	ch.XAxis = chart.XAxis{Name: name, Range: padded(edges[0], edges[n])}
	ch.YAxis = chart.YAxis{Name: "Frequency", Range: &chart.ContinuousRange{Min: 0, Max: float64(top) * 1.05}}
	return nil
}

// line plots values against their row index; missing cells break the line.
func line(ch *chart.Chart, name string, vals []float64) error {
	var series []chart.Series
	var xs, ys []float64
	lo, hi := math.Inf(1), math.Inf(-1)
	flush := func() {
		if len(xs) == 0 {
			return
		}
		st := stroke(boxColor)
		if len(xs) == 1 {
			st = dots(boxColor)
		}
		series = append(series, chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: st})
		xs, ys = nil, nil
	}
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			flush()
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, v)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	flush()
	if len(series) == 0 {
		return noValues(name)
	}
	ch.Series = series
	ch.XAxis = chart.XAxis{Range: padded(0, float64(len(vals)-1))}
	ch.YAxis = chart.YAxis{Name: name, Range: padded(lo, hi)}
	return nil
}

func scatter(ch *chart.Chart, xname, yname string, xv, yv []float64) error {
	var xs, ys []float64
	for i := range xv {
		if i >= len(yv) {
			break
		}
		if isFinite(xv[i]) && isFinite(yv[i]) {
			xs = append(xs, xv[i])
			ys = append(ys, yv[i])
		}
	}
	if len(xs) == 0 {
		return fmt.Errorf("columns %q and %q share no rows with values", xname, yname)
	}
	xlo, xhi := bounds(xs)
	ylo, yhi := bounds(ys)
	ch.Series = []chart.Series{chart.ContinuousSeries{Name: yname, XValues: xs, YValues: ys, Style: dots(boxColor)}}
	ch.XAxis = chart.XAxis{Name: xname, Range: padded(xlo, xhi)}
	ch.YAxis = chart.YAxis{Name: yname, Range: padded(ylo, yhi)}
	return nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// finite drops missing and infinite values.
func finite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range analysis.FiniteValues(vals) {
		if !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func bounds(vals []float64) (lo, hi float64) {
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
