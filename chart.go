package vecplot

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"
)

const (
	chartWidth  = 6 * vg.Inch
	chartHeight = 4 * vg.Inch
)

var lineColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

// A Chart is everything the display needs: the texts, the raw data for the
// viewer protocol and the rendered SVG.
type Chart struct {
	Title  string
	XLabel string
	YLabel string

	X []float64
	Y []float64

	SVG []byte
}

// Title returns the chart title for the request's variant.
func Title(req *PlotRequest) string {
	if req.Variant == VariantFixed {
		return FixedTitle
	}

	return fmt.Sprintf("%s vs. %s", req.YLabel, req.XLabel)
}

// NewChart renders y against x as a single line over a background grid.
// Points where x or y is not finite break the line.
func NewChart(req *PlotRequest) (*Chart, error) {
	if len(req.X) != len(req.Y) {
		return nil, errors.Wrapf(ErrLengthMismatch, "len(x)=%d, len(y)=%d", len(req.X), len(req.Y))
	}

	chart := &Chart{
		Title:  Title(req),
		XLabel: req.XLabel,
		YLabel: req.YLabel,
		X:      req.X,
		Y:      req.Y,
	}

	p := plot.New()
	p.Title.Text = chart.Title
	p.X.Label.Text = chart.XLabel
	p.Y.Label.Text = chart.YLabel
	p.Add(plotter.NewGrid())

	for _, segment := range lineSegments(req.X, req.Y) {
		line, err := plotter.NewLine(segment)
		if err != nil {
			return nil, errors.Wrap(err, "cannot build line")
		}
		line.Color = lineColor
		p.Add(line)
	}

	canvas := vgsvg.New(chartWidth, chartHeight)
	p.Draw(draw.New(canvas))

	var buf bytes.Buffer
	if _, err := canvas.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "cannot render svg")
	}
	chart.SVG = buf.Bytes()

	return chart, nil
}

// Splits the points into runs of consecutive finite points.
func lineSegments(xs, ys []float64) []plotter.XYs {
	var segments []plotter.XYs
	var current plotter.XYs

	for i := range xs {
		if !isFinite(xs[i]) || !isFinite(ys[i]) {
			if len(current) > 0 {
				segments = append(segments, current)
				current = nil
			}
			continue
		}

		current = append(current, plotter.XY{X: xs[i], Y: ys[i]})
	}

	if len(current) > 0 {
		segments = append(segments, current)
	}

	return segments
}
