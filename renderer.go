package vecplot

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

// NoDataMessage is printed when stdin holds nothing but whitespace.
const NoDataMessage = "No data received."

// ChartRenderer turns one JSON plot request into a displayed chart.
type ChartRenderer struct {
	Variant Variant
	Display Display

	logger logrus.FieldLogger
}

func NewChartRenderer(variant Variant, display Display) *ChartRenderer {
	return &ChartRenderer{
		Variant: variant,
		Display: display,
		logger:  logrus.WithFields(logrus.Fields{"tag": "ChartRenderer", "variant": variant}),
	}
}

// Run reads all of input, then either prints NoDataMessage to output or shows
// the chart and blocks until the display returns.
func (r *ChartRenderer) Run(ctx context.Context, input io.Reader, output io.Writer) error {
	raw, err := io.ReadAll(input)
	if err != nil {
		return errors.Wrap(err, "cannot read input")
	}

	if strings.TrimSpace(string(raw)) == "" {
		_, err := fmt.Fprintln(output, NoDataMessage)
		return err
	}

	req, err := DecodePlotRequest(raw, r.Variant)
	if err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"points": len(req.X),
		"xLabel": req.XLabel,
		"yLabel": req.YLabel,
	}).Debug("decoded plot request")

	chart, err := NewChart(req)
	if err != nil {
		return err
	}

	return r.Display.Show(ctx, chart)
}
