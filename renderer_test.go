package vecplot

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDisplay stands in for the blocking window.
type recordingDisplay struct {
	charts []*Chart
	err    error
}

func (d *recordingDisplay) Show(ctx context.Context, chart *Chart) error {
	d.charts = append(d.charts, chart)
	return d.err
}

func runRenderer(t *testing.T, variant Variant, input string) (*recordingDisplay, string, error) {
	t.Helper()

	display := &recordingDisplay{}
	var out bytes.Buffer
	err := NewChartRenderer(variant, display).Run(context.Background(), strings.NewReader(input), &out)
	return display, out.String(), err
}

func TestChartRenderer_EmptyInput(t *testing.T) {
	for _, variant := range []Variant{VariantLabeled, VariantFixed} {
		for _, input := range []string{"", "   ", "\n\t \r\n"} {
			display, out, err := runRenderer(t, variant, input)
			require.NoError(t, err)
			assert.Equal(t, "No data received.\n", out, "variant %s input %q", variant, input)
			assert.Empty(t, display.charts)
		}
	}
}

func TestChartRenderer_ValidInput(t *testing.T) {
	display, out, err := runRenderer(t, VariantLabeled, `{"x": [1, 2, 3], "y": [10, 20, 15], "x_label": "time", "y_label": "speed"}`)
	require.NoError(t, err)
	assert.Empty(t, out)

	require.Len(t, display.charts, 1)
	chart := display.charts[0]
	assert.Equal(t, []float64{1, 2, 3}, chart.X)
	assert.Equal(t, []float64{10, 20, 15}, chart.Y)
	assert.Equal(t, "speed vs. time", chart.Title)
	assert.Equal(t, "time", chart.XLabel)
	assert.Equal(t, "speed", chart.YLabel)
}

func TestChartRenderer_FixedTitle(t *testing.T) {
	for _, input := range []string{
		`{"x": [1], "y": [2]}`,
		`{"x": [1], "y": [2], "x_label": "time", "y_label": "speed"}`,
	} {
		display, _, err := runRenderer(t, VariantFixed, input)
		require.NoError(t, err)
		require.Len(t, display.charts, 1)
		assert.Equal(t, "Rust Vec<f64> vs Vec<f64>", display.charts[0].Title)
		assert.Equal(t, "x", display.charts[0].XLabel)
		assert.Equal(t, "y", display.charts[0].YLabel)
	}
}

func TestChartRenderer_MissingY(t *testing.T) {
	for _, variant := range []Variant{VariantLabeled, VariantFixed} {
		display, out, err := runRenderer(t, variant, `{"x": [1, 2], "x_label": "a", "y_label": "b"}`)
		require.Error(t, err)

		var missing *MissingFieldError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "y", missing.Key)
		assert.NotContains(t, out, NoDataMessage)
		assert.Empty(t, display.charts)
	}
}

func TestChartRenderer_NotJSON(t *testing.T) {
	display, out, err := runRenderer(t, VariantLabeled, "not json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedJSON))
	assert.Empty(t, out)
	assert.Empty(t, display.charts)
}

func TestChartRenderer_LengthMismatch(t *testing.T) {
	display, _, err := runRenderer(t, VariantFixed, `{"x": [1, 2], "y": [1]}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLengthMismatch))
	assert.Empty(t, display.charts)
}

func TestChartRenderer_DisplayError(t *testing.T) {
	boom := errors.New("boom")
	display := &recordingDisplay{err: boom}
	err := NewChartRenderer(VariantFixed, display).Run(context.Background(), strings.NewReader(`{"x": [1], "y": [1]}`), &bytes.Buffer{})
	assert.True(t, errors.Is(err, boom))
}

func TestChartRenderer_Idempotent(t *testing.T) {
	input := `{"x": [0, 1], "y": [1, 0], "x_label": "time", "y_label": "speed"}`

	display := &recordingDisplay{}
	renderer := NewChartRenderer(VariantLabeled, display)
	for i := 0; i < 2; i++ {
		require.NoError(t, renderer.Run(context.Background(), strings.NewReader(input), &bytes.Buffer{}))
	}

	require.Len(t, display.charts, 2)
	first, second := display.charts[0], display.charts[1]
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.XLabel, second.XLabel)
	assert.Equal(t, first.YLabel, second.YLabel)
}
