package vecplot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMetadata(t *testing.T) {
	chart := &Chart{
		Title:  "speed vs. time",
		XLabel: "time",
		YLabel: "speed",
		X:      []float64{0, 1, 2, 3},
		Y:      []float64{5, math.NaN(), -2, 9},
	}

	m := NewMetadata(chart, "abc")

	assert.Equal(t, "abc", m.SessionID)
	assert.Equal(t, "speed vs. time", m.Title)
	assert.Equal(t, 4, m.NumPoints)
	assert.Equal(t, &AxisRange{Min: 0, Max: 3}, m.XRange)
	assert.Equal(t, &AxisRange{Min: -2, Max: 9}, m.YRange)
}

func TestNewMetadata_NoFinitePoints(t *testing.T) {
	m := NewMetadata(&Chart{X: []float64{math.Inf(1)}, Y: []float64{1}}, "abc")

	assert.Equal(t, 1, m.NumPoints)
	assert.Nil(t, m.XRange)
	assert.Nil(t, m.YRange)
}
