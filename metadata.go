package vecplot

// Range of the finite points on one axis.
type AxisRange struct {
	Min float64
	Max float64
}

type Metadata struct {
	SessionID string
	Title     string
	XLabel    string
	YLabel    string
	NumPoints int
	XRange    *AxisRange `json:",omitempty"`
	YRange    *AxisRange `json:",omitempty"`
}

// NewMetadata describes the chart to a viewer. The ranges only cover points
// where both x and y are finite, and are nil when there are none.
func NewMetadata(chart *Chart, sessionID string) Metadata {
	m := Metadata{
		SessionID: sessionID,
		Title:     chart.Title,
		XLabel:    chart.XLabel,
		YLabel:    chart.YLabel,
		NumPoints: len(chart.X),
	}

	finite := Filter(indices(len(chart.X)), func(i int) bool {
		return isFinite(chart.X[i]) && isFinite(chart.Y[i])
	})

	xs := make([]float64, 0, len(finite))
	ys := make([]float64, 0, len(finite))
	for _, i := range finite {
		xs = append(xs, chart.X[i])
		ys = append(ys, chart.Y[i])
	}

	if lo, hi, ok := Bounds(xs); ok {
		m.XRange = &AxisRange{Min: lo, Max: hi}
	}

	if lo, hi, ok := Bounds(ys); ok {
		m.YRange = &AxisRange{Min: lo, Max: hi}
	}

	return m
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
