package charts

import (
	"gonum.org/v1/plot/plotter"
)

// Bin is one equal-width histogram bin. The last bin includes its upper edge.
type Bin struct {
	From  float64 `json:"from" yaml:"from"`
	To    float64 `json:"to" yaml:"to"`
	Count int     `json:"count" yaml:"count"`
}

// Histogram bins values the same way the rendered charts do, into n
// equal-width bins spanning [min, max]. When every value is equal a single
// unit-wide bin is returned. It returns nil for empty input or n <= 0.
func Histogram(values []float64, n int) []Bin {
	if len(values) == 0 || n <= 0 {
		return nil
	}

	h, err := plotter.NewHist(plotter.Values(values), n)
	if err != nil {
		return nil
	}

	bins := make([]Bin, len(h.Bins))
	for i, b := range h.Bins {
		bins[i] = Bin{From: b.Min, To: b.Max, Count: int(b.Weight)}
	}
	return bins
}
