package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Histogram holds bin edges and per-bin heights. Edges has one more entry
// than Counts.
type Histogram struct {
	Edges  []float64
	Counts []float64
}

// Width returns the width of bin i.
func (h Histogram) Width(i int) float64 {
	return h.Edges[i+1] - h.Edges[i]
}

// NewHistogram bins values into bins equal-width bins spanning [lo, hi].
// Every bin is half-open except the last, which includes hi. Values outside
// the range are ignored. With density set, heights are scaled so the bars
// have a total area of one.
func NewHistogram(values []float64, lo, hi float64, bins int, density bool) (Histogram, error) {
	if bins <= 0 {
		return Histogram{}, fmt.Errorf("bins must be positive, got %d", bins)
	}
	if hi <= lo {
		return Histogram{}, fmt.Errorf("invalid range [%g, %g]", lo, hi)
	}

	edges := floats.Span(make([]float64, bins+1), lo, hi)
	step := (hi - lo) / float64(bins)

	h := Histogram{Edges: edges, Counts: make([]float64, bins)}

	inRange := 0
	for _, v := range values {
		if v < lo || v > hi {
			continue
		}
		i := int((v - lo) / step)
		if i >= bins {
			i = bins - 1
		}
		// Guard against rounding putting v just past an edge.
		for i > 0 && v < edges[i] {
			i--
		}
		for i < bins-1 && v >= edges[i+1] {
			i++
		}
		h.Counts[i]++
		inRange++
	}

	if density && inRange > 0 {
		for i := range h.Counts {
			h.Counts[i] /= float64(inRange) * h.Width(i)
		}
	}

	return h, nil
}
