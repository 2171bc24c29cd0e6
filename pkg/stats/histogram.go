// Package stats provides the histogram and unsupervised threshold
// estimation used by the flood detection pipeline.
package stats

import (
	"sarflood/pkg/raster"
)

// NumBins is the algorithm-wide histogram resolution. More bins give the
// threshold search more resolution at the cost of sparser bins.
const NumBins = 255

// Histogram is a fixed-bin count histogram over [Min, Max]. Values outside
// the range are clamped into the edge bins.
type Histogram struct {
	Counts []float64
	Min    float64
	Max    float64
}

// NewHistogram allocates an empty histogram with the given range.
func NewHistogram(numBins int, min, max float64) *Histogram {
	return &Histogram{
		Counts: make([]float64, numBins),
		Min:    min,
		Max:    max,
	}
}

// BinWidth returns the width of one bin.
func (h *Histogram) BinWidth() float64 {
	return (h.Max - h.Min) / float64(len(h.Counts))
}

// BinValue returns the lower edge of bin i.
func (h *Histogram) BinValue(i int) float64 {
	return h.Min + float64(i)*h.BinWidth()
}

// Add counts one sample.
func (h *Histogram) Add(v float64) {
	w := h.BinWidth()
	var bin int
	if w > 0 {
		bin = int((v - h.Min) / w)
	}
	if bin < 0 {
		bin = 0
	}
	if bin >= len(h.Counts) {
		bin = len(h.Counts) - 1
	}
	h.Counts[bin]++
}

// AddImage counts every valid pixel of the region of im. Each tile owns its
// own histogram; histograms are never merged across tiles.
func (h *Histogram) AddImage(im *raster.Image, region raster.Rect) {
	clipped := region.Intersect(im.Bounds())
	for r := clipped.MinY; r < clipped.MaxY(); r++ {
		for c := clipped.MinX; c < clipped.MaxX(); c++ {
			if px := im.At(c, r); px.Valid {
				h.Add(px.V)
			}
		}
	}
}

// Total returns the number of counted samples.
func (h *Histogram) Total() float64 {
	sum := 0.0
	for _, c := range h.Counts {
		sum += c
	}
	return sum
}

// Probabilities returns the histogram normalized to a probability
// distribution. An empty histogram normalizes to all zeros.
func (h *Histogram) Probabilities() []float64 {
	out := make([]float64, len(h.Counts))
	sum := h.Total()
	if sum == 0 {
		return out
	}
	for i, c := range h.Counts {
		out[i] = c / sum
	}
	return out
}

// PercentileBin returns the first bin at which the cumulative fraction of
// samples reaches p (0 < p <= 1).
func (h *Histogram) PercentileBin(p float64) int {
	total := h.Total()
	if total == 0 {
		return 0
	}
	cum := 0.0
	for i, c := range h.Counts {
		cum += c
		if cum/total >= p {
			return i
		}
	}
	return len(h.Counts) - 1
}
