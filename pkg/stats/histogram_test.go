package stats

import (
	"math"
	"testing"

	"sarflood/pkg/raster"
)

// TestHistogramBinning verifies clamping and bin edge placement.
func TestHistogramBinning(t *testing.T) {
	h := NewHistogram(10, 0, 10)
	if h.BinWidth() != 1 {
		t.Fatalf("bin width = %v, want 1", h.BinWidth())
	}

	h.Add(-5)   // clamps into bin 0
	h.Add(0.5)  // bin 0
	h.Add(3.2)  // bin 3
	h.Add(9.99) // bin 9
	h.Add(42)   // clamps into bin 9

	want := []float64{2, 0, 0, 1, 0, 0, 0, 0, 0, 2}
	for i, c := range h.Counts {
		if c != want[i] {
			t.Errorf("bin %d count = %v, want %v", i, c, want[i])
		}
	}
	if h.Total() != 5 {
		t.Errorf("total = %v, want 5", h.Total())
	}
	if h.BinValue(3) != 3 {
		t.Errorf("bin 3 lower edge = %v, want 3", h.BinValue(3))
	}
}

// TestHistogramAddImage verifies that only valid pixels inside the region
// are counted.
func TestHistogramAddImage(t *testing.T) {
	im := raster.NewImage(4, 4)
	im.Fill(raster.Value(2))
	im.Set(0, 0, raster.Invalid())
	im.Set(3, 3, raster.Value(8))

	h := NewHistogram(10, 0, 10)
	h.AddImage(im, raster.Rect{MinX: 0, MinY: 0, Width: 2, Height: 2})
	if h.Total() != 3 {
		t.Errorf("region total = %v, want 3 (invalid pixel skipped)", h.Total())
	}
	if h.Counts[2] != 3 {
		t.Errorf("bin 2 count = %v, want 3", h.Counts[2])
	}

	h2 := NewHistogram(10, 0, 10)
	h2.AddImage(im, im.Bounds())
	if h2.Total() != 15 {
		t.Errorf("full total = %v, want 15", h2.Total())
	}
	if h2.Counts[8] != 1 {
		t.Errorf("bin 8 count = %v, want 1", h2.Counts[8])
	}
}

// TestHistogramProbabilities verifies normalization, including the empty
// histogram.
func TestHistogramProbabilities(t *testing.T) {
	h := NewHistogram(4, 0, 4)
	probs := h.Probabilities()
	for i, p := range probs {
		if p != 0 {
			t.Errorf("empty histogram probability %d = %v, want 0", i, p)
		}
	}

	h.Add(0.5)
	h.Add(0.5)
	h.Add(2.5)
	h.Add(3.5)
	probs = h.Probabilities()
	want := []float64{0.5, 0, 0.25, 0.25}
	for i, p := range probs {
		if math.Abs(p-want[i]) > 1e-12 {
			t.Errorf("probability %d = %v, want %v", i, p, want[i])
		}
	}
}

// TestPercentileBin verifies the cumulative cutoff search.
func TestPercentileBin(t *testing.T) {
	h := NewHistogram(10, 0, 10)
	for v := 0; v < 10; v++ {
		h.Add(float64(v) + 0.5)
	}

	if got := h.PercentileBin(0.5); got != 4 {
		t.Errorf("median bin = %d, want 4", got)
	}
	if got := h.PercentileBin(0.95); got != 9 {
		t.Errorf("95th percentile bin = %d, want 9", got)
	}
	if got := h.PercentileBin(1.0); got != 9 {
		t.Errorf("100th percentile bin = %d, want 9", got)
	}

	empty := NewHistogram(10, 0, 10)
	if got := empty.PercentileBin(0.95); got != 0 {
		t.Errorf("empty histogram percentile bin = %d, want 0", got)
	}
}
