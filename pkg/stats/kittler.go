package stats

import "math"

// failScore is returned by the criterion when a candidate split leaves one
// class with no mass or no variance. Any real split scores far below it, so
// failed splits never win the minimum search.
const failScore = 999999.0

// criterionJT computes the Kittler-Illingworth criterion J(T) for splitting
// a normalized histogram after the given bin:
//
//	J = 1 + 2(P1 ln s1 + P2 ln s2) - 2(P1 ln P1 + P2 ln P2)
//
// where P1, P2 are the class probability masses and s1, s2 the class
// variances. probs must be a probability distribution and binValues the
// lower edge of each bin.
func criterionJT(probs, binValues []float64, bin int) float64 {
	numBins := len(probs)

	var p1, p2, wsum1, wsum2 float64
	for i := 0; i <= bin; i++ {
		p1 += probs[i]
		wsum1 += probs[i] * binValues[i]
	}
	for i := bin + 1; i < numBins; i++ {
		p2 += probs[i]
		wsum2 += probs[i] * binValues[i]
	}

	// Both classes need at least one sample.
	if p1 <= 0 || p2 <= 0 {
		return failScore
	}
	mean1 := wsum1 / p1
	mean2 := wsum2 / p2

	var sigma1, sigma2 float64
	for i := 0; i <= bin; i++ {
		d := binValues[i] - mean1
		sigma1 += d * d * probs[i]
	}
	for i := bin + 1; i < numBins; i++ {
		d := binValues[i] - mean2
		sigma2 += d * d * probs[i]
	}
	sigma1 /= p1
	sigma2 /= p2

	// Both classes need at least two distinct intensity values.
	if sigma1 <= 0 || sigma2 <= 0 {
		return failScore
	}

	return 1.0 + 2.0*(p1*math.Log(sigma1)+p2*math.Log(sigma2)) -
		2.0*(p1*math.Log(p1)+p2*math.Log(p2))
}

// SplitMinimumError searches every candidate split bin for the minimum of
// the Kittler-Illingworth criterion and returns the corresponding
// threshold, placed half a bin below the winning bin's lower edge.
//
// When no candidate split is valid (a histogram with fewer than two
// populated bins, or two bare spikes with no spread) the returned threshold
// falls back to the midpoint between the lowest and highest populated bin
// values and ok is false so the caller can warn.
func SplitMinimumError(h *Histogram) (threshold float64, ok bool) {
	probs := h.Probabilities()
	numBins := len(probs)
	binWidth := h.BinWidth()

	binValues := make([]float64, numBins)
	for i := range binValues {
		binValues[i] = h.BinValue(i)
	}

	bestScore := math.Inf(1)
	bestBin := -1
	for bin := 1; bin < numBins; bin++ {
		score := criterionJT(probs, binValues, bin)
		if score >= failScore {
			continue
		}
		if score < bestScore {
			bestScore = score
			bestBin = bin
		}
	}

	if bestBin >= 0 {
		return h.Min + binWidth*(float64(bestBin)-0.5), true
	}

	// Degenerate histogram: no split had mass and spread on both sides.
	lo, hi := -1, -1
	for i, p := range probs {
		if p > 0 {
			if lo < 0 {
				lo = i
			}
			hi = i
		}
	}
	if lo < 0 {
		return h.Min, false
	}
	return (binValues[lo] + binValues[hi]) / 2, false
}
