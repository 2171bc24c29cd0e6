package detect

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"sarflood/pkg/raster"
	"sarflood/pkg/stats"
)

// ThresholdResult is the aggregated outcome of the per-tile minimum-error
// threshold search.
type ThresholdResult struct {
	// Mean is the global threshold: the arithmetic mean of the per-tile
	// optimal thresholds.
	Mean float64

	// StdDev is the spread of the per-tile thresholds. It is reported as a
	// diagnostic and does not gate acceptance.
	StdDev float64

	// PerTile holds the individual tile thresholds in kept-tile order.
	PerTile []float64

	// Degraded is set when any tile's histogram had no valid split and a
	// fallback threshold was used, so the caller can warn.
	Degraded bool
}

// ComputeGlobalThreshold estimates the water/land intensity threshold from
// the kept tiles. Each tile gets a fresh histogram over the image-wide
// intensity range (never the tile's own range, and never merged across
// tiles) which is split with the Kittler-Illingworth criterion.
func ComputeGlobalThreshold(im *raster.Image, kept []TileRef, grid [][]raster.Rect,
	minVal, maxVal float64) (ThresholdResult, error) {

	if len(kept) == 0 {
		return ThresholdResult{}, fmt.Errorf("%w: no tiles to compute threshold from", ErrLogic)
	}

	res := ThresholdResult{PerTile: make([]float64, len(kept))}
	for i, ref := range kept {
		if ref.Row >= len(grid) || ref.Col >= len(grid[ref.Row]) {
			return ThresholdResult{}, fmt.Errorf("%w: tile %v outside grid", ErrLogic, ref)
		}
		region := grid[ref.Row][ref.Col]

		hist := stats.NewHistogram(stats.NumBins, minVal, maxVal)
		hist.AddImage(im, region)

		threshold, ok := stats.SplitMinimumError(hist)
		if !ok {
			res.Degraded = true
		}
		res.PerTile[i] = threshold
	}

	res.Mean = stat.Mean(res.PerTile, nil)
	res.StdDev = stat.PopStdDev(res.PerTile, nil)
	return res, nil
}
