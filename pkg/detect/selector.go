package detect

import (
	"fmt"
	"sort"

	"sarflood/pkg/raster"
	"sarflood/pkg/stats"
)

// tileStdDevPercentile is the percentile of the tile stddev distribution
// used as the candidate cutoff.
const tileStdDevPercentile = 0.95

// MaxSelectedTiles caps how many tiles feed the global threshold
// estimation.
const MaxSelectedTiles = 5

// TileRef addresses one tile in the tile grid.
type TileRef struct {
	Col, Row int
}

// SelectBestTiles picks the tiles used to estimate the global water
// threshold. Water tiles are both noisier and darker than the scene
// average, so candidates must have a standard deviation above the 95th
// percentile cutoff and a mean below the global tile mean. At most
// MaxSelectedTiles are returned, preferring the highest standard
// deviations with ties broken by grid order.
//
// Fails with ErrLogic when no tile survives the filter.
func SelectBestTiles(means, stddevs *raster.Image) ([]TileRef, error) {
	globalMean, ok := means.MeanValid()
	if !ok {
		return nil, fmt.Errorf("%w: no valid tiles in statistics grid", ErrLogic)
	}

	sdMin, sdMax, ok := stddevs.MinMax()
	if !ok {
		return nil, fmt.Errorf("%w: no valid tile standard deviations", ErrLogic)
	}

	hist := stats.NewHistogram(stats.NumBins, sdMin, sdMax)
	for _, px := range stddevs.Pix {
		if px.Valid {
			hist.Add(px.V)
		}
	}
	cutoff := sdMin + hist.BinWidth()*float64(hist.PercentileBin(tileStdDevPercentile))

	type candidate struct {
		ref    TileRef
		stddev float64
	}
	var candidates []candidate
	for r := 0; r < stddevs.Rows; r++ {
		for c := 0; c < stddevs.Cols; c++ {
			sd := stddevs.At(c, r)
			mean := means.At(c, r)
			if !sd.Valid || !mean.Valid {
				continue
			}
			if sd.V > cutoff && mean.V < globalMean {
				candidates = append(candidates, candidate{ref: TileRef{Col: c, Row: r}, stddev: sd.V})
			}
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate tiles after stddev filtering", ErrLogic)
	}

	if len(candidates) > MaxSelectedTiles {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].stddev < candidates[j].stddev
		})
		candidates = candidates[len(candidates)-MaxSelectedTiles:]
	}

	kept := make([]TileRef, len(candidates))
	for i, c := range candidates {
		kept[i] = c.ref
	}
	return kept, nil
}
