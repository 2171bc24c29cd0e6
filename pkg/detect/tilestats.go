package detect

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"sarflood/pkg/raster"
)

// minQuadrantValid is the fraction of valid pixels a quadrant needs before
// its mean is trusted. Statistics from mostly-masked regions are noise.
const minQuadrantValid = 0.9

// tileStatsView computes per-tile statistics as a deferred view: planning
// a region computes the mean and standard deviation of that tile's four
// quadrant means and writes them into the tile's own cell of the two
// output grids. Cells never alias across tiles, so the block scheduler can
// plan tiles concurrently without locking. The realized tiles themselves
// are throwaway.
type tileStatsView struct {
	src                raster.View
	tileSize           int
	gridCols, gridRows int
	means, stddevs     *raster.Image
}

func (v *tileStatsView) Cols() int   { return v.src.Cols() }
func (v *tileStatsView) Rows() int   { return v.src.Rows() }
func (v *tileStatsView) Planes() int { return 1 }

func (v *tileStatsView) Plan(region raster.Rect) (*raster.Tile, error) {
	col := region.MinX / v.tileSize
	row := region.MinY / v.tileSize

	// Border regions can fall outside the declared tile grid; skip them.
	if col < v.gridCols && row < v.gridRows {
		tile, err := v.src.Plan(region)
		if err != nil {
			return nil, err
		}
		mean, stddev := tileStatistic(tile.Image)
		v.means.Set(col, row, mean)
		v.stddevs.Set(col, row, stddev)
	}

	return &raster.Tile{
		Image:   raster.NewImage(region.Width, region.Height),
		OriginX: region.MinX,
		OriginY: region.MinY,
	}, nil
}

// tileStatistic reduces one materialized tile to its masked mean and
// standard deviation. The tile is split into four quadrants; a quadrant
// contributes its mean only when at least minQuadrantValid of its pixels
// are valid. The tile is invalid when no quadrant qualifies or the mean of
// the kept quadrant means is non-positive (no usable signal).
func tileStatistic(tile *raster.Image) (mean, stddev raster.Masked) {
	quadrants := tile.Bounds().Quadrants()

	kept := make([]float64, 0, len(quadrants))
	for _, q := range quadrants {
		m, fracValid := meanAndValidity(tile, q)
		if fracValid >= minQuadrantValid {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return raster.Invalid(), raster.Invalid()
	}

	meanOfMeans := stat.Mean(kept, nil)
	if meanOfMeans <= 0 {
		return raster.Invalid(), raster.Invalid()
	}
	return raster.Value(meanOfMeans), raster.Value(stat.PopStdDev(kept, nil))
}

// meanAndValidity returns the mean over the valid pixels of the region and
// the fraction of pixels that were valid. The mean is zero when the region
// has no valid pixels.
func meanAndValidity(im *raster.Image, region raster.Rect) (mean, fracValid float64) {
	if region.Empty() {
		return 0, 0
	}
	sum := 0.0
	count := 0
	for r := region.MinY; r < region.MaxY(); r++ {
		for c := region.MinX; c < region.MaxX(); c++ {
			if px := im.At(c, r); px.Valid {
				sum += px.V
				count++
			}
		}
	}
	if count > 0 {
		mean = sum / float64(count)
	}
	return mean, float64(count) / float64(region.Area())
}

// TileStatistics computes the tile-mean and tile-stddev grids for src
// using tiles of the given size. Partial tiles at the border are excluded
// from the grid. The computation is data-parallel across tiles.
func TileStatistics(src raster.View, tileSize, workers int) (means, stddevs *raster.Image, err error) {
	gridCols := src.Cols() / tileSize
	gridRows := src.Rows() / tileSize
	if gridCols == 0 || gridRows == 0 {
		return nil, nil, fmt.Errorf("%w: image %dx%d smaller than tile size %d",
			ErrArgument, src.Cols(), src.Rows(), tileSize)
	}

	v := &tileStatsView{
		src:      src,
		tileSize: tileSize,
		gridCols: gridCols,
		gridRows: gridRows,
		means:    raster.NewImage(gridCols, gridRows),
		stddevs:  raster.NewImage(gridCols, gridRows),
	}

	// Drive the view through the block scheduler; the rasterized image is
	// junk, the statistics land in the grid cells.
	if _, err := raster.Rasterize(v, tileSize, workers); err != nil {
		return nil, nil, err
	}
	return v.means, v.stddevs, nil
}
