package detect

import (
	"math"
	"sort"

	"sarflood/pkg/raster"
)

// Processing range of the preprocessed image in decibels. Sentinel-1
// backscatter effectively always falls inside it.
const (
	ProcMinDb = 0.0
	ProcMaxDb = 35.0
)

// DNToDecibels converts a Sentinel-1 digital-number image to decibels,
// 10*log10(DN). A DN at or below zero carries no signal, such as a stray
// nodata sentinel, and becomes invalid rather than negative infinity or NaN.
func DNToDecibels(dn *raster.Image) *raster.Image {
	out := raster.NewImage(dn.Cols, dn.Rows)
	n := dn.Cols * dn.Rows
	for i := 0; i < n; i++ {
		px := dn.Pix[i]
		if !px.Valid || px.V <= 0 {
			continue
		}
		out.Pix[i] = raster.Value(10 * math.Log10(px.V))
	}
	return out
}

// MedianFilter3 applies a 3x3 median filter for speckle correction. The
// median is taken over the valid pixels of each window; a pixel that is
// itself invalid stays invalid.
func MedianFilter3(im *raster.Image) *raster.Image {
	out := raster.NewImage(im.Cols, im.Rows)
	window := make([]float64, 0, 9)
	for r := 0; r < im.Rows; r++ {
		for c := 0; c < im.Cols; c++ {
			if !im.At(c, r).Valid {
				continue
			}
			window = window[:0]
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					x, y := c+dc, r+dr
					if x < 0 || x >= im.Cols || y < 0 || y >= im.Rows {
						continue
					}
					if px := im.At(x, y); px.Valid {
						window = append(window, px.V)
					}
				}
			}
			out.Set(c, r, raster.Value(median(window)))
		}
	}
	return out
}

func median(values []float64) float64 {
	sort.Float64s(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}
