package detect

import (
	"math"

	"sarflood/pkg/raster"
)

// SlopeAngles derives a slope-angle raster in degrees from an elevation
// raster. Surface normals come from central differences scaled by the
// ground resolution; the slope angle is acos(|n . z|). Border pixels use
// one-sided differences.
func SlopeAngles(dem *raster.Image, metersPerPixel float64) *raster.Image {
	const rad2deg = 180.0 / math.Pi
	if metersPerPixel <= 0 {
		metersPerPixel = 1
	}

	out := raster.NewImage(dem.Cols, dem.Rows)
	for r := 0; r < dem.Rows; r++ {
		for c := 0; c < dem.Cols; c++ {
			if !dem.At(c, r).Valid {
				continue
			}
			dzdx, okX := gradient(dem, c, r, 1, 0, metersPerPixel)
			dzdy, okY := gradient(dem, c, r, 0, 1, metersPerPixel)
			if !okX || !okY {
				continue
			}

			// Normal of the surface z = f(x, y) is (-dz/dx, -dz/dy, 1).
			norm := math.Sqrt(dzdx*dzdx + dzdy*dzdy + 1)
			nz := 1 / norm
			out.Set(c, r, raster.Value(rad2deg*math.Acos(math.Abs(nz))))
		}
	}
	return out
}

// gradient estimates the elevation derivative at (c, r) along (dc, dr),
// falling back to one-sided differences at the raster border or next to
// invalid samples.
func gradient(dem *raster.Image, c, r, dc, dr int, metersPerPixel float64) (float64, bool) {
	fwdC, fwdR := c+dc, r+dr
	bwdC, bwdR := c-dc, r-dr

	fwdOK := fwdC >= 0 && fwdC < dem.Cols && fwdR >= 0 && fwdR < dem.Rows && dem.At(fwdC, fwdR).Valid
	bwdOK := bwdC >= 0 && bwdC < dem.Cols && bwdR >= 0 && bwdR < dem.Rows && dem.At(bwdC, bwdR).Valid

	switch {
	case fwdOK && bwdOK:
		return (dem.At(fwdC, fwdR).V - dem.At(bwdC, bwdR).V) / (2 * metersPerPixel), true
	case fwdOK:
		return (dem.At(fwdC, fwdR).V - dem.At(c, r).V) / metersPerPixel, true
	case bwdOK:
		return (dem.At(c, r).V - dem.At(bwdC, bwdR).V) / metersPerPixel, true
	default:
		return 0, false
	}
}
