// Package georef carries the minimal georeferencing the detector needs:
// GDAL-style affine geotransforms, ground resolution, and reprojection of
// masked rasters between two georeferenced grids.
package georef

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"sarflood/pkg/raster"
)

// GeoTransform is the GDAL-style affine transform from pixel space to
// geographic coordinates:
//
//	lon = gt[0] + px*gt[1] + py*gt[2]
//	lat = gt[3] + px*gt[4] + py*gt[5]
type GeoTransform [6]float64

// PixelToLonLat converts pixel coordinates to lon/lat.
func (gt GeoTransform) PixelToLonLat(px, py float64) (lon, lat float64) {
	lon = gt[0] + px*gt[1] + py*gt[2]
	lat = gt[3] + px*gt[4] + py*gt[5]
	return lon, lat
}

// LonLatToPixel inverts the affine transform. ok is false for a singular
// transform.
func (gt GeoTransform) LonLatToPixel(lon, lat float64) (px, py float64, ok bool) {
	det := gt[1]*gt[5] - gt[2]*gt[4]
	if det == 0 {
		return 0, 0, false
	}
	dx := lon - gt[0]
	dy := lat - gt[3]
	px = (dx*gt[5] - dy*gt[2]) / det
	py = (dy*gt[1] - dx*gt[4]) / det
	return px, py, true
}

// Crop shifts the transform origin to the given pixel offset, so the
// cropped raster keeps its geographic placement.
func (gt GeoTransform) Crop(minX, minY int) GeoTransform {
	out := gt
	out[0], out[3] = gt.PixelToLonLat(float64(minX), float64(minY))
	return out
}

// Resample scales the transform for a raster subsampled by 1/factor.
func (gt GeoTransform) Resample(factor float64) GeoTransform {
	out := gt
	out[1] /= factor
	out[2] /= factor
	out[4] /= factor
	out[5] /= factor
	return out
}

const earthRadiusMeters = 6371000.0

// haversine returns the great-circle distance in meters between two
// lon/lat points in degrees.
func haversine(lon1, lat1, lon2, lat2 float64) float64 {
	const deg2rad = math.Pi / 180
	dLat := (lat2 - lat1) * deg2rad
	dLon := (lon2 - lon1) * deg2rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*deg2rad)*math.Cos(lat2*deg2rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}

// MetersPerPixel estimates the ground resolution at the scene center by
// measuring one-pixel steps in both axes and averaging.
func MetersPerPixel(gt GeoTransform, cols, rows int) float64 {
	cx := float64(cols) / 2
	cy := float64(rows) / 2
	lon0, lat0 := gt.PixelToLonLat(cx, cy)
	lon1, lat1 := gt.PixelToLonLat(cx+1, cy)
	lon2, lat2 := gt.PixelToLonLat(cx, cy+1)
	return (haversine(lon0, lat0, lon1, lat1) + haversine(lon0, lat0, lon2, lat2)) / 2
}

// Reproject resamples src, georeferenced by srcGT, onto a target grid of
// cols x rows pixels georeferenced by dstGT. Sampling is bilinear with
// constant edge extension; a sample touching any invalid source pixel is
// invalid.
func Reproject(src *raster.Image, srcGT, dstGT GeoTransform, cols, rows int) (*raster.Image, error) {
	out := raster.NewImage(cols, rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			lon, lat := dstGT.PixelToLonLat(float64(c), float64(r))
			px, py, ok := srcGT.LonLatToPixel(lon, lat)
			if !ok {
				return nil, fmt.Errorf("georef: singular source geotransform")
			}
			out.Set(c, r, sampleBilinear(src, px, py))
		}
	}
	return out, nil
}

func sampleBilinear(im *raster.Image, px, py float64) raster.Masked {
	// Constant edge extension: clamp into the image.
	px = math.Min(math.Max(px, 0), float64(im.Cols-1))
	py = math.Min(math.Max(py, 0), float64(im.Rows-1))

	// The affine round trip is not exact; snap near-integer positions so an
	// exact grid hit never samples its zero-weight neighbors.
	if r := math.Round(px); math.Abs(px-r) < 1e-9 {
		px = r
	}
	if r := math.Round(py); math.Abs(py-r) < 1e-9 {
		py = r
	}

	x0 := int(px)
	y0 := int(py)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 >= im.Cols {
		x1 = x0
	}
	if y1 >= im.Rows {
		y1 = y0
	}
	fx := px - float64(x0)
	fy := py - float64(y0)
	// Zero-weight neighbors must not poison an exact grid hit.
	if fx == 0 {
		x1 = x0
	}
	if fy == 0 {
		y1 = y0
	}

	p00 := im.At(x0, y0)
	p10 := im.At(x1, y0)
	p01 := im.At(x0, y1)
	p11 := im.At(x1, y1)
	if !p00.Valid || !p10.Valid || !p01.Valid || !p11.Valid {
		return raster.Invalid()
	}

	top := p00.V*(1-fx) + p10.V*fx
	bot := p01.V*(1-fx) + p11.V*fx
	return raster.Value(top*(1-fy) + bot*fy)
}

// ReadWorldFile parses an ESRI world file (six lines: x scale, y rotation,
// x rotation, y scale, x origin, y origin) into a geotransform.
func ReadWorldFile(path string) (GeoTransform, error) {
	f, err := os.Open(path)
	if err != nil {
		return GeoTransform{}, fmt.Errorf("open world file: %w", err)
	}
	defer f.Close()

	var vals []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return GeoTransform{}, fmt.Errorf("parse world file %s: %w", path, err)
		}
		vals = append(vals, v)
	}
	if err := scanner.Err(); err != nil {
		return GeoTransform{}, fmt.Errorf("read world file: %w", err)
	}
	if len(vals) < 6 {
		return GeoTransform{}, fmt.Errorf("world file %s has %d values, want 6", path, len(vals))
	}

	// World files reference pixel centers and order the terms
	// A, D, B, E, C, F relative to the GDAL layout.
	return GeoTransform{vals[4], vals[0], vals[2], vals[5], vals[1], vals[3]}, nil
}
