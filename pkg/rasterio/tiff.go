// Package rasterio reads and writes the single-channel TIFF rasters the
// flood detector consumes and produces. Georeferencing travels in ESRI
// world files next to the TIFFs; see pkg/georef.
package rasterio

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"

	"sarflood/pkg/raster"
)

// ReadGray decodes a single-channel TIFF into a masked raster. Pixels
// matching the nodata sentinel become invalid; pass NaN to disable nodata
// handling.
func ReadGray(path string, nodata float64) (*raster.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raster: %w", err)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	bounds := img.Bounds()
	out := raster.NewImage(bounds.Dx(), bounds.Dy())
	checkNodata := !math.IsNaN(nodata)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := grayValue(img, x, y)
			if checkNodata && v == nodata {
				continue
			}
			out.Set(x-bounds.Min.X, y-bounds.Min.Y, raster.Value(v))
		}
	}
	return out, nil
}

func grayValue(img image.Image, x, y int) float64 {
	switch im := img.(type) {
	case *image.Gray:
		return float64(im.GrayAt(x, y).Y)
	case *image.Gray16:
		return float64(im.Gray16At(x, y).Y)
	default:
		r, g, b, _ := img.At(x, y).RGBA()
		// Standard luma weights over the 16-bit channels.
		return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	}
}

// WriteClasses writes a tri-state classification raster as an 8-bit TIFF.
func WriteClasses(path string, classes []uint8, cols, rows int) error {
	if len(classes) != cols*rows {
		return fmt.Errorf("classification length %d does not match %dx%d", len(classes), cols, rows)
	}
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	copy(img.Pix, classes)
	return writeTiff(path, img)
}

// WriteGray writes a masked raster as an 8-bit grayscale TIFF, scaling the
// valid range onto 1..255 and mapping invalid pixels to 0. Intended for
// debug output, adapted from the intermediary-result dumps of the
// processing stages.
func WriteGray(path string, im *raster.Image) error {
	lo, hi, ok := im.MinMax()
	scale := 0.0
	if ok && hi > lo {
		scale = 254.0 / (hi - lo)
	}

	img := image.NewGray(image.Rect(0, 0, im.Cols, im.Rows))
	for r := 0; r < im.Rows; r++ {
		for c := 0; c < im.Cols; c++ {
			px := im.At(c, r)
			if !px.Valid {
				continue
			}
			v := 1.0
			if scale > 0 {
				v = 1 + (px.V-lo)*scale
			}
			img.SetGray(c, r, color.Gray{Y: uint8(math.Round(v))})
		}
	}
	return writeTiff(path, img)
}

func writeTiff(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create raster: %w", err)
	}
	defer f.Close()

	if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
