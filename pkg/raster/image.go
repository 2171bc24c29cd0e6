package raster

import "math"

// Image is an in-memory pixel grid of masked samples stored as a flat
// buffer in column/row/plane order. The column stride is 1, the row stride
// is Cols and the plane stride is Cols*Rows.
type Image struct {
	Cols, Rows, Planes int
	Pix                []Masked
}

// NewImage allocates an image of the given size with a single plane.
// All pixels start invalid.
func NewImage(cols, rows int) *Image {
	return NewImageP(cols, rows, 1)
}

// NewImageP allocates an image with the given number of planes.
func NewImageP(cols, rows, planes int) *Image {
	return &Image{
		Cols:   cols,
		Rows:   rows,
		Planes: planes,
		Pix:    make([]Masked, cols*rows*planes),
	}
}

// Bounds returns the full extent of the image as a Rect.
func (im *Image) Bounds() Rect {
	return Rect{Width: im.Cols, Height: im.Rows}
}

func (im *Image) index(c, r, p int) int {
	return (p*im.Rows+r)*im.Cols + c
}

// At returns the pixel at (c, r) on plane 0.
func (im *Image) At(c, r int) Masked {
	return im.Pix[im.index(c, r, 0)]
}

// AtP returns the pixel at (c, r, p).
func (im *Image) AtP(c, r, p int) Masked {
	return im.Pix[im.index(c, r, p)]
}

// Set stores a pixel at (c, r) on plane 0.
func (im *Image) Set(c, r int, v Masked) {
	im.Pix[im.index(c, r, 0)] = v
}

// SetP stores a pixel at (c, r, p).
func (im *Image) SetP(c, r, p int, v Masked) {
	im.Pix[im.index(c, r, p)] = v
}

// Fill sets every pixel of the image to v.
func (im *Image) Fill(v Masked) {
	for i := range im.Pix {
		im.Pix[i] = v
	}
}

// Clone returns a deep copy of the image.
func (im *Image) Clone() *Image {
	out := NewImageP(im.Cols, im.Rows, im.Planes)
	copy(out.Pix, im.Pix)
	return out
}

// Crop copies the given region of plane 0 into a new image. The region must
// lie inside the image bounds.
func (im *Image) Crop(region Rect) *Image {
	out := NewImage(region.Width, region.Height)
	for r := 0; r < region.Height; r++ {
		srcOff := im.index(region.MinX, region.MinY+r, 0)
		dstOff := r * region.Width
		copy(out.Pix[dstOff:dstOff+region.Width], im.Pix[srcOff:srcOff+region.Width])
	}
	return out
}

// MinMax scans plane 0 and returns the smallest and largest valid values.
// ok is false when the image contains no valid pixels.
func (im *Image) MinMax() (lo, hi float64, ok bool) {
	lo = math.Inf(1)
	hi = math.Inf(-1)
	for _, px := range im.Pix[:im.Cols*im.Rows] {
		if !px.Valid {
			continue
		}
		ok = true
		if px.V < lo {
			lo = px.V
		}
		if px.V > hi {
			hi = px.V
		}
	}
	return lo, hi, ok
}

// MeanValid returns the mean of all valid pixels on plane 0.
// ok is false when there are none.
func (im *Image) MeanValid() (mean float64, ok bool) {
	sum := 0.0
	n := 0
	for _, px := range im.Pix[:im.Cols*im.Rows] {
		if px.Valid {
			sum += px.V
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Subsample returns a new image containing every factor-th pixel of plane 0
// in both dimensions.
func Subsample(im *Image, factor int) *Image {
	if factor <= 1 {
		return im.Clone()
	}
	cols := (im.Cols + factor - 1) / factor
	rows := (im.Rows + factor - 1) / factor
	out := NewImage(cols, rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.Set(c, r, im.At(c*factor, r*factor))
		}
	}
	return out
}

// CopyMask returns a copy of src whose pixels are invalidated wherever the
// same pixel of mask is invalid. The two images must share an extent.
func CopyMask(src, mask *Image) *Image {
	out := src.Clone()
	n := out.Cols * out.Rows
	for i := 0; i < n; i++ {
		if !mask.Pix[i].Valid {
			out.Pix[i] = Invalid()
		}
	}
	return out
}
