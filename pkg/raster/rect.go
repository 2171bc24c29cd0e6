package raster

import "fmt"

// Rect is an axis-aligned integer rectangle over the column/row index space,
// described by its minimum corner and size.
type Rect struct {
	MinX, MinY    int
	Width, Height int
}

// NewRect builds a rectangle from a corner and size.
func NewRect(minX, minY, width, height int) Rect {
	return Rect{MinX: minX, MinY: minY, Width: width, Height: height}
}

// MaxX returns the exclusive right edge.
func (r Rect) MaxX() int { return r.MinX + r.Width }

// MaxY returns the exclusive bottom edge.
func (r Rect) MaxY() int { return r.MinY + r.Height }

// Area returns the number of pixels covered by the rectangle.
func (r Rect) Area() int { return r.Width * r.Height }

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether the pixel (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && x < r.MaxX() && y >= r.MinY && y < r.MaxY()
}

// Intersect returns the overlapping region of two rectangles. The result
// may be empty.
func (r Rect) Intersect(o Rect) Rect {
	minX := max(r.MinX, o.MinX)
	minY := max(r.MinY, o.MinY)
	maxX := min(r.MaxX(), o.MaxX())
	maxY := min(r.MaxY(), o.MaxY())
	if maxX < minX {
		maxX = minX
	}
	if maxY < minY {
		maxY = minY
	}
	return Rect{MinX: minX, MinY: minY, Width: maxX - minX, Height: maxY - minY}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.MinX, r.MinY, r.Width, r.Height)
}

// Quadrants splits the rectangle into its four quadrants in the order
// top-left, top-right, bottom-right, bottom-left. The split point uses
// integer division, so for odd sizes the extra row/column belongs to the
// bottom/right quadrants. Coordinates are relative to the rectangle origin.
func (r Rect) Quadrants() [4]Rect {
	hw := r.Width / 2
	hh := r.Height / 2
	return [4]Rect{
		{MinX: 0, MinY: 0, Width: hw, Height: hh},
		{MinX: hw, MinY: 0, Width: r.Width - hw, Height: hh},
		{MinX: hw, MinY: hh, Width: r.Width - hw, Height: r.Height - hh},
		{MinX: 0, MinY: hh, Width: hw, Height: r.Height - hh},
	}
}

// DivideROI splits a full region into a row-major grid of tiles of the given
// size. When includePartials is true the last row/column may contain smaller
// tiles so that the grid exactly covers the region; otherwise incomplete
// tiles are discarded.
func DivideROI(full Rect, size int, includePartials bool) [][]Rect {
	if size <= 0 || full.Empty() {
		return nil
	}

	var numX, numY int
	if includePartials {
		numX = (full.Width + size - 1) / size
		numY = (full.Height + size - 1) / size
	} else {
		numX = full.Width / size
		numY = full.Height / size
	}

	grid := make([][]Rect, numY)
	for r := 0; r < numY; r++ {
		grid[r] = make([]Rect, numX)
		for c := 0; c < numX; c++ {
			x := full.MinX + c*size
			y := full.MinY + r*size
			w := size
			h := size
			if x+w > full.MaxX() {
				w = full.MaxX() - x
			}
			if y+h > full.MaxY() {
				h = full.MaxY() - y
			}
			grid[r][c] = Rect{MinX: x, MinY: y, Width: w, Height: h}
		}
	}
	return grid
}
