package raster

import "errors"

// ErrOutOfRange reports that a bounds-checked accessor was dereferenced
// outside its buffer. This always indicates a caller bug, not a data
// quality problem.
var ErrOutOfRange = errors.New("raster: accessor index out of range")

// ErrFractionalStep reports that a fractional column/row step was requested
// on a source that is only integer-indexable.
var ErrFractionalStep = errors.New("raster: fractional step on integer-indexable source")

// Accessor is a stepping primitive over a (column, row, plane) pixel grid.
// Implementations hold only their own position, so copying one accessor and
// advancing the copy never affects the original.
type Accessor interface {
	// Advance moves the accessor by the given deltas. Fractional column or
	// row deltas are only permitted when the underlying source is
	// float-indexable.
	Advance(dc, dr float64, dp int) error

	// Value returns the pixel at the current position.
	Value() (Masked, error)
}

// StridedAccessor walks a flat pixel buffer using three fixed strides.
// It dereferences by reference via Ref, so callers can mutate pixels in
// place. Strided memory is never float-indexable.
type StridedAccessor struct {
	pix                       []Masked
	idx                       int
	cstride, rstride, pstride int
	checkBounds               bool
}

// NewStridedAccessor positions an accessor at (c, r, p) of the image.
// When checkBounds is set, dereferencing outside the buffer fails with
// ErrOutOfRange instead of faulting.
func NewStridedAccessor(im *Image, c, r, p int, checkBounds bool) *StridedAccessor {
	return &StridedAccessor{
		pix:         im.Pix,
		idx:         im.index(c, r, p),
		cstride:     1,
		rstride:     im.Cols,
		pstride:     im.Cols * im.Rows,
		checkBounds: checkBounds,
	}
}

// Advance steps the raw index by the given deltas. The deltas must be whole
// numbers.
func (a *StridedAccessor) Advance(dc, dr float64, dp int) error {
	ic, ir := int(dc), int(dr)
	if float64(ic) != dc || float64(ir) != dr {
		return ErrFractionalStep
	}
	a.idx += ic*a.cstride + ir*a.rstride + dp*a.pstride
	return nil
}

// Ref returns a pointer to the current pixel.
func (a *StridedAccessor) Ref() (*Masked, error) {
	if a.checkBounds && (a.idx < 0 || a.idx >= len(a.pix)) {
		return nil, ErrOutOfRange
	}
	return &a.pix[a.idx], nil
}

// Value returns the current pixel by value.
func (a *StridedAccessor) Value() (Masked, error) {
	ref, err := a.Ref()
	if err != nil {
		return Invalid(), err
	}
	return *ref, nil
}

// Procedure is a pixel source whose values are computed rather than stored.
type Procedure interface {
	// EvalAt computes the pixel at the given position.
	EvalAt(c, r float64, p int) Masked

	// FloatIndexable reports whether the source accepts fractional
	// column/row positions, as resampled or interpolated sources do.
	FloatIndexable() bool
}

// ProceduralAccessor tracks a position and computes pixel values on demand
// by invoking its source procedure. There is no backing buffer, so values
// are returned by value only.
type ProceduralAccessor struct {
	proc Procedure
	c, r float64
	p    int
}

// NewProceduralAccessor positions an accessor at (c, r, p) of the procedure.
func NewProceduralAccessor(proc Procedure, c, r float64, p int) *ProceduralAccessor {
	return &ProceduralAccessor{proc: proc, c: c, r: r, p: p}
}

// Advance moves the tracked position. Fractional deltas are rejected unless
// the source procedure is float-indexable.
func (a *ProceduralAccessor) Advance(dc, dr float64, dp int) error {
	if !a.proc.FloatIndexable() {
		if float64(int(dc)) != dc || float64(int(dr)) != dr {
			return ErrFractionalStep
		}
	}
	a.c += dc
	a.r += dr
	a.p += dp
	return nil
}

// Value invokes the source procedure at the current position.
func (a *ProceduralAccessor) Value() (Masked, error) {
	return a.proc.EvalAt(a.c, a.r, a.p), nil
}
