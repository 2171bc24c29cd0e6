// Package raster provides the pixel-grid primitives the flood detection
// pipeline is built on: masked pixel values, bounding regions, in-memory
// images, pixel accessors and the deferred tile-view contract used for
// block-parallel processing.
package raster

// Masked is a pixel sample paired with a validity flag. Arithmetic on an
// invalid value always yields an invalid value; code must never substitute
// a sentinel number for a missing sample.
type Masked struct {
	V     float64
	Valid bool
}

// Value returns a valid masked sample.
func Value(v float64) Masked {
	return Masked{V: v, Valid: true}
}

// Invalid returns an invalid masked sample.
func Invalid() Masked {
	return Masked{}
}

// Add returns m+o, invalid if either operand is invalid.
func (m Masked) Add(o Masked) Masked {
	if !m.Valid || !o.Valid {
		return Invalid()
	}
	return Value(m.V + o.V)
}

// Sub returns m-o, invalid if either operand is invalid.
func (m Masked) Sub(o Masked) Masked {
	if !m.Valid || !o.Valid {
		return Invalid()
	}
	return Value(m.V - o.V)
}

// Scale returns m*s, preserving invalidity.
func (m Masked) Scale(s float64) Masked {
	if !m.Valid {
		return Invalid()
	}
	return Value(m.V * s)
}

// Less reports m < o. The comparison is only meaningful when both values
// are valid; an invalid operand makes ok false.
func (m Masked) Less(o Masked) (less, ok bool) {
	if !m.Valid || !o.Valid {
		return false, false
	}
	return m.V < o.V, true
}

// Apply maps the payload through f, preserving invalidity.
func (m Masked) Apply(f func(float64) float64) Masked {
	if !m.Valid {
		return Invalid()
	}
	return Value(f(m.V))
}
