// Package fuzzy implements the membership functions and defuzzification
// used to fuse the four flood evidence channels.
package fuzzy

import "sarflood/pkg/raster"

// Membership is a standard fuzzy membership function parameterized by the
// interval (a, b) with midpoint c = (a+b)/2.
type Membership struct {
	a, b, c, dba float64
	increasing   bool
}

// NewZ returns the Z-shaped (monotonically decreasing) membership function:
// full membership below a, none above b.
func NewZ(a, b float64) Membership {
	return Membership{a: a, b: b, c: (a + b) / 2, dba: b - a}
}

// NewS returns the S-shaped (monotonically increasing) membership function,
// the exact complement of the Z shape over the same interval.
func NewS(a, b float64) Membership {
	m := NewZ(a, b)
	m.increasing = true
	return m
}

// Eval maps v into [0, 1].
func (m Membership) Eval(v float64) float64 {
	if m.increasing {
		return 1 - m.evalZ(v)
	}
	return m.evalZ(v)
}

func (m Membership) evalZ(v float64) float64 {
	// A collapsed interval degenerates to a step at a.
	if m.dba <= 0 {
		if v <= m.a {
			return 1
		}
		return 0
	}
	switch {
	case v < m.a:
		return 1
	case v < m.c:
		t := (v - m.a) / m.dba
		return 1 - 2*t*t
	case v < m.b:
		t := (v - m.b) / m.dba
		return 2 * t * t
	default:
		return 0
	}
}

// EvalMasked applies the membership function to a masked sample,
// propagating invalidity.
func (m Membership) EvalMasked(v raster.Masked) raster.Masked {
	return v.Apply(m.Eval)
}

// Defuzz combines the four per-channel scores into one confidence value.
// A score of exactly zero on any channel vetoes the pixel; otherwise the
// result is the arithmetic mean of the four. An invalid input makes the
// result invalid.
func Defuzz(p1, p2, p3, p4 raster.Masked) raster.Masked {
	if !p1.Valid || !p2.Valid || !p3.Valid || !p4.Valid {
		return raster.Invalid()
	}
	if p1.V == 0 || p2.V == 0 || p3.V == 0 || p4.V == 0 {
		return raster.Value(0)
	}
	return raster.Value((p1.V + p2.V + p3.V + p4.V) / 4)
}
