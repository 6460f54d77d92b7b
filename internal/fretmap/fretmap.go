// Package fretmap converts pointer positions over a rendered fretboard into
// logical (string, fret) cells.
//
// Map is a pure function of its inputs. Any geometry it cannot trust (zero
// sizes, NaN or infinite scale, a point outside the fretboard) yields NoHit:
// a missed click is acceptable, a misplaced finger is not.
package fretmap

import (
	"fmt"
	"math"
)

// Point is a position in the surface's on-screen pixel space.
type Point struct {
	X float64
	Y float64
}

// Geometry describes the rendered surface.
type Geometry struct {
	// IntrinsicWidth and IntrinsicHeight are the unscaled drawing-area size
	// (the SVG viewBox).
	IntrinsicWidth  float64
	IntrinsicHeight float64

	// RenderedWidth and RenderedHeight are the on-screen size.
	RenderedWidth  float64
	RenderedHeight float64

	NumStrings int
	NumFrets   int
}

// Margins are the fractions of the intrinsic size outside the fretboard body.
// Horizontal applies to both the left and right edges.
type Margins struct {
	Horizontal float64
	Top        float64
	Bottom     float64
}

// DefaultMargins are used when the surface publishes no layout.
var DefaultMargins = Margins{Horizontal: 0.15, Top: 0.10, Bottom: 0.08}

// Validate reports margins that leave no fretboard body.
func (m Margins) Validate() error {
	for name, v := range map[string]float64{"horizontal": m.Horizontal, "top": m.Top, "bottom": m.Bottom} {
		if math.IsNaN(v) || v < 0 || v >= 1 {
			return fmt.Errorf("margin %s must be in [0,1), got %v", name, v)
		}
	}
	if 2*m.Horizontal >= 1 {
		return fmt.Errorf("horizontal margins %v leave no fretboard width", m.Horizontal)
	}
	if m.Top+m.Bottom >= 1 {
		return fmt.Errorf("vertical margins %v+%v leave no fretboard height", m.Top, m.Bottom)
	}
	return nil
}

// HitKind classifies a mapped point.
type HitKind int

const (
	NoHit HitKind = iota
	NutHit
	FretHit
)

func (k HitKind) String() string {
	switch k {
	case NutHit:
		return "nut"
	case FretHit:
		return "fret"
	default:
		return "none"
	}
}

// Hit is the result of Map. String is set for NutHit and FretHit; Fret only
// for FretHit.
type Hit struct {
	Kind   HitKind
	String int
	Fret   int
}

// Nut returns a NutHit for string s.
func Nut(s int) Hit { return Hit{Kind: NutHit, String: s} }

// Cell returns a FretHit for (s, fret).
func Cell(s, fret int) Hit { return Hit{Kind: FretHit, String: s, Fret: fret} }

// Map converts p into a logical cell.
//
// The point is first rescaled into intrinsic coordinates. The fretboard body
// is the intrinsic area less the margins. Horizontally the body is divided
// into NumStrings equal slots, slot 0 being the leftmost, lowest-pitched
// string, so the logical string is NumStrings-slot. Above the body is the nut
// region; below it is nothing. Inside the body the fret is floor(ratio *
// NumFrets)+1 with the bottom edge clamped to NumFrets.
func Map(p Point, g Geometry, m Margins) Hit {
	if g.NumStrings < 1 || g.NumFrets < 1 {
		return Hit{}
	}
	sx := g.IntrinsicWidth / g.RenderedWidth
	sy := g.IntrinsicHeight / g.RenderedHeight
	if !positiveFinite(g.IntrinsicWidth) || !positiveFinite(g.IntrinsicHeight) ||
		!positiveFinite(g.RenderedWidth) || !positiveFinite(g.RenderedHeight) ||
		!positiveFinite(sx) || !positiveFinite(sy) {
		return Hit{}
	}
	if !finite(p.X) || !finite(p.Y) || m.Validate() != nil {
		return Hit{}
	}

	x := p.X * sx
	y := p.Y * sy

	left := g.IntrinsicWidth * m.Horizontal
	right := g.IntrinsicWidth - left
	top := g.IntrinsicHeight * m.Top
	bottom := g.IntrinsicHeight - g.IntrinsicHeight*m.Bottom

	if x < left || x > right {
		return Hit{}
	}
	slot := int(math.Floor((x - left) / (right - left) * float64(g.NumStrings)))
	if slot == g.NumStrings {
		slot = g.NumStrings - 1
	}
	if slot < 0 || slot >= g.NumStrings {
		return Hit{}
	}
	s := g.NumStrings - slot

	switch {
	case y < 0:
		return Hit{}
	case y < top:
		return Nut(s)
	case y > bottom:
		return Hit{}
	}

	fret := int(math.Floor((y-top)/(bottom-top)*float64(g.NumFrets))) + 1
	if fret == g.NumFrets+1 {
		fret = g.NumFrets
	}
	if fret < 1 || fret > g.NumFrets {
		return Hit{}
	}
	return Cell(s, fret)
}

// Center returns the on-screen point at the middle of cell (s, fret), or of
// the nut region above string s when fret is 0. It is the inverse of Map and
// lets tests and scripted gestures address cells without pixel arithmetic.
func Center(s, fret int, g Geometry, m Margins) Point {
	left := g.IntrinsicWidth * m.Horizontal
	body := g.IntrinsicWidth - 2*left
	slot := g.NumStrings - s
	x := left + (float64(slot)+0.5)*body/float64(g.NumStrings)

	top := g.IntrinsicHeight * m.Top
	height := g.IntrinsicHeight - top - g.IntrinsicHeight*m.Bottom
	y := top / 2
	if fret > 0 {
		y = top + (float64(fret)-0.5)*height/float64(g.NumFrets)
	}
	return Point{
		X: x * g.RenderedWidth / g.IntrinsicWidth,
		Y: y * g.RenderedHeight / g.IntrinsicHeight,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positiveFinite(v float64) bool {
	return finite(v) && v > 0
}
