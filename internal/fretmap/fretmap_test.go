package fretmap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// board is a 200x250 viewBox drawn at half size, six strings, five frets.
// With the default margins the body spans x 30..170 and y 25..230.
var board = Geometry{
	IntrinsicWidth:  200,
	IntrinsicHeight: 250,
	RenderedWidth:   100,
	RenderedHeight:  125,
	NumStrings:      6,
	NumFrets:        5,
}

func TestMapCells(t *testing.T) {
	tests := []struct {
		name string
		p    Point // on-screen, half of intrinsic
		want Hit
	}{
		{"leftmost string first fret", Point{X: 16, Y: 14}, Cell(6, 1)},
		{"rightmost string first fret", Point{X: 84, Y: 14}, Cell(1, 1)},
		{"middle of board", Point{X: 45, Y: 60}, Cell(4, 3)},
		{"bottom edge clamps to last fret", Point{X: 45, Y: 115}, Cell(4, 5)},
		{"right edge clamps to string 1", Point{X: 85, Y: 60}, Cell(1, 3)},
		{"nut region", Point{X: 84, Y: 5}, Nut(1)},
		{"nut region low string", Point{X: 16, Y: 0}, Nut(6)},
		{"left of board", Point{X: 10, Y: 60}, Hit{}},
		{"right of board", Point{X: 90, Y: 60}, Hit{}},
		{"below board", Point{X: 45, Y: 120}, Hit{}},
		{"above surface", Point{X: 45, Y: -1}, Hit{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Map(tt.p, board, DefaultMargins))
		})
	}
}

func TestMapDegradesOnBadGeometry(t *testing.T) {
	p := Point{X: 45, Y: 60}
	bad := map[string]func(g *Geometry){
		"zero rendered width":  func(g *Geometry) { g.RenderedWidth = 0 },
		"zero rendered height": func(g *Geometry) { g.RenderedHeight = 0 },
		"zero intrinsic width": func(g *Geometry) { g.IntrinsicWidth = 0 },
		"nan intrinsic height": func(g *Geometry) { g.IntrinsicHeight = math.NaN() },
		"inf rendered width":   func(g *Geometry) { g.RenderedWidth = math.Inf(1) },
		"negative width":       func(g *Geometry) { g.IntrinsicWidth = -200 },
		"no strings":           func(g *Geometry) { g.NumStrings = 0 },
		"no frets":             func(g *Geometry) { g.NumFrets = 0 },
		"scale overflow":       func(g *Geometry) { g.RenderedWidth = math.SmallestNonzeroFloat64 },
	}
	for name, mutate := range bad {
		t.Run(name, func(t *testing.T) {
			g := board
			mutate(&g)
			assert.Equal(t, Hit{}, Map(p, g, DefaultMargins))
		})
	}

	assert.Equal(t, Hit{}, Map(Point{X: math.NaN(), Y: 10}, board, DefaultMargins))
	assert.Equal(t, Hit{}, Map(p, board, Margins{Horizontal: 0.6}))
}

func TestMapRoundTripsCenter(t *testing.T) {
	for s := 1; s <= board.NumStrings; s++ {
		for fret := 0; fret <= board.NumFrets; fret++ {
			want := Cell(s, fret)
			if fret == 0 {
				want = Nut(s)
			}
			assert.Equal(t, want, Map(Center(s, fret, board, DefaultMargins), board, DefaultMargins))
		}
	}
}

func TestMarginsValidate(t *testing.T) {
	assert.NoError(t, DefaultMargins.Validate())
	assert.NoError(t, Margins{}.Validate())
	assert.Error(t, Margins{Horizontal: 0.5}.Validate())
	assert.Error(t, Margins{Top: 0.6, Bottom: 0.4}.Validate())
	assert.Error(t, Margins{Top: -0.1}.Validate())
	assert.Error(t, Margins{Bottom: math.NaN()}.Validate())
}

func TestOutsideBodyIsNoHit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := Geometry{
			IntrinsicWidth:  rapid.Float64Range(10, 1000).Draw(t, "iw"),
			IntrinsicHeight: rapid.Float64Range(10, 1000).Draw(t, "ih"),
			RenderedWidth:   rapid.Float64Range(10, 1000).Draw(t, "rw"),
			RenderedHeight:  rapid.Float64Range(10, 1000).Draw(t, "rh"),
			NumStrings:      rapid.IntRange(2, 12).Draw(t, "strings"),
			NumFrets:        rapid.IntRange(1, 24).Draw(t, "frets"),
		}
		m := DefaultMargins
		sx := g.RenderedWidth / g.IntrinsicWidth
		sy := g.RenderedHeight / g.IntrinsicHeight

		left := g.IntrinsicWidth * m.Horizontal * sx
		right := (g.IntrinsicWidth - g.IntrinsicWidth*m.Horizontal) * sx
		bottom := (g.IntrinsicHeight - g.IntrinsicHeight*m.Bottom) * sy

		var p Point
		switch rapid.IntRange(0, 3).Draw(t, "side") {
		case 0:
			p = Point{X: left - rapid.Float64Range(0.01, 500).Draw(t, "dx"), Y: rapid.Float64Range(-500, 1500).Draw(t, "y")}
		case 1:
			p = Point{X: right + rapid.Float64Range(0.01, 500).Draw(t, "dx"), Y: rapid.Float64Range(-500, 1500).Draw(t, "y")}
		case 2:
			p = Point{X: rapid.Float64Range(-500, 1500).Draw(t, "x"), Y: bottom + rapid.Float64Range(0.01, 500).Draw(t, "dy")}
		case 3:
			p = Point{X: rapid.Float64Range(-500, 1500).Draw(t, "x"), Y: -rapid.Float64Range(0.01, 500).Draw(t, "dy")}
		}

		if got := Map(p, g, m); got.Kind != NoHit {
			t.Fatalf("point %+v outside the body mapped to %+v", p, got)
		}
	})
}

func TestInsideBodyAlwaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := board
		g.NumStrings = rapid.IntRange(2, 12).Draw(t, "strings")
		g.NumFrets = rapid.IntRange(1, 24).Draw(t, "frets")
		p := Point{
			X: rapid.Float64Range(15.5, 84.5).Draw(t, "x"),
			Y: rapid.Float64Range(13, 114.5).Draw(t, "y"),
		}

		got := Map(p, g, DefaultMargins)
		if got.Kind != FretHit {
			t.Fatalf("point %+v inside the body mapped to %+v", p, got)
		}
		if got.String < 1 || got.String > g.NumStrings || got.Fret < 1 || got.Fret > g.NumFrets {
			t.Fatalf("point %+v mapped out of range: %+v", p, got)
		}
	})
}
