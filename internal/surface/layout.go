package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/chordkit/internal/fretmap"
	"github.com/roach88/chordkit/internal/render"
)

// Layout is the intrinsic geometry of a drawn diagram: the full drawing size
// and the fretboard body rectangle inside it. Everything above Top is the nut
// region where open and muted markers are drawn.
type Layout struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Margins derives mapper margins from the body rectangle. Horizontal uses the
// wider of the two side margins so the body is never overstated.
func (l Layout) Margins() fretmap.Margins {
	if l.Width <= 0 || l.Height <= 0 {
		return fretmap.DefaultMargins
	}
	side := l.Left
	if r := l.Width - l.Right; r > side {
		side = r
	}
	return fretmap.Margins{
		Horizontal: side / l.Width,
		Top:        l.Top / l.Height,
		Bottom:     (l.Height - l.Bottom) / l.Height,
	}
}

// Geometry pairs the layout with the on-screen size it is displayed at.
func (l Layout) Geometry(renderedWidth, renderedHeight float64, numStrings, numFrets int) fretmap.Geometry {
	return fretmap.Geometry{
		IntrinsicWidth:  l.Width,
		IntrinsicHeight: l.Height,
		RenderedWidth:   renderedWidth,
		RenderedHeight:  renderedHeight,
		NumStrings:      numStrings,
		NumFrets:        numFrets,
	}
}

// Renderer draws one diagram and reports the layout it used.
type Renderer interface {
	Render(w io.Writer, cfg render.Config, data render.ChordData) (Layout, error)
}

// boardMetrics places strings in the middle of equal slots so that the body
// split used by the mapper lines up with what is drawn.
type boardMetrics struct {
	slot   float64 // width of one string slot
	fret   float64 // height of one fret
	side   float64 // left and right margin
	top    float64 // height of the title and marker area
	bottom float64 // height of the tuning label area
}

func (m boardMetrics) layout(cfg render.Config) Layout {
	w := 2*m.side + float64(cfg.Strings)*m.slot
	return Layout{
		Width:  w,
		Height: m.top + float64(cfg.Frets)*m.fret + m.bottom,
		Left:   m.side,
		Right:  w - m.side,
		Top:    m.top,
		Bottom: m.top + float64(cfg.Frets)*m.fret,
	}
}

// stringX is the x of string s (1 = rightmost).
func (m boardMetrics) stringX(cfg render.Config, s int) float64 {
	slot := cfg.Strings - s
	return m.side + (float64(slot)+0.5)*m.slot
}

// fretY is the y of the wire below fret f; fretY(0) is the nut.
func (m boardMetrics) fretY(f int) float64 {
	return m.top + float64(f)*m.fret
}

// cellY is the vertical middle of fret f.
func (m boardMetrics) cellY(f int) float64 {
	return m.top + (float64(f)-0.5)*m.fret
}

func validate(cfg render.Config) error {
	if cfg.Strings < 2 || cfg.Frets < 1 {
		return fmt.Errorf("surface: need at least 2 strings and 1 fret, got %dx%d", cfg.Strings, cfg.Frets)
	}
	return nil
}

// positionLabel is the starting-fret marker drawn beside the first fret.
func positionLabel(cfg render.Config) string {
	if cfg.Position <= 1 || cfg.Style.NoPosition {
		return ""
	}
	return fmt.Sprintf("%dfr", cfg.Position)
}

// ForFormat returns the renderer for "svg", "png" or "text".
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "svg", "":
		return NewSVG(), nil
	case "png":
		return NewPNG(), nil
	case "text", "txt":
		return &Text{}, nil
	default:
		return nil, fmt.Errorf("unknown surface format %q (want svg, png or text)", format)
	}
}
