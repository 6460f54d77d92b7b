package surface

import (
	"fmt"
	"image/color"
	"image/png"
	"io"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/roach88/chordkit/internal/render"
)

// PNG rasterizes diagrams with the same geometry as the SVG renderer, scaled
// by Scale.
type PNG struct {
	Scale   float64
	metrics boardMetrics
}

// NewPNG returns a PNG renderer at 2x the SVG size.
func NewPNG() *PNG {
	return &PNG{Scale: 2, metrics: NewSVG().metrics}
}

// Render writes the diagram as a PNG image. The reported layout is in pixels.
func (p *PNG) Render(w io.Writer, cfg render.Config, data render.ChordData) (Layout, error) {
	if err := validate(cfg); err != nil {
		return Layout{}, err
	}
	scale := p.Scale
	if scale <= 0 {
		scale = 1
	}
	m := p.metrics
	m.slot *= scale
	m.fret *= scale
	m.side *= scale
	m.top *= scale
	m.bottom *= scale
	l := m.layout(cfg)
	st := styleOrDefault(cfg.Style)

	dc := gg.NewContext(int(l.Width), int(l.Height))
	dc.SetColor(hexColor(st.BackgroundColor))
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(hexColor(st.Color))
	if cfg.Title != "" {
		dc.DrawStringAnchored(cfg.Title, l.Width/2, 20*scale, 0.5, 0.5)
	}

	left := m.stringX(cfg, cfg.Strings)
	right := m.stringX(cfg, 1)
	for f := 0; f <= cfg.Frets; f++ {
		y := m.fretY(f)
		dc.SetLineWidth(2 * scale)
		if f == 0 && cfg.Position <= 1 {
			dc.SetLineWidth(6 * scale)
		}
		dc.DrawLine(left, y, right, y)
		dc.Stroke()
	}
	dc.SetLineWidth(2 * scale)
	for s := 1; s <= cfg.Strings; s++ {
		x := m.stringX(cfg, s)
		dc.DrawLine(x, m.fretY(0), x, m.fretY(cfg.Frets))
		dc.Stroke()
	}
	if label := positionLabel(cfg); label != "" {
		dc.DrawStringAnchored(label, left-10*scale, m.cellY(1), 1, 0.5)
	}

	markerY := m.top - 14*scale
	radius := 14 * scale
	for _, e := range data.Fingers {
		if e.String < 1 || e.String > cfg.Strings {
			continue
		}
		x := m.stringX(cfg, e.String)
		switch {
		case e.Mute:
			d := 7 * scale
			dc.DrawLine(x-d, markerY-d, x+d, markerY+d)
			dc.DrawLine(x-d, markerY+d, x+d, markerY-d)
			dc.Stroke()
		case e.Fret == 0:
			dc.DrawCircle(x, markerY, 8*scale)
			dc.Stroke()
		case e.Fret <= cfg.Frets:
			y := m.cellY(e.Fret)
			dc.DrawCircle(x, y, radius)
			dc.Fill()
			if e.Number != "" {
				dc.SetColor(hexColor(st.FingerTextColor))
				dc.DrawStringAnchored(e.Number, x, y, 0.5, 0.5)
				dc.SetColor(hexColor(st.Color))
			}
		}
	}
	for _, b := range data.Barres {
		if b.Fret < 1 || b.Fret > cfg.Frets {
			continue
		}
		x1 := m.stringX(cfg, b.FromString) - radius
		x2 := m.stringX(cfg, b.ToString) + radius
		y := m.cellY(b.Fret)
		dc.DrawRoundedRectangle(x1, y-radius, x2-x1, 2*radius, radius)
		dc.Fill()
		if b.Label != "" {
			dc.SetColor(hexColor(st.FingerTextColor))
			dc.DrawStringAnchored(b.Label, (x1+x2)/2, y, 0.5, 0.5)
			dc.SetColor(hexColor(st.Color))
		}
	}

	for i, name := range cfg.Tuning {
		s := cfg.Strings - i
		if s < 1 {
			break
		}
		dc.DrawStringAnchored(name, m.stringX(cfg, s), l.Bottom+m.bottom/2, 0.5, 0.5)
	}

	if err := png.Encode(w, dc.Image()); err != nil {
		return Layout{}, fmt.Errorf("encode png: %w", err)
	}
	return l, nil
}

// hexColor parses "#rgb" or "#rrggbb". Anything else is black.
func hexColor(s string) color.RGBA {
	var r, g, b uint8
	switch len(s) {
	case 7:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
			return color.RGBA{A: 0xff}
		}
	case 4:
		if _, err := fmt.Sscanf(s, "#%1x%1x%1x", &r, &g, &b); err != nil {
			return color.RGBA{A: 0xff}
		}
		r, g, b = r*17, g*17, b*17
	default:
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
