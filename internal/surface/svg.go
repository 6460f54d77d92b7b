package surface

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/roach88/chordkit/internal/render"
)

// SVG draws diagrams as SVG with a viewBox equal to the layout size, so a
// browser can scale the drawing freely and the mapper still reads the
// intrinsic size from the viewBox.
type SVG struct {
	metrics boardMetrics
}

// NewSVG returns an SVG renderer with 40-unit string slots and 50-unit frets.
func NewSVG() *SVG {
	return &SVG{metrics: boardMetrics{slot: 40, fret: 50, side: 40, top: 70, bottom: 30}}
}

// Layout returns the layout Render would use for cfg without drawing.
func (s *SVG) Layout(cfg render.Config) Layout {
	return s.metrics.layout(cfg)
}

// Render writes the diagram as an SVG document.
func (s *SVG) Render(w io.Writer, cfg render.Config, data render.ChordData) (Layout, error) {
	if err := validate(cfg); err != nil {
		return Layout{}, err
	}
	m := s.metrics
	l := m.layout(cfg)
	st := styleOrDefault(cfg.Style)
	width, height := int(l.Width), int(l.Height)

	canvas := svg.New(w)
	canvas.Startview(width, height, 0, 0, width, height)
	canvas.Rect(0, 0, width, height, fmt.Sprintf("fill:%s", st.BackgroundColor))

	if cfg.Title != "" {
		canvas.Text(width/2, 28, cfg.Title,
			fmt.Sprintf("fill:%s;font-size:%dpx;font-family:sans-serif;text-anchor:middle", st.Color, st.TitleFontSize))
	}

	left := int(m.stringX(cfg, cfg.Strings))
	right := int(m.stringX(cfg, 1))
	lineStyle := fmt.Sprintf("stroke:%s;stroke-width:2", st.Color)

	canvas.Group("id=\"board\"")
	for f := 0; f <= cfg.Frets; f++ {
		y := int(m.fretY(f))
		if f == 0 && cfg.Position <= 1 {
			canvas.Line(left, y, right, y, fmt.Sprintf("stroke:%s;stroke-width:6", st.Color))
			continue
		}
		canvas.Line(left, y, right, y, lineStyle)
	}
	for str := 1; str <= cfg.Strings; str++ {
		x := int(m.stringX(cfg, str))
		canvas.Line(x, int(m.fretY(0)), x, int(m.fretY(cfg.Frets)), lineStyle)
	}
	if label := positionLabel(cfg); label != "" {
		canvas.Text(left-12, int(m.cellY(1))+5, label,
			fmt.Sprintf("fill:%s;font-size:14px;font-family:sans-serif;text-anchor:end", st.Color))
	}
	canvas.Gend()

	canvas.Group("id=\"marks\"")
	markerY := int(m.top) - 14
	for _, e := range data.Fingers {
		if e.String < 1 || e.String > cfg.Strings {
			continue
		}
		x := int(m.stringX(cfg, e.String))
		switch {
		case e.Mute:
			canvas.Line(x-7, markerY-7, x+7, markerY+7, lineStyle)
			canvas.Line(x-7, markerY+7, x+7, markerY-7, lineStyle)
		case e.Fret == 0:
			canvas.Circle(x, markerY, 8, fmt.Sprintf("fill:none;%s", lineStyle))
		case e.Fret <= cfg.Frets:
			y := int(m.cellY(e.Fret))
			canvas.Circle(x, y, 14, fmt.Sprintf("fill:%s", st.Color))
			if e.Number != "" {
				canvas.Text(x, y+5, e.Number,
					fmt.Sprintf("fill:%s;font-size:14px;font-family:sans-serif;text-anchor:middle", st.FingerTextColor))
			}
		}
	}
	for _, b := range data.Barres {
		if b.Fret < 1 || b.Fret > cfg.Frets {
			continue
		}
		x1 := int(m.stringX(cfg, b.FromString)) - 14
		x2 := int(m.stringX(cfg, b.ToString)) + 14
		y := int(m.cellY(b.Fret))
		canvas.Roundrect(x1, y-14, x2-x1, 28, 14, 14, fmt.Sprintf("fill:%s", st.Color))
		if b.Label != "" {
			canvas.Text((x1+x2)/2, y+5, b.Label,
				fmt.Sprintf("fill:%s;font-size:14px;font-family:sans-serif;text-anchor:middle", st.FingerTextColor))
		}
	}
	canvas.Gend()

	for i, name := range cfg.Tuning {
		str := cfg.Strings - i
		if str < 1 {
			break
		}
		canvas.Text(int(m.stringX(cfg, str)), int(l.Bottom)+20, name,
			fmt.Sprintf("fill:%s;font-size:12px;font-family:sans-serif;text-anchor:middle", st.Color))
	}

	canvas.End()
	return l, nil
}

func styleOrDefault(s render.Style) render.Style {
	d := render.DefaultStyle
	if s.Color != "" {
		d.Color = s.Color
	}
	if s.BackgroundColor != "" {
		d.BackgroundColor = s.BackgroundColor
	}
	if s.FingerTextColor != "" {
		d.FingerTextColor = s.FingerTextColor
	}
	if s.TitleFontSize > 0 {
		d.TitleFontSize = s.TitleFontSize
	}
	d.NoPosition = s.NoPosition
	return d
}
