package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/render"
)

// Text draws a diagram in terminal cells. Each string takes a four-column
// slot, each fret two rows (the cell, then the wire below it), with two rows
// above the board for markers and the nut and one row below for the tuning.
// The layout is in cells, so a terminal mouse position maps 1:1.
type Text struct {
	// Highlight, when set, is drawn as an in-progress drag span.
	Highlight *diagram.Span
}

const (
	textSlot   = 4
	textSide   = 2
	textTop    = 2
	textBottom = 1
)

// TextLayout returns the cell layout for a board of the given size.
func TextLayout(numStrings, numFrets int) Layout {
	w := float64(2*textSide + textSlot*numStrings)
	return Layout{
		Width:  w,
		Height: float64(textTop + 2*numFrets + textBottom),
		Left:   textSide,
		Right:  w - textSide,
		Top:    textTop,
		Bottom: float64(textTop + 2*numFrets),
	}
}

// Render writes the board, one line per row.
func (t *Text) Render(w io.Writer, cfg render.Config, data render.ChordData) (Layout, error) {
	lines, l, err := t.Lines(cfg, data)
	if err != nil {
		return Layout{}, err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return Layout{}, err
		}
	}
	return l, nil
}

// Lines returns the board rows without writing them.
func (t *Text) Lines(cfg render.Config, data render.ChordData) ([]string, Layout, error) {
	if err := validate(cfg); err != nil {
		return nil, Layout{}, err
	}
	l := TextLayout(cfg.Strings, cfg.Frets)
	rows := make([][]rune, int(l.Height))
	for r := range rows {
		rows[r] = []rune(strings.Repeat(" ", int(l.Width)))
	}
	col := func(s int) int { return textSide + (cfg.Strings-s)*textSlot + 1 }
	cellRow := func(f int) int { return textTop + 2*(f-1) }

	// Nut and wires.
	nut := '─'
	if cfg.Position <= 1 {
		nut = '═'
	}
	for c := col(cfg.Strings); c <= col(1); c++ {
		rows[1][c] = nut
		for f := 1; f <= cfg.Frets; f++ {
			rows[cellRow(f)+1][c] = '─'
		}
	}
	for s := 1; s <= cfg.Strings; s++ {
		for f := 1; f <= cfg.Frets; f++ {
			rows[cellRow(f)][col(s)] = '│'
			rows[cellRow(f)+1][col(s)] = '┼'
		}
	}
	if label := positionLabel(cfg); label != "" {
		copy(rows[cellRow(1)], []rune(fmt.Sprintf("%-2d", cfg.Position)))
	}

	for _, b := range data.Barres {
		if b.Fret < 1 || b.Fret > cfg.Frets || b.ToString < 1 || b.FromString > cfg.Strings {
			continue
		}
		r := cellRow(b.Fret)
		for c := col(b.FromString); c <= col(b.ToString); c++ {
			rows[r][c] = '━'
		}
		rows[r][col(b.FromString)] = labelRune(b.Label, '■')
	}
	for _, e := range data.Fingers {
		if e.String < 1 || e.String > cfg.Strings {
			continue
		}
		switch {
		case e.Mute:
			rows[0][col(e.String)] = 'x'
		case e.Fret == 0:
			rows[0][col(e.String)] = 'o'
		case e.Fret <= cfg.Frets:
			rows[cellRow(e.Fret)][col(e.String)] = labelRune(e.Number, '●')
		}
	}
	if h := t.Highlight; h != nil && h.Fret >= 1 && h.Fret <= cfg.Frets {
		r := cellRow(h.Fret)
		for s := h.Low; s <= h.High; s++ {
			if s >= 1 && s <= cfg.Strings {
				rows[r][col(s)] = '▒'
			}
		}
	}

	for i, name := range cfg.Tuning {
		s := cfg.Strings - i
		if s < 1 {
			break
		}
		for j, r := range []rune(name) {
			if c := col(s) + j; c < len(rows[len(rows)-1]) {
				rows[len(rows)-1][c] = r
			}
		}
	}

	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = strings.TrimRight(string(r), " ")
	}
	return out, l, nil
}

// labelRune is the single-character label, or fallback when the label is
// empty or longer than one character.
func labelRune(label string, fallback rune) rune {
	r := []rune(label)
	if len(r) != 1 {
		return fallback
	}
	return r[0]
}
