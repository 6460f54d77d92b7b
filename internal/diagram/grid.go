package diagram

import "strings"

// CellState is the display state of one cell of the Grid.
type CellState int

const (
	CellInactive CellState = iota
	CellActive
	CellLeft
	CellMiddle
	CellRight
	CellLeftHL
	CellMiddleHL
	CellRightHL
)

var cellNames = [...]string{
	CellInactive: "INACTIVE",
	CellActive:   "ACTIVE",
	CellLeft:     "LEFT",
	CellMiddle:   "MIDDLE",
	CellRight:    "RIGHT",
	CellLeftHL:   "LEFT_HL",
	CellMiddleHL: "MIDDLE_HL",
	CellRightHL:  "RIGHT_HL",
}

func (c CellState) String() string {
	if c < 0 || int(c) >= len(cellNames) {
		return "UNKNOWN"
	}
	return cellNames[c]
}

// Highlighted reports whether c is an in-progress drag cell.
func (c CellState) Highlighted() bool {
	return c == CellLeftHL || c == CellMiddleHL || c == CellRightHL
}

// glyph is the one-character form used by Grid.String.
func (c CellState) glyph() byte {
	return ".o<=>[-]"[c]
}

// Span is a contiguous run of strings at one fret. High is the higher string
// number (drawn on the left).
type Span struct {
	Fret int
	High int
	Low  int
}

// Width returns the number of strings in the span.
func (s Span) Width() int { return s.High - s.Low + 1 }

// Barre converts the span to a barre with the given label.
func (s Span) Barre(label string) Barre {
	return Barre{FromString: s.High, ToString: s.Low, Fret: s.Fret, Label: label}
}

// Grid is the numFrets x numStrings matrix of cell states derived from a
// Diagram. Row r is fret r+1; column c is string numStrings-c, so column 0 is
// the leftmost (lowest-pitched) string.
//
// A drag highlight is held beside the committed cells rather than painted into
// them, so replacing or clearing it never loses what is underneath.
type Grid struct {
	numStrings int
	numFrets   int
	cells      [][]CellState
	highlight  *Span
}

// Grid derives the cell matrix for d. Barre cells take precedence over
// fingers at the same position.
func (d Diagram) Grid() Grid {
	g := Grid{
		numStrings: d.numStrings,
		numFrets:   d.numFrets,
		cells:      make([][]CellState, d.numFrets),
	}
	for r := range g.cells {
		g.cells[r] = make([]CellState, d.numStrings)
	}
	for _, f := range d.Fingers() {
		g.set(f.String, f.Fret, CellActive)
	}
	for _, b := range d.barres {
		g.paint(Span{Fret: b.Fret, High: b.FromString, Low: b.ToString}, CellLeft, CellMiddle, CellRight)
	}
	return g
}

// WithHighlight returns a copy of g with span shown as a drag highlight,
// replacing any earlier one.
func (g Grid) WithHighlight(span Span) Grid {
	out := g.copy()
	if span.High < span.Low {
		span.High, span.Low = span.Low, span.High
	}
	out.highlight = &span
	return out
}

// WithoutHighlight returns a copy of g with no drag highlight.
func (g Grid) WithoutHighlight() Grid {
	out := g.copy()
	out.highlight = nil
	return out
}

// Committed returns a copy of g with the highlighted span turned into
// committed barre cells.
func (g Grid) Committed() Grid {
	out := g.copy()
	if out.highlight != nil {
		out.paint(*out.highlight, CellLeft, CellMiddle, CellRight)
		out.highlight = nil
	}
	return out
}

// Highlight returns the highlighted span, if any.
func (g Grid) Highlight() (Span, bool) {
	if g.highlight == nil {
		return Span{}, false
	}
	return *g.highlight, true
}

// Cell returns the state at (s, fret). Out-of-range cells are inactive.
func (g Grid) Cell(s, fret int) CellState {
	if s < 1 || s > g.numStrings || fret < 1 || fret > g.numFrets {
		return CellInactive
	}
	if h := g.highlight; h != nil && h.Fret == fret && s <= h.High && s >= h.Low {
		switch s {
		case h.High:
			return CellLeftHL
		case h.Low:
			return CellRightHL
		default:
			return CellMiddleHL
		}
	}
	return g.cells[fret-1][g.numStrings-s]
}

// Rows returns the matrix including any highlight, one row per fret.
func (g Grid) Rows() [][]CellState {
	rows := make([][]CellState, g.numFrets)
	for r := range rows {
		rows[r] = make([]CellState, g.numStrings)
		for c := range rows[r] {
			rows[r][c] = g.Cell(g.numStrings-c, r+1)
		}
	}
	return rows
}

// String draws the grid one fret per line, e.g. "<==>.." for a four-string
// barre starting at the leftmost string.
func (g Grid) String() string {
	var b strings.Builder
	for r, row := range g.Rows() {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, cell := range row {
			b.WriteByte(cell.glyph())
		}
	}
	return b.String()
}

func (g Grid) set(s, fret int, state CellState) {
	if s < 1 || s > g.numStrings || fret < 1 || fret > g.numFrets {
		return
	}
	g.cells[fret-1][g.numStrings-s] = state
}

func (g Grid) paint(span Span, left, middle, right CellState) {
	for s := span.Low; s <= span.High; s++ {
		switch s {
		case span.High:
			g.set(s, span.Fret, left)
		case span.Low:
			g.set(s, span.Fret, right)
		default:
			g.set(s, span.Fret, middle)
		}
	}
}

func (g Grid) copy() Grid {
	out := Grid{numStrings: g.numStrings, numFrets: g.numFrets, cells: make([][]CellState, len(g.cells))}
	for r, row := range g.cells {
		out.cells[r] = append([]CellState(nil), row...)
	}
	if g.highlight != nil {
		h := *g.highlight
		out.highlight = &h
	}
	return out
}
