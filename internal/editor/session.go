package editor

import (
	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/fretmap"
)

// minHighlight is the narrowest drag span that is shown and committed. A
// two-string span is left alone while dragging.
const minHighlight = 3

// maxHistory bounds the undo stack.
const maxHistory = 100

// Cell is a (string, fret) position on the board.
type Cell struct {
	String int
	Fret   int
}

// Session is the state of one editor: the diagram plus transient edit state.
// It is not safe for concurrent use; all calls come from the UI loop.
type Session struct {
	d    diagram.Diagram
	mode Mode

	selected *Cell
	pressed  *fretmap.Hit
	span     *diagram.Span

	undo     []diagram.Diagram
	redo     []diagram.Diagram
	revision int64
}

// NewSession starts a session on d in dots mode.
func NewSession(d diagram.Diagram) *Session {
	return &Session{d: d}
}

// Diagram returns the current diagram.
func (s *Session) Diagram() diagram.Diagram { return s.d }

// Mode returns the active edit mode.
func (s *Session) Mode() Mode { return s.mode }

// Revision counts diagram changes, including undo and redo.
func (s *Session) Revision() int64 { return s.revision }

// Selected returns the finger waiting for a number key, if any.
func (s *Session) Selected() (Cell, bool) {
	if s.selected == nil {
		return Cell{}, false
	}
	return *s.selected, true
}

// Anchor returns the cell the pointer went down on while a button is held.
func (s *Session) Anchor() (Cell, bool) {
	if s.pressed == nil || s.pressed.Kind != fretmap.FretHit {
		return Cell{}, false
	}
	return Cell{String: s.pressed.String, Fret: s.pressed.Fret}, true
}

// Highlight returns the in-progress drag span, if one is shown.
func (s *Session) Highlight() (diagram.Span, bool) {
	if s.span == nil {
		return diagram.Span{}, false
	}
	return *s.span, true
}

// Grid returns the cell grid of the current diagram with the drag highlight
// overlaid.
func (s *Session) Grid() diagram.Grid {
	g := s.d.Grid()
	if s.span != nil {
		g = g.WithHighlight(*s.span)
	}
	return g
}

// SetMode switches mode and drops the pending finger and any drag.
func (s *Session) SetMode(m Mode) {
	s.mode = m
	s.reset()
}

// Reset drops the pending finger and any drag without touching the diagram.
func (s *Session) Reset() { s.reset() }

func (s *Session) reset() {
	s.selected = nil
	s.pressed = nil
	s.span = nil
}

// Hit applies a mapped click. It reports whether the diagram changed.
func (s *Session) Hit(h fretmap.Hit) bool {
	switch h.Kind {
	case fretmap.NutHit:
		return s.apply(s.d.CycleMarker(h.String))
	case fretmap.FretHit:
		return s.click(h.String, h.Fret)
	default:
		return false
	}
}

func (s *Session) click(str, fret int) bool {
	if !s.d.InRange(str, fret) {
		return false
	}
	switch s.mode {
	case ModeFingers:
		s.selected = &Cell{String: str, Fret: fret}
		if _, ok := s.d.FingerAt(str, fret); ok {
			return false
		}
		return s.apply(s.d.AddFinger(str, fret, ""))
	case ModeBarres:
		return s.apply(s.d.ToggleBarre(fret))
	default:
		return s.apply(s.d.ToggleFinger(str, fret))
	}
}

// Key handles a key press: "1"-"5" numbers the selected finger, "esc" drops
// the selection and any drag. It reports whether the diagram changed.
func (s *Session) Key(key string) bool {
	switch key {
	case "esc", "escape":
		s.reset()
		return false
	}
	if !diagram.ValidFingerNumber(key) || s.selected == nil {
		return false
	}
	c := *s.selected
	s.selected = nil
	return s.apply(s.d.SetFingerNumber(c.String, c.Fret, key))
}

// Press starts a gesture at h. Presses outside the board are ignored.
func (s *Session) Press(h fretmap.Hit) {
	s.span = nil
	if h.Kind == fretmap.NoHit {
		s.pressed = nil
		return
	}
	s.pressed = &h
}

// Motion tracks the pointer while a button is held. Moving within the anchor's
// fret row highlights the span between the anchor and the pointer once it
// covers at least three strings. Moving to another row or the nut clears the
// highlight; leaving the board keeps it.
func (s *Session) Motion(h fretmap.Hit) {
	anchor, ok := s.Anchor()
	if !ok || !s.mode.dragsHighlight() {
		return
	}
	switch h.Kind {
	case fretmap.NoHit:
		return
	case fretmap.FretHit:
		if h.Fret == anchor.Fret {
			span := diagram.Span{Fret: anchor.Fret, High: max(anchor.String, h.String), Low: min(anchor.String, h.String)}
			if span.Width() >= minHighlight {
				s.span = &span
				return
			}
		}
	}
	s.span = nil
}

// Release ends a gesture. A highlighted span is committed as a barre in
// barres mode; otherwise a release on the pressed cell is a click. The anchor
// and highlight are cleared either way. It reports whether the diagram
// changed.
func (s *Session) Release(h fretmap.Hit) bool {
	pressed, span := s.pressed, s.span
	s.pressed, s.span = nil, nil
	if pressed == nil {
		return false
	}
	if span != nil {
		if !s.mode.dragsCommit() {
			return false
		}
		return s.apply(s.d.PlaceBarre(span.Barre(diagram.FullBarreLabel)))
	}
	if h != *pressed {
		return false
	}
	return s.Hit(h)
}

// Replace swaps in a new diagram, for example a loaded or autofilled one.
// Transient state is dropped since its coordinates may no longer apply.
func (s *Session) Replace(d diagram.Diagram) bool {
	s.reset()
	return s.apply(d)
}

// SetHeader replaces the diagram's header fields.
func (s *Session) SetHeader(h diagram.Header) bool {
	return s.apply(s.d.WithHeader(h))
}

// Resize changes the board dimensions under policy.
func (s *Session) Resize(numStrings, numFrets int, policy diagram.ResizePolicy) error {
	next, err := s.d.Resize(numStrings, numFrets, policy)
	if err != nil {
		return err
	}
	s.reset()
	s.apply(next)
	return nil
}

// Undo restores the previous diagram. It reports false when there is none.
func (s *Session) Undo() bool {
	if len(s.undo) == 0 {
		return false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.d)
	s.d = prev
	s.revision++
	s.reset()
	return true
}

// Redo re-applies the last undone diagram.
func (s *Session) Redo() bool {
	if len(s.redo) == 0 {
		return false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, s.d)
	s.d = next
	s.revision++
	s.reset()
	return true
}

// CanUndo reports whether Undo would do anything.
func (s *Session) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether Redo would do anything.
func (s *Session) CanRedo() bool { return len(s.redo) > 0 }

// apply installs next as the current diagram when it differs.
func (s *Session) apply(next diagram.Diagram) bool {
	if diagram.Equal(s.d, next) {
		return false
	}
	s.undo = append(s.undo, s.d)
	if len(s.undo) > maxHistory {
		s.undo = s.undo[len(s.undo)-maxHistory:]
	}
	s.redo = nil
	s.d = next
	s.revision++
	return true
}
