package diagram

import (
	"fmt"
	"sort"
	"strings"
)

// StringKind is the exclusive state of one string.
type StringKind int

const (
	// StringEmpty has no finger and no marker.
	StringEmpty StringKind = iota
	// StringFretted has one or more fretted notes.
	StringFretted
	// StringOpen is marked to be played unfretted.
	StringOpen
	// StringMuted is marked not to be played.
	StringMuted
)

// String returns the lowercase name of the kind.
func (k StringKind) String() string {
	switch k {
	case StringEmpty:
		return "empty"
	case StringFretted:
		return "fretted"
	case StringOpen:
		return "open"
	case StringMuted:
		return "muted"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Note is one fretted position on a string.
type Note struct {
	Fret int
	// Number is the finger number label ("1".."5"), empty when unassigned.
	Number string
}

// StringState is the state of a single string.
//
// Notes is non-empty exactly when Kind is StringFretted and is kept sorted by
// fret. Every transition below returns a fresh value; the receiver's Notes
// slice is never written.
type StringState struct {
	Kind  StringKind
	Notes []Note
}

// Note returns the note at fret, if any.
func (s StringState) Note(fret int) (Note, bool) {
	for _, n := range s.Notes {
		if n.Fret == fret {
			return n, true
		}
	}
	return Note{}, false
}

// withNote places (or replaces) a note. Any open/mute marker is cleared.
func (s StringState) withNote(n Note) StringState {
	notes := make([]Note, 0, len(s.Notes)+1)
	for _, existing := range s.Notes {
		if existing.Fret != n.Fret {
			notes = append(notes, existing)
		}
	}
	notes = append(notes, n)
	sort.Slice(notes, func(i, j int) bool { return notes[i].Fret < notes[j].Fret })
	return StringState{Kind: StringFretted, Notes: notes}
}

// withoutFret removes the note at fret. A string left with no notes is empty.
func (s StringState) withoutFret(fret int) StringState {
	if s.Kind != StringFretted {
		return s
	}
	var notes []Note
	for _, n := range s.Notes {
		if n.Fret != fret {
			notes = append(notes, n)
		}
	}
	if len(notes) == 0 {
		return StringState{Kind: StringEmpty}
	}
	return StringState{Kind: StringFretted, Notes: notes}
}

// opened marks the string open, dropping any notes.
func (s StringState) opened() StringState {
	return StringState{Kind: StringOpen}
}

// muted marks the string muted, dropping any notes.
func (s StringState) muted() StringState {
	return StringState{Kind: StringMuted}
}

// unmarked clears an open/mute marker and leaves fretted strings alone.
func (s StringState) unmarked() StringState {
	if s.Kind == StringOpen || s.Kind == StringMuted {
		return StringState{Kind: StringEmpty}
	}
	return s
}

// nextMarker advances the marker cycle none -> open -> muted -> none.
// A fretted string counts as "none", so cycling it opens the string.
func (s StringState) nextMarker() StringState {
	switch s.Kind {
	case StringOpen:
		return s.muted()
	case StringMuted:
		return StringState{Kind: StringEmpty}
	default:
		return s.opened()
	}
}

// clone returns a deep copy.
func (s StringState) clone() StringState {
	if s.Notes == nil {
		return StringState{Kind: s.Kind}
	}
	notes := make([]Note, len(s.Notes))
	copy(notes, s.Notes)
	return StringState{Kind: s.Kind, Notes: notes}
}

// String renders the state for logs and test failures, e.g. "fretted[1:3,3]".
func (s StringState) String() string {
	if s.Kind != StringFretted {
		return s.Kind.String()
	}
	parts := make([]string, len(s.Notes))
	for i, n := range s.Notes {
		if n.Number == "" {
			parts[i] = fmt.Sprintf("%d", n.Fret)
		} else {
			parts[i] = fmt.Sprintf("%d:%s", n.Fret, n.Number)
		}
	}
	return "fretted[" + strings.Join(parts, ",") + "]"
}
