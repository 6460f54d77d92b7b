// Package editor implements the interactive editing engine for one chord
// diagram.
//
// A Session owns the diagram being edited together with the transient state
// that goes with it: the edit mode, the finger waiting for a number, the drag
// anchor and the highlighted barre span. Every method runs synchronously on
// the caller's goroutine and the diagram is replaced, never mutated, so each
// transition is a value the Session can push onto its undo history.
//
// Modes:
//
//	dots     click toggles an unnumbered finger
//	fingers  click selects (creating if needed) a finger; 1-5 numbers it
//	barres   click toggles a full-width barre; drag places a partial one
//
// A click in the nut region cycles the string marker none -> open -> muted
// in every mode.
//
// The Controller sits in front of a Session. It maps pointer events through
// the fretboard geometry published by the current drawing, re-mounts the
// drawing after each change, and sequences autofill lookups so a late result
// never overwrites a newer edit.
package editor
