// Package diagram holds the canonical chord-diagram model.
//
// A Diagram is an immutable value: every edit returns a new Diagram and the
// receiver is left untouched. Fretted notes, open markers and mute markers are
// stored per string as a StringState, so "a string is either fretted, open,
// muted or empty" holds by construction rather than by scattered checks.
//
// # String numbering
//
// Strings are numbered 1..NumStrings with string 1 the highest-pitched
// (rightmost on a rendered diagram). Frets are 1..NumFrets, relative to
// StartingFret.
//
// # Boundaries
//
// Stored diagrams arrive in several shapes (positional finger tuples of length
// two or three, objects with named properties, numbers encoded as strings).
// Decode is the single place where those shapes are reconciled; past that
// boundary only Finger values exist. MarshalJSON writes the canonical storage
// form and CanonicalJSON/ContentHash give a byte-stable encoding for identity
// and snapshots.
//
// The Grid type is the derived cell matrix used for highlight feedback. It is
// recomputed from a Diagram and never stored.
package diagram
