// Package surface draws diagrams and hosts the pointer listeners attached to
// a drawing.
//
// Renderers (SVG, PNG, Text) take a render.Config and render.ChordData and
// report the Layout they drew: the intrinsic size and the fretboard body
// rectangle. The editor never draws; it reads Layout to derive the mapper's
// margins and geometry.
//
// Host treats each drawing as a resource. Mount acquires a listener
// Registration for the new drawing and always releases the previous one
// first; Unmount releases the current one.
package surface
