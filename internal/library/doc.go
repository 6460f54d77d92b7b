// Package library holds the curated common-chord set and the bulk importer
// that fills the common-chord table.
//
// The built-in set is written in CUE and checked against the #Chord
// definition in schema.cue when loaded. The same schema file defines
// #Diagram, used by ValidateDiagram to check stored diagram documents before
// they are imported or served.
//
// Chords are given as fret patterns, lowest-pitched string first:
//
//	"Am": {frets: ["x", 0, 2, 2, 1, 0], fingers: ["", "", "2", "3", "1", ""]}
//	"F": {
//		frets: [1, 3, 3, 2, 1, 1]
//		barre: {fret: 1, from: 6, to: 1}
//	}
package library
