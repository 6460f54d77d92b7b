// Package harness replays scripted editing sessions against the editor and
// checks the diagram they produce.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: drag_barre
//	description: "Dragging across four strings in barres mode places a barre"
//	diagram:
//	  title: G
//	  frets: ["3", "2", "0", "0", "0", "3"]
//	viewport: { width: 240, height: 300 }
//	steps:
//	  - mode: barres
//	  - press: { string: 5, fret: 2 }
//	  - move: { string: 2, fret: 2 }
//	  - release: { string: 2, fret: 2 }
//	expect:
//	  barres:
//	    - { from: 5, to: 2, fret: 2, label: "1" }
//
// Each step holds exactly one action:
//
//   - mode: switch to dots, fingers or barres
//   - click: press and release on a cell
//   - press, move, release: one pointer event; off: true points outside the board
//   - nut: click the nut region above a string
//   - key: a key press ("1"-"5" or "esc")
//   - resize: change dimensions, optionally expecting a rejection
//   - autofill: look a chord name up in the built-in library
//   - undo, redo
//
// Pointer steps are delivered the way a user's would be: the harness mounts
// the diagram on an SVG surface host, converts the cell to an on-screen point
// and dispatches the event to whatever listener the host has bound. After
// every step the diagram is redrawn and the harness checks that exactly one
// listener is live.
//
// # Deterministic Testing
//
// Autofill requests are numbered by testutil.DeterministicClock and tagged by
// testutil.FixedTokens, so traces and golden files are stable across runs.
// RunWithGolden compares the final diagram's canonical JSON against
// testdata/golden/<name>.golden.
package harness
