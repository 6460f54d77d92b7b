// Package store provides SQLite-backed storage for chord charts.
//
// Two tables:
//   - chord_charts: diagrams saved against a practice item, ordered per item
//   - common_chords: the curated set used as the autofill fallback, unique by
//     case-folded title
//
// Diagrams are stored as the JSON they were saved with. Older rows may carry
// finger lists in any of the historical encodings, so readers decode through
// diagram.Decode rather than trusting the column shape.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Reads return empty slices, never nil. Titles are matched by
// diagram.NameKey, which is stored alongside the title.
package store
