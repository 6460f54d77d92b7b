// Package autofill resolves a chord name to a diagram.
//
// Lookup order:
//
//  1. diagrams already saved for the item, matched by NameKey; with several
//     matches the highest order wins, ties going to the highest id
//  2. the common-chord set, taking the first result the backend returns
//
// Stored diagrams are decoded with diagram.Decode, so every finger encoding
// the store has ever held comes out in canonical form; unreadable finger
// entries are dropped and logged. Backend calls are retried with exponential
// backoff when rate limited.
package autofill
