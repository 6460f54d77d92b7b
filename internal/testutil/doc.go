// Package testutil holds deterministic stand-ins shared by the package tests:
// a resettable logical clock, fixed request tokens, a sleeper that records
// backoff delays instead of waiting, and fixture diagrams.
package testutil
