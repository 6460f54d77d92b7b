package diagram

import (
	"errors"
	"fmt"
)

// DecodeError reports a stored finger entry that could not be normalized.
//
// Decode never fails a whole diagram because of a single bad entry: the entry
// is dropped and a DecodeError describing it is returned alongside the
// diagram. An entry whose only fault is its finger number is kept unnumbered.
type DecodeError struct {
	// Index is the position of the entry in the stored fingers list.
	Index int

	// Reason is a short human-readable cause.
	Reason string

	// Raw is the offending JSON fragment.
	Raw string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("finger[%d]: %s: %s", e.Index, e.Reason, e.Raw)
}

// DimensionError reports a dimension change that would strand existing marks.
// Only returned under ResizeReject.
type DimensionError struct {
	NumStrings int
	NumFrets   int

	// Conflicts lists the marks that fall outside the requested dimensions,
	// formatted as "finger 6/3", "barre fret 4", "open 6" and so on.
	Conflicts []string
}

// Error implements the error interface.
func (e *DimensionError) Error() string {
	return fmt.Sprintf("resize to %d strings x %d frets would drop %d mark(s): %v",
		e.NumStrings, e.NumFrets, len(e.Conflicts), e.Conflicts)
}

// ErrInvalidDimensions is returned when a diagram is created with fewer than
// two strings or fewer than one fret.
var ErrInvalidDimensions = errors.New("diagram needs at least 2 strings and 1 fret")

// IsDimensionError returns true if err is (or wraps) a DimensionError.
func IsDimensionError(err error) bool {
	var de *DimensionError
	return errors.As(err, &de)
}
