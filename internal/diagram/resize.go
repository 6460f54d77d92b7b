package diagram

import (
	"fmt"
	"strings"
)

// ResizePolicy decides what happens to marks that fall outside new dimensions.
type ResizePolicy int

const (
	// ResizeClip drops out-of-range fingers and markers. Barres partly outside
	// are clamped to the remaining strings and dropped when fewer than two
	// strings are left.
	ResizeClip ResizePolicy = iota

	// ResizeReject refuses any resize that would drop or clamp a mark.
	ResizeReject
)

func (p ResizePolicy) String() string {
	if p == ResizeReject {
		return "reject"
	}
	return "clip"
}

// ParseResizePolicy accepts "clip" or "reject".
func ParseResizePolicy(s string) (ResizePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clip":
		return ResizeClip, nil
	case "reject":
		return ResizeReject, nil
	default:
		return ResizeClip, fmt.Errorf("unknown resize policy %q (want clip or reject)", s)
	}
}

// Resize returns d with new dimensions.
//
// String numbers are kept as they are, so shrinking removes the highest
// numbered (lowest-pitched) strings. The tuning is refitted to the new count.
// Under ResizeReject a *DimensionError listing every affected mark is returned
// and d is unchanged.
func (d Diagram) Resize(numStrings, numFrets int, policy ResizePolicy) (Diagram, error) {
	if numStrings < 2 || numFrets < 1 {
		return d, ErrInvalidDimensions
	}
	if numStrings == d.numStrings && numFrets == d.numFrets {
		return d, nil
	}

	if policy == ResizeReject {
		if conflicts := d.conflicts(numStrings, numFrets); len(conflicts) > 0 {
			return d, &DimensionError{NumStrings: numStrings, NumFrets: numFrets, Conflicts: conflicts}
		}
	}

	p := d.Parts()
	p.NumStrings = numStrings
	p.NumFrets = numFrets
	p.Tuning = FitTuning(d.Tuning, numStrings)
	out, err := Build(p)
	if err != nil {
		return d, err
	}
	return out, nil
}

// conflicts lists every mark that a resize to (numStrings, numFrets) would
// drop or clamp.
func (d Diagram) conflicts(numStrings, numFrets int) []string {
	var out []string
	for _, f := range d.Fingers() {
		if f.String > numStrings || f.Fret > numFrets {
			out = append(out, fmt.Sprintf("finger %d/%d", f.String, f.Fret))
		}
	}
	for _, s := range d.OpenStrings() {
		if s > numStrings {
			out = append(out, fmt.Sprintf("open %d", s))
		}
	}
	for _, s := range d.MutedStrings() {
		if s > numStrings {
			out = append(out, fmt.Sprintf("muted %d", s))
		}
	}
	for _, b := range d.barres {
		if b.Fret > numFrets || b.FromString > numStrings {
			out = append(out, fmt.Sprintf("barre fret %d", b.Fret))
		}
	}
	return out
}
