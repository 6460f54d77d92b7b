package diagram

import (
	"fmt"
	"strconv"
	"strings"
)

// FromFrets builds a diagram from a fret pattern such as
// ["x", "0", "2", "2", "1", "0"] (A minor).
//
// The pattern runs from the lowest-pitched string to the highest, so element i
// is string len(frets)-i. "x" or "-1" mutes the string, "0" leaves it open and
// a positive number frets it. Fretted strings are numbered 1, 2, 3... in
// pattern order. When a fret lies beyond numFrets the diagram is shifted up
// the neck: StartingFret becomes the lowest fretted value and frets are stored
// relative to it.
func FromFrets(title string, frets []string, numFrets int) (Diagram, error) {
	d, err := New(len(frets), numFrets)
	if err != nil {
		return Diagram{}, fmt.Errorf("fret pattern %q: %w", strings.Join(frets, " "), err)
	}
	d.Title = title

	values := make([]int, len(frets))
	lowest, highest := 0, 0
	for i, raw := range frets {
		v, err := parseFret(raw)
		if err != nil {
			return Diagram{}, fmt.Errorf("fret pattern position %d: %w", i, err)
		}
		values[i] = v
		if v > 0 {
			if lowest == 0 || v < lowest {
				lowest = v
			}
			if v > highest {
				highest = v
			}
		}
	}

	offset := 0
	if highest > numFrets {
		if highest-lowest+1 > numFrets {
			return Diagram{}, fmt.Errorf("fret pattern spans %d frets, diagram shows %d", highest-lowest+1, numFrets)
		}
		d.StartingFret = lowest
		offset = lowest - 1
	}

	finger := 1
	for i, v := range values {
		s := len(frets) - i
		switch {
		case v < 0:
			d = d.SetMuted(s)
		case v == 0:
			d = d.SetOpen(s)
		default:
			d = d.AddFinger(s, v-offset, strconv.Itoa(finger))
			finger++
		}
	}
	return d, nil
}

// Frets is the inverse of FromFrets: it returns the absolute fret pattern,
// lowest-pitched string first. A string with several notes reports the
// highest one; a string held only by a barre reports the barre fret; an
// unmarked string reports "x".
func (d Diagram) Frets() []string {
	out := make([]string, d.numStrings)
	for i := range out {
		s := d.numStrings - i
		st := d.strs[s-1]
		switch st.Kind {
		case StringOpen:
			out[i] = "0"
			continue
		case StringMuted:
			out[i] = "x"
			continue
		}
		fret := 0
		if len(st.Notes) > 0 {
			fret = st.Notes[len(st.Notes)-1].Fret
		}
		for _, b := range d.barres {
			if b.Covers(s) && b.Fret > fret {
				fret = b.Fret
			}
		}
		if fret == 0 {
			out[i] = "x"
			continue
		}
		out[i] = strconv.Itoa(fret + d.StartingFret - 1)
	}
	return out
}

func parseFret(raw string) (int, error) {
	switch r := strings.ToLower(strings.TrimSpace(raw)); r {
	case "x", "-1":
		return -1, nil
	default:
		v, err := strconv.Atoi(r)
		if err != nil || v < -1 {
			return 0, fmt.Errorf("invalid fret %q", raw)
		}
		return v, nil
	}
}
