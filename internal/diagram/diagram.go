package diagram

import (
	"sort"
	"strconv"
)

// Default dimensions for a new guitar diagram.
const (
	DefaultNumStrings = 6
	DefaultNumFrets   = 5

	// FullBarreLabel is the label placed on barres created by a simple click.
	FullBarreLabel = "1"
)

// Finger is a fretted position with an optional finger number.
// Number is empty when no number has been assigned.
type Finger struct {
	String int
	Fret   int
	Number string
}

// Barre is a bar pressed across a range of strings at one fret.
// FromString is always the higher string number (lower pitch).
type Barre struct {
	FromString int    `json:"fromString"`
	ToString   int    `json:"toString"`
	Fret       int    `json:"fret"`
	Label      string `json:"label"`
}

// Width returns the number of strings the barre covers.
func (b Barre) Width() int {
	return b.FromString - b.ToString + 1
}

// Covers reports whether the barre spans string s.
func (b Barre) Covers(s int) bool {
	return s <= b.FromString && s >= b.ToString
}

// normalized orders the string range so FromString >= ToString.
func (b Barre) normalized() Barre {
	if b.FromString < b.ToString {
		b.FromString, b.ToString = b.ToString, b.FromString
	}
	return b
}

// Header carries the descriptive fields of a diagram. The section fields are
// grouping metadata that the editor carries without interpreting.
type Header struct {
	Title        string
	StartingFret int
	Tuning       []string
	Capo         int

	SectionID          string
	SectionLabel       string
	SectionRepeatCount string
}

// Diagram is the canonical chord diagram. The zero value is not usable; build
// one with New, Empty, Decode or FromFrets.
type Diagram struct {
	Header

	numStrings int
	numFrets   int

	// strs[i] is the state of string i+1.
	strs []StringState

	// barres is sorted by fret with at most one barre per fret.
	barres []Barre
}

// New returns an empty diagram with the given dimensions, starting at fret 1
// with the default tuning for that string count.
func New(numStrings, numFrets int) (Diagram, error) {
	if numStrings < 2 || numFrets < 1 {
		return Diagram{}, ErrInvalidDimensions
	}
	return Diagram{
		Header: Header{
			StartingFret: 1,
			Tuning:       DefaultTuning(numStrings),
		},
		numStrings: numStrings,
		numFrets:   numFrets,
		strs:       make([]StringState, numStrings),
	}, nil
}

// MustNew is like New but panics on invalid dimensions.
// Use only in tests or with constant dimensions.
func MustNew(numStrings, numFrets int) Diagram {
	d, err := New(numStrings, numFrets)
	if err != nil {
		panic(err)
	}
	return d
}

// Empty returns a new six-string, five-fret diagram in standard tuning.
func Empty() Diagram {
	return MustNew(DefaultNumStrings, DefaultNumFrets)
}

// NumStrings returns the string count.
func (d Diagram) NumStrings() int { return d.numStrings }

// NumFrets returns the number of frets shown.
func (d Diagram) NumFrets() int { return d.numFrets }

// InRange reports whether (s, fret) is a valid cell.
func (d Diagram) InRange(s, fret int) bool {
	return s >= 1 && s <= d.numStrings && fret >= 1 && fret <= d.numFrets
}

func (d Diagram) validString(s int) bool {
	return s >= 1 && s <= d.numStrings
}

// StringAt returns the state of string s. Out-of-range strings report empty.
func (d Diagram) StringAt(s int) StringState {
	if !d.validString(s) {
		return StringState{}
	}
	return d.strs[s-1].clone()
}

// clone returns a deep copy so mutators never share backing arrays with the
// receiver.
func (d Diagram) clone() Diagram {
	out := d
	if d.Tuning != nil {
		out.Tuning = append([]string(nil), d.Tuning...)
	}
	out.strs = make([]StringState, len(d.strs))
	for i, s := range d.strs {
		out.strs[i] = s.clone()
	}
	if d.barres != nil {
		out.barres = append([]Barre(nil), d.barres...)
	}
	return out
}

// withString returns a copy of d with string s replaced by the result of fn.
func (d Diagram) withString(s int, fn func(StringState) StringState) Diagram {
	if !d.validString(s) {
		return d
	}
	out := d.clone()
	out.strs[s-1] = fn(out.strs[s-1])
	return out
}

// WithHeader returns a copy of d with its header replaced.
func (d Diagram) WithHeader(h Header) Diagram {
	out := d.clone()
	out.Header = h
	if h.Tuning != nil {
		out.Tuning = append([]string(nil), h.Tuning...)
	}
	if out.StartingFret < 1 {
		out.StartingFret = 1
	}
	return out
}

// WithTitle returns a copy of d with a new title.
func (d Diagram) WithTitle(title string) Diagram {
	out := d.clone()
	out.Title = title
	return out
}

// FingerAt returns the finger at (s, fret), if any.
func (d Diagram) FingerAt(s, fret int) (Finger, bool) {
	if !d.validString(s) {
		return Finger{}, false
	}
	n, ok := d.strs[s-1].Note(fret)
	if !ok {
		return Finger{}, false
	}
	return Finger{String: s, Fret: fret, Number: n.Number}, true
}

// AddFinger places a finger at (s, fret), replacing any finger already there.
// The string's open/mute marker is cleared. Out-of-range cells are ignored,
// and a number outside 1-5 leaves the finger unnumbered.
func (d Diagram) AddFinger(s, fret int, number string) Diagram {
	if !d.InRange(s, fret) {
		return d
	}
	return d.withString(s, func(st StringState) StringState {
		return st.withNote(Note{Fret: fret, Number: fingerNumber(number)})
	})
}

// RemoveFinger removes the finger at (s, fret), if any.
func (d Diagram) RemoveFinger(s, fret int) Diagram {
	if _, ok := d.FingerAt(s, fret); !ok {
		return d
	}
	return d.withString(s, func(st StringState) StringState {
		return st.withoutFret(fret)
	})
}

// ToggleFinger removes the finger at (s, fret) when present and adds an
// unnumbered one otherwise.
func (d Diagram) ToggleFinger(s, fret int) Diagram {
	if _, ok := d.FingerAt(s, fret); ok {
		return d.RemoveFinger(s, fret)
	}
	return d.AddFinger(s, fret, "")
}

// SetFingerNumber assigns a number to an existing finger. It is a no-op when
// there is no finger at (s, fret).
func (d Diagram) SetFingerNumber(s, fret int, number string) Diagram {
	if _, ok := d.FingerAt(s, fret); !ok {
		return d
	}
	return d.AddFinger(s, fret, number)
}

// CycleMarker advances string s through none -> open -> muted -> none.
// Entering open or muted drops every finger on the string.
func (d Diagram) CycleMarker(s int) Diagram {
	return d.withString(s, StringState.nextMarker)
}

// SetOpen marks string s open.
func (d Diagram) SetOpen(s int) Diagram {
	return d.withString(s, StringState.opened)
}

// SetMuted marks string s muted.
func (d Diagram) SetMuted(s int) Diagram {
	return d.withString(s, StringState.muted)
}

// ClearMarker removes an open/mute marker from string s.
func (d Diagram) ClearMarker(s int) Diagram {
	return d.withString(s, StringState.unmarked)
}

// BarreAt returns the barre at fret, if any.
func (d Diagram) BarreAt(fret int) (Barre, bool) {
	for _, b := range d.barres {
		if b.Fret == fret {
			return b, true
		}
	}
	return Barre{}, false
}

// PlaceBarre adds b, replacing any barre already at b.Fret. The string range
// is clamped to the diagram. Every individual finger at that fret is removed
// and all open/mute markers are cleared. Barres narrower than two strings or
// outside the fret range are ignored.
func (d Diagram) PlaceBarre(b Barre) Diagram {
	b, ok := d.clampBarre(b)
	if !ok {
		return d
	}
	out := d.clone()
	for i := range out.strs {
		out.strs[i] = out.strs[i].withoutFret(b.Fret).unmarked()
	}
	out.barres = insertBarre(out.barres, b)
	return out
}

// RemoveBarre removes the barre at fret, if any.
func (d Diagram) RemoveBarre(fret int) Diagram {
	if _, ok := d.BarreAt(fret); !ok {
		return d
	}
	out := d.clone()
	var kept []Barre
	for _, b := range out.barres {
		if b.Fret != fret {
			kept = append(kept, b)
		}
	}
	out.barres = kept
	return out
}

// ToggleBarre removes the barre at fret when present, otherwise places a
// full-width barre labelled FullBarreLabel.
func (d Diagram) ToggleBarre(fret int) Diagram {
	if _, ok := d.BarreAt(fret); ok {
		return d.RemoveBarre(fret)
	}
	return d.PlaceBarre(Barre{
		FromString: d.numStrings,
		ToString:   1,
		Fret:       fret,
		Label:      FullBarreLabel,
	})
}

// clampBarre normalizes and clamps b to the diagram's dimensions.
func (d Diagram) clampBarre(b Barre) (Barre, bool) {
	b = b.normalized()
	if b.Fret < 1 || b.Fret > d.numFrets {
		return Barre{}, false
	}
	if b.FromString > d.numStrings {
		b.FromString = d.numStrings
	}
	if b.ToString < 1 {
		b.ToString = 1
	}
	if b.Width() < 2 {
		return Barre{}, false
	}
	return b, true
}

// insertBarre replaces the barre at b.Fret (if any) and keeps fret order.
func insertBarre(barres []Barre, b Barre) []Barre {
	out := make([]Barre, 0, len(barres)+1)
	for _, existing := range barres {
		if existing.Fret != b.Fret {
			out = append(out, existing)
		}
	}
	out = append(out, b)
	sort.Slice(out, func(i, j int) bool { return out[i].Fret < out[j].Fret })
	return out
}

// Fingers returns every fretted finger ordered by string, then fret.
func (d Diagram) Fingers() []Finger {
	var out []Finger
	for i, st := range d.strs {
		for _, n := range st.Notes {
			out = append(out, Finger{String: i + 1, Fret: n.Fret, Number: n.Number})
		}
	}
	return out
}

// Barres returns a copy of the barres ordered by fret.
func (d Diagram) Barres() []Barre {
	if len(d.barres) == 0 {
		return nil
	}
	return append([]Barre(nil), d.barres...)
}

// OpenStrings returns the strings marked open, ascending.
func (d Diagram) OpenStrings() []int {
	return d.stringsOfKind(StringOpen)
}

// MutedStrings returns the strings marked muted, ascending.
func (d Diagram) MutedStrings() []int {
	return d.stringsOfKind(StringMuted)
}

func (d Diagram) stringsOfKind(kind StringKind) []int {
	var out []int
	for i, st := range d.strs {
		if st.Kind == kind {
			out = append(out, i+1)
		}
	}
	return out
}

// IsEmpty reports whether the diagram has no fingers, barres or markers.
func (d Diagram) IsEmpty() bool {
	if len(d.barres) > 0 {
		return false
	}
	for _, st := range d.strs {
		if st.Kind != StringEmpty {
			return false
		}
	}
	return true
}

// Parts is the flat, field-by-field view of a diagram. Build turns Parts into
// a Diagram; Parts() goes the other way.
type Parts struct {
	Header
	NumStrings   int
	NumFrets     int
	Fingers      []Finger
	Barres       []Barre
	OpenStrings  []int
	MutedStrings []int
}

// Parts returns the flat view of d.
func (d Diagram) Parts() Parts {
	h := d.Header
	if h.Tuning != nil {
		h.Tuning = append([]string(nil), h.Tuning...)
	}
	return Parts{
		Header:       h,
		NumStrings:   d.numStrings,
		NumFrets:     d.numFrets,
		Fingers:      d.Fingers(),
		Barres:       d.Barres(),
		OpenStrings:  d.OpenStrings(),
		MutedStrings: d.MutedStrings(),
	}
}

// Build reconciles a flat set of fields into a Diagram.
//
// Markers are applied before fingers, so a string that is both marked and
// fretted ends up fretted. Barres are taken as stored: they are normalized,
// clamped and deduplicated per fret (last one wins) but do not clear fingers
// or markers. Entries outside the dimensions are dropped.
func Build(p Parts) (Diagram, error) {
	d, err := New(p.NumStrings, p.NumFrets)
	if err != nil {
		return Diagram{}, err
	}
	d.Header = p.Header
	if d.Tuning == nil {
		d.Tuning = DefaultTuning(p.NumStrings)
	} else {
		d.Tuning = FitTuning(p.Tuning, p.NumStrings)
	}
	if d.StartingFret < 1 {
		d.StartingFret = 1
	}
	if d.Capo < 0 {
		d.Capo = 0
	}

	for _, s := range p.OpenStrings {
		if d.validString(s) {
			d.strs[s-1] = d.strs[s-1].opened()
		}
	}
	for _, s := range p.MutedStrings {
		if d.validString(s) {
			d.strs[s-1] = d.strs[s-1].muted()
		}
	}
	for _, f := range p.Fingers {
		if d.InRange(f.String, f.Fret) {
			d.strs[f.String-1] = d.strs[f.String-1].withNote(Note{Fret: f.Fret, Number: fingerNumber(f.Number)})
		}
	}
	for _, b := range p.Barres {
		if cb, ok := d.clampBarre(b); ok {
			d.barres = insertBarre(d.barres, cb)
		}
	}
	return d, nil
}

// fingerNumber returns n when it is a valid finger number and "" otherwise.
func fingerNumber(n string) string {
	if ValidFingerNumber(n) {
		return n
	}
	return ""
}

// ValidFingerNumber reports whether s is an assignable finger number (1-5).
func ValidFingerNumber(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n >= 1 && n <= 5 && strconv.Itoa(n) == s
}
