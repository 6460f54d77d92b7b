package harness

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"

	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/editor"
)

// checkExpect compares the session's final state against e and returns one
// message per mismatch.
func checkExpect(e Expect, sess *editor.Session) []string {
	d := sess.Diagram()
	var errs []string
	fail := func(what string, want, got any) {
		errs = append(errs, fmt.Sprintf("%s: expected %v, got %v", what, want, got))
	}

	if e.Fingers != nil {
		want := sortedFingers(e.Fingers)
		got := fingersOf(d)
		if !reflect.DeepEqual(want, got) {
			fail("fingers", want, got)
		}
	}
	if e.Barres != nil {
		want := sortedBarres(e.Barres)
		got := barresOf(d)
		if !reflect.DeepEqual(want, got) {
			fail("barres", want, got)
		}
	}
	if e.Open != nil && !sameInts(e.Open, d.OpenStrings()) {
		fail("open strings", e.Open, d.OpenStrings())
	}
	if e.Muted != nil && !sameInts(e.Muted, d.MutedStrings()) {
		fail("muted strings", e.Muted, d.MutedStrings())
	}
	if e.Title != nil && *e.Title != d.Title {
		fail("title", *e.Title, d.Title)
	}
	if e.Strings != 0 && e.Strings != d.NumStrings() {
		fail("strings", e.Strings, d.NumStrings())
	}
	if e.Frets != 0 && e.Frets != d.NumFrets() {
		fail("frets", e.Frets, d.NumFrets())
	}
	if e.ChordData != "" {
		if msg := checkChordData(e.ChordData, d); msg != "" {
			errs = append(errs, msg)
		}
	}
	if e.Selected != nil {
		c, ok := sess.Selected()
		got := "none"
		if ok {
			got = fmt.Sprintf("%d/%d", c.String, c.Fret)
		}
		if want := fmt.Sprintf("%d/%d", e.Selected.String, e.Selected.Fret); want != got {
			fail("selected finger", want, got)
		}
	}
	if e.Highlight != nil {
		span, ok := sess.Highlight()
		want := BarreSpec{From: e.Highlight.From, To: e.Highlight.To, Fret: e.Highlight.Fret}
		if !ok {
			fail("highlight", want, "none")
		} else if got := (BarreSpec{From: span.High, To: span.Low, Fret: span.Fret}); got != want {
			fail("highlight", want, got)
		}
	}
	return errs
}

// checkChordData compares canonical forms so key order and finger encoding in
// the expectation do not matter.
func checkChordData(want string, got diagram.Diagram) string {
	wd, _, err := diagram.Decode([]byte(want))
	if err != nil {
		return fmt.Sprintf("chord_data: expectation does not decode: %v", err)
	}
	wc, err := wd.CanonicalJSON()
	if err != nil {
		return fmt.Sprintf("chord_data: %v", err)
	}
	gc, err := got.CanonicalJSON()
	if err != nil {
		return fmt.Sprintf("chord_data: %v", err)
	}
	if !bytes.Equal(wc, gc) {
		return fmt.Sprintf("chord_data: expected %s, got %s", wc, gc)
	}
	return ""
}

func fingersOf(d diagram.Diagram) []FingerSpec {
	out := []FingerSpec{}
	for _, f := range d.Fingers() {
		out = append(out, FingerSpec{String: f.String, Fret: f.Fret, Number: f.Number})
	}
	return out
}

func sortedFingers(in []FingerSpec) []FingerSpec {
	out := append([]FingerSpec{}, in...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].String != out[j].String {
			return out[i].String < out[j].String
		}
		return out[i].Fret < out[j].Fret
	})
	return out
}

func barresOf(d diagram.Diagram) []BarreSpec {
	out := []BarreSpec{}
	for _, b := range d.Barres() {
		out = append(out, BarreSpec{From: b.FromString, To: b.ToString, Fret: b.Fret, Label: b.Label})
	}
	return out
}

// sortedBarres orders expected barres by fret with the string range high to
// low. An expectation without a label means the full-barre label.
func sortedBarres(in []BarreSpec) []BarreSpec {
	out := append([]BarreSpec{}, in...)
	sort.Slice(out, func(i, j int) bool { return out[i].Fret < out[j].Fret })
	for i := range out {
		if out[i].From < out[i].To {
			out[i].From, out[i].To = out[i].To, out[i].From
		}
		if out[i].Label == "" {
			out[i].Label = diagram.FullBarreLabel
		}
	}
	return out
}

func sameInts(want, got []int) bool {
	w := append([]int{}, want...)
	sort.Ints(w)
	if len(w) == 0 && len(got) == 0 {
		return true
	}
	return reflect.DeepEqual(w, got)
}
