// Package render is the contract between the diagram model and a drawing
// surface.
//
// A surface is configured with a Config and draws a ChordData. ChordData is
// the flat shape drawing code expects: one fingers list holding fretted
// notes, open strings as (string, 0) and muted strings as (string, "x"), plus
// the barres verbatim. It is a render input only; stored diagrams use the
// diagram package's own encoding.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/chordkit/internal/diagram"
)

// Muted is the fret value used for muted strings.
const Muted = "x"

// Entry is one element of ChordData.Fingers. Fret is 0 for an open string;
// Mute marks a muted string; Number is empty when the finger is unnumbered.
type Entry struct {
	String int
	Fret   int
	Mute   bool
	Number string
}

// MarshalJSON writes [s, f], [s, f, "n"], [s, 0] or [s, "x"].
func (e Entry) MarshalJSON() ([]byte, error) {
	switch {
	case e.Mute:
		return []byte(fmt.Sprintf(`[%d,%q]`, e.String, Muted)), nil
	case e.Number == "":
		return []byte(fmt.Sprintf("[%d,%d]", e.String, e.Fret)), nil
	default:
		num, err := json.Marshal(e.Number)
		if err != nil {
			return nil, err
		}
		return []byte(fmt.Sprintf("[%d,%d,%s]", e.String, e.Fret, num)), nil
	}
}

// UnmarshalJSON reads any of the tuple forms MarshalJSON writes.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("chord data entry: %w", err)
	}
	if len(parts) < 2 || len(parts) > 3 {
		return fmt.Errorf("chord data entry has %d elements", len(parts))
	}
	var out Entry
	if err := json.Unmarshal(parts[0], &out.String); err != nil {
		return fmt.Errorf("chord data entry string: %w", err)
	}
	fret := bytes.TrimSpace(parts[1])
	if bytes.Equal(fret, []byte(`"`+Muted+`"`)) {
		out.Mute = true
	} else if err := json.Unmarshal(fret, &out.Fret); err != nil {
		return fmt.Errorf("chord data entry fret: %w", err)
	}
	if len(parts) == 3 {
		var n any
		if err := json.Unmarshal(parts[2], &n); err != nil {
			return fmt.Errorf("chord data entry number: %w", err)
		}
		switch v := n.(type) {
		case string:
			out.Number = v
		case float64:
			out.Number = strconv.Itoa(int(v))
		}
	}
	*e = out
	return nil
}

// ChordData is the drawable form of a diagram.
type ChordData struct {
	Fingers []Entry         `json:"fingers"`
	Barres  []diagram.Barre `json:"barres"`
}

// Style holds the visual options passed through to a surface.
type Style struct {
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	FingerTextColor string `json:"fingerTextColor,omitempty"`
	TitleFontSize   int    `json:"titleFontSize,omitempty"`
	NoPosition      bool   `json:"noPosition,omitempty"`
}

// DefaultStyle is black on white with white finger labels.
var DefaultStyle = Style{
	Color:           "#000000",
	BackgroundColor: "#ffffff",
	FingerTextColor: "#ffffff",
	TitleFontSize:   24,
}

// Config configures a surface for one diagram.
type Config struct {
	Title    string   `json:"title,omitempty"`
	Strings  int      `json:"strings"`
	Frets    int      `json:"frets"`
	Position int      `json:"position"`
	Tuning   []string `json:"tuning"`
	Style    Style    `json:"style"`
}

// ConfigFor returns the surface configuration for d.
func ConfigFor(d diagram.Diagram, style Style) Config {
	return Config{
		Title:    d.Title,
		Strings:  d.NumStrings(),
		Frets:    d.NumFrets(),
		Position: d.StartingFret,
		Tuning:   append([]string{}, d.Tuning...),
		Style:    style,
	}
}

// ToChordData flattens d: fretted fingers first (string, then fret order),
// then one (s, 0) per open string, then one (s, "x") per muted string.
func ToChordData(d diagram.Diagram) ChordData {
	out := ChordData{Fingers: []Entry{}, Barres: d.Barres()}
	if out.Barres == nil {
		out.Barres = []diagram.Barre{}
	}
	for _, f := range d.Fingers() {
		out.Fingers = append(out.Fingers, Entry{String: f.String, Fret: f.Fret, Number: f.Number})
	}
	for _, s := range d.OpenStrings() {
		out.Fingers = append(out.Fingers, Entry{String: s})
	}
	for _, s := range d.MutedStrings() {
		out.Fingers = append(out.Fingers, Entry{String: s, Mute: true})
	}
	return out
}

// FromChordData rebuilds a diagram from a surface configuration and chord
// data. Entries outside the configured dimensions are dropped.
func FromChordData(cfg Config, data ChordData) (diagram.Diagram, error) {
	p := diagram.Parts{
		Header: diagram.Header{
			Title:        cfg.Title,
			StartingFret: cfg.Position,
			Tuning:       cfg.Tuning,
		},
		NumStrings: cfg.Strings,
		NumFrets:   cfg.Frets,
		Barres:     data.Barres,
	}
	for _, e := range data.Fingers {
		switch {
		case e.Mute:
			p.MutedStrings = append(p.MutedStrings, e.String)
		case e.Fret == 0:
			p.OpenStrings = append(p.OpenStrings, e.String)
		default:
			p.Fingers = append(p.Fingers, diagram.Finger{String: e.String, Fret: e.Fret, Number: e.Number})
		}
	}
	d, err := diagram.Build(p)
	if err != nil {
		return diagram.Diagram{}, fmt.Errorf("chord data: %w", err)
	}
	return d, nil
}
