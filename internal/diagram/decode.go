package diagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// stored is the persisted shape of a diagram. Every field is tolerant of the
// encodings seen in older records: numbers may be quoted, the tuning may be a
// compact label or a list, and finger entries are decoded one by one.
type stored struct {
	Title              flexString        `json:"title"`
	NumStrings         flexInt           `json:"numStrings"`
	NumFrets           flexInt           `json:"numFrets"`
	StartingFret       flexInt           `json:"startingFret"`
	Tuning             flexTuning        `json:"tuning"`
	Capo               flexInt           `json:"capo"`
	Fingers            []json.RawMessage `json:"fingers"`
	Barres             []storedBarre     `json:"barres"`
	OpenStrings        []flexInt         `json:"openStrings"`
	MutedStrings       []flexInt         `json:"mutedStrings"`
	SectionID          flexString        `json:"sectionId"`
	SectionLabel       flexString        `json:"sectionLabel"`
	SectionRepeatCount flexString        `json:"sectionRepeatCount"`
}

type storedBarre struct {
	FromString flexInt    `json:"fromString"`
	ToString   flexInt    `json:"toString"`
	Fret       flexInt    `json:"fret"`
	Label      flexString `json:"label"`
}

// Decode parses a stored diagram.
//
// Finger entries may be positional ([string, fret] or [string, fret, number])
// or objects ({"string", "fret", "fingerNumber"} with "finger" accepted as an
// alias). A fret of 0 marks the string open and "x" (or -1) marks it muted.
// An entry that cannot be read is dropped and reported in the returned slice.
// A finger number outside 1-5 is reported too, but the finger is kept
// without a number.
// Only a document that is not a JSON object, has an unreadable header field or
// has impossible dimensions fails the whole decode.
//
// Missing dimensions default to six strings (or the tuning length) and five
// frets.
func Decode(data []byte) (Diagram, []*DecodeError, error) {
	var s stored
	if err := json.Unmarshal(data, &s); err != nil {
		return Diagram{}, nil, fmt.Errorf("decode diagram: %w", err)
	}

	p := Parts{
		Header: Header{
			Title:              string(s.Title),
			StartingFret:       int(s.StartingFret),
			Capo:               int(s.Capo),
			SectionID:          string(s.SectionID),
			SectionLabel:       string(s.SectionLabel),
			SectionRepeatCount: string(s.SectionRepeatCount),
		},
		NumStrings: int(s.NumStrings),
		NumFrets:   int(s.NumFrets),
	}
	if len(s.Tuning) > 0 {
		p.Tuning = []string(s.Tuning)
	}
	if p.NumStrings == 0 {
		p.NumStrings = DefaultNumStrings
		if len(p.Tuning) >= 2 {
			p.NumStrings = len(p.Tuning)
		}
	}
	if p.NumFrets == 0 {
		p.NumFrets = DefaultNumFrets
	}

	for _, v := range s.OpenStrings {
		p.OpenStrings = append(p.OpenStrings, int(v))
	}
	for _, v := range s.MutedStrings {
		p.MutedStrings = append(p.MutedStrings, int(v))
	}
	for _, b := range s.Barres {
		p.Barres = append(p.Barres, Barre{
			FromString: int(b.FromString),
			ToString:   int(b.ToString),
			Fret:       int(b.Fret),
			Label:      string(b.Label),
		})
	}

	var problems []*DecodeError
	for i, raw := range s.Fingers {
		e, err := decodeEntry(raw)
		if err != nil {
			problems = append(problems, &DecodeError{Index: i, Reason: err.Error(), Raw: compact(raw)})
			continue
		}
		if e.String < 1 || e.String > p.NumStrings {
			problems = append(problems, &DecodeError{Index: i, Reason: "string out of range", Raw: compact(raw)})
			continue
		}
		switch e.Kind {
		case StringOpen:
			p.OpenStrings = append(p.OpenStrings, e.String)
		case StringMuted:
			p.MutedStrings = append(p.MutedStrings, e.String)
		default:
			if e.Fret > p.NumFrets {
				problems = append(problems, &DecodeError{Index: i, Reason: "fret out of range", Raw: compact(raw)})
				continue
			}
			if e.BadNumber {
				problems = append(problems, &DecodeError{Index: i, Reason: "invalid finger number", Raw: compact(raw)})
			}
			p.Fingers = append(p.Fingers, Finger{String: e.String, Fret: e.Fret, Number: e.Number})
		}
	}

	d, err := Build(p)
	if err != nil {
		return Diagram{}, problems, fmt.Errorf("decode diagram: %w", err)
	}
	return d, problems, nil
}

// UnmarshalJSON implements json.Unmarshaler. Unreadable finger entries are
// dropped silently; use Decode to see them.
func (d *Diagram) UnmarshalJSON(data []byte) error {
	out, _, err := Decode(data)
	if err != nil {
		return err
	}
	*d = out
	return nil
}

// entry is one decoded finger list element.
type entry struct {
	String int
	Fret   int
	Number string
	Kind   StringKind

	// BadNumber is set when a stored number was present but unusable.
	BadNumber bool
}

// decodeEntry reads one element of a stored fingers list.
func decodeEntry(raw json.RawMessage) (entry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return entry{}, fmt.Errorf("empty entry")
	}
	switch trimmed[0] {
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return entry{}, fmt.Errorf("malformed tuple")
		}
		if len(parts) < 2 || len(parts) > 3 {
			return entry{}, fmt.Errorf("tuple has %d elements", len(parts))
		}
		var number json.RawMessage
		if len(parts) == 3 {
			number = parts[2]
		}
		return readEntry(parts[0], parts[1], number)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return entry{}, fmt.Errorf("malformed object")
		}
		s, ok := obj["string"]
		if !ok {
			return entry{}, fmt.Errorf("missing string")
		}
		f, ok := obj["fret"]
		if !ok {
			return entry{}, fmt.Errorf("missing fret")
		}
		number, ok := obj["fingerNumber"]
		if !ok {
			number = obj["finger"]
		}
		return readEntry(s, f, number)
	default:
		return entry{}, fmt.Errorf("unsupported shape")
	}
}

func readEntry(rawString, rawFret, rawNumber json.RawMessage) (entry, error) {
	var e entry
	var s flexInt
	if err := json.Unmarshal(rawString, &s); err != nil || s < 1 {
		return entry{}, fmt.Errorf("invalid string")
	}
	e.String = int(s)

	var f flexString
	if err := json.Unmarshal(rawFret, &f); err != nil {
		return entry{}, fmt.Errorf("invalid fret")
	}
	switch fs := strings.ToLower(string(f)); fs {
	case "x", "-1":
		e.Kind = StringMuted
	case "0", "o":
		e.Kind = StringOpen
	default:
		n, err := strconv.Atoi(fs)
		if err != nil || n < 0 {
			return entry{}, fmt.Errorf("invalid fret")
		}
		e.Kind = StringFretted
		e.Fret = n
	}

	if len(rawNumber) > 0 {
		var num flexString
		if err := json.Unmarshal(rawNumber, &num); err != nil {
			e.BadNumber = true
			return e, nil
		}
		switch n := strings.TrimSpace(string(num)); {
		case n == "":
		case ValidFingerNumber(n):
			e.Number = n
		default:
			e.BadNumber = true
		}
	}
	return e, nil
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// flexInt decodes a JSON number, a numeric string or null.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(s)))
	if err != nil {
		return fmt.Errorf("not an integer: %s", data)
	}
	*n = flexInt(v)
	return nil
}

// flexString decodes a JSON string, an integer or null.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("not a string or number: %s", data)
	}
	if _, err := num.Int64(); err != nil {
		return fmt.Errorf("not an integer: %s", data)
	}
	*s = flexString(num.String())
	return nil
}

// flexTuning decodes a tuning list or a compact label such as "EADGBE".
type flexTuning []string

func (t *flexTuning) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return err
		}
		if strings.TrimSpace(label) == "" {
			*t = nil
			return nil
		}
		parsed, err := ParseTuning(label)
		if err != nil {
			// An unreadable label falls back to the default tuning.
			*t = nil
			return nil
		}
		*t = parsed
		return nil
	default:
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("tuning: %w", err)
		}
		*t = list
		return nil
	}
}
