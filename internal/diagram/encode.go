package diagram

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// DomainDiagram prefixes diagram content hashes. The version suffix leaves room
// for a future change of the canonical form.
const DomainDiagram = "chordkit/diagram/v1"

// fingerTuple writes a finger as [string, fret] or [string, fret, "number"].
type fingerTuple Finger

func (f fingerTuple) MarshalJSON() ([]byte, error) {
	if f.Number == "" {
		return []byte(fmt.Sprintf("[%d,%d]", f.String, f.Fret)), nil
	}
	num, err := json.Marshal(f.Number)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("[%d,%d,%s]", f.String, f.Fret, num)), nil
}

type storedOut struct {
	Title              string        `json:"title"`
	NumStrings         int           `json:"numStrings"`
	NumFrets           int           `json:"numFrets"`
	StartingFret       int           `json:"startingFret"`
	Tuning             []string      `json:"tuning"`
	Capo               int           `json:"capo"`
	Fingers            []fingerTuple `json:"fingers"`
	Barres             []Barre       `json:"barres"`
	OpenStrings        []int         `json:"openStrings"`
	MutedStrings       []int         `json:"mutedStrings"`
	SectionID          string        `json:"sectionId,omitempty"`
	SectionLabel       string        `json:"sectionLabel,omitempty"`
	SectionRepeatCount string        `json:"sectionRepeatCount,omitempty"`
}

// MarshalJSON writes the canonical storage form. Lists are always present,
// empty rather than null, and fingers use the positional tuple form.
func (d Diagram) MarshalJSON() ([]byte, error) {
	out := storedOut{
		Title:              d.Title,
		NumStrings:         d.numStrings,
		NumFrets:           d.numFrets,
		StartingFret:       d.StartingFret,
		Tuning:             nonNil(d.Tuning),
		Capo:               d.Capo,
		Fingers:            []fingerTuple{},
		Barres:             nonNil(d.barres),
		OpenStrings:        nonNil(d.OpenStrings()),
		MutedStrings:       nonNil(d.MutedStrings()),
		SectionID:          d.SectionID,
		SectionLabel:       d.SectionLabel,
		SectionRepeatCount: d.SectionRepeatCount,
	}
	for _, f := range d.Fingers() {
		out.Fingers = append(out.Fingers, fingerTuple(f))
	}
	return json.Marshal(out)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// CanonicalJSON returns a byte-stable encoding of d: object keys sorted, no
// insignificant whitespace, no HTML escaping and strings in NFC. Every field
// is present, so two diagrams are equal exactly when their canonical forms
// are.
func (d Diagram) CanonicalJSON() ([]byte, error) {
	fingers := make([]any, 0)
	for _, f := range d.Fingers() {
		t := []any{f.String, f.Fret}
		if f.Number != "" {
			t = append(t, f.Number)
		}
		fingers = append(fingers, t)
	}
	barres := make([]any, 0, len(d.barres))
	for _, b := range d.barres {
		barres = append(barres, map[string]any{
			"fromString": b.FromString,
			"toString":   b.ToString,
			"fret":       b.Fret,
			"label":      b.Label,
		})
	}
	obj := map[string]any{
		"title":              d.Title,
		"numStrings":         d.numStrings,
		"numFrets":           d.numFrets,
		"startingFret":       d.StartingFret,
		"tuning":             toAny(d.Tuning),
		"capo":               d.Capo,
		"fingers":            fingers,
		"barres":             barres,
		"openStrings":        toAny(d.OpenStrings()),
		"mutedStrings":       toAny(d.MutedStrings()),
		"sectionId":          d.SectionID,
		"sectionLabel":       d.SectionLabel,
		"sectionRepeatCount": d.SectionRepeatCount,
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, obj); err != nil {
		return nil, fmt.Errorf("canonical diagram: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentHash returns the hex SHA-256 of the canonical form, domain
// separated as SHA256(domain || 0x00 || canonical).
func (d Diagram) ContentHash() (string, error) {
	data, err := d.CanonicalJSON()
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(DomainDiagram))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Equal reports whether a and b have identical canonical forms.
func Equal(a, b Diagram) bool {
	ca, errA := a.CanonicalJSON()
	cb, errB := b.CanonicalJSON()
	return errA == nil && errB == nil && bytes.Equal(ca, cb)
}

func toAny[T any](s []T) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// writeCanonical encodes strings, ints, bools, lists and string-keyed maps.
// All keys used here are ASCII, where byte order equals UTF-16 order.
func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case string:
		return writeCanonicalString(buf, val)
	case int:
		fmt.Fprintf(buf, "%d", val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("%q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type %T", v)
	}
	return nil
}

func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
