package diagram

import (
	"fmt"
	"strings"
	"unicode"
)

// Tuning slices list string names from the leftmost drawn string (the highest
// string number) to string 1, so "EADGBE" labels string 6 as E.

var knownTunings = map[int][]string{
	4: {"G", "C", "E", "A"},
	5: {"G", "D", "G", "B", "D"},
	6: {"E", "A", "D", "G", "B", "E"},
	7: {"B", "E", "A", "D", "G", "B", "E"},
}

// DefaultTuning returns the conventional tuning for numStrings strings:
// ukulele for 4, banjo for 5, guitar for 6 and seven-string guitar for 7.
// Other counts fit standard guitar tuning to the string count.
func DefaultTuning(numStrings int) []string {
	if t, ok := knownTunings[numStrings]; ok {
		return append([]string(nil), t...)
	}
	return FitTuning(knownTunings[6], numStrings)
}

// FitTuning returns tuning adjusted to exactly numStrings labels. Extra labels
// are dropped from the low (left) end; missing ones are added there as "?".
func FitTuning(tuning []string, numStrings int) []string {
	if numStrings <= 0 {
		return nil
	}
	out := make([]string, numStrings)
	if len(tuning) >= numStrings {
		copy(out, tuning[len(tuning)-numStrings:])
		return out
	}
	pad := numStrings - len(tuning)
	for i := 0; i < pad; i++ {
		out[i] = "?"
	}
	copy(out[pad:], tuning)
	return out
}

// ParseTuning splits a tuning label into per-string note names.
//
// Labels separated by spaces, commas, dashes or slashes are split on those
// separators ("D A D G A D", "C#,G#,C#,F#,G#,C#"). Compact labels are scanned
// note by note: an upper-case letter A-G optionally followed by '#' or 'b'
// ("EADGBE", "EbAbDbGbBbEb"). "standard" (any case) is six-string standard.
func ParseTuning(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty tuning")
	}
	if strings.EqualFold(s, "standard") {
		return DefaultTuning(6), nil
	}

	if strings.ContainsAny(s, " \t,-/") {
		fields := strings.FieldsFunc(s, func(r rune) bool {
			return unicode.IsSpace(r) || r == ',' || r == '-' || r == '/'
		})
		out := make([]string, 0, len(fields))
		for _, f := range fields {
			note, err := normalizeNote(f)
			if err != nil {
				return nil, err
			}
			out = append(out, note)
		}
		return out, nil
	}

	var out []string
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r < 'A' || r > 'G' {
			return nil, fmt.Errorf("tuning %q: unexpected %q at position %d", s, r, i)
		}
		note := string(r)
		if i+1 < len(runes) && isAccidental(runes[i+1]) {
			note += accidental(runes[i+1])
			i++
		}
		out = append(out, note)
	}
	return out, nil
}

// Label joins tuning back into a compact label such as "EADGBE".
func Label(tuning []string) string {
	return strings.Join(tuning, "")
}

func normalizeNote(f string) (string, error) {
	runes := []rune(f)
	if len(runes) == 0 || len(runes) > 2 {
		return "", fmt.Errorf("invalid note %q", f)
	}
	letter := unicode.ToUpper(runes[0])
	if letter < 'A' || letter > 'G' {
		return "", fmt.Errorf("invalid note %q", f)
	}
	note := string(letter)
	if len(runes) == 2 {
		if !isAccidental(runes[1]) {
			return "", fmt.Errorf("invalid note %q", f)
		}
		note += accidental(runes[1])
	}
	return note, nil
}

func isAccidental(r rune) bool {
	return r == '#' || r == 'b' || r == '♯' || r == '♭'
}

func accidental(r rune) string {
	if r == '#' || r == '♯' {
		return "#"
	}
	return "b"
}
