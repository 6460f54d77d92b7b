package diagram

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// NameKey is the comparison key for chord names: trimmed, NFC-normalized and
// case-folded, with inner runs of whitespace collapsed. "am", " Am " and "AM"
// share a key, as do a precomposed and a combining-accent spelling of the
// same name.
func NameKey(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	return folder.String(norm.NFC.String(name))
}
