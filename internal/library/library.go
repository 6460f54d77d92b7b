package library

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/store"
)

//go:embed schema.cue
var schemaSrc []byte

//go:embed chords.cue
var defaultSrc []byte

// BarreSpec is a barre in a library chord. Fret is absolute, not relative to
// the diagram's starting fret.
type BarreSpec struct {
	Fret  int
	From  int
	To    int
	Label string
}

// Chord is one library entry.
type Chord struct {
	Title string

	// Frets runs from the lowest-pitched string to the highest.
	Frets []string

	// Fingers optionally numbers each fretted position, in Frets order.
	Fingers []string

	Barre    *BarreSpec
	NumFrets int
}

// Diagram builds the chord's diagram.
func (c Chord) Diagram() (diagram.Diagram, error) {
	d, err := diagram.FromFrets(c.Title, c.Frets, c.NumFrets)
	if err != nil {
		return diagram.Diagram{}, fmt.Errorf("chord %q: %w", c.Title, err)
	}
	offset := d.StartingFret - 1
	if offset < 0 {
		offset = 0
	}
	for i, n := range c.Fingers {
		if i >= len(c.Frets) {
			break
		}
		fret, err := strconv.Atoi(c.Frets[i])
		if err != nil || fret <= 0 {
			continue
		}
		d = d.AddFinger(len(c.Frets)-i, fret-offset, n)
	}
	if c.Barre != nil {
		label := c.Barre.Label
		if label == "" {
			label = diagram.FullBarreLabel
		}
		d = d.PlaceBarre(diagram.Barre{
			FromString: c.Barre.From,
			ToString:   c.Barre.To,
			Fret:       c.Barre.Fret - offset,
			Label:      label,
		})
	}
	return d, nil
}

// Library is an ordered set of chords.
type Library struct {
	Chords []Chord
}

// Default returns the built-in library.
func Default() (*Library, error) {
	return Parse("chords.cue", defaultSrc)
}

// Load reads a library from a CUE file.
func Load(path string) (*Library, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: err.Error()}
	}
	return Parse(path, src)
}

// Parse compiles src and validates every entry of its chords struct against
// the #Chord schema. Entries keep their declaration order.
func Parse(filename string, src []byte) (*Library, error) {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return nil, err
	}
	chordDef := schema.LookupPath(cue.ParsePath("#Chord"))

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fromCUEError(ErrCodeCompile, err)
	}
	chordsVal := v.LookupPath(cue.ParsePath("chords"))
	if !chordsVal.Exists() {
		return nil, &LoadError{Code: ErrCodeSchema, Message: "no chords struct", Pos: v.Pos()}
	}
	iter, err := chordsVal.Fields()
	if err != nil {
		return nil, fromCUEError(ErrCodeSchema, err)
	}

	lib := &Library{}
	for iter.Next() {
		title := iter.Label()
		entry := chordDef.Unify(iter.Value())
		if err := entry.Validate(cue.Concrete(true)); err != nil {
			le := fromCUEError(ErrCodeSchema, err)
			le.Message = fmt.Sprintf("chord %q: %s", title, le.Message)
			return nil, le
		}
		c, err := decodeChord(title, entry)
		if err != nil {
			return nil, err
		}
		if _, err := c.Diagram(); err != nil {
			return nil, &LoadError{Code: ErrCodeChord, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		lib.Chords = append(lib.Chords, c)
	}
	return lib, nil
}

// Lookup finds a chord by name, compared with diagram.NameKey.
func (l *Library) Lookup(name string) (Chord, bool) {
	key := diagram.NameKey(name)
	for _, c := range l.Chords {
		if diagram.NameKey(c.Title) == key {
			return c, true
		}
	}
	return Chord{}, false
}

// CommonChords converts the library for store.SeedCommon.
func (l *Library) CommonChords() ([]store.CommonChord, error) {
	out := make([]store.CommonChord, 0, len(l.Chords))
	for _, c := range l.Chords {
		d, err := c.Diagram()
		if err != nil {
			return nil, err
		}
		out = append(out, store.CommonChord{Title: c.Title, Diagram: d})
	}
	return out, nil
}

func compileSchema(ctx *cue.Context) (cue.Value, error) {
	schema := ctx.CompileBytes(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, fromCUEError(ErrCodeCompile, err)
	}
	return schema, nil
}

func decodeChord(title string, v cue.Value) (Chord, error) {
	c := Chord{Title: title}

	frets, err := v.LookupPath(cue.ParsePath("frets")).List()
	if err != nil {
		return Chord{}, fromCUEError(ErrCodeSchema, err)
	}
	for frets.Next() {
		f, err := fretString(frets.Value())
		if err != nil {
			return Chord{}, err
		}
		c.Frets = append(c.Frets, f)
	}

	if fv := v.LookupPath(cue.ParsePath("fingers")); fv.Exists() {
		var fingers []string
		if err := fv.Decode(&fingers); err != nil {
			return Chord{}, fromCUEError(ErrCodeSchema, err)
		}
		c.Fingers = fingers
	}

	if bv := v.LookupPath(cue.ParsePath("barre")); bv.Exists() {
		var b struct {
			Fret  int    `json:"fret"`
			From  int    `json:"from"`
			To    int    `json:"to"`
			Label string `json:"label"`
		}
		if err := bv.Decode(&b); err != nil {
			return Chord{}, fromCUEError(ErrCodeSchema, err)
		}
		c.Barre = &BarreSpec{Fret: b.Fret, From: b.From, To: b.To, Label: b.Label}
	}

	nv, _ := v.LookupPath(cue.ParsePath("numFrets")).Default()
	n, err := nv.Int64()
	if err != nil {
		return Chord{}, fromCUEError(ErrCodeSchema, err)
	}
	c.NumFrets = int(n)
	return c, nil
}

// fretString renders a validated #Fret as the string form FromFrets reads.
func fretString(v cue.Value) (string, error) {
	switch v.IncompleteKind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return "", fromCUEError(ErrCodeSchema, err)
		}
		return strconv.FormatInt(n, 10), nil
	default:
		s, err := v.String()
		if err != nil {
			return "", fromCUEError(ErrCodeSchema, err)
		}
		return s, nil
	}
}
