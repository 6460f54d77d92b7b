package library

import (
	"context"
	"strings"

	"github.com/roach88/chordkit/internal/autofill"
	"github.com/roach88/chordkit/internal/diagram"
)

// Source serves a library to the autofill resolver with no saved charts, so
// lookups work without a database.
type Source struct {
	Library *Library
}

var _ autofill.Source = Source{}

// ListForItem returns nothing; a library has no per-item charts.
func (Source) ListForItem(context.Context, string) ([]autofill.Candidate, error) {
	return nil, nil
}

// SearchCommon returns the exact name match first, followed by chords whose
// names contain name, in library order.
func (s Source) SearchCommon(_ context.Context, name string) ([]autofill.Candidate, error) {
	key := diagram.NameKey(name)
	if key == "" {
		return nil, nil
	}
	var exact, partial []autofill.Candidate
	for i, c := range s.Library.Chords {
		ck := diagram.NameKey(c.Title)
		if ck != key && !strings.Contains(ck, key) {
			continue
		}
		d, err := c.Diagram()
		if err != nil {
			return nil, err
		}
		data, err := d.MarshalJSON()
		if err != nil {
			return nil, err
		}
		cand := autofill.Candidate{ID: int64(i + 1), Order: i, Title: c.Title, Data: data}
		if ck == key {
			exact = append(exact, cand)
		} else {
			partial = append(partial, cand)
		}
	}
	return append(exact, partial...), nil
}
