package store

import (
	"context"

	"github.com/roach88/chordkit/internal/autofill"
)

// Source adapts the store to autofill.Source.
type Source struct {
	Store *Store
}

var _ autofill.Source = Source{}

// ListForItem returns the item's charts as autofill candidates.
func (src Source) ListForItem(ctx context.Context, itemID string) ([]autofill.Candidate, error) {
	recs, err := src.Store.ListForItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return candidates(recs), nil
}

// SearchCommon returns matching common chords as autofill candidates.
func (src Source) SearchCommon(ctx context.Context, name string) ([]autofill.Candidate, error) {
	recs, err := src.Store.SearchCommon(ctx, name)
	if err != nil {
		return nil, err
	}
	return candidates(recs), nil
}

func candidates(recs []Record) []autofill.Candidate {
	out := make([]autofill.Candidate, len(recs))
	for i, r := range recs {
		out[i] = autofill.Candidate{ID: r.ID, Order: r.Order, Title: r.Title, Data: r.Data}
	}
	return out
}
