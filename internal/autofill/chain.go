package autofill

import "context"

// Chain searches several sources in order. Saved diagrams from every source
// are considered together; common chords come from the first source that has
// any match.
type Chain []Source

var _ Source = Chain{}

// ListForItem concatenates every source's saved diagrams.
func (c Chain) ListForItem(ctx context.Context, itemID string) ([]Candidate, error) {
	var out []Candidate
	for _, src := range c {
		cands, err := src.ListForItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		out = append(out, cands...)
	}
	return out, nil
}

// SearchCommon returns the first non-empty result.
func (c Chain) SearchCommon(ctx context.Context, name string) ([]Candidate, error) {
	for _, src := range c {
		cands, err := src.SearchCommon(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(cands) > 0 {
			return cands, nil
		}
	}
	return nil, nil
}
