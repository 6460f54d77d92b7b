package autofill

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chordkit/internal/testutil"
)

func TestChain_CommonFromFirstMatchingSource(t *testing.T) {
	db := &fakeSource{common: []Candidate{{ID: 1, Title: "G", Data: json.RawMessage(`{"title":"G"}`)}}}
	lib := &fakeSource{common: []Candidate{
		{ID: 7, Title: "G", Data: json.RawMessage(`{"title":"G","openStrings":[1]}`)},
		{ID: 8, Title: "Em", Data: json.RawMessage(`{"title":"Em","openStrings":[1,2,3]}`)},
	}}
	r := newResolver(Chain{db, lib}, &testutil.Sleeper{})

	d, err := r.Resolve(context.Background(), "", "g")
	require.NoError(t, err)
	assert.Empty(t, d.OpenStrings(), "the first source wins")
	assert.Empty(t, lib.searches)

	d, err = r.Resolve(context.Background(), "", "em")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, d.OpenStrings())
}

func TestChain_SavedFromEverySource(t *testing.T) {
	a := &fakeSource{saved: map[string][]Candidate{"9": {{ID: 1, Order: 0, Title: "C"}}}}
	b := &fakeSource{saved: map[string][]Candidate{"9": {{ID: 2, Order: 1, Title: "C"}}}}

	got, err := Chain{a, b}.ListForItem(context.Background(), "9")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestChain_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	a := &fakeSource{searchErrs: []error{boom}}
	b := &fakeSource{common: []Candidate{{ID: 1, Title: "C"}}}

	_, err := Chain{a, b}.SearchCommon(context.Background(), "C")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, b.searches)
}
