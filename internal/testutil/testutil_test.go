package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chordkit/internal/diagram"
)

func TestFixedTokens(t *testing.T) {
	gen := NewFixedTokens("req-a", "req-b")
	assert.Equal(t, "req-a", gen.Generate())
	assert.Equal(t, "req-b", gen.Generate())
	assert.Equal(t, "token-3", gen.Generate())
}

func TestSleeper_RecordsDelays(t *testing.T) {
	var s Sleeper
	require.NoError(t, s.Sleep(context.Background(), time.Second))
	require.NoError(t, s.Sleep(context.Background(), 2*time.Second))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, s.Delays())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Sleep(ctx, time.Second), context.Canceled)
}

func TestFixtures(t *testing.T) {
	am := AMinor()
	assert.Equal(t, "Am", am.Title)
	assert.Equal(t, []int{1, 5}, am.OpenStrings())
	assert.Equal(t, []int{6}, am.MutedStrings())
	assert.Len(t, am.Fingers(), 3)

	f := FMajor()
	b, ok := f.BarreAt(1)
	require.True(t, ok)
	assert.Equal(t, diagram.Barre{FromString: 6, ToString: 1, Fret: 1, Label: "1"}, b)
	assert.Len(t, f.Fingers(), 3)

	c := MustFromFrets("C", "x", "3", "2", "0", "1", "0")
	assert.Equal(t, []string{"x", "3", "2", "0", "1", "0"}, c.Frets())
}
