package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resizeFixture() Diagram {
	return Empty().
		PlaceBarre(Barre{FromString: 6, ToString: 3, Fret: 1, Label: "1"}).
		AddFinger(2, 4, "4").
		AddFinger(1, 2, "2")
}

func TestResizeClip(t *testing.T) {
	d := resizeFixture()

	out, err := d.Resize(4, 3, ResizeClip)
	require.NoError(t, err)

	assert.Equal(t, 4, out.NumStrings())
	assert.Equal(t, 3, out.NumFrets())
	assert.Equal(t, []string{"D", "G", "B", "E"}, out.Tuning)
	assert.Equal(t, []Finger{{String: 1, Fret: 2, Number: "2"}}, out.Fingers())
	assert.Equal(t, []Barre{{FromString: 4, ToString: 3, Fret: 1, Label: "1"}}, out.Barres())

	// The source diagram is unchanged.
	assert.Equal(t, 6, d.NumStrings())
	assert.Len(t, d.Fingers(), 2)
}

func TestResizeClipDropsNarrowBarre(t *testing.T) {
	d := Empty().PlaceBarre(Barre{FromString: 6, ToString: 4, Fret: 1, Label: "1"})

	out, err := d.Resize(4, 5, ResizeClip)
	require.NoError(t, err)
	assert.Empty(t, out.Barres())
}

func TestResizeReject(t *testing.T) {
	d := resizeFixture().SetMuted(1)

	out, err := d.Resize(4, 3, ResizeReject)
	require.Error(t, err)
	assert.True(t, IsDimensionError(err))
	assert.True(t, Equal(d, out))

	var de *DimensionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []string{"finger 2/4", "barre fret 1"}, de.Conflicts)
}

func TestResizeRejectAllowsGrowth(t *testing.T) {
	out, err := resizeFixture().Resize(7, 6, ResizeReject)
	require.NoError(t, err)
	assert.Equal(t, 7, out.NumStrings())
	assert.Len(t, out.Tuning, 7)
	assert.Len(t, out.Fingers(), 2)
}

func TestResizeInvalid(t *testing.T) {
	_, err := Empty().Resize(1, 3, ResizeClip)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestParseResizePolicy(t *testing.T) {
	p, err := ParseResizePolicy("Reject")
	require.NoError(t, err)
	assert.Equal(t, ResizeReject, p)

	p, err = ParseResizePolicy("")
	require.NoError(t, err)
	assert.Equal(t, ResizeClip, p)

	_, err = ParseResizePolicy("shrink")
	assert.Error(t, err)
}
