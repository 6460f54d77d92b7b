package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewDefaults(t *testing.T) {
	d, err := New(6, 5)
	require.NoError(t, err)

	assert.Equal(t, 6, d.NumStrings())
	assert.Equal(t, 5, d.NumFrets())
	assert.Equal(t, 1, d.StartingFret)
	assert.Equal(t, []string{"E", "A", "D", "G", "B", "E"}, d.Tuning)
	assert.True(t, d.IsEmpty())
	assert.Empty(t, d.Fingers())
	assert.Empty(t, d.Barres())
}

func TestNewInvalidDimensions(t *testing.T) {
	_, err := New(1, 5)
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	_, err = New(6, 0)
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	assert.Panics(t, func() { MustNew(0, 0) })
}

func TestToggleFingerRoundTrip(t *testing.T) {
	d := Empty()

	added := d.ToggleFinger(3, 1)
	f, ok := added.FingerAt(3, 1)
	require.True(t, ok)
	assert.Equal(t, Finger{String: 3, Fret: 1}, f)

	removed := added.ToggleFinger(3, 1)
	_, ok = removed.FingerAt(3, 1)
	assert.False(t, ok)
	assert.True(t, Equal(d, removed))
}

func TestEditsDoNotMutateReceiver(t *testing.T) {
	d := Empty().AddFinger(2, 2, "1")
	before, err := d.CanonicalJSON()
	require.NoError(t, err)

	_ = d.AddFinger(2, 3, "2")
	_ = d.SetOpen(2)
	_ = d.PlaceBarre(Barre{FromString: 6, ToString: 1, Fret: 2, Label: "1"})
	_ = d.SetFingerNumber(2, 2, "4")

	after, err := d.CanonicalJSON()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestAddFingerOutOfRangeIgnored(t *testing.T) {
	d := Empty()
	assert.True(t, Equal(d, d.AddFinger(7, 1, "")))
	assert.True(t, Equal(d, d.AddFinger(1, 6, "")))
	assert.True(t, Equal(d, d.AddFinger(0, 1, "")))
}

func TestMarkerClearsFingers(t *testing.T) {
	d := Empty().AddFinger(4, 1, "1").AddFinger(4, 3, "3")

	opened := d.CycleMarker(4)
	assert.Equal(t, StringOpen, opened.StringAt(4).Kind)
	assert.Empty(t, opened.Fingers())

	muted := opened.CycleMarker(4)
	assert.Equal(t, StringMuted, muted.StringAt(4).Kind)

	cleared := muted.CycleMarker(4)
	assert.Equal(t, StringEmpty, cleared.StringAt(4).Kind)
}

func TestFingerClearsMarker(t *testing.T) {
	d := Empty().SetMuted(2).AddFinger(2, 1, "")

	assert.Equal(t, StringFretted, d.StringAt(2).Kind)
	assert.Empty(t, d.MutedStrings())
}

func TestSetFingerNumberRequiresFinger(t *testing.T) {
	d := Empty()
	assert.True(t, Equal(d, d.SetFingerNumber(3, 1, "3")))

	d = d.AddFinger(3, 1, "").SetFingerNumber(3, 1, "3")
	f, ok := d.FingerAt(3, 1)
	require.True(t, ok)
	assert.Equal(t, "3", f.Number)
}

func TestPlaceBarrePrecedence(t *testing.T) {
	d := Empty().
		AddFinger(1, 2, "1").
		AddFinger(3, 2, "2").
		AddFinger(4, 3, "3").
		SetOpen(6).
		SetMuted(5)

	out := d.PlaceBarre(Barre{FromString: 2, ToString: 5, Fret: 2, Label: "1"})

	assert.Equal(t, []Barre{{FromString: 5, ToString: 2, Fret: 2, Label: "1"}}, out.Barres())
	assert.Equal(t, []Finger{{String: 4, Fret: 3, Number: "3"}}, out.Fingers())
	assert.Empty(t, out.OpenStrings())
	assert.Empty(t, out.MutedStrings())
}

func TestPlaceBarreReplacesSameFret(t *testing.T) {
	d := Empty().
		PlaceBarre(Barre{FromString: 6, ToString: 1, Fret: 1, Label: "1"}).
		PlaceBarre(Barre{FromString: 4, ToString: 2, Fret: 3, Label: "3"}).
		PlaceBarre(Barre{FromString: 5, ToString: 3, Fret: 1, Label: "2"})

	assert.Equal(t, []Barre{
		{FromString: 5, ToString: 3, Fret: 1, Label: "2"},
		{FromString: 4, ToString: 2, Fret: 3, Label: "3"},
	}, d.Barres())
}

func TestPlaceBarreClampsAndRejects(t *testing.T) {
	d := Empty()

	clamped := d.PlaceBarre(Barre{FromString: 9, ToString: 0, Fret: 1})
	assert.Equal(t, []Barre{{FromString: 6, ToString: 1, Fret: 1}}, clamped.Barres())

	assert.Empty(t, d.PlaceBarre(Barre{FromString: 3, ToString: 3, Fret: 1}).Barres())
	assert.Empty(t, d.PlaceBarre(Barre{FromString: 6, ToString: 1, Fret: 6}).Barres())
}

func TestToggleBarre(t *testing.T) {
	d := Empty().ToggleBarre(2)
	assert.Equal(t, []Barre{{FromString: 6, ToString: 1, Fret: 2, Label: "1"}}, d.Barres())

	d = d.ToggleBarre(2)
	assert.Empty(t, d.Barres())
}

func TestBuildFingersWinOverMarkers(t *testing.T) {
	d, err := Build(Parts{
		NumStrings:   6,
		NumFrets:     5,
		Fingers:      []Finger{{String: 2, Fret: 1}},
		OpenStrings:  []int{2, 3},
		MutedStrings: []int{9},
	})
	require.NoError(t, err)

	assert.Equal(t, StringFretted, d.StringAt(2).Kind)
	assert.Equal(t, []int{3}, d.OpenStrings())
	assert.Empty(t, d.MutedStrings())
	assert.Equal(t, 1, d.StartingFret)
}

func TestBuildKeepsBarreAlongsideFingers(t *testing.T) {
	d, err := Build(Parts{
		NumStrings: 6,
		NumFrets:   5,
		Fingers:    []Finger{{String: 3, Fret: 2, Number: "2"}},
		Barres:     []Barre{{FromString: 1, ToString: 6, Fret: 2, Label: "1"}},
	})
	require.NoError(t, err)

	assert.Len(t, d.Fingers(), 1)
	assert.Equal(t, []Barre{{FromString: 6, ToString: 1, Fret: 2, Label: "1"}}, d.Barres())
}

func TestValidFingerNumber(t *testing.T) {
	for _, s := range []string{"1", "2", "3", "4", "5"} {
		assert.True(t, ValidFingerNumber(s), s)
	}
	for _, s := range []string{"", "0", "6", "01", "T", "-1"} {
		assert.False(t, ValidFingerNumber(s), s)
	}
}

// exclusive checks that no string is both fretted and marked.
func exclusive(t require.TestingT, d Diagram) {
	marked := map[int]bool{}
	for _, s := range d.OpenStrings() {
		marked[s] = true
	}
	for _, s := range d.MutedStrings() {
		require.False(t, marked[s], "string %d both open and muted", s)
		marked[s] = true
	}
	for _, f := range d.Fingers() {
		require.False(t, marked[f.String], "string %d fretted and marked", f.String)
	}
}

func TestMutualExclusionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := Empty()
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			s := rapid.IntRange(1, 6).Draw(t, "string")
			f := rapid.IntRange(1, 5).Draw(t, "fret")
			switch rapid.IntRange(0, 5).Draw(t, "op") {
			case 0:
				d = d.ToggleFinger(s, f)
			case 1:
				d = d.CycleMarker(s)
			case 2:
				d = d.SetOpen(s)
			case 3:
				d = d.SetMuted(s)
			case 4:
				d = d.ToggleBarre(f)
			case 5:
				d = d.AddFinger(s, f, "1")
			}
			exclusive(t, d)

			seen := map[int]bool{}
			for _, b := range d.Barres() {
				if seen[b.Fret] {
					t.Fatalf("two barres at fret %d", b.Fret)
				}
				seen[b.Fret] = true
			}
		}
	})
}

func TestToggleTwiceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := Empty()
		for i := rapid.IntRange(0, 10).Draw(t, "prefix"); i > 0; i-- {
			d = d.AddFinger(rapid.IntRange(1, 6).Draw(t, "ps"), rapid.IntRange(1, 5).Draw(t, "pf"), "")
		}
		s := rapid.IntRange(1, 6).Draw(t, "string")
		f := rapid.IntRange(1, 5).Draw(t, "fret")

		got := d.ToggleFinger(s, f).ToggleFinger(s, f)
		if !Equal(d, got) {
			t.Fatalf("toggle twice changed the diagram at %d/%d", s, f)
		}
	})
}
