package testutil

import "github.com/roach88/chordkit/internal/diagram"

// AMinor is x02210 with fingers 2, 3 and 1.
func AMinor() diagram.Diagram {
	d := diagram.Empty().WithTitle("Am").
		SetMuted(6).
		SetOpen(5).
		AddFinger(4, 2, "2").
		AddFinger(3, 2, "3").
		AddFinger(2, 1, "1").
		SetOpen(1)
	return d
}

// FMajor is the first-position F barre shape 133211.
func FMajor() diagram.Diagram {
	return diagram.Empty().WithTitle("F").
		PlaceBarre(diagram.Barre{FromString: 6, ToString: 1, Fret: 1, Label: "1"}).
		AddFinger(5, 3, "3").
		AddFinger(4, 3, "4").
		AddFinger(3, 2, "2")
}

// MustFromFrets builds a diagram from a fret pattern and panics on error.
func MustFromFrets(title string, frets ...string) diagram.Diagram {
	d, err := diagram.FromFrets(title, frets, diagram.DefaultNumFrets)
	if err != nil {
		panic(err)
	}
	return d
}
