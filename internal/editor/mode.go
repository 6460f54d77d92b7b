package editor

import (
	"fmt"
	"strings"
)

// Mode is the active edit mode.
type Mode int

const (
	ModeDots Mode = iota
	ModeFingers
	ModeBarres
)

func (m Mode) String() string {
	switch m {
	case ModeDots:
		return "dots"
	case ModeFingers:
		return "fingers"
	case ModeBarres:
		return "barres"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts "dots", "fingers" or "barres" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dots", "dot":
		return ModeDots, nil
	case "fingers", "finger":
		return ModeFingers, nil
	case "barres", "barre":
		return ModeBarres, nil
	default:
		return 0, fmt.Errorf("unknown edit mode %q (want dots, fingers or barres)", s)
	}
}

// dragsHighlight reports whether a drag in m shows a barre highlight.
func (m Mode) dragsHighlight() bool { return m == ModeDots || m == ModeBarres }

// dragsCommit reports whether releasing a highlighted drag in m places a barre.
func (m Mode) dragsCommit() bool { return m == ModeBarres }
