package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/editor"
)

// Scenario is a scripted editing session with expectations on the result.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description says what the scenario demonstrates.
	Description string `yaml:"description"`

	// Diagram is the starting diagram. Empty six-string guitar when omitted.
	Diagram *DiagramSpec `yaml:"diagram,omitempty"`

	// Viewport is the on-screen size of the drawing. The drawing's intrinsic
	// size when omitted.
	Viewport *Viewport `yaml:"viewport,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Expect is checked against the final diagram.
	Expect Expect `yaml:"expect"`
}

// DiagramSpec describes a starting diagram either as a fret pattern or as
// stored JSON.
type DiagramSpec struct {
	Title      string   `yaml:"title,omitempty"`
	Frets      []string `yaml:"frets,omitempty"`
	NumStrings int      `yaml:"num_strings,omitempty"`
	NumFrets   int      `yaml:"num_frets,omitempty"`
	JSON       string   `yaml:"json,omitempty"`
}

// Viewport is an on-screen drawing size in pixels.
type Viewport struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// CellRef addresses a board cell. Off means a point outside the drawing.
type CellRef struct {
	String int  `yaml:"string"`
	Fret   int  `yaml:"fret"`
	Off    bool `yaml:"off,omitempty"`
}

// ResizeStep changes the diagram's dimensions.
type ResizeStep struct {
	Strings int    `yaml:"strings"`
	Frets   int    `yaml:"frets"`
	Policy  string `yaml:"policy,omitempty"`

	// Rejected expects the resize to be refused.
	Rejected bool `yaml:"rejected,omitempty"`
}

// Step is one scripted action. Exactly one field is set.
type Step struct {
	Mode     string      `yaml:"mode,omitempty"`
	Click    *CellRef    `yaml:"click,omitempty"`
	Press    *CellRef    `yaml:"press,omitempty"`
	Move     *CellRef    `yaml:"move,omitempty"`
	Release  *CellRef    `yaml:"release,omitempty"`
	Key      string      `yaml:"key,omitempty"`
	Nut      int         `yaml:"nut,omitempty"`
	Resize   *ResizeStep `yaml:"resize,omitempty"`
	Autofill string      `yaml:"autofill,omitempty"`
	Undo     bool        `yaml:"undo,omitempty"`
	Redo     bool        `yaml:"redo,omitempty"`
}

// Action names the step's kind.
func (s Step) Action() string {
	set := s.actions()
	if len(set) != 1 {
		return ""
	}
	return set[0]
}

func (s Step) actions() []string {
	var out []string
	add := func(ok bool, name string) {
		if ok {
			out = append(out, name)
		}
	}
	add(s.Mode != "", "mode")
	add(s.Click != nil, "click")
	add(s.Press != nil, "press")
	add(s.Move != nil, "move")
	add(s.Release != nil, "release")
	add(s.Key != "", "key")
	add(s.Nut != 0, "nut")
	add(s.Resize != nil, "resize")
	add(s.Autofill != "", "autofill")
	add(s.Undo, "undo")
	add(s.Redo, "redo")
	return out
}

// FingerSpec is an expected finger. Number is empty for an unnumbered one.
type FingerSpec struct {
	String int    `yaml:"string"`
	Fret   int    `yaml:"fret"`
	Number string `yaml:"number,omitempty"`
}

// BarreSpec is an expected barre.
type BarreSpec struct {
	From  int    `yaml:"from"`
	To    int    `yaml:"to"`
	Fret  int    `yaml:"fret"`
	Label string `yaml:"label,omitempty"`
}

// Expect lists checks on the final state. A nil list is not checked; an
// empty list must match an empty result.
type Expect struct {
	Fingers   []FingerSpec `yaml:"fingers,omitempty"`
	Barres    []BarreSpec  `yaml:"barres,omitempty"`
	Open      []int        `yaml:"open,omitempty"`
	Muted     []int        `yaml:"muted,omitempty"`
	Title     *string      `yaml:"title,omitempty"`
	Strings   int          `yaml:"strings,omitempty"`
	Frets     int          `yaml:"frets,omitempty"`
	ChordData string       `yaml:"chord_data,omitempty"`
	Selected  *CellRef     `yaml:"selected,omitempty"`
	Highlight *BarreSpec   `yaml:"highlight,omitempty"`
}

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Diagram != nil && s.Diagram.JSON != "" && len(s.Diagram.Frets) > 0 {
		return fmt.Errorf("diagram: frets and json are mutually exclusive")
	}
	if s.Viewport != nil && (s.Viewport.Width <= 0 || s.Viewport.Height <= 0) {
		return fmt.Errorf("viewport: width and height must be positive")
	}
	for i, step := range s.Steps {
		if n := len(step.actions()); n != 1 {
			return fmt.Errorf("steps[%d]: exactly one action is required, got %d", i, n)
		}
		if step.Mode != "" {
			if _, err := editor.ParseMode(step.Mode); err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
		if step.Resize != nil {
			if _, err := diagram.ParseResizePolicy(step.Resize.Policy); err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// initial builds the starting diagram.
func (s *Scenario) initial() (diagram.Diagram, error) {
	spec := s.Diagram
	if spec == nil {
		return diagram.Empty(), nil
	}
	numFrets := spec.NumFrets
	if numFrets == 0 {
		numFrets = diagram.DefaultNumFrets
	}
	switch {
	case spec.JSON != "":
		d, _, err := diagram.Decode([]byte(spec.JSON))
		return d, err
	case len(spec.Frets) > 0:
		return diagram.FromFrets(spec.Title, spec.Frets, numFrets)
	default:
		numStrings := spec.NumStrings
		if numStrings == 0 {
			numStrings = diagram.DefaultNumStrings
		}
		d, err := diagram.New(numStrings, numFrets)
		if err != nil {
			return diagram.Diagram{}, err
		}
		return d.WithTitle(spec.Title), nil
	}
}
