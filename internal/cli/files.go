package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/roach88/chordkit/internal/diagram"
)

// readDiagram reads a stored diagram from path, or from stdin when path is
// "-". Malformed finger entries are dropped and returned alongside.
func readDiagram(path string, stdin io.Reader) (diagram.Diagram, []*diagram.DecodeError, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return diagram.Diagram{}, nil, WrapExitError(ExitCommandError, "failed to read diagram", err)
	}
	d, dropped, err := diagram.Decode(data)
	if err != nil {
		return diagram.Diagram{}, nil, WrapExitError(ExitFailure, fmt.Sprintf("invalid diagram %s", path), err)
	}
	return d, dropped, nil
}

// writeDiagram stores d at path in its canonical form.
func writeDiagram(path string, d diagram.Diagram) error {
	data, err := d.MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
