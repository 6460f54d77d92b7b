package library

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes for LoadError.
const (
	ErrCodeRead    = "READ"    // file could not be read
	ErrCodeCompile = "COMPILE" // CUE syntax or evaluation error
	ErrCodeSchema  = "SCHEMA"  // value does not satisfy the schema
	ErrCodeChord   = "CHORD"   // chord passes the schema but cannot be built
)

// LoadError reports a library or diagram file that failed to load or
// validate. Pos is set when CUE reported a position.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsLoadError reports whether err is a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// fromCUEError keeps the first CUE error and its position.
func fromCUEError(code string, err error) *LoadError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
