package autofill

import (
	"errors"
	"fmt"
)

// LookupErrorCode categorizes autofill failures.
type LookupErrorCode string

const (
	// ErrCodeRateLimited means the backend kept throttling until the retry
	// budget ran out.
	ErrCodeRateLimited LookupErrorCode = "RATE_LIMITED"

	// ErrCodeBackend is any other backend failure.
	ErrCodeBackend LookupErrorCode = "BACKEND"

	// ErrCodeNotFound means no saved or common diagram matched.
	ErrCodeNotFound LookupErrorCode = "NOT_FOUND"

	// ErrCodeInvalidData means the chosen diagram could not be decoded.
	ErrCodeInvalidData LookupErrorCode = "INVALID_DATA"
)

// LookupError is returned by Resolve. The diagram being edited must be left
// alone whatever the code.
type LookupError struct {
	Code LookupErrorCode
	Name string
	Err  error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: autofill %q: %v", e.Code, e.Name, e.Err)
	}
	return fmt.Sprintf("%s: autofill %q", e.Code, e.Name)
}

func (e *LookupError) Unwrap() error { return e.Err }

// IsLookupError reports whether err is a *LookupError.
func IsLookupError(err error) bool {
	var le *LookupError
	return errors.As(err, &le)
}

// IsNotFound reports whether err is a NOT_FOUND lookup error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsRateLimited reports whether err is a RATE_LIMITED lookup error.
func IsRateLimited(err error) bool { return hasCode(err, ErrCodeRateLimited) }

func hasCode(err error, code LookupErrorCode) bool {
	var le *LookupError
	return errors.As(err, &le) && le.Code == code
}
