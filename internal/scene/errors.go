package scene

import (
	"errors"
	"fmt"
	"os"
)

// ErrMissingInput is returned (wrapped) when a required file or directory of a
// scene is absent. Check for it with errors.Is.
var ErrMissingInput = errors.New("missing input")

// ParseError reports source content that does not match the expected layout:
// wrong value count, non-numeric token, or a non-integer frame file name.
type ParseError struct {
	Path string
	Line int // 1-based; 0 when the error is not tied to a line
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", loc, e.Msg, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", loc, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// openError classifies a failed open/read of path.
func openError(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	return fmt.Errorf("failed to read %s: %w", path, err)
}
