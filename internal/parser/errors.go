package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrNoShapesTable means the grammar parsed but no table constructor was
	// found in a return, assignment or local initializer.
	ErrNoShapesTable = errors.New("no shapes table found")

	// ErrNoShapes means the shapes table yielded zero shapes.
	ErrNoShapes = errors.New("shapes table contains no shapes")
)

// GrammarError is returned by the strict parser when the text is not a
// valid table-literal expression. Line is 0 when the grammar reported none.
type GrammarError struct {
	Message string
	Line    int
	Cause   error
}

func (e *GrammarError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (e *GrammarError) Unwrap() error { return e.Cause }

// IOError wraps a failure reading a shapes file from storage.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsIOError reports whether err is, or wraps, an *IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}
