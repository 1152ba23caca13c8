package syntax

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/schemaflow"
)

// Error is returned when source text has a syntax error. It matches
// schemaflow.ErrParse under errors.Is.
type Error struct {
	Pos  int // byte offset
	Line int // 1-based
	Col  int // 1-based, in bytes
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("schemaflow: parse error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Is reports whether target is schemaflow.ErrParse.
func (e *Error) Is(target error) bool {
	return target == schemaflow.ErrParse
}

// IsError returns true if err is or wraps a *Error.
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

func newError(src string, pos int, format string, args ...any) *Error {
	if pos > len(src) {
		pos = len(src)
	}
	line := strings.Count(src[:pos], "\n") + 1
	col := pos - strings.LastIndexByte(src[:pos], '\n')
	return &Error{Pos: pos, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}
