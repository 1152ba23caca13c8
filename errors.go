package schemaflow

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrParse is returned when a schema source has a syntax error.
	// Unrecognized declarations are not parse errors.
	ErrParse = errors.New("schemaflow: source could not be parsed")

	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("schemaflow: not found")

	// ErrSelfCaused is returned when a source change is the echo of text the
	// diagram itself generated. Callers treat it as a no-op.
	ErrSelfCaused = errors.New("schemaflow: source change is self-caused")
)

// NotFoundError reports a missing document or node.
type NotFoundError struct {
	// Kind names what was looked up: "document", "node".
	Kind string
	// ID is the requested identifier. It may be empty.
	ID string
}

// NewNotFoundErrorWithID returns a NotFoundError for the given kind and id.
func NewNotFoundErrorWithID(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return "schemaflow: " + e.Kind + " not found"
	}
	return fmt.Sprintf("schemaflow: %s %q not found", e.Kind, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsParseError reports whether err was caused by unparsable source.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

// AggregateError collects independent failures, such as every invalid
// setting of a configuration file.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "schemaflow: %d errors:", len(e.Errors))
	for _, err := range e.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap returns the collected errors for errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError drops nil errors. It returns nil when nothing is
// left and the error itself when only one is.
func NewAggregateError(errs ...error) error {
	errs = slices.DeleteFunc(slices.Clone(errs), func(err error) bool { return err == nil })
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return &AggregateError{Errors: errs}
}
