package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by the typed errors below.
var (
	ErrSchemaConflict = errors.New("schemaflow: schema conflict")
	ErrConfig         = errors.New("schemaflow: invalid generator configuration")
	ErrGenerate       = errors.New("schemaflow: generation failed")
	ErrInvalidInput   = errors.New("schemaflow: invalid input")
)

// Location points at a table, or a column of a table, in the source.
// The zero Location is the whole file.
type Location struct {
	Table  string
	Column string
}

func (l Location) String() string {
	switch {
	case l.Table == "":
		return ""
	case l.Column == "":
		return "table " + l.Table
	}
	return "table " + l.Table + " column " + l.Column
}

// SchemaError reports an edit that conflicts with the declarations in
// the source, such as adding a table that is already declared.
type SchemaError struct {
	Location
	Message string
	Cause   error
}

// NewSchemaError returns a SchemaError at the given table and column.
func NewSchemaError(table, column, message string, cause error) *SchemaError {
	return &SchemaError{Location: Location{table, column}, Message: message, Cause: cause}
}

func (e *SchemaError) Error() string {
	return describe("schema conflict", e.Location, e.Message, e.Cause)
}

func (e *SchemaError) Unwrap() error        { return e.Cause }
func (e *SchemaError) Is(target error) bool { return target == ErrSchemaConflict }

// GenerationError reports source, Go or DDL output that could not be
// produced.
type GenerationError struct {
	Location
	Message string
	Cause   error
}

// NewGenerationError returns a GenerationError. Empty table and column
// mean the whole file.
func NewGenerationError(table, column, message string, cause error) *GenerationError {
	return &GenerationError{Location: Location{table, column}, Message: message, Cause: cause}
}

func (e *GenerationError) Error() string {
	return describe("generation failed", e.Location, e.Message, e.Cause)
}

func (e *GenerationError) Unwrap() error        { return e.Cause }
func (e *GenerationError) Is(target error) bool { return target == ErrGenerate }

// ConfigError reports an invalid setting, of a generator Option or of
// the application configuration.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// NewConfigError returns a ConfigError. value may be nil.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}

func (e *ConfigError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("schemaflow: %s: %s", e.Option, e.Message)
	}
	return fmt.Sprintf("schemaflow: %s=%v: %s", e.Option, e.Value, e.Message)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// ValidationError reports unusable user input, like a table name that
// is not an identifier.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// NewValidationError returns a ValidationError. value may be nil.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("schemaflow: invalid ")
	b.WriteString(e.Field)
	if e.Value != nil {
		fmt.Fprintf(&b, " %q", fmt.Sprint(e.Value))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func describe(what string, at Location, message string, cause error) string {
	parts := []string{"schemaflow: " + what}
	if s := at.String(); s != "" {
		parts[0] += " in " + s
	}
	if message != "" {
		parts = append(parts, message)
	}
	if cause != nil {
		parts = append(parts, cause.Error())
	}
	return strings.Join(parts, ": ")
}

// IsSchemaError reports whether err is or wraps a SchemaError.
func IsSchemaError(err error) bool { return errors.Is(err, ErrSchemaConflict) }

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool { return errors.Is(err, ErrConfig) }

// IsGenerationError reports whether err is or wraps a GenerationError.
func IsGenerationError(err error) bool { return errors.Is(err, ErrGenerate) }

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool { return errors.Is(err, ErrInvalidInput) }
