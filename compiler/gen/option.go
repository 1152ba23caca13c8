package gen

import (
	"strings"

	"go.uber.org/zap"

	"github.com/syssam/schemaflow"
)

// Defaults applied by NewConfig.
const (
	DefaultPackage = "model"
	DefaultIndent  = "  "
	DefaultHeader  = "// Code generated by schemaflow. DO NOT EDIT."
)

// Config holds the generator settings.
type Config struct {
	// Logger receives per-node and per-property diagnostics.
	Logger *zap.Logger
	// Indent is used for new object members when the source gives no
	// indentation to copy.
	Indent string
	// Package is the package name of the generated Go model.
	Package string
	// Header is the comment written at the top of the generated Go model.
	Header string
}

// Option configures code generation.
type Option func(*Config) error

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// WithIndent sets the indentation unit for new members.
// Only spaces and tabs are accepted.
func WithIndent(indent string) Option {
	return func(c *Config) error {
		if indent == "" || strings.Trim(indent, " \t") != "" {
			return NewConfigError("Indent", indent, "indent must be spaces or tabs")
		}
		c.Indent = indent
		return nil
	}
}

// WithPackage sets the Go model package name.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithHeader sets the comment at the top of the Go model file. An empty
// header is omitted.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// NewConfig returns a Config with defaults and the given options
// applied. Every failing option is reported.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Logger:  zap.NewNop(),
		Indent:  DefaultIndent,
		Package: DefaultPackage,
		Header:  DefaultHeader,
	}
	errs := make([]error, 0, len(opts))
	for _, opt := range opts {
		errs = append(errs, opt(c))
	}
	if err := schemaflow.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return c, nil
}
