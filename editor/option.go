package editor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/syssam/schemaflow/compiler/gen"
	"github.com/syssam/schemaflow/graph"
)

// Config holds the controller settings.
type Config struct {
	// Source is the initial document text.
	Source string
	// Positions restores node positions of a saved document.
	Positions map[string]graph.Position
	// Logger receives state transitions and failures.
	Logger *zap.Logger

	// Project, Layout and Generate are passed to the projector, the
	// auto-layout and the generator.
	Project  []graph.ProjectOption
	Layout   []graph.LayoutOption
	Generate []gen.Option
}

// Option configures a Controller.
type Option func(*Config) error

// WithSource sets the initial source. The default is DefaultSource.
func WithSource(src string) Option {
	return func(c *Config) error {
		c.Source = src
		return nil
	}
}

// WithPositions restores node positions after the initial load.
func WithPositions(pos map[string]graph.Position) Option {
	return func(c *Config) error {
		c.Positions = pos
		return nil
	}
}

// WithLogger sets the logger. It is also passed to the generator.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return errors.New("schemaflow: editor logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// WithProjectOptions sets the projector options.
func WithProjectOptions(opts ...graph.ProjectOption) Option {
	return func(c *Config) error {
		c.Project = append(c.Project, opts...)
		return nil
	}
}

// WithLayoutOptions sets the default auto-layout options.
func WithLayoutOptions(opts ...graph.LayoutOption) Option {
	return func(c *Config) error {
		c.Layout = append(c.Layout, opts...)
		return nil
	}
}

// WithGenerateOptions sets the generator options.
func WithGenerateOptions(opts ...gen.Option) Option {
	return func(c *Config) error {
		if _, err := gen.NewConfig(opts...); err != nil {
			return fmt.Errorf("schemaflow: editor generator options: %w", err)
		}
		c.Generate = append(c.Generate, opts...)
		return nil
	}
}

// NewConfig returns a Config with defaults and the given options applied.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Source: DefaultSource,
		Logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Config) generateOptions() []gen.Option {
	return append([]gen.Option{gen.WithLogger(c.Logger)}, c.Generate...)
}
