// Package config loads the application settings of the schemaflow
// command from a YAML file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/syssam/schemaflow"
	"github.com/syssam/schemaflow/compiler/gen"
	"github.com/syssam/schemaflow/graph"
)

// Environment variables that override the file settings.
const (
	EnvAddr           = "SCHEMAFLOW_ADDR"
	EnvLogLevel       = "SCHEMAFLOW_LOG_LEVEL"
	EnvStoreDir       = "SCHEMAFLOW_STORE_DIR"
	EnvAllowedOrigins = "SCHEMAFLOW_ALLOWED_ORIGINS"
)

// Defaults.
const (
	DefaultAddr     = ":8080"
	DefaultLogLevel = "info"
)

// Config is the application configuration.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `yaml:"addr"`
	// StoreDir is the directory of the document store. Empty keeps
	// documents in memory.
	StoreDir string `yaml:"store_dir,omitempty"`
	// AllowedOrigins lists the CORS origins of the browser client.
	AllowedOrigins StringList `yaml:"allowed_origins,omitempty"`

	Log      Log      `yaml:"log"`
	Layout   Layout   `yaml:"layout"`
	Generate Generate `yaml:"generate"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development,omitempty"`
}

// Layout configures the auto-layout.
type Layout struct {
	// Seed seeds the layout jitter. Zero uses the global source.
	Seed int64 `yaml:"seed,omitempty"`
	// NoJitter makes the layout deterministic.
	NoJitter bool `yaml:"no_jitter,omitempty"`
}

// Generate configures the code generator.
type Generate struct {
	Package string `yaml:"package,omitempty"`
	Indent  string `yaml:"indent,omitempty"`
}

// StringList is a YAML value that is either a string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler for StringList.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = splitList(node.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("expected string or list, got %v", node.Kind)
	}
}

// MarshalYAML implements yaml.Marshaler for StringList.
func (s StringList) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	return []string(s), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Addr:           DefaultAddr,
		AllowedOrigins: StringList{"*"},
		Log:            Log{Level: DefaultLogLevel},
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. Variables from the given .env files are loaded first
// without overriding the process environment; missing .env files are
// ignored. An empty path or a missing file keeps the defaults.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFiles(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvAddr); ok {
		c.Addr = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvStoreDir); ok {
		c.StoreDir = v
	}
	if v, ok := os.LookupEnv(EnvAllowedOrigins); ok {
		c.AllowedOrigins = splitList(v)
	}
}

// Validate checks every setting and reports all failures at once.
func (c *Config) Validate() error {
	var errs []error
	if _, port, err := net.SplitHostPort(c.Addr); err != nil {
		errs = append(errs, gen.NewConfigError("addr", c.Addr, "must be host:port"))
	} else if n, err := strconv.Atoi(port); port != "" && (err != nil || n < 0 || n > 65535) {
		errs = append(errs, gen.NewConfigError("addr", c.Addr, "invalid port"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, gen.NewConfigError("log.level", c.Log.Level, "unknown level"))
	}
	for _, o := range c.AllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			errs = append(errs, gen.NewConfigError("allowed_origins", o, "must be * or an http(s) origin"))
		}
	}
	if _, err := gen.NewConfig(c.GenerateOptions()...); err != nil {
		errs = append(errs, err)
	}
	return schemaflow.NewAggregateError(errs...)
}

// GenerateOptions returns the generator options of the configuration.
func (c *Config) GenerateOptions() []gen.Option {
	var opts []gen.Option
	if c.Generate.Package != "" {
		opts = append(opts, gen.WithPackage(c.Generate.Package))
	}
	if c.Generate.Indent != "" {
		opts = append(opts, gen.WithIndent(c.Generate.Indent))
	}
	return opts
}

// LayoutOptions returns the auto-layout options of the configuration.
func (c *Config) LayoutOptions() []graph.LayoutOption {
	var opts []graph.LayoutOption
	if c.Layout.Seed != 0 {
		opts = append(opts, graph.WithSeed(c.Layout.Seed))
	}
	if c.Layout.NoJitter {
		opts = append(opts, graph.WithoutJitter())
	}
	return opts
}

// NewLogger builds a production logger, or a development logger when
// log.development is set.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, gen.NewConfigError("log.level", c.Log.Level, "unknown level")
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func splitList(v string) StringList {
	var out StringList
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
