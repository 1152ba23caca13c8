package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/syssam/schemaflow"
	"github.com/syssam/schemaflow/compiler/gen"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAddr, EnvLogLevel, EnvStoreDir, EnvAllowedOrigins} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAddr, cfg.Addr)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "schemaflow.yaml", `
addr: 127.0.0.1:9000
store_dir: /var/lib/schemaflow
allowed_origins: http://localhost:3000
log:
  level: debug
  development: true
layout:
  seed: 42
generate:
  package: db
  indent: "\t"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "/var/lib/schemaflow", cfg.StoreDir)
	assert.Equal(t, StringList{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, Log{Level: "debug", Development: true}, cfg.Log)
	assert.Len(t, cfg.LayoutOptions(), 1)

	gc, err := gen.NewConfig(cfg.GenerateOptions()...)
	require.NoError(t, err)
	assert.Equal(t, "db", gc.Package)
	assert.Equal(t, "\t", gc.Indent)

	t.Run("origin lists", func(t *testing.T) {
		var c Config
		require.NoError(t, yaml.Unmarshal([]byte("allowed_origins: [https://a.test, https://b.test]"), &c))
		assert.Equal(t, StringList{"https://a.test", "https://b.test"}, c.AllowedOrigins)
		assert.Error(t, yaml.Unmarshal([]byte("allowed_origins: {a: b}"), &c))
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "addr: [\n"))
		assert.Error(t, err)
	})
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAddr, ":7000")
	t.Setenv(EnvAllowedOrigins, "https://a.test, https://b.test,")

	env := writeFile(t, ".env", EnvLogLevel+"=warn\n"+EnvAddr+"=:1\n")
	t.Cleanup(func() { os.Unsetenv(EnvLogLevel) })

	cfg, err := Load(writeFile(t, "c.yaml", "addr: :9000\n"), env, filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr, "the process environment wins over .env")
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, StringList{"https://a.test", "https://b.test"}, cfg.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	t.Run("all failures are reported", func(t *testing.T) {
		cfg := Default()
		cfg.Addr = "nowhere"
		cfg.Log.Level = "loud"
		cfg.AllowedOrigins = StringList{"ftp://x"}
		cfg.Generate.Indent = "x"

		err := cfg.Validate()
		var agg *schemaflow.AggregateError
		require.ErrorAs(t, err, &agg)
		assert.Len(t, agg.Errors, 4)
		assert.True(t, gen.IsConfigError(err))
	})

	t.Run("port out of range", func(t *testing.T) {
		cfg := Default()
		cfg.Addr = ":70000"
		assert.True(t, gen.IsConfigError(cfg.Validate()))
	})

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	l, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1))

	cfg.Log = Log{Level: "debug", Development: true}
	l, err = cfg.NewLogger()
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))

	cfg.Log.Level = "nope"
	_, err = cfg.NewLogger()
	assert.True(t, gen.IsConfigError(err))
}
