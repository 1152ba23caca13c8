package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/syssam/schemaflow"
	"github.com/syssam/schemaflow/compiler/gen"
	"github.com/syssam/schemaflow/editor"
	"github.com/syssam/schemaflow/graph"
	"github.com/syssam/schemaflow/internal/config"
	"github.com/syssam/schemaflow/internal/store"
)

func schemaFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.ts")
	require.NoError(t, os.WriteFile(path, []byte(editor.DefaultSource), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"schemaflow"}, args...))
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	path := schemaFile(t)

	t.Run("json schema", func(t *testing.T) {
		out, err := run(t, "parse", path)
		require.NoError(t, err)
		var s struct {
			Tables    []map[string]any `json:"tables"`
			Relations []map[string]any `json:"relations"`
			Enums     []map[string]any `json:"enums"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &s))
		assert.Len(t, s.Tables, 3)
		assert.Len(t, s.Relations, 3)
		assert.Equal(t, "user_role", s.Enums[0]["name"])
	})

	t.Run("yaml diagram", func(t *testing.T) {
		out, err := run(t, "parse", "--format", "yaml", "--diagram", path)
		require.NoError(t, err)
		var d diagram
		require.NoError(t, yaml.Unmarshal([]byte(out), &d))
		require.Len(t, d.Nodes, 4)
		assert.Equal(t, "users", d.Nodes[0].Data.Label)
		assert.Equal(t, "posts-users", d.Edges[0].ID)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := run(t, "parse", "--format", "xml", path)
		assert.Error(t, err)
	})

	t.Run("missing file argument", func(t *testing.T) {
		_, err := run(t, "parse")
		assert.Error(t, err)
	})

	t.Run("unparsable file", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.ts")
		require.NoError(t, os.WriteFile(bad, []byte("pgTable(\"a\", {"), 0o644))
		_, err := run(t, "parse", bad)
		assert.True(t, schemaflow.IsParseError(err))
	})
}

func TestLayoutCommand(t *testing.T) {
	out, err := run(t, "layout", "--no-jitter", schemaFile(t))
	require.NoError(t, err)
	var d diagram
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	require.Len(t, d.Nodes, 4)
	assert.Equal(t, graph.Position{X: graph.StartX, Y: graph.StartY}, d.Nodes[2].Position)

	seeded := func() string {
		out, err := run(t, "layout", "--seed", "3", schemaFile(t))
		require.NoError(t, err)
		return out
	}
	assert.Equal(t, seeded(), seeded())
}

func TestRegenerateCommand(t *testing.T) {
	path := schemaFile(t)
	out, err := run(t, "parse", "--diagram", path)
	require.NoError(t, err)
	var d diagram
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	d.Nodes[0].Data.Columns = append(d.Nodes[0].Data.Columns, "bio String")

	dpath := filepath.Join(t.TempDir(), "diagram.json")
	b, err := json.Marshal(d)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dpath, b, 0o644))

	out, err = run(t, "regenerate", "--diagram", dpath, path)
	require.NoError(t, err)
	assert.Contains(t, out, `bio: text("bio"),`)

	t.Run("bare node arrays are accepted", func(t *testing.T) {
		b, err := json.Marshal(d.Nodes)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(dpath, b, 0o644))
		_, err = run(t, "regenerate", "--write", "--diagram", dpath, path)
		require.NoError(t, err)
		src, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(src), `bio: text("bio"),`)
	})

	t.Run("diagram flag is required", func(t *testing.T) {
		_, err := run(t, "regenerate", path)
		assert.Error(t, err)
	})
}

func TestAddTableCommand(t *testing.T) {
	path := schemaFile(t)
	out, err := run(t, "add-table", path, "Tag")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "export const tags = pgTable(\"tags\", {\n  id: serial(\"id\").primaryKey(),\n});\n"))

	src, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, editor.DefaultSource, string(src), "the file is unchanged without --write")

	_, err = run(t, "add-table", "--write", path, "Tag")
	require.NoError(t, err)
	_, err = run(t, "add-table", path, "tags")
	assert.True(t, gen.IsSchemaError(err))
	_, err = run(t, "add-table", path)
	assert.True(t, gen.IsValidationError(err))
}

func TestExportCommand(t *testing.T) {
	path := schemaFile(t)

	out, err := run(t, "export", "--package", "db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "package db")
	assert.Contains(t, out, "type Post struct")

	out, err = run(t, "export", "-f", "mermaid", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "erDiagram\n"))

	out, err = run(t, "export", "-f", "sql", path)
	require.NoError(t, err)
	assert.Contains(t, out, `CREATE TABLE "posts"`)

	target := filepath.Join(t.TempDir(), "model", "model.go")
	_, err = run(t, "export", "-o", target, path)
	require.NoError(t, err)
	assert.FileExists(t, target)

	_, err = run(t, "export", "-f", "svg", path)
	assert.Error(t, err)
}

func TestServeStopsWithContext(t *testing.T) {
	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.StoreDir = filepath.Join(t.TempDir(), "store")
	path := schemaFile(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, serve(ctx, cfg, path, zap.NewNop()))

	st, err := store.NewFileStore(cfg.StoreDir)
	require.NoError(t, err)
	doc, err := st.Get(context.Background(), WatchedID(path))
	require.NoError(t, err)
	assert.Equal(t, editor.DefaultSource, doc.Source)
	assert.Len(t, doc.Positions, 4)
}

func TestWatchedID(t *testing.T) {
	assert.Equal(t, WatchedID("a/schema.ts"), WatchedID("./a/schema.ts"))
	assert.NotEqual(t, WatchedID("a/schema.ts"), WatchedID("b/schema.ts"))
}
