package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemaflow"
	"github.com/syssam/schemaflow/graph"
)

func testStores(t *testing.T) map[string]schemaflow.Store {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "docs"))
	require.NoError(t, err)
	return map[string]schemaflow.Store{
		"file":   fs,
		"memory": NewMemoryStore(),
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			doc := &schemaflow.Document{
				ID:        "b",
				Source:    `export const users = pgTable("users", {});`,
				Positions: map[string]graph.Position{"table-0": {X: 1.5, Y: -2}},
				UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			}
			require.NoError(t, s.Put(ctx, doc))
			require.NoError(t, s.Put(ctx, &schemaflow.Document{ID: "a"}))

			got, err := s.Get(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, doc.Source, got.Source)
			assert.Equal(t, doc.Positions, got.Positions)
			assert.True(t, doc.UpdatedAt.Equal(got.UpdatedAt))

			ids, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, ids)

			_, err = s.Get(ctx, "missing")
			assert.True(t, schemaflow.IsNotFound(err))

			require.NoError(t, s.Delete(ctx, "b"))
			require.NoError(t, s.Delete(ctx, "b"))
			_, err = s.Get(ctx, "b")
			assert.ErrorIs(t, err, schemaflow.ErrNotFound)
		})
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	s := NewMemoryStore()
	doc := &schemaflow.Document{ID: "x", Positions: map[string]graph.Position{"n": {X: 1}}}
	require.NoError(t, s.Put(context.Background(), doc))
	doc.Positions["n"] = graph.Position{X: 99}

	got, err := s.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, graph.Position{X: 1}, got.Positions["n"])

	assert.Error(t, s.Put(context.Background(), &schemaflow.Document{}))
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("ids must be a single path element", func(t *testing.T) {
		for _, id := range []string{"", "..", "a/b", `a\b`} {
			assert.Error(t, s.Put(ctx, &schemaflow.Document{ID: id}), id)
		}
	})

	t.Run("foreign files are not listed", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
		require.NoError(t, s.Put(ctx, &schemaflow.Document{ID: "doc"}))
		ids, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"doc"}, ids)
		assert.FileExists(t, filepath.Join(dir, "doc"+Ext))
	})

	t.Run("corrupt files fail to decode", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad"+Ext), []byte{0xc1}, 0o644))
		_, err := s.Get(ctx, "bad")
		require.Error(t, err)
		assert.False(t, schemaflow.IsNotFound(err))
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Get(cctx, "doc")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("empty directory is rejected", func(t *testing.T) {
		_, err := NewFileStore("")
		assert.Error(t, err)
	})
}
