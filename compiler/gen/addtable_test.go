package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemaflow/compiler/load"
)

const usersSource = `import { pgTable, text } from "drizzle-orm/pg-core";

export const users = pgTable("users", {
  id: serial("id").primaryKey(),
});

export type User = typeof users.$inferSelect;
`

func TestTableNames(t *testing.T) {
	tests := []struct {
		name, table, variable string
	}{
		{"BlogPost", "blog_posts", "blogPosts"},
		{"comment", "comments", "comments"},
		{"blog post", "blog_posts", "blogPosts"},
		{"  tag  ", "tags", "tags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, variable := TableNames(tt.name)
			assert.Equal(t, tt.table, table)
			assert.Equal(t, tt.variable, variable)
		})
	}
}

func TestAddTable(t *testing.T) {
	out, err := AddTable(usersSource, "BlogPost")
	require.NoError(t, err)

	assert.Equal(t, `import { pgTable, text, serial } from "drizzle-orm/pg-core";

export const users = pgTable("users", {
  id: serial("id").primaryKey(),
});

export const blogPosts = pgTable("blog_posts", {
  id: serial("id").primaryKey(),
});

export type User = typeof users.$inferSelect;
`, out)

	t.Run("new table is extracted", func(t *testing.T) {
		s, err := load.Extract(out)
		require.NoError(t, err)
		require.Len(t, s.Tables, 2)
		assert.Equal(t, "blog_posts", s.Tables[1].Name)
		assert.Equal(t, "id Int.primaryKey()", s.Tables[1].Columns[0].Display())
	})

	t.Run("declared tables are rejected", func(t *testing.T) {
		_, err := AddTable(out, "blog_post")
		assert.True(t, IsSchemaError(err))
		_, err = AddTable(usersSource, "User")
		assert.True(t, IsSchemaError(err))
	})
}

func TestAddTableAfterLastDeclaration(t *testing.T) {
	src := "const role = pgEnum(\"role\", [\"a\"])\nconsole.log(role)\n"
	out, err := AddTable(src, "tag", WithIndent("\t"))
	require.NoError(t, err)
	assert.Equal(t, "const role = pgEnum(\"role\", [\"a\"])\n\nexport const tags = pgTable(\"tags\", {\n\tid: serial(\"id\").primaryKey(),\n});\nconsole.log(role)\n", out)
}

func TestAddTableEmptySource(t *testing.T) {
	out, err := AddTable("", "tag")
	require.NoError(t, err)
	assert.Equal(t, "export const tags = pgTable(\"tags\", {\n  id: serial(\"id\").primaryKey(),\n});\n", out)

	out, err = AddTable("// schema\n\n\n", "tag")
	require.NoError(t, err)
	assert.Equal(t, "// schema\n\nexport const tags = pgTable(\"tags\", {\n  id: serial(\"id\").primaryKey(),\n});\n", out)
}

func TestAddTableVariableConflict(t *testing.T) {
	src := `export const blogPosts = pgTable("posts", { id: serial("id") });`
	_, err := AddTable(src, "BlogPost")
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
	assert.Contains(t, err.Error(), "variable blogPosts")
}

func TestAddTableInvalidNames(t *testing.T) {
	for _, name := range []string{"", "   ", "9lives", "drop;table", "naïve"} {
		t.Run(name, func(t *testing.T) {
			_, err := AddTable(usersSource, name)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}
