package gen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemaflow/compiler/load"
	"github.com/syssam/schemaflow/schema"
)

func TestDDL(t *testing.T) {
	s := modelSchema()
	s.Tables[0].Columns[4].Default = &schema.DefaultValue{Kind: schema.DefaultBool, Value: "true"}
	s.Tables[0].Columns[2].Default = &schema.DefaultValue{Kind: schema.DefaultString, Value: "it's me"}
	s.Tables[0].Columns[5].Default = &schema.DefaultValue{Kind: schema.DefaultExpr, Value: "sql`now()`"}
	s.Tables[0].Columns[6].Default = &schema.DefaultValue{Kind: schema.DefaultExpr, Value: "crypto.randomUUID()"}
	s.Tables[0].Columns = append(s.Tables[0].Columns, &schema.Column{Name: "legacy", Type: schema.TypeUnknown})

	out, err := DDL(s)
	require.NoError(t, err)

	t.Run("enums come first", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(out, `CREATE TYPE "user_role" AS ENUM ('admin', 'in-progress', '2fa');`), out)
	})

	t.Run("tables", func(t *testing.T) {
		assert.Contains(t, out, "CREATE TABLE \"users\" (\n")
		assert.Contains(t, out, `  "id" serial NOT NULL,`)
		assert.Contains(t, out, `  "email" text NOT NULL,`)
		assert.Contains(t, out, `  "bio" text NULL DEFAULT 'it''s me',`)
		assert.Contains(t, out, `  "role" "user_role" NOT NULL,`)
		assert.Contains(t, out, `  "active" boolean NOT NULL DEFAULT true,`)
		assert.Contains(t, out, `  "created_at" timestamp NULL DEFAULT now(),`)
		assert.Contains(t, out, `  "token" uuid NOT NULL,`)
		assert.Contains(t, out, `  PRIMARY KEY ("id")`)
		assert.NotContains(t, out, "legacy")
	})

	t.Run("unique columns get an index", func(t *testing.T) {
		assert.Contains(t, out, `CREATE UNIQUE INDEX "users_email_key" ON "users" ("email");`)
	})

	t.Run("foreign keys are deduplicated and resolved", func(t *testing.T) {
		assert.Equal(t, 1, strings.Count(out, "FOREIGN KEY"))
		assert.Contains(t, out, `CONSTRAINT "blog_posts_author_id_fkey" FOREIGN KEY ("author_id") REFERENCES "users" ("id")`)
		assert.NotContains(t, out, "ghosts")
		assert.Less(t, strings.Index(out, `TABLE "users"`), strings.Index(out, `TABLE "blog_posts"`))
	})

	t.Run("indent option", func(t *testing.T) {
		out, err := DDL(s, WithIndent("\t"))
		require.NoError(t, err)
		assert.Contains(t, out, "\t\"id\" serial NOT NULL,")
	})

	t.Run("empty schema", func(t *testing.T) {
		out, err := DDL(&schema.Schema{})
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestDDLFromSource(t *testing.T) {
	s, err := load.Extract(readTestdata(t, "blog.ts"))
	require.NoError(t, err)

	out, err := DDL(s)
	require.NoError(t, err)

	t.Run("enum columns use the declared enum type", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(out, `CREATE TYPE "member_role" AS ENUM ('owner', 'editor', 'viewer');`), out)
		assert.Contains(t, out, `  "role" "member_role" NOT NULL DEFAULT 'viewer',`)
		assert.NotContains(t, out, "memberRole")
	})

	t.Run("columns use their database names", func(t *testing.T) {
		assert.Contains(t, out, `  "author_id" integer NOT NULL,`)
		assert.Contains(t, out, `  "created_at" timestamp NULL DEFAULT now(),`)
		assert.NotContains(t, out, `"authorId"`)
		assert.NotContains(t, out, `"createdAt"`)
	})

	t.Run("constraints use database names", func(t *testing.T) {
		assert.Contains(t, out, `CREATE UNIQUE INDEX "members_handle_key" ON "members" ("handle");`)
		assert.Contains(t, out, `CONSTRAINT "blog_posts_author_id_fkey" FOREIGN KEY ("author_id") REFERENCES "members" ("id")`)
	})
}
