package load_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemaflow"
	"github.com/syssam/schemaflow/compiler/load"
	"github.com/syssam/schemaflow/schema"
	"github.com/syssam/schemaflow/syntax"
)

func TestExtractFile(t *testing.T) {
	s, err := load.ExtractFile(filepath.Join("testdata", "blog.ts"))
	require.NoError(t, err)

	t.Run("enums", func(t *testing.T) {
		require.Len(t, s.Enums, 1)
		assert.Equal(t, "member_role", s.Enums[0].Name)
		assert.Equal(t, []string{"owner", "editor", "viewer"}, s.Enums[0].Values)
	})

	t.Run("tables in source order", func(t *testing.T) {
		require.Len(t, s.Tables, 2)
		assert.Equal(t, "members", s.Tables[0].Name)
		assert.Equal(t, "blog_posts", s.Tables[1].Name)
	})

	t.Run("column flags", func(t *testing.T) {
		members := s.Table("members")
		require.NotNil(t, members)
		require.Len(t, members.Columns, 6)

		assert.Equal(t, &schema.Column{Name: "id", DBName: "id", Type: schema.TypeInt, PrimaryKey: true, Nullable: true}, members.Column("id"))
		assert.Equal(t, &schema.Column{Name: "handle", DBName: "handle", Type: schema.TypeString, Unique: true}, members.Column("handle"))
		assert.Equal(t, &schema.Column{Name: "bio", DBName: "bio", Type: schema.TypeString, Nullable: true}, members.Column("bio"))
		assert.Equal(t, &schema.Column{Name: "token", DBName: "token", Type: "uuid", Nullable: true}, members.Column("token"),
			"unrecognized qualifiers are ignored")
	})

	t.Run("database names come from the constructor", func(t *testing.T) {
		posts := s.Table("blog_posts")
		assert.Equal(t, "author_id", posts.Column("authorId").DBName)
		assert.Equal(t, "created_at", posts.Column("createdAt").SQLName())
		assert.Equal(t, "title", posts.Column("title").SQLName())
	})

	t.Run("enum columns resolve the enum variable", func(t *testing.T) {
		role := s.Table("members").Column("role")
		assert.Equal(t, "memberRole", role.Type)
		assert.Equal(t, "member_role", role.Enum)
		assert.Empty(t, s.Table("members").Column("bio").Enum)
	})

	t.Run("defaults", func(t *testing.T) {
		members, posts := s.Table("members"), s.Table("blog_posts")

		role := members.Column("role")
		assert.Equal(t, "memberRole", role.Type)
		assert.False(t, role.Nullable)
		assert.Equal(t, &schema.DefaultValue{Kind: schema.DefaultString, Value: "viewer"}, role.Default)

		assert.Equal(t, &schema.DefaultValue{Kind: schema.DefaultBool, Value: "true"}, members.Column("active").Default)
		assert.Equal(t, &schema.DefaultValue{Kind: schema.DefaultNumber, Value: "0"}, posts.Column("views").Default)
		assert.Equal(t, &schema.DefaultValue{Kind: schema.DefaultExpr, Value: "sql`now()`"}, posts.Column("createdAt").Default)
	})

	t.Run("last nullability qualifier wins", func(t *testing.T) {
		assert.True(t, s.Table("blog_posts").Column("note").Nullable)
	})

	t.Run("relations resolve table variables", func(t *testing.T) {
		require.Len(t, s.Relations, 1)
		assert.Equal(t, &schema.Relation{
			FromTable:  "blog_posts",
			FromColumn: "authorId",
			ToTable:    "members",
			ToColumn:   "id",
			Kind:       schema.OneToMany,
		}, s.Relations[0])

		author := s.Table("blog_posts").Column("authorId")
		assert.Equal(t, schema.TypeInt, author.Type)
		assert.False(t, author.Nullable)
	})
}

func TestExtractFileMissing(t *testing.T) {
	_, err := load.ExtractFile(filepath.Join(t.TempDir(), "nope.ts"))
	assert.Error(t, err)
	assert.False(t, schemaflow.IsParseError(err))
}

func TestExtractMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want *schema.Schema
	}{
		{
			name: "empty source",
			src:  "",
			want: &schema.Schema{Tables: []*schema.Table{}, Relations: []*schema.Relation{}, Enums: []*schema.EnumType{}},
		},
		{
			name: "table without columns object is skipped",
			src:  `pgTable("a"); pgTable(name, {}); pgTable("b", [])`,
			want: &schema.Schema{Tables: []*schema.Table{}, Relations: []*schema.Relation{}, Enums: []*schema.EnumType{}},
		},
		{
			name: "table without columns is skipped",
			src:  `pgTable("a", {}); pgTable("b", { [k]: text("k") })`,
			want: &schema.Schema{Tables: []*schema.Table{}, Relations: []*schema.Relation{}, Enums: []*schema.EnumType{}},
		},
		{
			name: "enum with non-literal values is skipped",
			src:  `pgEnum("a", ["x", y]); pgEnum("b"); pgEnum("c", "x")`,
			want: &schema.Schema{Tables: []*schema.Table{}, Relations: []*schema.Relation{}, Enums: []*schema.EnumType{}},
		},
		{
			name: "non-call initializer is an unknown column",
			src:  `pgTable("t", { a: 42, b: someColumn })`,
			want: &schema.Schema{
				Tables: []*schema.Table{{Name: "t", Columns: []*schema.Column{
					{Name: "a", Type: schema.TypeUnknown},
					{Name: "b", Type: schema.TypeUnknown},
				}}},
				Relations: []*schema.Relation{},
				Enums:     []*schema.EnumType{},
			},
		},
		{
			name: "unresolvable references are dropped",
			src: `pgTable("t", {
  a: integer("a").references(users.id),
  b: integer("b").references(() => users),
  c: integer("c").references(() => users?.id),
})
references(() => users.id)`,
			want: &schema.Schema{
				Tables: []*schema.Table{{Name: "t", Columns: []*schema.Column{
					{Name: "a", DBName: "a", Type: schema.TypeInt, Nullable: true},
					{Name: "b", DBName: "b", Type: schema.TypeInt, Nullable: true},
					{Name: "c", DBName: "c", Type: schema.TypeInt, Nullable: true},
				}}},
				Relations: []*schema.Relation{},
				Enums:     []*schema.EnumType{},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := load.Extract(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestExtractSelfReference(t *testing.T) {
	s, err := load.Extract(`import type { AnyPgColumn } from "drizzle-orm/pg-core";

export const users = pgTable("users", {
  id: serial("id").primaryKey(),
  parentId: integer("parent_id").references((): AnyPgColumn => users.id),
});`)
	require.NoError(t, err)
	require.Len(t, s.Relations, 1)
	assert.Equal(t, &schema.Relation{
		FromTable:  "users",
		FromColumn: "parentId",
		ToTable:    "users",
		ToColumn:   "id",
		Kind:       schema.OneToMany,
	}, s.Relations[0])
}

func TestEnumVariables(t *testing.T) {
	src := `export const role = pgEnum("member_role", ["a", "b"]);
const status: Status = pgEnum("status", ["on"]);
pgEnum("loose", ["x"]);

export const members = pgTable("members", {
  role: role("role").notNull(),
  status: status("status"),
  other: kind("kind"),
});`
	tree, err := syntax.Parse(src)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"role": "member_role", "status": "status"}, load.EnumVariables(tree))

	members := load.FromTree(tree).Table("members")
	require.NotNil(t, members)
	assert.Equal(t, "member_role", members.Column("role").Enum)
	assert.Equal(t, "status", members.Column("status").Enum)
	assert.Empty(t, members.Column("other").Enum)
}

func TestExtractParseError(t *testing.T) {
	_, err := load.Extract(`pgTable("users", {`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, schemaflow.ErrParse))
	assert.True(t, syntax.IsError(err))
}

func TestQualifiersDoNotLeakAcrossProperties(t *testing.T) {
	s, err := load.Extract(`pgTable("notes", {
  body: text("body").default(".notNull() .primaryKey()"),
  title: text("title"),
})`)
	require.NoError(t, err)
	notes := s.Table("notes")
	require.NotNil(t, notes)

	body := notes.Column("body")
	assert.True(t, body.Nullable)
	assert.False(t, body.PrimaryKey)
	assert.Equal(t, ".notNull() .primaryKey()", body.Default.Value)
	assert.True(t, notes.Column("title").Nullable)
}

func TestDuplicateDeclarationsKeepTheFirst(t *testing.T) {
	s, err := load.Extract(`
pgTable("a", { id: serial("id"), id: text("id") });
pgTable("a", { other: text("other") });
pgEnum("e", ["x"]); pgEnum("e", ["y"]);
`)
	require.NoError(t, err)
	require.Len(t, s.Tables, 1)
	require.Len(t, s.Tables[0].Columns, 1)
	assert.Equal(t, schema.TypeInt, s.Tables[0].Columns[0].Type)
	require.Len(t, s.Enums, 1)
	assert.Equal(t, []string{"x"}, s.Enums[0].Values)
}

func TestChain(t *testing.T) {
	tree, err := syntax.Parse(`x({ a: t.varchar("a", { length: 3 }).notNull().references(() => u.id), b: foo })`)
	require.NoError(t, err)
	props := tree.Calls("x")[0].Arguments()[0].Properties()
	require.Len(t, props, 2)

	root, quals := load.Chain(props[0].Value())
	require.NotNil(t, root)
	assert.Equal(t, "varchar", root.CalleeName())
	require.Len(t, quals, 2)
	assert.Equal(t, "notNull", quals[0].CalleeName())
	assert.Equal(t, "references", quals[1].CalleeName())
	assert.True(t, load.IsReference(props[0].Value()))

	root, quals = load.Chain(props[1].Value())
	assert.Nil(t, root)
	assert.Nil(t, quals)
	assert.False(t, load.IsReference(props[1].Value()))
}
