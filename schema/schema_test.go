package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/syssam/schemaflow/schema"
)

func TestTypeOf(t *testing.T) {
	tests := map[string]string{
		"serial":    schema.TypeInt,
		"integer":   schema.TypeInt,
		"text":      schema.TypeString,
		"varchar":   schema.TypeString,
		"boolean":   schema.TypeBoolean,
		"timestamp": schema.TypeDateTime,
		"uuid":      "uuid",
		"userRole":  "userRole",
	}
	for ctor, want := range tests {
		assert.Equal(t, want, schema.TypeOf(ctor), ctor)
	}

	ctor, ok := schema.Constructor(schema.TypeString)
	assert.True(t, ok)
	assert.Equal(t, "text", ctor)
	_, ok = schema.Constructor("uuid")
	assert.False(t, ok)
	assert.True(t, schema.IsCanonical(schema.TypeDateTime))
	assert.False(t, schema.IsCanonical("serial"))
}

func TestColumnDisplay(t *testing.T) {
	tests := []struct {
		name string
		col  schema.Column
		want string
	}{
		{
			name: "nullable column has no suffix",
			col:  schema.Column{Name: "bio", Type: schema.TypeString, Nullable: true},
			want: "bio String",
		},
		{
			name: "suffixes in fixed order",
			col: schema.Column{
				Name: "email", Type: schema.TypeString, PrimaryKey: true, Unique: true,
				Default: &schema.DefaultValue{Kind: schema.DefaultString, Value: "a@b.c"},
			},
			want: `email String.primaryKey().notNull().unique().default("a@b.c")`,
		},
		{
			name: "expression default is kept verbatim",
			col: schema.Column{
				Name: "created_at", Type: schema.TypeDateTime, Nullable: true,
				Default: &schema.DefaultValue{Kind: schema.DefaultExpr, Value: "sql`now()`"},
			},
			want: "created_at DateTime.default(sql`now()`)",
		},
		{
			name: "unknown column",
			col:  schema.Column{Name: "x", Type: schema.TypeUnknown},
			want: "x unknown.notNull()",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.col.Display())
		})
	}
}

func TestSplitDisplay(t *testing.T) {
	tests := []struct {
		display   string
		name, def string
		ok        bool
	}{
		{"id Int.primaryKey()", "id", "Int.primaryKey()", true},
		{"  author_id \t Int.notNull()  ", "author_id", "Int.notNull()", true},
		{`bio text("bio").default("a b")`, "bio", `text("bio").default("a b")`, true},
		{"id", "", "", false},
		{"id   ", "", "", false},
		{"1id Int", "", "", false},
		{"", "", "", false},
		{"na-me Int", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.display, func(t *testing.T) {
			name, def, ok := schema.SplitDisplay(tt.display)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.def, def)
		})
	}
}

func TestParseDefault(t *testing.T) {
	tests := []struct {
		text string
		kind schema.DefaultKind
		val  string
	}{
		{`"guest"`, schema.DefaultString, "guest"},
		{`'guest'`, schema.DefaultString, "guest"},
		{`"a\"b"`, schema.DefaultString, `a"b`},
		{"42", schema.DefaultNumber, "42"},
		{"-1.5", schema.DefaultNumber, "-1.5"},
		{"true", schema.DefaultBool, "true"},
		{"null", schema.DefaultNull, "null"},
		{"sql`now()`", schema.DefaultExpr, "sql`now()`"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			d := schema.ParseDefault(tt.text)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.val, d.Value)
		})
	}
}

func TestSchemaLookups(t *testing.T) {
	s := &schema.Schema{
		Tables: []*schema.Table{
			{Name: "users", Columns: []*schema.Column{{Name: "id", Type: schema.TypeInt}}},
			{Name: "posts", Columns: []*schema.Column{{Name: "author_id", Type: schema.TypeInt}}},
			{Name: "tags"},
		},
		Relations: []*schema.Relation{
			{FromTable: "posts", FromColumn: "author_id", ToTable: "users", ToColumn: "id"},
		},
		Enums: []*schema.EnumType{{Name: "user_role", Values: []string{"admin", "user"}}},
	}

	require.NotNil(t, s.Table("users"))
	assert.Nil(t, s.Table("nope"))
	assert.NotNil(t, s.Table("users").Column("id"))
	assert.Nil(t, s.Table("users").Column("nope"))
	assert.NotNil(t, s.Enum("user_role"))
	assert.True(t, s.HasRelation("users"))
	assert.True(t, s.HasRelation("posts"))
	assert.False(t, s.HasRelation("tags"))
	assert.True(t, s.IsForeignKey("posts", "author_id"))
	assert.False(t, s.IsForeignKey("users", "id"))
}

func TestColumnSQLName(t *testing.T) {
	t.Run("database name wins over the key", func(t *testing.T) {
		c := &schema.Column{Name: "authorId", DBName: "author_id"}
		assert.Equal(t, "author_id", c.SQLName())
	})

	t.Run("key is the fallback", func(t *testing.T) {
		c := &schema.Column{Name: "title"}
		assert.Equal(t, "title", c.SQLName())
	})
}

func TestKindsEncodeAsText(t *testing.T) {
	rel := schema.Relation{FromTable: "a", FromColumn: "b", ToTable: "c", ToColumn: "d", Kind: schema.OneToOne}
	data, err := json.Marshal(rel)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"one-to-one"`)

	var back schema.Relation
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rel, back)

	out, err := yaml.Marshal(schema.DefaultValue{Kind: schema.DefaultNumber, Value: "1"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "kind: number")

	var k schema.DefaultKind
	assert.Error(t, k.UnmarshalText([]byte("bogus")))
}
