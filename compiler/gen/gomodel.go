package gen

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/schemaflow/schema"
)

// GoModel renders a Go file with a struct per table and a string type
// with one constant per value for each enum. Fields are named after the
// property keys and tagged with the database column names. Nullable
// columns that are not primary keys become pointers.
func GoModel(s *schema.Schema, opts ...Option) ([]byte, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	src, err := renderGoModel(s, cfg)
	if err != nil {
		return nil, err
	}
	return format(cfg.Package+".go", src)
}

func renderGoModel(s *schema.Schema, cfg *Config) ([]byte, error) {
	f := jen.NewFile(cfg.Package)
	if cfg.Header != "" {
		f.HeaderComment(cfg.Header)
	}

	enums := make(map[string]string, len(s.Enums))
	for _, e := range s.Enums {
		enums[inflect.Camelize(e.Name)] = TypeName(e.Name)
	}
	for _, t := range s.Tables {
		name := inflect.Singularize(TypeName(t.Name))
		f.Commentf("%s is a row of the %s table.", name, t.Name)
		f.Type().Id(name).StructFunc(func(g *jen.Group) {
			for _, c := range t.Columns {
				g.Id(FieldName(c.Name)).Add(fieldType(c, enums)).Tag(map[string]string{
					"json": c.Name,
					"db":   c.SQLName(),
				})
			}
		})
	}
	for _, e := range s.Enums {
		genEnum(f, e)
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, NewGenerationError("", "", "render go model", err)
	}
	return buf.Bytes(), nil
}

func genEnum(f *jen.File, e *schema.EnumType) {
	typ := TypeName(e.Name)
	f.Commentf("%s values of the %s enum.", typ, e.Name)
	f.Type().Id(typ).String()
	if len(e.Values) == 0 {
		return
	}
	f.Const().DefsFunc(func(g *jen.Group) {
		for _, v := range e.Values {
			g.Id(typ + valueName(v)).Id(typ).Op("=").Lit(v)
		}
	})
	f.Commentf("Values returns all %s values.", typ)
	f.Func().Params(jen.Id(typ)).Id("Values").Params().Index().Id(typ).Block(
		jen.Return(jen.Index().Id(typ).ValuesFunc(func(g *jen.Group) {
			for _, v := range e.Values {
				g.Id(typ + valueName(v))
			}
		})),
	)
}

func fieldType(c *schema.Column, enums map[string]string) *jen.Statement {
	var t *jen.Statement
	switch c.Type {
	case schema.TypeInt:
		t = jen.Int64()
	case schema.TypeString:
		t = jen.String()
	case schema.TypeBoolean:
		t = jen.Bool()
	case schema.TypeDateTime:
		t = jen.Qual("time", "Time")
	default:
		enum := c.Enum
		if enum == "" {
			enum = c.Type
		}
		if name, ok := enums[inflect.Camelize(enum)]; ok {
			t = jen.Id(name)
		} else {
			t = jen.Interface()
		}
	}
	if c.Nullable && !c.PrimaryKey {
		return jen.Op("*").Add(t)
	}
	return t
}

// TypeName returns the exported Go type name for a table or enum name.
func TypeName(name string) string {
	return inflect.Camelize(name)
}

// FieldName returns the exported Go field name for a column, keeping the
// ID initialism: author_id becomes AuthorID.
func FieldName(column string) string {
	name := inflect.Camelize(column)
	if strings.HasSuffix(name, "Id") {
		name = strings.TrimSuffix(name, "Id") + "ID"
	}
	return name
}

var titleCaser = cases.Title(language.English)

// valueName turns an enum value such as "in-progress" into InProgress.
func valueName(v string) string {
	words := strings.FieldsFunc(v, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, w := range words {
		b.WriteString(titleCaser.String(w))
	}
	if b.Len() == 0 || !unicode.IsLetter([]rune(b.String())[0]) {
		return "V" + b.String()
	}
	return b.String()
}
