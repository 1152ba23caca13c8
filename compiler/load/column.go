package load

import (
	"github.com/syssam/schemaflow/schema"
	"github.com/syssam/schemaflow/syntax"
)

// Column qualifiers.
const (
	QualPrimaryKey = "primaryKey"
	QualNotNull    = "notNull"
	QualNullable   = "nullable"
	QualUnique     = "unique"
	QualDefault    = "default"
)

// ColumnFromProperty parses a columns-object property as a column named by
// the property key. It returns nil for properties without a static name.
func ColumnFromProperty(prop *syntax.Node) *schema.Column {
	name := prop.Name()
	if name == "" {
		return nil
	}
	return ColumnFromInit(name, prop.Value())
}

// ColumnFromInit parses a column initializer such as
// varchar("email").notNull().unique().
//
// The type comes from the constructor at the root of the call chain and
// the database name from its first argument, when that is a string. The
// qualifiers are the calls chained onto it, in source order; the last of
// notNull and nullable wins. An initializer that is not a call yields an
// unknown, non-nullable column.
func ColumnFromInit(name string, init *syntax.Node) *schema.Column {
	c := &schema.Column{Name: name, Type: schema.TypeUnknown}
	root, quals := Chain(init)
	if root == nil {
		return c
	}
	c.Type = schema.TypeOf(root.CalleeName())
	if args := root.Arguments(); len(args) > 0 {
		c.DBName, _ = args[0].LiteralValue()
	}
	c.Nullable = true
	for _, q := range quals {
		switch q.CalleeName() {
		case QualPrimaryKey:
			c.PrimaryKey = true
		case QualNotNull:
			c.Nullable = false
		case QualNullable:
			c.Nullable = true
		case QualUnique:
			c.Unique = true
		case QualDefault:
			if args := q.Arguments(); len(args) > 0 {
				c.Default = defaultFrom(args[0])
			}
		}
	}
	return c
}

// Chain splits a column initializer into its root constructor call and
// the qualifier calls chained onto it, in source order. root is nil when
// init is not a call.
func Chain(init *syntax.Node) (root *syntax.Node, quals []*syntax.Node) {
	n := init
	for n.Is(syntax.KindCall) {
		callee := n.Callee()
		if !callee.Is(syntax.KindMember) || !callee.Object().Is(syntax.KindCall) {
			root = n
			break
		}
		quals = append(quals, n)
		n = callee.Object()
	}
	if root == nil {
		return nil, nil
	}
	for i, j := 0, len(quals)-1; i < j; i, j = i+1, j-1 {
		quals[i], quals[j] = quals[j], quals[i]
	}
	return root, quals
}

// IsReference reports whether a column initializer carries a foreign-key
// reference.
func IsReference(init *syntax.Node) bool {
	_, quals := Chain(init)
	for _, q := range quals {
		if q.CalleeName() == ReferenceFunc {
			return true
		}
	}
	return false
}

func defaultFrom(arg *syntax.Node) *schema.DefaultValue {
	switch {
	case arg.IsStringLike():
		v, _ := arg.LiteralValue()
		return &schema.DefaultValue{Kind: schema.DefaultString, Value: v}
	case arg.Is(syntax.KindTemplate):
		return &schema.DefaultValue{Kind: schema.DefaultExpr, Value: arg.Text()}
	}
	return schema.ParseDefault(arg.Text())
}
