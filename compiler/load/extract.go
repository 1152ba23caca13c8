// Package load extracts a schema.Schema from Drizzle table and enum
// declarations by walking the source syntax tree.
//
// Declarations that do not have the expected shape are skipped; only a
// source with a syntax error is an error.
package load

import (
	"fmt"
	"os"

	"github.com/syssam/schemaflow/schema"
	"github.com/syssam/schemaflow/syntax"
)

// Declaration constructors recognized by the extractor.
const (
	TableFunc     = "pgTable"
	EnumFunc      = "pgEnum"
	ReferenceFunc = "references"
)

// Extract parses src and returns the schema it declares.
func Extract(src string) (*schema.Schema, error) {
	tree, err := syntax.Parse(src)
	if err != nil {
		return nil, err
	}
	return FromTree(tree), nil
}

// ExtractFile reads and extracts the schema file at path.
func ExtractFile(path string) (*schema.Schema, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read schema file: %w", err)
	}
	return Extract(string(src))
}

// FromTree extracts the schema declared in a parsed tree.
func FromTree(tree *syntax.Tree) *schema.Schema {
	s := &schema.Schema{
		Tables:    []*schema.Table{},
		Relations: []*schema.Relation{},
		Enums:     []*schema.EnumType{},
	}
	for _, call := range tree.Calls(EnumFunc) {
		if e := enumFrom(call); e != nil && s.Enum(e.Name) == nil {
			s.Enums = append(s.Enums, e)
		}
	}
	for _, call := range tree.Calls(TableFunc) {
		if t := tableFrom(call); t != nil && s.Table(t.Name) == nil {
			s.Tables = append(s.Tables, t)
		}
	}
	enums := EnumVariables(tree)
	for _, t := range s.Tables {
		for _, c := range t.Columns {
			if name, ok := enums[c.Type]; ok && s.Enum(name) != nil {
				c.Enum = name
			}
		}
	}
	vars := TableVariables(tree)
	for _, call := range tree.Calls(ReferenceFunc) {
		if r := relationFrom(call, vars); r != nil {
			s.Relations = append(s.Relations, r)
		}
	}
	return s
}

// TableArgs returns the table name and the columns object literal of a
// pgTable call.
func TableArgs(call *syntax.Node) (name string, columns *syntax.Node, ok bool) {
	args := call.Arguments()
	if call.CalleeName() != TableFunc || len(args) < 2 || !args[1].Is(syntax.KindObject) {
		return "", nil, false
	}
	name, ok = args[0].LiteralValue()
	if !ok || name == "" {
		return "", nil, false
	}
	return name, args[1], true
}

// EnumArgs returns the enum name and the values array literal of a pgEnum
// call.
func EnumArgs(call *syntax.Node) (name string, values *syntax.Node, ok bool) {
	args := call.Arguments()
	if call.CalleeName() != EnumFunc || len(args) < 2 || !args[1].Is(syntax.KindArray) {
		return "", nil, false
	}
	name, ok = args[0].LiteralValue()
	if !ok || name == "" {
		return "", nil, false
	}
	return name, args[1], true
}

// TableVariables maps the variable each table is assigned to onto the
// table name, so that references written as users.id resolve to the
// declared table even when the variable and table names differ.
func TableVariables(tree *syntax.Tree) map[string]string {
	return variables(tree, TableFunc, func(call *syntax.Node) (string, bool) {
		name, _, ok := TableArgs(call)
		return name, ok
	})
}

// EnumVariables maps the variable each enum is assigned to onto the enum
// name. A column built as memberRole("role") is of the enum assigned to
// memberRole.
func EnumVariables(tree *syntax.Tree) map[string]string {
	return variables(tree, EnumFunc, func(call *syntax.Node) (string, bool) {
		name, _, ok := EnumArgs(call)
		return name, ok
	})
}

func variables(tree *syntax.Tree, fn string, nameOf func(*syntax.Node) (string, bool)) map[string]string {
	vars := make(map[string]string)
	for _, call := range tree.Calls(fn) {
		name, ok := nameOf(call)
		assign := call.Parent
		if !ok || !assign.Is(syntax.KindBinary) || assign.Op != "=" || assign.Right() != call {
			continue
		}
		if target := assign.Left(); target.Is(syntax.KindIdent) {
			vars[target.Text()] = name
		}
	}
	return vars
}

func enumFrom(call *syntax.Node) *schema.EnumType {
	name, arr, ok := EnumArgs(call)
	if !ok {
		return nil
	}
	e := &schema.EnumType{Name: name, Values: []string{}}
	for _, el := range arr.Children {
		v, ok := el.LiteralValue()
		if !ok {
			return nil
		}
		e.Values = append(e.Values, v)
	}
	return e
}

func tableFrom(call *syntax.Node) *schema.Table {
	name, obj, ok := TableArgs(call)
	if !ok {
		return nil
	}
	t := &schema.Table{Name: name}
	for _, prop := range obj.Properties() {
		c := ColumnFromProperty(prop)
		if c == nil || t.Column(c.Name) != nil {
			continue
		}
		t.Columns = append(t.Columns, c)
	}
	if len(t.Columns) == 0 {
		return nil
	}
	return t
}

func relationFrom(call *syntax.Node, vars map[string]string) *schema.Relation {
	args := call.Arguments()
	if !call.Callee().Is(syntax.KindMember) || len(args) == 0 {
		return nil
	}
	target, ok := ReferenceTarget(args[0])
	if !ok {
		return nil
	}
	prop := call.Ancestor(syntax.KindProperty)
	table := enclosingTable(call)
	if prop == nil || table == "" {
		return nil
	}
	r := &schema.Relation{
		FromTable:  table,
		FromColumn: prop.Name(),
		ToTable:    target.Object().Text(),
		ToColumn:   target.PropertyName(),
		Kind:       schema.OneToMany,
	}
	if name, ok := vars[r.ToTable]; ok {
		r.ToTable = name
	}
	if r.FromTable == "" || r.FromColumn == "" || r.ToTable == "" || r.ToColumn == "" {
		return nil
	}
	return r
}

// ReferenceTarget returns the table.column member expression of a
// reference callback of the form () => table.column. A return type
// annotation, as in (): AnyPgColumn => table.column, is allowed.
func ReferenceTarget(fn *syntax.Node) (*syntax.Node, bool) {
	if !fn.Is(syntax.KindArrow) {
		return nil, false
	}
	body := fn.Body()
	if !body.Is(syntax.KindMember) || body.Op != "." || !body.Object().Is(syntax.KindIdent) {
		return nil, false
	}
	return body, true
}

func enclosingTable(n *syntax.Node) string {
	for call := n.Ancestor(syntax.KindCall); call != nil; call = call.Ancestor(syntax.KindCall) {
		if call.CalleeName() != TableFunc {
			continue
		}
		name, _, ok := TableArgs(call)
		if !ok {
			return ""
		}
		return name
	}
	return ""
}
