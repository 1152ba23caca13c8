package gen

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-openapi/inflect"
	"go.uber.org/zap"

	"github.com/syssam/schemaflow/compiler/load"
	"github.com/syssam/schemaflow/graph"
	"github.com/syssam/schemaflow/schema"
	"github.com/syssam/schemaflow/syntax"
)

// Regenerate rewrites the pgTable column objects and pgEnum value arrays
// of src to match the given diagram nodes and returns the new source.
//
// Tables are matched by label. A node without a declaration in src is
// skipped. Columns are written in node order; existing properties that
// carry a reference survive even when the node no longer lists them, and
// so do spreads, methods and properties without a static name. A column
// whose definition cannot be built keeps its previous text; this includes
// columns of unknown type, whose initializer is not a constructor call.
//
// Objects whose content does not change are left untouched, so
// regenerating an unchanged diagram reproduces src exactly.
func Regenerate(nodes []*graph.Node, src string, opts ...Option) (string, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return "", err
	}
	tree, err := syntax.Parse(src)
	if err != nil {
		return "", err
	}
	r := &regenerator{
		cfg:    cfg,
		src:    src,
		editor: syntax.NewEditor(src),
		tables: make(map[string]*syntax.Node),
		enums:  make(map[string]*syntax.Node),
		done:   make(map[*syntax.Node]bool),
	}
	for _, call := range tree.Calls(load.TableFunc) {
		if name, obj, ok := load.TableArgs(call); ok && r.tables[name] == nil {
			r.tables[name] = obj
		}
	}
	for _, call := range tree.Calls(load.EnumFunc) {
		if name, arr, ok := load.EnumArgs(call); ok && r.enums[name] == nil {
			r.enums[name] = arr
		}
	}
	for _, n := range nodes {
		switch {
		case n.IsTable():
			r.table(n)
		case n.IsEnum():
			r.enum(n)
		}
	}
	out, err := r.editor.Apply()
	if err != nil {
		return "", NewGenerationError("", "", "apply edits", err)
	}
	return out, nil
}

type regenerator struct {
	cfg    *Config
	src    string
	editor *syntax.Editor
	tables map[string]*syntax.Node // table name -> columns object
	enums  map[string]*syntax.Node // enum name -> values array
	done   map[*syntax.Node]bool
}

// entry is one member of a rebuilt list. orig is the member it replaces,
// if any; its comments are carried over.
type entry struct {
	orig *syntax.Node
	text string
}

func (r *regenerator) table(n *graph.Node) {
	log := r.cfg.Logger.With(zap.String("node", n.ID), zap.String("table", n.Data.Label))
	obj := r.tables[n.Data.Label]
	if obj == nil {
		log.Debug("table not declared in source")
		return
	}
	if r.done[obj] {
		return
	}
	r.done[obj] = true

	existing := make(map[string]*syntax.Node)
	for _, prop := range obj.Properties() {
		if name := prop.Name(); name != "" && existing[name] == nil {
			existing[name] = prop
		}
	}
	var (
		entries []entry
		used    = make(map[*syntax.Node]bool)
		seen    = make(map[string]bool)
	)
	for _, display := range n.Data.Columns {
		name, def, ok := schema.SplitDisplay(display)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		prop := existing[name]
		text, err := r.property(name, def, prop)
		if err != nil {
			log.Warn("keep previous column text", zap.Error(NewGenerationError(n.Data.Label, name, "build column", err)))
			if prop == nil {
				continue
			}
			text = prop.Text()
		}
		if prop != nil {
			used[prop] = true
		}
		entries = append(entries, entry{orig: prop, text: text})
	}
	for _, m := range obj.Children {
		if used[m] || (m.Is(syntax.KindProperty) && addressable(m.Name()) && !load.IsReference(m.Value())) {
			continue
		}
		entries = append(entries, entry{orig: m, text: m.Text()})
	}
	if unchanged(obj, entries) {
		return
	}
	r.editor.Replace(obj, r.render(obj, "{", "}", entries))
}

// property returns the text of the column property name, built from the
// diagram definition def. prop is the existing property, or nil.
func (r *regenerator) property(name, def string, prop *syntax.Node) (string, error) {
	var root *syntax.Node
	key := name
	if prop != nil {
		init := prop.Value()
		if load.IsReference(init) || load.ColumnFromProperty(prop).Definition() == def {
			return prop.Text(), nil
		}
		root, _ = load.Chain(init)
		key = prop.Key().Text()
	}
	init, err := r.initializer(name, def, root)
	if err != nil {
		return "", err
	}
	return key + ": " + init, nil
}

// addressable reports whether a diagram column can name the property.
// Other properties are kept as they are.
func addressable(name string) bool {
	got, _, ok := schema.SplitDisplay(name + " _")
	return ok && got == name
}

var qualifiers = []string{
	load.QualPrimaryKey,
	load.QualNotNull,
	load.QualNullable,
	load.QualUnique,
	load.QualDefault,
}

// initializer converts a diagram definition such as
// String.notNull().unique() into a column initializer. root is the
// constructor call of the existing initializer, if any; it is reused when
// it produces the same type so that arguments like a length survive.
func (r *regenerator) initializer(name, def string, root *syntax.Node) (string, error) {
	tree, err := syntax.Parse(def)
	if err != nil {
		return "", err
	}
	if len(tree.Root.Children) != 1 {
		return "", fmt.Errorf("definition %q is not a single expression", def)
	}
	base := tree.Root.Children[0]
	var quals []*syntax.Node
	for base.Is(syntax.KindCall) && base.Callee().Is(syntax.KindMember) &&
		slices.Contains(qualifiers, base.CalleeName()) {
		quals = append(quals, base)
		base = base.Callee().Object()
	}
	slices.Reverse(quals)

	var b strings.Builder
	switch {
	case base.Is(syntax.KindIdent):
		typ := base.Text()
		switch {
		case root != nil && (root.CalleeName() == typ || schema.TypeOf(root.CalleeName()) == typ):
			b.WriteString(root.Text())
		case typ == schema.TypeUnknown:
			return "", fmt.Errorf("column of %s type has no constructor", typ)
		default:
			ctor, ok := schema.Constructor(typ)
			if !ok {
				ctor = typ
			}
			b.WriteString(ctor)
			b.WriteString("(")
			b.WriteString(syntax.Quote(columnName(name, root), '"'))
			b.WriteString(")")
		}
	case base != nil:
		b.WriteString(base.Text())
	default:
		return "", fmt.Errorf("definition %q has no base", def)
	}

	var pk, notNull, unique bool
	var dflt string
	for _, q := range quals {
		switch q.CalleeName() {
		case load.QualPrimaryKey:
			pk = true
		case load.QualNotNull:
			notNull = true
		case load.QualNullable:
			notNull = false
		case load.QualUnique:
			unique = true
		case load.QualDefault:
			dflt = q.Text()[q.Callee().End-q.Start:]
		}
	}
	if pk {
		b.WriteString(".primaryKey()")
	}
	if notNull {
		b.WriteString(".notNull()")
	}
	if unique {
		b.WriteString(".unique()")
	}
	if dflt != "" {
		b.WriteString(".default")
		b.WriteString(dflt)
	}
	return b.String(), nil
}

// columnName returns the database column name: the first string argument
// of the existing constructor, or the snake case property name.
func columnName(name string, root *syntax.Node) string {
	if args := root.Arguments(); len(args) > 0 {
		if v, ok := args[0].LiteralValue(); ok {
			return v
		}
	}
	return inflect.Underscore(name)
}

func (r *regenerator) enum(n *graph.Node) {
	log := r.cfg.Logger.With(zap.String("node", n.ID), zap.String("enum", n.Data.Label))
	arr := r.enums[n.Data.Label]
	if arr == nil {
		log.Debug("enum not declared in source")
		return
	}
	if r.done[arr] {
		return
	}
	r.done[arr] = true

	var current []string
	for _, el := range arr.Children {
		v, ok := el.LiteralValue()
		if !ok {
			log.Debug("enum values are not all literals")
			return
		}
		current = append(current, v)
	}
	if slices.Equal(current, n.Data.Values) {
		return
	}
	quote := byte('"')
	if len(arr.Children) > 0 {
		quote = arr.Children[0].Text()[0]
	}
	byValue := make(map[string]*syntax.Node, len(current))
	for i, v := range current {
		if byValue[v] == nil {
			byValue[v] = arr.Children[i]
		}
	}
	entries := make([]entry, 0, len(n.Data.Values))
	for _, v := range n.Data.Values {
		entries = append(entries, entry{orig: byValue[v], text: syntax.Quote(v, quote)})
	}
	r.editor.Replace(arr, r.render(arr, "[", "]", entries))
}

func unchanged(list *syntax.Node, entries []entry) bool {
	if len(entries) != len(list.Children) {
		return false
	}
	for i, e := range entries {
		if e.orig != list.Children[i] || e.text != e.orig.Text() {
			return false
		}
	}
	return true
}
