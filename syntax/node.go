// Package syntax parses TypeScript schema declarations into a
// position-carrying tree and rewrites source text by byte range.
//
// Parsing is done by the tree-sitter TypeScript grammar. The grammar's
// node types are folded onto a small set of Kinds with a fixed child
// layout; constructs without a Kind of their own become KindOther nodes
// that keep their named children, so calls nested anywhere are still
// reachable.
package syntax

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the kind of a syntax tree node.
type Kind int

// Node kinds.
const (
	KindProgram Kind = iota
	KindIdent
	KindString
	KindTemplate
	KindNumber
	KindCall
	KindMember
	KindIndex
	KindTaggedTemplate
	KindArray
	KindObject
	KindProperty
	KindShorthand
	KindMethod
	KindComputed
	KindSpread
	KindArrow
	KindParams
	KindParen
	KindBlock
	KindUnary
	KindBinary
	KindSeq
	KindImport
	KindOther
)

var kindNames = [...]string{
	KindProgram:        "Program",
	KindIdent:          "Ident",
	KindString:         "String",
	KindTemplate:       "Template",
	KindNumber:         "Number",
	KindCall:           "Call",
	KindMember:         "Member",
	KindIndex:          "Index",
	KindTaggedTemplate: "TaggedTemplate",
	KindArray:          "Array",
	KindObject:         "Object",
	KindProperty:       "Property",
	KindShorthand:      "Shorthand",
	KindMethod:         "Method",
	KindComputed:       "Computed",
	KindSpread:         "Spread",
	KindArrow:          "Arrow",
	KindParams:         "Params",
	KindParen:          "Paren",
	KindBlock:          "Block",
	KindUnary:          "Unary",
	KindBinary:         "Binary",
	KindSeq:            "Seq",
	KindImport:         "Import",
	KindOther:          "Other",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Tree is a parsed source file.
type Tree struct {
	Src  string
	Root *Node
}

// Node is a node of the syntax tree. Start and End are byte offsets into
// the source, End exclusive.
//
// Children layout by kind:
//
//	Call            callee, arguments...
//	Member          object, property name (Ident)
//	Index           object, index expressions...
//	TaggedTemplate  tag, template
//	Property        key, value
//	Shorthand       key
//	Method          key, params, body
//	Arrow           params, body
//	Unary, Spread   operand
//	Binary          left, right (right may be missing)
//	Import          default binding, named imports (Object), source
//
// Variable declarators are Binary "=" nodes of the bound name and the
// initializer.
type Node struct {
	Kind     Kind
	Type     string // tree-sitter node type
	Start    int
	End      int
	Op       string // operator of Unary, Binary and Member nodes
	Parent   *Node
	Children []*Node

	tree *Tree
}

// Text returns the source text covered by the node.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return n.tree.Src[n.Start:n.End]
}

// Is reports whether the node is of one of the given kinds.
func (n *Node) Is(kinds ...Kind) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

func (n *Node) child(i int) *Node {
	if n == nil || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// Callee returns the callee of a call expression.
func (n *Node) Callee() *Node {
	if !n.Is(KindCall) {
		return nil
	}
	return n.child(0)
}

// CalleeName returns the last identifier of a call's callee:
// "pgTable" for pgTable(...) and "varchar" for t.varchar(...).
func (n *Node) CalleeName() string {
	callee := n.Callee()
	switch {
	case callee.Is(KindIdent):
		return callee.Text()
	case callee.Is(KindMember):
		return callee.PropertyName()
	}
	return ""
}

// Arguments returns the arguments of a call expression.
func (n *Node) Arguments() []*Node {
	if !n.Is(KindCall) || len(n.Children) == 0 {
		return nil
	}
	return n.Children[1:]
}

// Object returns the object of a member or index expression.
func (n *Node) Object() *Node {
	if !n.Is(KindMember, KindIndex) {
		return nil
	}
	return n.child(0)
}

// PropertyName returns the accessed name of a member expression.
func (n *Node) PropertyName() string {
	if !n.Is(KindMember) {
		return ""
	}
	return n.child(1).Text()
}

// Properties returns the key/value property assignments of an object
// literal. Shorthand, method and spread members are not included.
func (n *Node) Properties() []*Node {
	if !n.Is(KindObject) {
		return nil
	}
	var props []*Node
	for _, c := range n.Children {
		if c.Kind == KindProperty {
			props = append(props, c)
		}
	}
	return props
}

// Key returns the key of a property, shorthand or method.
func (n *Node) Key() *Node {
	if !n.Is(KindProperty, KindShorthand, KindMethod) {
		return nil
	}
	return n.child(0)
}

// Name returns the static name of a property key. Computed keys have no
// static name and yield "".
func (n *Node) Name() string {
	key := n.Key()
	if key == nil {
		return ""
	}
	switch key.Kind {
	case KindIdent, KindNumber:
		return key.Text()
	case KindString, KindTemplate:
		v, _ := key.LiteralValue()
		return v
	}
	return ""
}

// Value returns the initializer of a property assignment.
func (n *Node) Value() *Node {
	if !n.Is(KindProperty) {
		return nil
	}
	return n.child(1)
}

// Params returns the parameters of an arrow function or method.
func (n *Node) Params() []*Node {
	switch {
	case n.Is(KindArrow):
		return n.child(0).Children
	case n.Is(KindMethod):
		return n.child(1).Children
	}
	return nil
}

// Body returns the body of an arrow function or method.
func (n *Node) Body() *Node {
	switch {
	case n.Is(KindArrow):
		return n.child(1)
	case n.Is(KindMethod):
		return n.child(2)
	}
	return nil
}

// Operand returns the operand of a unary or spread expression.
func (n *Node) Operand() *Node {
	if !n.Is(KindUnary, KindSpread) {
		return nil
	}
	return n.child(0)
}

// Left returns the left side of a binary expression.
func (n *Node) Left() *Node {
	if !n.Is(KindBinary) {
		return nil
	}
	return n.child(0)
}

// Right returns the right side of a binary expression, if any.
func (n *Node) Right() *Node {
	if !n.Is(KindBinary) {
		return nil
	}
	return n.child(1)
}

// Source returns the module specifier of an import declaration.
func (n *Node) Source() *Node {
	if !n.Is(KindImport) || len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}

// Ancestor returns the nearest proper ancestor of one of the given kinds.
func (n *Node) Ancestor(kinds ...Kind) *Node {
	if n == nil {
		return nil
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Is(kinds...) {
			return p
		}
	}
	return nil
}

// Walk traverses the subtree rooted at n in source order. Returning false
// from fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Descendants returns all nodes below n in source order.
func (n *Node) Descendants() []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c != n {
			out = append(out, c)
		}
		return true
	})
	return out
}

// IsStringLike reports whether the node is a string literal or a template
// literal without substitutions.
func (n *Node) IsStringLike() bool {
	_, ok := n.LiteralValue()
	return ok
}

// LiteralValue returns the unquoted value of a string literal or of a
// template literal without substitutions.
func (n *Node) LiteralValue() (string, bool) {
	if !n.Is(KindString, KindTemplate) {
		return "", false
	}
	text := n.Text()
	if len(text) < 2 {
		return "", false
	}
	inner := text[1 : len(text)-1]
	if n.Kind == KindTemplate && strings.Contains(inner, "${") {
		return "", false
	}
	return unescape(inner), true
}

// Calls returns every call expression whose callee name is name, in
// source order.
func (t *Tree) Calls(name string) []*Node {
	var out []*Node
	t.Root.Walk(func(n *Node) bool {
		if n.Kind == KindCall && n.CalleeName() == name {
			out = append(out, n)
		}
		return true
	})
	return out
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case 'u':
			if i+4 < len(s) {
				if r, err := strconv.ParseUint(s[i+1:i+5], 16, 32); err == nil {
					sb.WriteRune(rune(r))
					i += 4
					continue
				}
			}
			sb.WriteByte('u')
		case '\n':
			// line continuation
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// Quote returns value as a string literal delimited by quote, which must
// be one of ' " or `.
func Quote(value string, quote byte) string {
	var sb strings.Builder
	sb.WriteByte(quote)
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == quote, c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c == '\n' && quote != '`':
			sb.WriteString(`\n`)
		case c == '$' && quote == '`' && i+1 < len(value) && value[i+1] == '{':
			sb.WriteString(`\$`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}
