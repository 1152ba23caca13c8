package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

var language = typescript.GetLanguage()

// Parse parses src as TypeScript. It returns a *Error when src has a
// syntax error.
func Parse(src string) (*Tree, error) {
	return ParseContext(context.Background(), src)
}

// ParseContext is like Parse but gives up when ctx is done.
func ParseContext(ctx context.Context, src string) (*Tree, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(language)

	st, err := p.ParseCtx(ctx, nil, []byte(src))
	if err != nil {
		return nil, fmt.Errorf("schemaflow: parse: %w", err)
	}
	defer st.Close()

	root := st.RootNode()
	if root.HasError() {
		return nil, firstError(src, root)
	}
	t := &Tree{Src: src}
	c := &converter{tree: t}
	t.Root = c.make(KindProgram, root.Type(), 0, len(src), c.children(root)...)
	return t, nil
}

// firstError locates the leftmost error or missing node below n.
func firstError(src string, n *sitter.Node) *Error {
	switch {
	case n.IsMissing():
		return newError(src, int(n.StartByte()), "missing %q", n.Type())
	case n.IsError():
		return newError(src, int(n.StartByte()), "syntax error near %q", snippet(src, n))
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && (c.IsMissing() || c.HasError()) {
			return firstError(src, c)
		}
	}
	return newError(src, int(n.StartByte()), "syntax error")
}

// snippet returns the first line of the text of n, cut to a short prefix.
func snippet(src string, n *sitter.Node) string {
	const limit = 24
	s := src[n.StartByte():n.EndByte()]
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			s = s[:i]
			break
		}
	}
	if len(s) > limit {
		s = s[:limit]
	}
	return s
}

// converter copies a tree-sitter tree into Nodes. Anonymous tokens and
// comments are dropped; the grammar's node types are folded onto Kinds.
type converter struct {
	tree *Tree
}

func (c *converter) make(kind Kind, typ string, start, end int, children ...*Node) *Node {
	n := &Node{Kind: kind, Type: typ, Start: start, End: end, tree: c.tree}
	for _, ch := range children {
		if ch != nil {
			ch.Parent = n
			n.Children = append(n.Children, ch)
		}
	}
	return n
}

func (c *converter) node(kind Kind, n *sitter.Node, children ...*Node) *Node {
	return c.make(kind, n.Type(), int(n.StartByte()), int(n.EndByte()), children...)
}

func (c *converter) op(kind Kind, n *sitter.Node, op string, children ...*Node) *Node {
	out := c.node(kind, n, children...)
	out.Op = op
	return out
}

func (c *converter) children(n *sitter.Node) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if ch := c.convert(n.NamedChild(i)); ch != nil {
			out = append(out, ch)
		}
	}
	return out
}

func (c *converter) field(n *sitter.Node, name string) *Node {
	f := n.ChildByFieldName(name)
	if f == nil {
		return nil
	}
	return c.convert(f)
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return c.tree.Src[n.StartByte():n.EndByte()]
}

func (c *converter) convert(n *sitter.Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "comment":
		return nil
	case "identifier", "property_identifier", "private_property_identifier",
		"shorthand_property_identifier_pattern", "type_identifier", "statement_identifier",
		"this", "super", "true", "false", "null", "undefined":
		return c.node(KindIdent, n)
	case "string":
		return c.node(KindString, n)
	case "number":
		return c.node(KindNumber, n)
	case "template_string":
		var subs []*Node
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if ch := n.NamedChild(i); ch.Type() == "template_substitution" {
				subs = append(subs, c.children(ch)...)
			}
		}
		return c.node(KindTemplate, n, subs...)
	case "expression_statement":
		if kids := c.children(n); len(kids) == 1 {
			return kids[0]
		}
	case "call_expression":
		return c.call(n)
	case "new_expression":
		operand := c.field(n, "constructor")
		if args := n.ChildByFieldName("arguments"); args != nil && operand != nil {
			operand = c.make(KindCall, n.Type(), operand.Start, int(args.EndByte()), append([]*Node{operand}, c.children(args)...)...)
		}
		return c.op(KindUnary, n, "new", operand)
	case "member_expression":
		obj, prop := c.field(n, "object"), c.field(n, "property")
		if obj == nil || prop == nil {
			break
		}
		op := "."
		if n.ChildByFieldName("optional_chain") != nil {
			op = "?."
		}
		return c.op(KindMember, n, op, obj, prop)
	case "subscript_expression":
		return c.node(KindIndex, n, c.field(n, "object"), c.field(n, "index"))
	case "array":
		return c.node(KindArray, n, c.children(n)...)
	case "object":
		return c.node(KindObject, n, c.children(n)...)
	case "pair":
		return c.node(KindProperty, n, c.field(n, "key"), c.field(n, "value"))
	case "shorthand_property_identifier":
		return c.node(KindShorthand, n, c.node(KindIdent, n))
	case "computed_property_name":
		return c.node(KindComputed, n, c.children(n)...)
	case "spread_element":
		return c.op(KindSpread, n, "...", c.children(n)...)
	case "method_definition":
		return c.node(KindMethod, n, c.field(n, "name"), c.params(n), c.field(n, "body"))
	case "arrow_function":
		// A return type annotation is not part of the layout.
		return c.node(KindArrow, n, c.params(n), c.field(n, "body"))
	case "parenthesized_expression":
		return c.node(KindParen, n, c.children(n)...)
	case "statement_block":
		return c.node(KindBlock, n, c.children(n)...)
	case "unary_expression", "update_expression":
		return c.op(KindUnary, n, c.text(n.ChildByFieldName("operator")), c.field(n, "argument"))
	case "await_expression":
		return c.op(KindUnary, n, "await", c.children(n)...)
	case "non_null_expression":
		return c.op(KindUnary, n, "!", c.children(n)...)
	case "binary_expression", "augmented_assignment_expression":
		return c.op(KindBinary, n, c.text(n.ChildByFieldName("operator")), c.field(n, "left"), c.field(n, "right"))
	case "assignment_expression":
		return c.op(KindBinary, n, "=", c.field(n, "left"), c.field(n, "right"))
	case "variable_declarator":
		return c.op(KindBinary, n, "=", c.field(n, "name"), c.field(n, "value"))
	case "as_expression":
		return c.op(KindBinary, n, "as", c.children(n)...)
	case "satisfies_expression":
		return c.op(KindBinary, n, "satisfies", c.children(n)...)
	case "sequence_expression":
		return c.node(KindSeq, n, c.children(n)...)
	case "import_statement":
		var kids []*Node
		for i := 0; i < int(n.NamedChildCount()); i++ {
			ch := n.NamedChild(i)
			if ch.Type() == "import_clause" {
				kids = append(kids, c.children(ch)...)
				continue
			}
			kids = append(kids, c.convert(ch))
		}
		return c.node(KindImport, n, kids...)
	case "named_imports":
		return c.node(KindObject, n, c.children(n)...)
	case "import_specifier":
		return c.node(KindShorthand, n, c.field(n, "name"))
	}
	return c.node(KindOther, n, c.children(n)...)
}

// call converts a call expression. A template in argument position makes
// it a tagged template.
func (c *converter) call(n *sitter.Node) *Node {
	callee := c.field(n, "function")
	args := n.ChildByFieldName("arguments")
	switch {
	case callee == nil:
		return c.node(KindOther, n, c.children(n)...)
	case args != nil && args.Type() == "template_string":
		return c.node(KindTaggedTemplate, n, callee, c.convert(args))
	}
	return c.node(KindCall, n, append([]*Node{callee}, c.children(args)...)...)
}

// params returns the parameter list of an arrow function or method.
// Parameters are reduced to their binding pattern.
func (c *converter) params(n *sitter.Node) *Node {
	if p := n.ChildByFieldName("parameter"); p != nil {
		return c.node(KindParams, p, c.convert(p))
	}
	list := n.ChildByFieldName("parameters")
	if list == nil {
		start := int(n.StartByte())
		return c.make(KindParams, "formal_parameters", start, start)
	}
	var params []*Node
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		if pattern := p.ChildByFieldName("pattern"); pattern != nil {
			p = pattern
		}
		params = append(params, c.convert(p))
	}
	return c.node(KindParams, list, params...)
}
