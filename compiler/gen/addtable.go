package gen

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-openapi/inflect"
	"go.uber.org/zap"

	"github.com/syssam/schemaflow/compiler/load"
	"github.com/syssam/schemaflow/syntax"
)

// PgCoreModule is the import path of the Drizzle Postgres column builders.
const PgCoreModule = "drizzle-orm/pg-core"

// TableNames returns the table and variable names AddTable declares for
// a user supplied name: "BlogPost" becomes table "blog_posts" assigned to
// blogPosts.
func TableNames(name string) (table, variable string) {
	table = inflect.Underscore(inflect.Pluralize(strings.TrimSpace(name)))
	return table, inflect.CamelizeDownFirst(table)
}

// AddTable appends a new table declaration with a serial primary key to
// src. It is placed after the last table or enum declaration, or at the
// end of the file when there is none. A drizzle-orm/pg-core import is
// extended with the builders the declaration needs.
func AddTable(src, name string, opts ...Option) (string, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if err := validTableName(name); err != nil {
		return "", err
	}
	tree, err := syntax.Parse(src)
	if err != nil {
		return "", err
	}
	table, variable := TableNames(name)
	for _, call := range tree.Calls(load.TableFunc) {
		if existing, _, ok := load.TableArgs(call); ok && existing == table {
			return "", NewSchemaError(table, "", "table already declared", nil)
		}
	}
	if _, ok := load.TableVariables(tree)[variable]; ok {
		return "", NewSchemaError(table, "", fmt.Sprintf("variable %s already declared", variable), nil)
	}

	decl := fmt.Sprintf("export const %s = %s(%s, {\n%sid: serial(\"id\").primaryKey(),\n});",
		variable, load.TableFunc, syntax.Quote(table, '"'), cfg.Indent)
	ed := syntax.NewEditor(src)
	if pos, ok := afterLastDeclaration(tree); ok {
		ed.Insert(pos, "\n\n"+decl)
	} else {
		trimmed := strings.TrimRight(src, " \t\r\n")
		sep := ""
		if trimmed != "" {
			sep = "\n\n"
		}
		ed.ReplaceRange(len(trimmed), len(src), sep+decl+"\n")
	}
	addImports(tree, ed, load.TableFunc, "serial")

	out, err := ed.Apply()
	if err != nil {
		return "", NewGenerationError(table, "", "apply edits", err)
	}
	cfg.Logger.Debug("table added", zap.String("table", table), zap.String("variable", variable))
	return out, nil
}

func validTableName(name string) error {
	if name == "" {
		return NewValidationError("name", nil, "table name cannot be empty")
	}
	for i, c := range name {
		switch {
		case c == '_' || c == ' ' || c == '-':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return NewValidationError("name", name, fmt.Sprintf("invalid character %q", c))
		}
	}
	return nil
}

// afterLastDeclaration returns the end offset of the last top-level
// statement that declares a table or enum.
func afterLastDeclaration(tree *syntax.Tree) (int, bool) {
	stmts := tree.Root.Children
	last := -1
	for _, fn := range []string{load.TableFunc, load.EnumFunc} {
		for _, call := range tree.Calls(fn) {
			if i := slices.Index(stmts, topLevel(call)); i > last {
				last = i
			}
		}
	}
	if last < 0 {
		return 0, false
	}
	return stmts[last].End, true
}

func topLevel(n *syntax.Node) *syntax.Node {
	for n.Parent != nil && n.Parent.Parent != nil {
		n = n.Parent
	}
	return n
}

// addImports adds names missing from an `import { ... } from
// "drizzle-orm/pg-core"` statement.
func addImports(tree *syntax.Tree, ed *syntax.Editor, names ...string) {
	for _, stmt := range tree.Root.Children {
		if !stmt.Is(syntax.KindImport) {
			continue
		}
		if v, ok := stmt.Source().LiteralValue(); !ok || v != PgCoreModule {
			continue
		}
		var obj *syntax.Node
		for _, c := range stmt.Children {
			if c.Is(syntax.KindObject) {
				obj = c
			}
		}
		if obj == nil {
			continue
		}
		have := make(map[string]bool)
		for _, m := range obj.Children {
			have[m.Name()] = true
		}
		var missing []string
		for _, n := range names {
			if !have[n] {
				missing = append(missing, n)
			}
		}
		if len(missing) == 0 {
			return
		}
		if len(obj.Children) == 0 {
			ed.ReplaceRange(obj.Start, obj.End, "{ "+strings.Join(missing, ", ")+" }")
			return
		}
		ed.Insert(obj.Children[len(obj.Children)-1].End, ", "+strings.Join(missing, ", "))
		return
	}
}
