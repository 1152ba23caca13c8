// Package gen writes diagram state back into Drizzle schema source and
// renders exports of an extracted schema.
//
// # Source regeneration
//
// Regenerate rewrites the column objects of pgTable declarations and the
// value arrays of pgEnum declarations to match a set of diagram nodes.
// Edits are applied by byte range to a single parse of the source, so
// everything outside the rewritten literals is preserved exactly:
//
//	nodes, _ := graph.Project(s, nil)
//	nodes[0].Data.Columns = append(nodes[0].Data.Columns, "bio String")
//	src, err := gen.Regenerate(nodes, src)
//
// A diagram column is written as a name and a definition, for example
// "email String.notNull().unique()". The definition is normalized to
// the constructor followed by .primaryKey(), .notNull(), .unique() and
// .default(x), each at most once. Columns carrying a foreign-key
// reference are never rewritten.
//
// AddTable appends a new table declaration with a serial id column.
//
// # Exports
//
// GoModel renders Go structs and enum constants with jennifer; Mermaid
// renders an erDiagram.
//
// # Error Handling
//
// The package uses structured error types:
//
//   - SchemaError: conflicts with declarations in the source
//   - ConfigError: invalid options
//   - GenerationError: failures to build or apply generated text
//   - ValidationError: invalid input such as an empty table name
//
// Example error handling:
//
//	src, err := gen.AddTable(src, name)
//	if gen.IsSchemaError(err) {
//	    // table already declared
//	}
package gen
