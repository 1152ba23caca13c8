// Package schema is the structured model extracted from schema source text.
//
// A Schema holds the declared tables, the enums and the relations inferred
// from foreign-key references:
//
//	type Schema struct {
//	    Tables    []*Table     // pgTable declarations, in source order
//	    Relations []*Relation  // .references(() => table.column) targets
//	    Enums     []*EnumType  // pgEnum declarations
//	}
//
// # Column Types
//
// The column constructor at the root of a qualifier chain is mapped to a
// canonical type name when known:
//
//	serial, integer    -> Int
//	text, varchar      -> String
//	boolean            -> Boolean
//	timestamp          -> DateTime
//
// Other constructors (uuid, json, enum helpers, ...) pass through verbatim.
//
// # Display Strings
//
// The diagram shows each column as a single display string, for example:
//
//	id Int.primaryKey()
//	email String.notNull().unique()
//	role userRole.default("guest")
//
// Column.Display renders it and SplitDisplay splits it back into name and
// definition. The model is rebuilt on every extraction pass and carries no
// identity of its own.
package schema
