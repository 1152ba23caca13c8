// Package graph provides the diagram representation of a schema and the
// algorithms that place it on a canvas.
//
// # Diagram Structure
//
// Project turns a schema.Schema into diagram nodes and edges:
//
//	nodes, edges := graph.Project(s, previous)
//
// Each table and enum becomes a Node:
//
//	type Node struct {
//	    ID       string    // "table-<i>" or "enum-<i>"
//	    Kind     NodeKind  // table or enum
//	    Position Position  // owned by the diagram
//	    Data     NodeData  // label, column display strings, enum values
//	}
//
// Each resolvable relation becomes an Edge from the referencing table to
// the referenced table, labeled "fromColumn → toColumn".
//
// # Position Preservation
//
// Nodes are re-derived on every extraction pass. Positions are carried
// over from the previous node set by id, so manually placed nodes keep
// their place as long as their index (or, with WithNameKeyedIDs, their
// name) is unchanged. New nodes get a default row position.
//
// # Auto-Layout
//
// Layout assigns positions by relationship depth:
//
//	nodes = graph.Layout(nodes, edges, graph.WithSeed(42))
//
// Edges point from the referencing table to the referenced table. Tables
// that are not the target of any edge form the first row and every edge
// target is placed at least one row below its source. Enums are placed in one row below all tables. Levels are
// relaxed a bounded number of times, so reference cycles are tolerated.
//
// A small random jitter separates nodes that would otherwise line up
// exactly. Use WithSeed or WithRand for reproducible output and
// WithoutJitter for fully deterministic positions.
package graph
