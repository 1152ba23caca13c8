package graph

import "slices"

// NodeKind is the kind of a diagram node.
type NodeKind string

// Node kinds.
const (
	KindTable NodeKind = "table"
	KindEnum  NodeKind = "enum"
)

// Position is a canvas position.
type Position struct {
	X float64 `json:"x" yaml:"x" msgpack:"x"`
	Y float64 `json:"y" yaml:"y" msgpack:"y"`
}

// NodeData is the presentation payload of a node. Table nodes carry
// Columns and HasRelation, enum nodes carry Values.
type NodeData struct {
	Label       string   `json:"label" yaml:"label"`
	Columns     []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	HasRelation bool     `json:"hasRelation,omitempty" yaml:"has_relation,omitempty"`
	Values      []string `json:"values,omitempty" yaml:"values,omitempty"`
}

// Node is a diagram node for a table or an enum.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Kind     NodeKind `json:"type" yaml:"type"`
	Position Position `json:"position" yaml:"position"`
	Data     NodeData `json:"data" yaml:"data"`
}

// IsTable reports whether the node is a table node.
func (n *Node) IsTable() bool { return n.Kind == KindTable }

// IsEnum reports whether the node is an enum node.
func (n *Node) IsEnum() bool { return n.Kind == KindEnum }

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	c.Data.Columns = slices.Clone(n.Data.Columns)
	c.Data.Values = slices.Clone(n.Data.Values)
	return &c
}

// Edge is a diagram edge between two table nodes.
type Edge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Label  string `json:"label" yaml:"label"`
}

// CloneNodes returns deep copies of nodes.
func CloneNodes(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// CloneEdges returns copies of edges.
func CloneEdges(edges []*Edge) []*Edge {
	out := make([]*Edge, len(edges))
	for i, e := range edges {
		c := *e
		out[i] = &c
	}
	return out
}

// FindNode returns the node with the given id, or nil.
func FindNode(nodes []*Node, id string) *Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Positions returns the node positions keyed by node id.
func Positions(nodes []*Node) map[string]Position {
	m := make(map[string]Position, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n.Position
	}
	return m
}

// ApplyPositions sets the position of every node whose id is in pos.
func ApplyPositions(nodes []*Node, pos map[string]Position) {
	for _, n := range nodes {
		if p, ok := pos[n.ID]; ok {
			n.Position = p
		}
	}
}
