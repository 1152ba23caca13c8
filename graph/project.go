package graph

import (
	"fmt"
	"strconv"

	"github.com/syssam/schemaflow/schema"
)

// Default positions of newly derived nodes.
const (
	DefaultRowStep = 250
	TableRowY      = 100
	EnumRowY       = 350
)

type projectConfig struct {
	nameKeyed bool
}

// ProjectOption configures Project.
type ProjectOption func(*projectConfig)

// WithNameKeyedIDs keys node ids by table or enum name ("table-users")
// instead of by declaration index, so positions follow a table when
// declarations are reordered.
func WithNameKeyedIDs() ProjectOption {
	return func(c *projectConfig) {
		c.nameKeyed = true
	}
}

// Project derives diagram nodes and edges from s. Positions are copied
// from prev by node id; nodes without a previous position get a default
// one. Relations whose endpoints are not declared tables produce no edge.
func Project(s *schema.Schema, prev []*Node, opts ...ProjectOption) ([]*Node, []*Edge) {
	cfg := &projectConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	positions := Positions(prev)
	id := func(kind NodeKind, i int, name string) string {
		if cfg.nameKeyed {
			return string(kind) + "-" + name
		}
		return string(kind) + "-" + strconv.Itoa(i)
	}
	place := func(n *Node, i int, y float64) {
		if p, ok := positions[n.ID]; ok {
			n.Position = p
			return
		}
		n.Position = Position{X: float64(StartX + i*DefaultRowStep), Y: y}
	}

	nodes := make([]*Node, 0, len(s.Tables)+len(s.Enums))
	tableIDs := make(map[string]string, len(s.Tables))
	for i, t := range s.Tables {
		n := &Node{
			ID:   id(KindTable, i, t.Name),
			Kind: KindTable,
			Data: NodeData{
				Label:       t.Name,
				Columns:     make([]string, 0, len(t.Columns)),
				HasRelation: s.HasRelation(t.Name),
			},
		}
		for _, c := range t.Columns {
			n.Data.Columns = append(n.Data.Columns, c.Display())
		}
		place(n, i, TableRowY)
		tableIDs[t.Name] = n.ID
		nodes = append(nodes, n)
	}
	for i, e := range s.Enums {
		n := &Node{
			ID:   id(KindEnum, i, e.Name),
			Kind: KindEnum,
			Data: NodeData{
				Label:  e.Name,
				Values: append([]string{}, e.Values...),
			},
		}
		place(n, i, EnumRowY)
		nodes = append(nodes, n)
	}

	edges := make([]*Edge, 0, len(s.Relations))
	for _, r := range s.Relations {
		source, ok1 := tableIDs[r.FromTable]
		target, ok2 := tableIDs[r.ToTable]
		if !ok1 || !ok2 {
			continue
		}
		edges = append(edges, &Edge{
			ID:     r.FromTable + "-" + r.ToTable,
			Source: source,
			Target: target,
			Label:  fmt.Sprintf("%s → %s", r.FromColumn, r.ToColumn),
		})
	}
	return nodes, edges
}
