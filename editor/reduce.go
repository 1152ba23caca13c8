package editor

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/syssam/schemaflow"
	"github.com/syssam/schemaflow/compiler/gen"
	"github.com/syssam/schemaflow/compiler/load"
	"github.com/syssam/schemaflow/graph"
)

// State is the synchronization state of a document.
type State int

// Synchronization states.
const (
	// Idle: source and diagram agree and no echo is expected.
	Idle State = iota
	// ApplyingFromSource: a source change is being extracted.
	ApplyingFromSource
	// ApplyingFromGraph: the source was rewritten from the diagram and the
	// echo of the pending text has not arrived yet.
	ApplyingFromGraph
)

var stateNames = [...]string{
	Idle:               "idle",
	ApplyingFromSource: "applying-from-source",
	ApplyingFromGraph:  "applying-from-graph",
}

// String returns the name of the state.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Model is the state of one document.
type Model struct {
	Source string
	Nodes  []*graph.Node
	Edges  []*graph.Edge
	State  State
	// Pending is the generated text whose echo is ignored while State is
	// ApplyingFromGraph.
	Pending string
	// Err is the last extraction or generation failure, cleared by the
	// next success.
	Err error
}

// Event is an input to Reduce.
type Event interface {
	event()
}

// SourceChanged reports new source text, typed by a user or received
// from a collaborator or the file system.
type SourceChanged struct {
	Source string
}

// Patch is a partial node update. nil fields are left unchanged.
type Patch struct {
	Columns  []string        `json:"columns,omitempty"`
	Values   []string        `json:"values,omitempty"`
	Position *graph.Position `json:"position,omitempty"`
}

// NodeEdited reports a diagram edit of one node.
type NodeEdited struct {
	NodeID string
	Patch  Patch
}

// NodesMoved reports dragged nodes.
type NodesMoved struct {
	Positions map[string]graph.Position
}

// LayoutRequested asks for an auto-layout. nil Options use the configured
// layout options.
type LayoutRequested struct {
	Options []graph.LayoutOption
}

// TableAdded asks for a new table declaration.
type TableAdded struct {
	Name string
}

func (SourceChanged) event()   {}
func (NodeEdited) event()      {}
func (NodesMoved) event()      {}
func (LayoutRequested) event() {}
func (TableAdded) event()      {}

// Reduce applies ev to m and returns the next model. Slices of m are not
// modified. When an error is returned the model is m, except that source
// and generation failures are recorded in Err.
//
// A SourceChanged event carrying the pending text returns
// schemaflow.ErrSelfCaused and only clears the pending state.
func Reduce(m Model, ev Event, cfg *Config) (Model, error) {
	if cfg == nil {
		cfg, _ = NewConfig()
	}
	switch ev := ev.(type) {
	case SourceChanged:
		return reduceSource(m, ev.Source, cfg)
	case NodeEdited:
		return reduceEdit(m, ev, cfg)
	case NodesMoved:
		m.Nodes = graph.CloneNodes(m.Nodes)
		graph.ApplyPositions(m.Nodes, ev.Positions)
		return m, nil
	case LayoutRequested:
		opts := ev.Options
		if opts == nil {
			opts = cfg.Layout
		}
		m.Nodes = graph.Layout(m.Nodes, m.Edges, opts...)
		return m, nil
	case TableAdded:
		return reduceAddTable(m, ev.Name, cfg)
	}
	return m, fmt.Errorf("schemaflow: unknown event %T", ev)
}

func reduceSource(m Model, src string, cfg *Config) (Model, error) {
	if m.State == ApplyingFromGraph && src == m.Pending {
		m.State, m.Pending = Idle, ""
		return m, schemaflow.ErrSelfCaused
	}
	prev := m
	m.State, m.Pending = ApplyingFromSource, ""
	s, err := load.Extract(src)
	if err != nil {
		cfg.Logger.Warn("source change not applied", zap.Error(err))
		prev.State, prev.Pending, prev.Err = Idle, "", err
		return prev, err
	}
	m.Nodes, m.Edges = graph.Project(s, m.Nodes, cfg.Project...)
	m.Source, m.State, m.Err = src, Idle, nil
	cfg.Logger.Debug("source applied",
		zap.Int("tables", len(s.Tables)),
		zap.Int("enums", len(s.Enums)),
		zap.Int("relations", len(s.Relations)))
	return m, nil
}

func reduceEdit(m Model, ev NodeEdited, cfg *Config) (Model, error) {
	nodes := graph.CloneNodes(m.Nodes)
	n := graph.FindNode(nodes, ev.NodeID)
	if n == nil {
		return m, schemaflow.NewNotFoundErrorWithID("node", ev.NodeID)
	}
	p := ev.Patch
	if p.Position != nil {
		n.Position = *p.Position
	}
	regen := false
	if p.Columns != nil && n.IsTable() {
		n.Data.Columns, regen = slices.Clone(p.Columns), true
	}
	if p.Values != nil && n.IsEnum() {
		n.Data.Values, regen = slices.Clone(p.Values), true
	}
	if !regen {
		m.Nodes = nodes
		return m, nil
	}
	src, err := gen.Regenerate(nodes, m.Source, cfg.generateOptions()...)
	if err != nil {
		cfg.Logger.Warn("diagram edit not applied", zap.String("node", ev.NodeID), zap.Error(err))
		m.Err = err
		return m, err
	}
	m.Nodes, m.Err = nodes, nil
	if src != m.Source {
		m.Source, m.Pending, m.State = src, src, ApplyingFromGraph
	}
	return m, nil
}

func reduceAddTable(m Model, name string, cfg *Config) (Model, error) {
	src, err := gen.AddTable(m.Source, name, cfg.generateOptions()...)
	if err != nil {
		return m, err
	}
	next, err := reduceSource(m, src, cfg)
	if err != nil {
		return next, err
	}
	next.Pending, next.State = src, ApplyingFromGraph
	return next, nil
}
