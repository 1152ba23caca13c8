package editor

import (
	"sync"

	"go.uber.org/zap"

	"github.com/syssam/schemaflow/graph"
)

// Snapshot is a consistent copy of a document state.
type Snapshot struct {
	// Version increases with every published state.
	Version uint64        `json:"version"`
	Source  string        `json:"source"`
	Nodes   []*graph.Node `json:"nodes"`
	Edges   []*graph.Edge `json:"edges"`
	State   State         `json:"state"`
	Error   string        `json:"error,omitempty"`
}

// Listener receives every published snapshot. Listeners run on the
// goroutine that dispatched the event, after the controller lock is
// released.
type Listener func(Snapshot)

type subscriber struct {
	id int
	fn Listener
}

// Controller serializes the events of one document.
type Controller struct {
	cfg *Config

	mu        sync.Mutex
	model     Model
	version   uint64
	nextID    int
	listeners []subscriber
}

// New loads the initial source and returns a controller in state Idle.
// It fails when the initial source cannot be parsed.
func New(opts ...Option) (*Controller, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	m, err := Reduce(Model{State: ApplyingFromSource}, SourceChanged{Source: cfg.Source}, cfg)
	if err != nil {
		return nil, err
	}
	if len(cfg.Positions) > 0 {
		graph.ApplyPositions(m.Nodes, cfg.Positions)
	}
	return &Controller{cfg: cfg, model: m, version: 1}, nil
}

// Dispatch applies ev and publishes the new state. Listeners are not
// called when the event is rejected without changing the document, such
// as an unknown node or a self-caused source change.
func (c *Controller) Dispatch(ev Event) (Snapshot, error) {
	c.mu.Lock()
	next, err := Reduce(c.model, ev, c.cfg)
	c.model = next
	publish := err == nil || (next.Err != nil && next.Err == err)
	if publish {
		c.version++
	}
	snap := c.snapshotLocked()
	var listeners []Listener
	if publish {
		for _, s := range c.listeners {
			listeners = append(listeners, s.fn)
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.cfg.Logger.Debug("event rejected", zap.String("state", snap.State.String()), zap.Error(err))
	}
	for _, l := range listeners {
		l(snap)
	}
	return snap, err
}

// ApplySource applies source text from outside the diagram. The echo of
// text generated by a diagram edit returns schemaflow.ErrSelfCaused.
func (c *Controller) ApplySource(src string) error {
	_, err := c.Dispatch(SourceChanged{Source: src})
	return err
}

// EditNode applies a diagram edit to one node.
func (c *Controller) EditNode(id string, p Patch) error {
	_, err := c.Dispatch(NodeEdited{NodeID: id, Patch: p})
	return err
}

// MoveNodes sets node positions. Unknown ids are ignored.
func (c *Controller) MoveNodes(pos map[string]graph.Position) error {
	_, err := c.Dispatch(NodesMoved{Positions: pos})
	return err
}

// AutoLayout repositions all nodes. Without options the configured
// layout options are used.
func (c *Controller) AutoLayout(opts ...graph.LayoutOption) error {
	_, err := c.Dispatch(LayoutRequested{Options: opts})
	return err
}

// AddTable declares a new table in the source.
func (c *Controller) AddTable(name string) error {
	_, err := c.Dispatch(TableAdded{Name: name})
	return err
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers l and returns a function that removes it.
func (c *Controller) Subscribe(l Listener) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, subscriber{id: id, fn: l})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.listeners {
			if s.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		Version: c.version,
		Source:  c.model.Source,
		Nodes:   graph.CloneNodes(c.model.Nodes),
		Edges:   graph.CloneEdges(c.model.Edges),
		State:   c.model.State,
	}
	if c.model.Err != nil {
		s.Error = c.model.Err.Error()
	}
	return s
}
