package graph

import (
	"math/rand"
	"slices"
	"sort"
)

// Layout metrics.
const (
	NodeWidth         = 220
	NodeHeight        = 150
	HorizontalSpacing = 200
	VerticalSpacing   = 150
	StartX            = 100
	StartY            = 100

	// RelationSpacing is the extra horizontal room per relation of a node.
	RelationSpacing = 30
	// EnumValueSpacing is the extra horizontal room per enum value.
	EnumValueSpacing = 10

	centerJitter   = 20
	maxCenterShift = 250
	busyRelations  = 3
	busySpacing    = 10
)

// LayoutConfig holds the layout jitter settings.
type LayoutConfig struct {
	// Rand is the jitter source. nil uses the math/rand global source.
	Rand *rand.Rand
	// Jitter enables the random offsets of the refinement pass.
	Jitter bool
}

// LayoutOption configures Layout.
type LayoutOption func(*LayoutConfig)

// WithRand sets the jitter source.
func WithRand(r *rand.Rand) LayoutOption {
	return func(c *LayoutConfig) {
		c.Rand = r
	}
}

// WithSeed seeds a private jitter source.
func WithSeed(seed int64) LayoutOption {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// WithoutJitter disables random offsets, making the layout a pure
// function of its input.
func WithoutJitter() LayoutOption {
	return func(c *LayoutConfig) {
		c.Jitter = false
	}
}

// float returns a value in [0, 1); 0.5 when jitter is disabled so that
// every offset centers on zero.
func (c *LayoutConfig) float() float64 {
	switch {
	case !c.Jitter:
		return 0.5
	case c.Rand != nil:
		return c.Rand.Float64()
	}
	return rand.Float64()
}

type adjacency struct {
	sources []string
	targets []string
	level   int
}

func (a *adjacency) count() int { return len(a.sources) + len(a.targets) }

// EstimatedHeight returns the rendered height estimate of a node.
func EstimatedHeight(n *Node) float64 {
	return max(NodeHeight, float64(80+20*len(n.Data.Columns)))
}

// Layout returns copies of nodes with new positions. Table nodes are
// placed in rows by relationship depth, enum nodes in one row below the
// tables. Edges between non-table nodes are ignored.
func Layout(nodes []*Node, edges []*Edge, opts ...LayoutOption) []*Node {
	cfg := &LayoutConfig{Jitter: true}
	for _, opt := range opts {
		opt(cfg)
	}
	out := CloneNodes(nodes)

	adj := make(map[string]*adjacency)
	var tables, enums []*Node
	for _, n := range out {
		switch {
		case n.IsTable():
			adj[n.ID] = &adjacency{}
			tables = append(tables, n)
		case n.IsEnum():
			enums = append(enums, n)
		}
	}
	for _, e := range edges {
		src, dst := adj[e.Source], adj[e.Target]
		if src == nil || dst == nil || e.Source == e.Target {
			continue
		}
		if !slices.Contains(src.targets, e.Target) {
			src.targets = append(src.targets, e.Target)
		}
		if !slices.Contains(dst.sources, e.Source) {
			dst.sources = append(dst.sources, e.Source)
		}
	}

	// Relax levels; the pass cap bounds the work on reference cycles.
	for pass := 0; pass <= len(tables); pass++ {
		changed := false
		for _, n := range tables {
			a := adj[n.ID]
			if len(a.sources) == 0 {
				continue
			}
			top := 0
			for _, s := range a.sources {
				top = max(top, adj[s].level)
			}
			if a.level <= top {
				a.level = top + 1
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	groups := make(map[int][]*Node)
	var levels []int
	for _, n := range tables {
		lvl := adj[n.ID].level
		if _, ok := groups[lvl]; !ok {
			levels = append(levels, lvl)
		}
		groups[lvl] = append(groups[lvl], n)
	}
	sort.Ints(levels)

	y := float64(StartY)
	for _, lvl := range levels {
		row := groups[lvl]
		sort.SliceStable(row, func(i, j int) bool {
			a, b := adj[row[i].ID], adj[row[j].ID]
			if (len(a.sources) > 0) != (len(b.sources) > 0) {
				return len(a.sources) > 0
			}
			return a.count() > b.count()
		})
		x, height := float64(StartX), float64(NodeHeight)
		for _, n := range row {
			n.Position = Position{X: x, Y: y}
			x += NodeWidth + HorizontalSpacing + float64(adj[n.ID].count()*RelationSpacing)
			height = max(height, EstimatedHeight(n))
		}
		y += height + VerticalSpacing
	}

	x := float64(StartX)
	for _, n := range enums {
		n.Position = Position{X: x, Y: y}
		x += NodeWidth + HorizontalSpacing + float64(len(n.Data.Values)*EnumValueSpacing)
	}

	for _, n := range out {
		a := adj[n.ID]
		if a == nil {
			continue
		}
		if len(a.sources) == 1 {
			src := FindNode(out, a.sources[0])
			center := src.Position.X + cfg.float()*2*centerJitter - centerJitter
			n.Position.X = max(StartX, min(center, n.Position.X+maxCenterShift))
		}
		if c := a.count(); c > busyRelations {
			buffer := float64(c * busySpacing)
			n.Position.X = max(StartX, n.Position.X+cfg.float()*buffer-buffer/2)
		}
	}
	return out
}
