package nav

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/zeusync/crowdnav/pkg/geom"
	"golang.org/x/sync/errgroup"
)

// Target is the next waypoint towards an exit: either a graph node or a raw
// point lying on an exit.
type Target struct {
	Point geom.Vector
	Node  int
}

// NoNode marks a Target that is not a graph node.
const NoNode = -1

func (t Target) IsNode() bool { return t.Node != NoNode }

// Node is the graph record of one obstacle vertex. Nodes live in the Graph's
// arena and refer to each other by index.
type Node struct {
	Point    geom.Vector
	Obstacle int
	Index    int

	Neighbors      []int
	Target         Target
	HasTarget      bool
	DistanceToExit float64
}

// Graph is the static navigation structure of a room: its obstacles, exits,
// the visibility graph over all obstacle vertices and each vertex's shortest
// distance to an exit. It is immutable once NewGraph returns.
type Graph struct {
	obstacles []*Obstacle
	exits     []Exit
	nodes     []Node
	lookup    map[geom.Vector]int
	edges     int
}

type options struct {
	propagator Propagator
	workers    int
}

type Option func(*options)

// WithPropagator selects the distance propagation algorithm.
func WithPropagator(p Propagator) Option {
	return func(o *options) { o.propagator = p }
}

// WithWorkers bounds the number of goroutines testing visibility pairs.
// Values below 1 use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// NewGraph builds the visibility graph and propagates distances to exits.
// The obstacle and exit slices are retained and must not be modified.
func NewGraph(ctx context.Context, obstacles []*Obstacle, exits []Exit, opts ...Option) (*Graph, error) {
	o := options{propagator: PropagatorDijkstra, workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}

	g := &Graph{
		obstacles: obstacles,
		exits:     exits,
		lookup:    make(map[geom.Vector]int),
	}
	for oi, obstacle := range obstacles {
		if err := obstacle.Validate(); err != nil {
			return nil, fmt.Errorf("obstacle %d: %w", oi, err)
		}
		for vi, v := range obstacle.Vertices {
			if _, exists := g.lookup[v]; !exists {
				g.lookup[v] = len(g.nodes)
			}
			g.nodes = append(g.nodes, Node{
				Point:          v,
				Obstacle:       oi,
				Index:          vi,
				DistanceToExit: math.Inf(1),
			})
		}
	}

	if err := g.connect(ctx, o.workers); err != nil {
		return nil, err
	}

	switch o.propagator {
	case PropagatorDijkstra:
		g.propagateDijkstra()
	case PropagatorWavefront:
		g.propagateWavefront()
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownPropagator, o.propagator)
	}
	return g, nil
}

// connect tests every unordered vertex pair. Rows of the pair matrix run on up
// to workers goroutines; the merge walks rows in order so neighbor lists come
// out the same as a sequential build.
func (g *Graph) connect(ctx context.Context, workers int) error {
	n := len(g.nodes)
	rows := make([][]int, n)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := g.nodes[i].Point
			for j := i + 1; j < n; j++ {
				if g.CanConnect(p, g.nodes[j].Point) {
					rows[i] = append(rows[i], j)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("build visibility graph: %w", err)
	}

	for i, row := range rows {
		for _, j := range row {
			g.nodes[i].Neighbors = append(g.nodes[i].Neighbors, j)
			g.nodes[j].Neighbors = append(g.nodes[j].Neighbors, i)
		}
		g.edges += len(row)
	}
	return nil
}

// CanConnect reports whether the straight segment between p and q is free of
// obstacles. The relation is symmetric.
func (g *Graph) CanConnect(p, q geom.Vector) bool {
	if p.Equals(q) {
		return true
	}
	for _, o := range g.obstacles {
		if o.Blocks(p, q) {
			return false
		}
	}
	return true
}

// TargetFromPoint returns the next waypoint from p towards the closest exit.
// ok is false when p already lies on an exit or when no exit can be reached.
func (g *Graph) TargetFromPoint(p geom.Vector) (target Target, ok bool) {
	if i, known := g.lookup[p]; known {
		n := &g.nodes[i]
		if !n.HasTarget || n.DistanceToExit == 0 {
			return Target{Node: NoNode}, false
		}
		return n.Target, true
	}

	best := math.Inf(1)
	target = Target{Node: NoNode}
	for _, e := range g.exits {
		t := e.TargetFromPoint(p)
		if !g.CanConnect(p, t) {
			continue
		}
		d := p.DistanceTo(t)
		if d == 0 {
			return Target{Node: NoNode}, false
		}
		if d < best {
			best = d
			target = Target{Point: t, Node: NoNode}
			ok = true
		}
	}
	for i := range g.nodes {
		n := &g.nodes[i]
		d := p.DistanceTo(n.Point) + n.DistanceToExit
		if !(d < best) || !g.CanConnect(p, n.Point) {
			continue
		}
		best = d
		target = Target{Point: n.Point, Node: i}
		ok = true
	}
	return target, ok
}

// OnExit reports whether p lies exactly on one of the exits.
func (g *Graph) OnExit(p geom.Vector) bool {
	for _, e := range g.exits {
		if e.TargetFromPoint(p).Equals(p) {
			return true
		}
	}
	return false
}

// DistanceAlongRay returns how far p can travel along dir before entering any
// obstacle.
func (g *Graph) DistanceAlongRay(p, dir geom.Vector) float64 {
	distance := math.Inf(1)
	for _, o := range g.obstacles {
		distance = math.Min(distance, o.DistanceAlongRay(p, dir))
	}
	return distance
}

// Inside reports whether p lies inside any closed obstacle.
func (g *Graph) Inside(p geom.Vector) bool {
	for _, o := range g.obstacles {
		if o.ContainsPoint(p) {
			return true
		}
	}
	return false
}

func (g *Graph) Obstacles() []*Obstacle { return g.obstacles }
func (g *Graph) Exits() []Exit          { return g.exits }

// Nodes exposes the node arena. Callers must treat it as read-only.
func (g *Graph) Nodes() []Node { return g.nodes }

func (g *Graph) Node(i int) Node { return g.nodes[i] }

// NodeAt returns the index of the first node located exactly at p.
func (g *Graph) NodeAt(p geom.Vector) (int, bool) {
	i, ok := g.lookup[p]
	return i, ok
}

// EdgeCount is the number of undirected visibility edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Edges lists every visibility edge once, for debug drawing.
func (g *Graph) Edges() [][2]geom.Vector {
	out := make([][2]geom.Vector, 0, g.edges)
	for i, n := range g.nodes {
		for _, j := range n.Neighbors {
			if j > i {
				out = append(out, [2]geom.Vector{n.Point, g.nodes[j].Point})
			}
		}
	}
	return out
}
