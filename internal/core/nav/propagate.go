package nav

import (
	"fmt"
	"strings"

	"github.com/zeusync/crowdnav/pkg/sequence"
)

// Propagator selects how distances to exits spread over the visibility graph.
type Propagator uint8

const (
	// PropagatorDijkstra runs a priority-queue shortest path search from a
	// virtual source joined to every exit.
	PropagatorDijkstra Propagator = iota
	// PropagatorWavefront re-relaxes the neighbors of every vertex whose
	// distance improved, until nothing improves any more.
	PropagatorWavefront
)

func (p Propagator) String() string {
	switch p {
	case PropagatorDijkstra:
		return "dijkstra"
	case PropagatorWavefront:
		return "wavefront"
	default:
		return fmt.Sprintf("propagator(%d)", uint8(p))
	}
}

func ParsePropagator(s string) (Propagator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dijkstra":
		return PropagatorDijkstra, nil
	case "wavefront", "legacy":
		return PropagatorWavefront, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPropagator, s)
	}
}

// seedNode records the closest directly visible exit point of node i.
func (g *Graph) seedNode(i int) bool {
	n := &g.nodes[i]
	updated := false
	for _, e := range g.exits {
		t := e.TargetFromPoint(n.Point)
		if !g.CanConnect(n.Point, t) {
			continue
		}
		if d := n.Point.DistanceTo(t); d < n.DistanceToExit {
			n.DistanceToExit = d
			n.Target = Target{Point: t, Node: NoNode}
			n.HasTarget = true
			updated = true
		}
	}
	return updated
}

func (g *Graph) propagateDijkstra() {
	pq := sequence.NewPriorityQueue[int]()
	for i := range g.nodes {
		if g.seedNode(i) {
			pq.Enqueue(i, g.nodes[i].DistanceToExit)
		}
	}

	for {
		i, cost, ok := pq.Dequeue()
		if !ok {
			return
		}
		if cost > g.nodes[i].DistanceToExit {
			continue
		}
		from := g.nodes[i].Point
		for _, j := range g.nodes[i].Neighbors {
			next := &g.nodes[j]
			if d := cost + from.DistanceTo(next.Point); d < next.DistanceToExit {
				next.DistanceToExit = d
				next.Target = Target{Point: from, Node: i}
				next.HasTarget = true
				pq.Enqueue(j, d)
			}
		}
	}
}

// relax lowers node i's distance through its neighbors and reports whether it
// improved.
func (g *Graph) relax(i int) bool {
	n := &g.nodes[i]
	updated := false
	for _, j := range n.Neighbors {
		neighbor := &g.nodes[j]
		if d := neighbor.DistanceToExit + n.Point.DistanceTo(neighbor.Point); d < n.DistanceToExit {
			n.DistanceToExit = d
			n.Target = Target{Point: neighbor.Point, Node: j}
			n.HasTarget = true
			updated = true
		}
	}
	return updated
}

// propagateWavefront seeds vertices one by one and, after each productive
// update, re-relaxes the neighborhood. A work stack replaces recursion;
// every push follows a strict decrease so the loop terminates.
func (g *Graph) propagateWavefront() {
	var stack []int
	pushNeighbors := func(i int) {
		ns := g.nodes[i].Neighbors
		for k := len(ns) - 1; k >= 0; k-- {
			stack = append(stack, ns[k])
		}
	}

	for i := range g.nodes {
		if !g.seedNode(i) {
			continue
		}
		pushNeighbors(i)
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if g.relax(j) {
				pushNeighbors(j)
			}
		}
	}
}
