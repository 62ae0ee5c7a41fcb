package crowd

import (
	"context"
	"fmt"

	"github.com/zeusync/crowdnav/internal/core/nav"
	"github.com/zeusync/crowdnav/pkg/geom"
)

// RemovalReason tells why an agent left the live set.
type RemovalReason uint8

const (
	// RemovedExited: the agent stood on an exit.
	RemovedExited RemovalReason = iota
	// RemovedStranded: no exit is reachable from the agent's position.
	RemovedStranded
	// RemovedCleared: the room was cleared or unloaded.
	RemovedCleared
)

func (r RemovalReason) String() string {
	switch r {
	case RemovedExited:
		return "exited"
	case RemovedStranded:
		return "stranded"
	case RemovedCleared:
		return "cleared"
	default:
		return fmt.Sprintf("reason(%d)", uint8(r))
	}
}

// Room is a static navigation graph plus the agents moving through it.
type Room struct {
	*nav.Graph

	Width, Height float64
	Agents        *AgentSet

	// Strategy steers agents whose own strategy is StrategyInherit.
	Strategy Strategy

	// OnRemove, when set, is called after an agent leaves the live set.
	OnRemove func(a *Agent, reason RemovalReason)
}

// NewRoom builds the room's navigation graph. A room without explicit exits
// uses its four boundary edges.
func NewRoom(ctx context.Context, width, height float64, obstacles []*nav.Obstacle, exits []nav.Exit, opts ...nav.Option) (*Room, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %gx%g", ErrInvalidRoom, width, height)
	}
	if len(exits) == 0 {
		exits = nav.BoundaryExits(width, height)
	}
	g, err := nav.NewGraph(ctx, obstacles, exits, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoom, err)
	}
	return &Room{
		Graph:    g,
		Width:    width,
		Height:   height,
		Agents:   NewAgentSet(),
		Strategy: StrategyLateralDeviation,
	}, nil
}

// Add puts a into the live set.
func (r *Room) Add(a *Agent) bool {
	return r.Agents.Add(a)
}

// Remove takes a out of the live set and reports the removal.
func (r *Room) Remove(a *Agent, reason RemovalReason) bool {
	if !r.Agents.Remove(a) {
		return false
	}
	if r.OnRemove != nil {
		r.OnRemove(a, reason)
	}
	return true
}

// Clear removes every agent.
func (r *Room) Clear() {
	for _, a := range r.Agents.Snapshot() {
		r.Remove(a, RemovedCleared)
	}
}

// Contains reports whether p lies inside the room bounds and outside every
// closed obstacle.
func (r *Room) Contains(p geom.Vector) bool {
	if p.X < 0 || p.Y < 0 || p.X > r.Width || p.Y > r.Height {
		return false
	}
	return !r.Inside(p)
}

// Update advances every live agent once, in insertion order. Each agent sees
// the positions other agents have at the moment it is processed.
func (r *Room) Update(deltaTime float64) {
	for a := range r.Agents.All() {
		a.Update(deltaTime, r)
	}
}

func (r *Room) strategyFor(a *Agent) Strategy {
	if a.Strategy != StrategyInherit {
		return a.Strategy
	}
	if r.Strategy == StrategyInherit {
		return StrategyDirect
	}
	return r.Strategy
}
