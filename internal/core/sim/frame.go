package sim

import (
	"github.com/google/uuid"
	"github.com/zeusync/crowdnav/pkg/geom"
)

// Frame is a read-only picture of the active room after a tick.
type Frame struct {
	Tick     uint64           `json:"tick"`
	Room     string           `json:"room"`
	Width    float64          `json:"width"`
	Height   float64          `json:"height"`
	Running  bool             `json:"running"`
	Strategy string           `json:"strategy"`
	Agents   []AgentState     `json:"agents"`
	Edges    [][2]geom.Vector `json:"edges,omitempty"`
}

type AgentState struct {
	ID       uuid.UUID   `json:"id"`
	Position geom.Vector `json:"position"`
	Radius   float64     `json:"radius"`
}

// FrameSink receives frames produced by the simulation. Publish is called
// outside the simulation lock and must not block for long.
type FrameSink interface {
	Publish(Frame)
}
