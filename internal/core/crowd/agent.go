package crowd

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/zeusync/crowdnav/pkg/geom"
)

// Agent is a disc moving towards the room's exits.
type Agent struct {
	ID       uuid.UUID
	Position geom.Vector
	Radius   float64
	Speed    float64
	Strategy Strategy
}

// NewAgent creates an agent that follows the room's active strategy.
func NewAgent(position geom.Vector, radius, speed float64) *Agent {
	return &Agent{
		ID:       uuid.New(),
		Position: position,
		Radius:   radius,
		Speed:    speed,
	}
}

func (a *Agent) Validate() error {
	switch {
	case math.IsNaN(a.Position.X) || math.IsNaN(a.Position.Y):
		return fmt.Errorf("%w: position is NaN", ErrInvalidAgent)
	case !(a.Speed > 0):
		return fmt.Errorf("%w: speed %g", ErrInvalidAgent, a.Speed)
	case a.Radius < 0:
		return fmt.Errorf("%w: radius %g", ErrInvalidAgent, a.Radius)
	}
	return nil
}

// Update advances the agent by one tick of deltaTime seconds using its
// effective strategy. An agent without a target is removed from the room.
func (a *Agent) Update(deltaTime float64, r *Room) {
	target, ok := r.TargetFromPoint(a.Position)
	if !ok {
		reason := RemovedStranded
		if r.OnExit(a.Position) {
			reason = RemovedExited
		}
		r.Remove(a, reason)
		return
	}

	switch r.strategyFor(a) {
	case StrategyHardStop:
		a.stepHardStop(deltaTime, target.Point, r)
	case StrategyLateralDeviation:
		a.stepLateralDeviation(deltaTime, target.Point, r)
	default:
		a.stepDirect(deltaTime, target.Point)
	}
}

func (a *Agent) String() string {
	return fmt.Sprintf("agent %s at %v", a.ID, a.Position)
}
