package crowd

import (
	"math"

	"github.com/zeusync/crowdnav/pkg/geom"
)

// advance moves the agent distance along dir, snapping onto target when it is
// within reach so a tick never overshoots it.
func (a *Agent) advance(target, dir geom.Vector, distance float64) {
	if a.Position.DistanceTo(target) <= distance {
		a.Position = target
		return
	}
	a.Position = a.Position.Add(dir.Mult(distance))
}

func (a *Agent) stepDirect(deltaTime float64, target geom.Vector) {
	dir := target.Sub(a.Position).Normalize()
	a.advance(target, dir, a.Speed*deltaTime)
}

func (a *Agent) stepHardStop(deltaTime float64, target geom.Vector, r *Room) {
	dir := target.Sub(a.Position).Normalize()
	distance := math.Min(a.Speed*deltaTime, a.agentClearance(dir, r))
	a.advance(target, dir, distance)
}

// stepLateralDeviation sidesteps the agent in contact that blocks the way the
// most. The first agent with the largest head-on factor wins ties.
func (a *Agent) stepLateralDeviation(deltaTime float64, target geom.Vector, r *Room) {
	distance := a.Speed * deltaTime
	dir := target.Sub(a.Position).Normalize()

	factor := 0.0
	var deviation geom.Vector
	deviated := false
	for other := range r.Agents.All() {
		if other == a {
			continue
		}
		if a.Position.DistanceTo(other.Position) >= a.Radius+other.Radius+geom.Epsilon {
			continue
		}
		v := other.Position.Sub(a.Position).Normalize()
		if d := v.Dot(dir); d > factor {
			factor = d
			deviated = true
			if v.Det(dir) > 0 {
				deviation = v.Orth()
			} else {
				deviation = v.Orth().Mult(-1)
			}
		}
	}

	if deviated {
		distance = math.Min(distance, r.DistanceAlongRay(a.Position, deviation))
		distance = math.Min(distance, a.agentClearance(deviation, r))
		a.Position = a.Position.Add(deviation.Mult(distance))
		return
	}

	// walls met at or beyond the target do not matter
	if hit := r.DistanceAlongRay(a.Position, dir); hit < a.Position.DistanceTo(target)-geom.Epsilon {
		distance = math.Min(distance, hit)
	}
	distance = math.Min(distance, a.agentClearance(dir, r))
	a.advance(target, dir, distance)
}

// agentClearance is the distance the agent can travel along dir before its
// disc touches another agent's disc.
func (a *Agent) agentClearance(dir geom.Vector, r *Room) float64 {
	clearance := math.Inf(1)
	for other := range r.Agents.All() {
		if other == a {
			continue
		}
		clearance = math.Min(clearance, a.Position.DistanceToCircleAlongVector(other.Position, a.Radius+other.Radius, dir))
	}
	return clearance
}
