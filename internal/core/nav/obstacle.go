package nav

import (
	"fmt"
	"iter"
	"math"

	"github.com/zeusync/crowdnav/pkg/geom"
)

// Segment is a directed boundary edge of an obstacle.
type Segment struct {
	A, B geom.Vector
}

// Normal returns the outward normal of the segment (not normalized).
func (s Segment) Normal() geom.Vector { return s.B.Sub(s.A).Orth() }

// Incident reports whether p is one of the segment's endpoints.
func (s Segment) Incident(p geom.Vector) bool { return s.A.Equals(p) || s.B.Equals(p) }

// Obstacle is a closed polygon or an open polyline.
//
// Vertices of a closed obstacle must be ordered so that Segment.Normal points
// away from the interior; the convexity test in CanGoFromTowards depends on it.
type Obstacle struct {
	Vertices []geom.Vector
	Closed   bool
}

// NewObstacle copies vertices into a new closed polygon.
func NewObstacle(vertices ...geom.Vector) *Obstacle {
	return &Obstacle{Vertices: append([]geom.Vector(nil), vertices...), Closed: true}
}

// NewPolyline copies vertices into a new open polyline.
func NewPolyline(vertices ...geom.Vector) *Obstacle {
	return &Obstacle{Vertices: append([]geom.Vector(nil), vertices...), Closed: false}
}

func (o *Obstacle) Validate() error {
	need := 2
	if o.Closed {
		need = 3
	}
	if len(o.Vertices) < need {
		return fmt.Errorf("%w: %d vertices, need at least %d", ErrInvalidObstacle, len(o.Vertices), need)
	}
	for i, v := range o.Vertices {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			return fmt.Errorf("%w: vertex %d is not finite", ErrInvalidObstacle, i)
		}
	}
	return nil
}

// Segments yields consecutive vertex pairs keyed by the index of the first
// vertex. Closed obstacles wrap back to vertex 0. The sequence can be ranged
// over any number of times.
func (o *Obstacle) Segments() iter.Seq2[int, Segment] {
	return func(yield func(int, Segment) bool) {
		n := len(o.Vertices)
		for i := 0; i+1 < n; i++ {
			if !yield(i, Segment{o.Vertices[i], o.Vertices[i+1]}) {
				return
			}
		}
		if o.Closed && n > 2 {
			yield(n-1, Segment{o.Vertices[n-1], o.Vertices[0]})
		}
	}
}

// CanGoFromTowards reports whether leaving vertex i straight towards target
// stays outside the obstacle. Directions running along either boundary
// segment are allowed. Open obstacles never block.
func (o *Obstacle) CanGoFromTowards(i int, target geom.Vector) bool {
	n := len(o.Vertices)
	if !o.Closed || n < 3 {
		return true
	}
	v := o.Vertices[i]
	d := target.Sub(v)
	if d.Equals(geom.Zero) {
		return true
	}
	in := v.Sub(o.Vertices[(i+n-1)%n])
	out := o.Vertices[(i+1)%n].Sub(v)
	n1, n2 := in.Orth(), out.Orth()

	turn := in.Det(out)
	switch {
	case turn < 0:
		// convex corner: the outside is the union of both outer half-planes
		return d.Dot(n1) >= 0 || d.Dot(n2) >= 0
	case turn > 0:
		// reflex corner
		return d.Dot(n1) >= 0 && d.Dot(n2) >= 0
	default:
		return d.Dot(n1) >= 0
	}
}

// Blocks reports whether the straight segment [p, q] is obstructed by o.
// Boundary segments touching p or q are not tested for crossing; on a closed
// obstacle they still forbid heading into the interior.
func (o *Obstacle) Blocks(p, q geom.Vector) bool {
	for _, s := range o.Segments() {
		if s.Incident(p) || s.Incident(q) {
			continue
		}
		pOn := geom.OnSegment(s.A, s.B, p)
		qOn := geom.OnSegment(s.A, s.B, q)
		if pOn || qOn {
			if o.Closed && ((pOn && q.Sub(p).Dot(s.Normal()) < 0) || (qOn && p.Sub(q).Dot(s.Normal()) < 0)) {
				return true
			}
			continue
		}
		if geom.SegmentsIntersect(p, q, s.A, s.B) {
			return true
		}
	}
	if o.Closed {
		for i, v := range o.Vertices {
			if v.Equals(p) && !o.CanGoFromTowards(i, q) {
				return true
			}
			if v.Equals(q) && !o.CanGoFromTowards(i, p) {
				return true
			}
		}
	}
	return false
}

// DistanceAlongRay returns how far p can travel along the unit direction dir
// before entering the obstacle. A ray leaving one of the obstacle's vertices
// towards its interior returns 0. Closed obstacles only block from outside;
// open polylines block from both sides, except when p already lies on the
// polyline's line.
func (o *Obstacle) DistanceAlongRay(p, dir geom.Vector) float64 {
	distance := math.Inf(1)
	for i, s := range o.Segments() {
		if s.Incident(p) {
			idx := i
			if s.B.Equals(p) {
				idx = (i + 1) % len(o.Vertices)
			}
			if !o.CanGoFromTowards(idx, p.Add(dir)) {
				return 0
			}
			continue
		}
		if o.Closed {
			distance = math.Min(distance, p.DistanceToSegmentAlongVector(s.A, s.B, dir))
			continue
		}
		if s.B.Sub(s.A).Det(p.Sub(s.A)) == 0 {
			continue
		}
		distance = math.Min(distance, p.DistanceToSegmentAlongVector(s.A, s.B, dir))
		distance = math.Min(distance, p.DistanceToSegmentAlongVector(s.B, s.A, dir))
	}
	return distance
}

// ContainsPoint reports whether p lies strictly inside a closed obstacle,
// using an even-odd horizontal ray cast. Open obstacles contain nothing.
func (o *Obstacle) ContainsPoint(p geom.Vector) bool {
	if !o.Closed {
		return false
	}
	inside := false
	for _, s := range o.Segments() {
		if (s.A.Y > p.Y) != (s.B.Y > p.Y) {
			x := s.A.X + (p.Y-s.A.Y)*(s.B.X-s.A.X)/(s.B.Y-s.A.Y)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}
