package geom

import (
	"math"
	"strconv"
)

// Epsilon is the shared tolerance used by grazing-contact and contact-range checks.
const Epsilon = 0.001

// Vector is an immutable 2D point or direction. All operations return new values.
type Vector struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Zero is the zero vector.
var Zero = Vector{}

// V is a shorthand constructor.
func V(x, y float64) Vector { return Vector{X: x, Y: y} }

func (v Vector) Add(o Vector) Vector { return Vector{v.X + o.X, v.Y + o.Y} }
func (v Vector) Sub(o Vector) Vector { return Vector{v.X - o.X, v.Y - o.Y} }
func (v Vector) Mult(s float64) Vector {
	return Vector{v.X * s, v.Y * s}
}

func (v Vector) Dot(o Vector) float64 { return v.X*o.X + v.Y*o.Y }

// Det returns the determinant |v.X o.X; v.Y o.Y|, i.e. the z component of v × o.
func (v Vector) Det(o Vector) float64 { return v.X*o.Y - o.X*v.Y }

func (v Vector) SquareNorm() float64 { return v.X*v.X + v.Y*v.Y }
func (v Vector) Norm() float64       { return math.Sqrt(v.SquareNorm()) }

func (v Vector) DistanceTo(o Vector) float64       { return o.Sub(v).Norm() }
func (v Vector) SquareDistanceTo(o Vector) float64 { return o.Sub(v).SquareNorm() }

// Orth rotates v by 90 degrees: (x, y) -> (-y, x). Every outward-normal
// computation in the module relies on this handedness.
func (v Vector) Orth() Vector { return Vector{-v.Y, v.X} }

// Equals is exact coordinate equality.
func (v Vector) Equals(o Vector) bool { return v.X == o.X && v.Y == o.Y }

// Normalize returns the unit vector in the direction of v, or the zero vector
// when v has zero length.
func (v Vector) Normalize() Vector {
	n := v.Norm()
	if n == 0 {
		return Zero
	}
	return Vector{v.X / n, v.Y / n}
}

// AngleTo returns the counter-clockwise angle in [0, 2π) from v to o.
func (v Vector) AngleTo(o Vector) float64 {
	a := math.Atan2(o.Y, o.X) - math.Atan2(v.Y, v.X)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// DistanceToCircleAlongVector returns how far v must travel along the unit
// direction dir before entering the circle (center, radius). It returns +Inf
// when moving away from the circle, when the trajectory misses it and when the
// approach is tangential within Epsilon. A point already inside returns 0.
func (v Vector) DistanceToCircleAlongVector(center Vector, radius float64, dir Vector) float64 {
	u := center.Sub(v)
	if u.Dot(dir) <= Epsilon {
		return math.Inf(1)
	}
	if v.DistanceTo(center) <= radius {
		return 0
	}
	uNormal := u.Dot(dir.Orth())
	if math.Abs(uNormal) > radius {
		return math.Inf(1)
	}
	uParallel := u.Dot(dir)
	if uParallel < 0 {
		return math.Inf(1)
	}
	return uParallel - math.Sqrt(radius*radius-uNormal*uNormal)
}

// DistanceToSegmentAlongVector returns how far v must travel along dir before
// crossing segment [a, b] through its front face, the side (b-a).Orth() points
// to. Rays that run parallel to the segment, move away from the front face or
// cross it behind the origin return +Inf.
func (v Vector) DistanceToSegmentAlongVector(a, b, dir Vector) float64 {
	ab := b.Sub(a)
	denominator := ab.Det(dir)
	if denominator == 0 {
		// parallel or collinear: sliding along the segment never crosses it
		return math.Inf(1)
	}
	if denominator > 0 {
		return math.Inf(1)
	}
	ap := v.Sub(a)
	bp := v.Sub(b)
	if dir.Det(ap)*dir.Det(bp) > 0 {
		return math.Inf(1)
	}
	d := ap.Det(ab) / denominator
	if d < 0 {
		return math.Inf(1)
	}
	return d
}

func (v Vector) String() string {
	return "(" + strconv.FormatFloat(v.X, 'g', -1, 64) + ", " + strconv.FormatFloat(v.Y, 'g', -1, 64) + ")"
}
