package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorAlgebra(t *testing.T) {
	a := V(3, 4)
	b := V(1, -2)

	assert.Equal(t, V(4, 2), a.Add(b))
	assert.Equal(t, V(2, 6), a.Sub(b))
	assert.Equal(t, V(6, 8), a.Mult(2))
	assert.Equal(t, -5.0, a.Dot(b))
	assert.Equal(t, -10.0, a.Det(b))
	assert.Equal(t, 25.0, a.SquareNorm())
	assert.Equal(t, 5.0, a.Norm())
	assert.Equal(t, 5.0, Zero.DistanceTo(a))
	assert.Equal(t, 25.0, Zero.SquareDistanceTo(a))
	assert.Equal(t, V(-4, 3), a.Orth())

	// operations never mutate the receiver
	assert.Equal(t, V(3, 4), a)
}

func TestNormalize(t *testing.T) {
	n := V(3, 4).Normalize()
	assert.InDelta(t, 0.6, n.X, 1e-12)
	assert.InDelta(t, 0.8, n.Y, 1e-12)
	assert.InDelta(t, 1.0, n.Norm(), 1e-12)

	assert.Equal(t, Zero, Zero.Normalize())
}

func TestEqualsIsExact(t *testing.T) {
	assert.True(t, V(0.1, 0.2).Equals(V(0.1, 0.2)))
	assert.False(t, V(0.1, 0.2).Equals(V(0.1, 0.2+1e-15)))
}

func TestAngleTo(t *testing.T) {
	assert.InDelta(t, math.Pi/2, V(1, 0).AngleTo(V(0, 1)), 1e-12)
	assert.InDelta(t, 3*math.Pi/2, V(0, 1).AngleTo(V(1, 0)), 1e-12)
	assert.InDelta(t, 0, V(2, 2).AngleTo(V(1, 1)), 1e-12)
}

func TestDistanceToCircleAlongVector(t *testing.T) {
	tests := []struct {
		name   string
		origin Vector
		center Vector
		radius float64
		dir    Vector
		want   float64
	}{
		{"head on", V(0, 0), V(10, 0), 2, V(1, 0), 8},
		{"offset", V(0, 0), V(10, 1), 2, V(1, 0), 10 - math.Sqrt(3)},
		{"moving away", V(0, 0), V(-10, 0), 2, V(1, 0), math.Inf(1)},
		{"miss", V(0, 0), V(10, 5), 2, V(1, 0), math.Inf(1)},
		{"already inside", V(0, 0), V(1, 0), 2, V(1, 0), 0},
		{"grazing perpendicular", V(0, 0), V(0, 1), 2, V(1, 0), math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.origin.DistanceToCircleAlongVector(tt.center, tt.radius, tt.dir)
			if math.IsInf(tt.want, 1) {
				assert.True(t, math.IsInf(got, 1), "got %v", got)
				return
			}
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestDistanceToSegmentAlongVector(t *testing.T) {
	// (b-a).Orth() of a=(-1,0), b=(1,0) is (0,2): the front face looks up
	a, b := V(-1, 0), V(1, 0)

	tests := []struct {
		name   string
		origin Vector
		dir    Vector
		want   float64
	}{
		{"straight down onto front face", V(0, 5), V(0, -1), 5},
		{"diagonal hit", V(-3, 2), V(1, -1).Normalize(), 2 * math.Sqrt2},
		{"from behind", V(0, -5), V(0, 1), math.Inf(1)},
		{"moving away", V(0, 5), V(0, 1), math.Inf(1)},
		{"passes beside", V(5, 5), V(0, -1), math.Inf(1)},
		{"collinear", V(-5, 0), V(1, 0), math.Inf(1)},
		{"parallel", V(-5, 1), V(1, 0), math.Inf(1)},
		{"origin on segment", V(0, 0), V(0, -1), 0},
		{"hits endpoint", V(1, 3), V(0, -1), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.origin.DistanceToSegmentAlongVector(a, b, tt.dir)
			require.False(t, math.IsNaN(got))
			if math.IsInf(tt.want, 1) {
				assert.True(t, math.IsInf(got, 1), "got %v", got)
				return
			}
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestSegmentsIntersect(t *testing.T) {
	tests := []struct {
		name           string
		p1, p2, p3, p4 Vector
		want           bool
	}{
		{"crossing", V(0, 0), V(2, 2), V(0, 2), V(2, 0), true},
		{"disjoint", V(0, 0), V(1, 0), V(0, 1), V(1, 1), false},
		{"touching endpoint", V(0, 0), V(1, 1), V(1, 1), V(2, 0), true},
		{"t junction", V(0, 0), V(2, 0), V(1, 0), V(1, 5), true},
		{"collinear overlap", V(0, 0), V(2, 0), V(1, 0), V(3, 0), true},
		{"collinear disjoint", V(0, 0), V(1, 0), V(2, 0), V(3, 0), false},
		{"collinear touching", V(0, 0), V(1, 0), V(1, 0), V(3, 0), true},
		{"near miss", V(0, 0), V(1, 1), V(1.01, 1), V(3, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SegmentsIntersect(tt.p1, tt.p2, tt.p3, tt.p4))
			assert.Equal(t, tt.want, SegmentsIntersect(tt.p3, tt.p4, tt.p1, tt.p2))
			assert.Equal(t, tt.want, SegmentsIntersect(tt.p2, tt.p1, tt.p4, tt.p3))
		})
	}
}

func TestOnSegment(t *testing.T) {
	assert.True(t, OnSegment(V(0, 0), V(4, 0), V(2, 0)))
	assert.True(t, OnSegment(V(0, 0), V(4, 0), V(4, 0)))
	assert.False(t, OnSegment(V(0, 0), V(4, 0), V(5, 0)))
	assert.False(t, OnSegment(V(0, 0), V(4, 0), V(2, 0.1)))
}
