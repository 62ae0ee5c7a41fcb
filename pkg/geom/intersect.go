package geom

import "math"

// SegmentsIntersect reports whether the closed segments [p1, p2] and [p3, p4]
// share at least one point. Touching endpoints and collinear overlap count.
func SegmentsIntersect(p1, p2, p3, p4 Vector) bool {
	d1 := p4.Sub(p3).Det(p1.Sub(p3))
	d2 := p4.Sub(p3).Det(p2.Sub(p3))
	d3 := p2.Sub(p1).Det(p3.Sub(p1))
	d4 := p2.Sub(p1).Det(p4.Sub(p1))

	if d1 == 0 && d2 == 0 && d3 == 0 && d4 == 0 {
		return boxesOverlap(p1, p2, p3, p4)
	}

	if opposite(d1, d2) && opposite(d3, d4) {
		return true
	}

	switch {
	case d1 == 0 && inBox(p3, p4, p1):
		return true
	case d2 == 0 && inBox(p3, p4, p2):
		return true
	case d3 == 0 && inBox(p1, p2, p3):
		return true
	case d4 == 0 && inBox(p1, p2, p4):
		return true
	}
	return false
}

// OnSegment reports whether p lies on the closed segment [a, b].
func OnSegment(a, b, p Vector) bool {
	return b.Sub(a).Det(p.Sub(a)) == 0 && inBox(a, b, p)
}

func opposite(a, b float64) bool {
	return (a > 0 && b < 0) || (a < 0 && b > 0)
}

// inBox reports whether p lies in the axis-aligned bounding box of [a, b].
func inBox(a, b, p Vector) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

func boxesOverlap(p1, p2, p3, p4 Vector) bool {
	return math.Max(p1.X, p2.X) >= math.Min(p3.X, p4.X) &&
		math.Max(p3.X, p4.X) >= math.Min(p1.X, p2.X) &&
		math.Max(p1.Y, p2.Y) >= math.Min(p3.Y, p4.Y) &&
		math.Max(p3.Y, p4.Y) >= math.Min(p1.Y, p2.Y)
}
