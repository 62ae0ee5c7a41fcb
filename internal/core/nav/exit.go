package nav

import "github.com/zeusync/crowdnav/pkg/geom"

// Exit is a door segment agents leave the room through.
type Exit struct {
	P1, P2 geom.Vector
}

// TargetFromPoint returns the point of the exit closest to p.
func (e Exit) TargetFromPoint(p geom.Vector) geom.Vector {
	v := e.P2.Sub(e.P1)
	length := v.Norm()
	dir := v.Normalize()
	l := p.Sub(e.P1).Dot(dir)
	switch {
	case l <= 0:
		return e.P1
	case l >= length:
		return e.P2
	default:
		return e.P1.Add(dir.Mult(l))
	}
}

// BoundaryExits returns the four edges of a width x height room as exits.
func BoundaryExits(width, height float64) []Exit {
	return []Exit{
		{geom.V(0, 0), geom.V(width, 0)},
		{geom.V(0, 0), geom.V(0, height)},
		{geom.V(0, height), geom.V(width, height)},
		{geom.V(width, 0), geom.V(width, height)},
	}
}
