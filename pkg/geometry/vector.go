// pkg/geometry/vector.go
package geometry

import (
	"fmt"
	"math"
)

// Vector is a directed segment between two points
type Vector struct {
	Start Point
	End   Point
}

// NewVector creates a vector from raw endpoint coordinates
func NewVector(x1, y1, x2, y2 float64) Vector {
	return Vector{Start: Point{X: x1, Y: y1}, End: Point{X: x2, Y: y2}}
}

// FromMagnitudeDirection creates a vector starting at start, facing
// direction (radians) with the given length
func FromMagnitudeDirection(start Point, direction, magnitude float64) Vector {
	return Vector{
		Start: start,
		End: start.Add(Point{
			X: math.Cos(direction) * magnitude,
			Y: math.Sin(direction) * magnitude,
		}),
	}
}

// Direction returns the angle in radians the vector is facing
func (v Vector) Direction() float64 {
	return math.Atan2(v.End.Y-v.Start.Y, v.End.X-v.Start.X)
}

// Magnitude returns the length of the vector
func (v Vector) Magnitude() float64 {
	return v.Start.Dist(v.End)
}

// Delta returns End - Start
func (v Vector) Delta() Point {
	return v.End.Sub(v.Start)
}

// Midpoint returns the point halfway along the vector
func (v Vector) Midpoint() Point {
	return v.Start.Add(v.End.Sub(v.Start).DivScalar(2))
}

// PointAt returns the point at ratio t along the vector; t=0 is Start, t=1 is End
func (v Vector) PointAt(t float64) Point {
	return v.Start.Add(v.End.Sub(v.Start).Scale(t))
}

// BoundingBox returns the smallest axis-aligned rectangle containing the vector
func (v Vector) BoundingBox() Rectangle {
	left := math.Min(v.Start.X, v.End.X)
	top := math.Min(v.Start.Y, v.End.Y)
	return Rectangle{
		Left:   left,
		Top:    top,
		Width:  math.Max(v.Start.X, v.End.X) - left,
		Height: math.Max(v.Start.Y, v.End.Y) - top,
	}
}

func (v Vector) String() string {
	return fmt.Sprintf("Vector(%s, %s)", v.Start, v.End)
}

// Path is a sequence of connected points
type Path struct {
	Points []Point
}

// Vectors returns the path as consecutive segments. Adjacent segments share
// an endpoint value.
func (p Path) Vectors() []Vector {
	if len(p.Points) < 2 {
		return nil
	}
	vectors := make([]Vector, 0, len(p.Points)-1)
	for i := 0; i < len(p.Points)-1; i++ {
		vectors = append(vectors, Vector{Start: p.Points[i], End: p.Points[i+1]})
	}
	return vectors
}

// CCW reports whether a, b, c are arranged counterclockwise
func CCW(a, b, c Point) bool {
	return (c.Y-a.Y)*(b.X-a.X) > (b.Y-a.Y)*(c.X-a.X)
}

// IntersectPoints reports whether segments AB and CD cross according to a
// single orientation test. The result depends on argument order for
// degenerate input; use AreVectorsIntersecting for a stable answer.
func IntersectPoints(a, b, c, d Point) bool {
	return CCW(a, c, d) != CCW(b, c, d) && CCW(a, b, c) != CCW(a, b, d)
}

// AreVectorsIntersecting reports whether the two segments cross strictly.
// An endpoint lying on the other segment's line counts as touching, and every
// endpoint ordering must agree, so shared endpoints, T-junctions and
// collinear overlaps are all rejected.
func AreVectorsIntersecting(v1, v2 Vector) bool {
	if onLine(v1, v2.Start) || onLine(v1, v2.End) || onLine(v2, v1.Start) || onLine(v2, v1.End) {
		return false
	}
	return IntersectPoints(v1.Start, v1.End, v2.Start, v2.End) &&
		IntersectPoints(v1.End, v1.Start, v2.Start, v2.End) &&
		IntersectPoints(v1.Start, v1.End, v2.End, v2.Start) &&
		IntersectPoints(v1.End, v1.Start, v2.End, v2.Start)
}

func cross(a, b Point) float64 {
	return a.X*b.Y - a.Y*b.X
}

func onLine(v Vector, p Point) bool {
	return cross(v.Delta(), p.Sub(v.Start)) == 0
}

// SegmentIntersection returns the point where the lines through v1 and v2
// meet, provided it lies on both segments. Parallel segments report false.
func SegmentIntersection(v1, v2 Vector) (Point, bool) {
	r := v1.Delta()
	s := v2.Delta()
	denom := cross(r, s)
	if denom == 0 {
		return Point{}, false
	}

	qp := v2.Start.Sub(v1.Start)
	t := cross(qp, s) / denom
	u := cross(qp, r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point{}, false
	}
	return v1.PointAt(t), true
}

// ClosestPointOnSegment returns the point on v nearest to p
func ClosestPointOnSegment(v Vector, p Point) Point {
	d := v.Delta()
	lengthSq := d.X*d.X + d.Y*d.Y
	if lengthSq == 0 {
		return v.Start
	}
	t := ((p.X-v.Start.X)*d.X + (p.Y-v.Start.Y)*d.Y) / lengthSq
	t = math.Max(0, math.Min(1, t))
	return v.PointAt(t)
}
