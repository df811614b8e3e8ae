// pkg/geometry/shape.go
package geometry

// Rectangle is an axis-aligned box. Y grows downward, so Top is the minimum Y.
type Rectangle struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Right returns the maximum X edge
func (r Rectangle) Right() float64 {
	return r.Left + r.Width
}

// Bottom returns the maximum Y edge
func (r Rectangle) Bottom() float64 {
	return r.Top + r.Height
}

// ContainsPoint reports whether point lies strictly inside the rectangle.
// Points on an edge do not count.
func (r Rectangle) ContainsPoint(p Point) bool {
	return r.Left < p.X && p.X < r.Right() &&
		r.Top < p.Y && p.Y < r.Bottom()
}

// ContainsPointInclusive reports whether point lies inside or on an edge
func (r Rectangle) ContainsPointInclusive(p Point) bool {
	return r.Left <= p.X && p.X <= r.Right() &&
		r.Top <= p.Y && p.Y <= r.Bottom()
}

// Axis restricts BetweenEdges to one pair of edges
type Axis int

const (
	AxisBoth Axis = iota
	AxisVertical
	AxisHorizontal
)

// BetweenEdges reports whether p.X lies strictly between the left and right
// edges (AxisVertical), p.Y strictly between top and bottom (AxisHorizontal),
// or either (AxisBoth).
func (r Rectangle) BetweenEdges(p Point, axis Axis) bool {
	betweenX := r.Left < p.X && p.X < r.Right()
	betweenY := r.Top < p.Y && p.Y < r.Bottom()
	switch axis {
	case AxisVertical:
		return betweenX
	case AxisHorizontal:
		return betweenY
	default:
		return betweenX || betweenY
	}
}

// Inflated returns a new rectangle grown by radius on every side, keeping its center
func (r Rectangle) Inflated(radius float64) Rectangle {
	return Rectangle{
		Left:   r.Left - radius,
		Top:    r.Top - radius,
		Width:  r.Width + radius*2,
		Height: r.Height + radius*2,
	}
}

// Area returns width times height
func (r Rectangle) Area() float64 {
	return r.Width * r.Height
}

// Center returns the middle of the rectangle
func (r Rectangle) Center() Point {
	return Point{X: r.Left + r.Width/2, Y: r.Top + r.Height/2}
}

// Vertices returns the four corners clockwise from top-left
func (r Rectangle) Vertices() []Point {
	return []Point{
		{X: r.Left, Y: r.Top},
		{X: r.Right(), Y: r.Top},
		{X: r.Right(), Y: r.Bottom()},
		{X: r.Left, Y: r.Bottom()},
	}
}

// Sides returns the bottom, top, left and right edges. Their direction
// carries no meaning.
func (r Rectangle) Sides() []Vector {
	return []Vector{
		{Start: Point{X: r.Left, Y: r.Bottom()}, End: Point{X: r.Right(), Y: r.Bottom()}},
		{Start: Point{X: r.Left, Y: r.Top}, End: Point{X: r.Right(), Y: r.Top}},
		{Start: Point{X: r.Left, Y: r.Top}, End: Point{X: r.Left, Y: r.Bottom()}},
		{Start: Point{X: r.Right(), Y: r.Top}, End: Point{X: r.Right(), Y: r.Bottom()}},
	}
}

// IntersectsVector reports whether the vector crosses a side or has its
// start, end or midpoint strictly inside. A vector that only touches an
// edge or a corner does not intersect.
func (r Rectangle) IntersectsVector(v Vector) bool {
	for _, side := range r.Sides() {
		if AreVectorsIntersecting(side, v) {
			return true
		}
	}
	return r.ContainsPoint(v.Start) ||
		r.ContainsPoint(v.End) ||
		r.ContainsPoint(v.Midpoint())
}

// Overlaps reports whether two rectangles share any area or edge
func (r Rectangle) Overlaps(other Rectangle) bool {
	return !(other.Left > r.Right() ||
		other.Right() < r.Left ||
		other.Top > r.Bottom() ||
		other.Bottom() < r.Top)
}

// Circle represents a circular shape
type Circle struct {
	Center Point
	Radius float64
}

// ContainsPoint reports whether p lies strictly inside the circle
func (c Circle) ContainsPoint(p Point) bool {
	return c.Center.Dist(p) < c.Radius
}

// Inflated returns a circle with the same center and radius grown by radius
func (c Circle) Inflated(radius float64) Circle {
	return Circle{Center: c.Center, Radius: c.Radius + radius}
}

// BoundingBox returns the square enclosing the circle
func (c Circle) BoundingBox() Rectangle {
	return Rectangle{
		Left:   c.Center.X - c.Radius,
		Top:    c.Center.Y - c.Radius,
		Width:  c.Radius * 2,
		Height: c.Radius * 2,
	}
}

// IntersectsVector reports whether any part of the segment lies strictly
// inside the circle. Tangent segments do not intersect.
func (c Circle) IntersectsVector(v Vector) bool {
	return c.ContainsPoint(ClosestPointOnSegment(v, c.Center))
}
