// pkg/geometry/quadtree.go
package geometry

// maxQuadTreeDepth bounds subdivision when many values share one point
const maxQuadTreeDepth = 16

// QuadTree indexes values by point for rectangular range queries
type QuadTree[T any] struct {
	Boundary  Rectangle
	Capacity  int
	depth     int
	Points    []Point
	Values    []T
	Divided   bool
	NorthWest *QuadTree[T]
	NorthEast *QuadTree[T]
	SouthWest *QuadTree[T]
	SouthEast *QuadTree[T]
}

// NewQuadTree creates a new quad tree with the given boundary and capacity
func NewQuadTree[T any](boundary Rectangle, capacity int) *QuadTree[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &QuadTree[T]{
		Boundary: boundary,
		Capacity: capacity,
		Points:   make([]Point, 0, capacity),
		Values:   make([]T, 0, capacity),
	}
}

// covers uses half-open bounds so a point on a shared edge lands in exactly one child
func (qt *QuadTree[T]) covers(p Point) bool {
	b := qt.Boundary
	return p.X >= b.Left && p.X < b.Right() &&
		p.Y >= b.Top && p.Y < b.Bottom()
}

// Insert adds a value at point. It returns false when the point is outside
// the tree's boundary.
func (qt *QuadTree[T]) Insert(p Point, value T) bool {
	if !qt.covers(p) {
		return false
	}

	if len(qt.Points) < qt.Capacity && !qt.Divided {
		qt.Points = append(qt.Points, p)
		qt.Values = append(qt.Values, value)
		return true
	}

	if !qt.Divided && (qt.depth >= maxQuadTreeDepth || qt.Boundary.Width <= 0 || qt.Boundary.Height <= 0) {
		qt.Points = append(qt.Points, p)
		qt.Values = append(qt.Values, value)
		return true
	}

	if !qt.Divided {
		qt.Subdivide()
	}

	if qt.NorthWest.Insert(p, value) ||
		qt.NorthEast.Insert(p, value) ||
		qt.SouthWest.Insert(p, value) ||
		qt.SouthEast.Insert(p, value) {
		return true
	}

	// Rounding at the split line can leave a covered point outside every child
	qt.Points = append(qt.Points, p)
	qt.Values = append(qt.Values, value)
	return true
}

// Subdivide splits the quadtree into four quadrants
func (qt *QuadTree[T]) Subdivide() {
	b := qt.Boundary
	w := b.Width / 2
	h := b.Height / 2

	qt.NorthWest = NewQuadTree[T](Rectangle{Left: b.Left, Top: b.Top, Width: w, Height: h}, qt.Capacity)
	qt.NorthEast = NewQuadTree[T](Rectangle{Left: b.Left + w, Top: b.Top, Width: b.Width - w, Height: h}, qt.Capacity)
	qt.SouthWest = NewQuadTree[T](Rectangle{Left: b.Left, Top: b.Top + h, Width: w, Height: b.Height - h}, qt.Capacity)
	qt.SouthEast = NewQuadTree[T](Rectangle{Left: b.Left + w, Top: b.Top + h, Width: b.Width - w, Height: b.Height - h}, qt.Capacity)
	for _, child := range []*QuadTree[T]{qt.NorthWest, qt.NorthEast, qt.SouthWest, qt.SouthEast} {
		child.depth = qt.depth + 1
	}
	qt.Divided = true
}

// Query returns every value whose point lies inside area, edges included
func (qt *QuadTree[T]) Query(area Rectangle) []T {
	found := make([]T, 0)
	qt.query(area, &found)
	return found
}

func (qt *QuadTree[T]) query(area Rectangle, found *[]T) {
	if !qt.Boundary.Overlaps(area) {
		return
	}

	for i, p := range qt.Points {
		if area.ContainsPointInclusive(p) {
			*found = append(*found, qt.Values[i])
		}
	}

	if !qt.Divided {
		return
	}

	qt.NorthWest.query(area, found)
	qt.NorthEast.query(area, found)
	qt.SouthWest.query(area, found)
	qt.SouthEast.query(area, found)
}

// Len returns the number of stored values
func (qt *QuadTree[T]) Len() int {
	n := len(qt.Points)
	if qt.Divided {
		n += qt.NorthWest.Len() + qt.NorthEast.Len() + qt.SouthWest.Len() + qt.SouthEast.Len()
	}
	return n
}
