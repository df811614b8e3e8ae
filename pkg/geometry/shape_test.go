// pkg/geometry/shape_test.go
package geometry

import (
	"testing"
)

func TestRectangle_Containment(t *testing.T) {
	r := Rectangle{Left: 0, Top: 0, Width: 10, Height: 5}
	tests := []struct {
		name          string
		p             Point
		wantOpen      bool
		wantInclusive bool
	}{
		{"center", Point{X: 5, Y: 2.5}, true, true},
		{"on_edge", Point{X: 0, Y: 2}, false, true},
		{"corner", Point{X: 10, Y: 5}, false, true},
		{"outside", Point{X: 11, Y: 2}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ContainsPoint(tt.p); got != tt.wantOpen {
				t.Errorf("ContainsPoint() = %v, want %v", got, tt.wantOpen)
			}
			if got := r.ContainsPointInclusive(tt.p); got != tt.wantInclusive {
				t.Errorf("ContainsPointInclusive() = %v, want %v", got, tt.wantInclusive)
			}
		})
	}
}

func TestRectangle_BetweenEdges(t *testing.T) {
	r := Rectangle{Left: 0, Top: 0, Width: 10, Height: 10}
	p := Point{X: 5, Y: 20}
	if !r.BetweenEdges(p, AxisVertical) {
		t.Error("expected x between left and right")
	}
	if r.BetweenEdges(p, AxisHorizontal) {
		t.Error("expected y outside top and bottom")
	}
	if !r.BetweenEdges(p, AxisBoth) {
		t.Error("expected either-axis check to pass")
	}
}

func TestRectangle_InflatedAndArea(t *testing.T) {
	r := Rectangle{Left: 1, Top: 1, Width: 2, Height: 4}
	if r.Area() != 8 {
		t.Errorf("Area() = %v, expected 8", r.Area())
	}
	inflated := r.Inflated(1)
	expected := Rectangle{Left: 0, Top: 0, Width: 4, Height: 6}
	if inflated != expected {
		t.Errorf("Inflated() = %+v, expected %+v", inflated, expected)
	}
	if inflated.Center() != r.Center() {
		t.Errorf("Inflated() moved center from %v to %v", r.Center(), inflated.Center())
	}
}

func TestRectangle_SidesAndVertices(t *testing.T) {
	r := Rectangle{Left: 0, Top: 0, Width: 2, Height: 1}
	sides := r.Sides()
	if len(sides) != 4 {
		t.Fatalf("expected 4 sides, got %d", len(sides))
	}
	var perimeter float64
	for _, s := range sides {
		perimeter += s.Magnitude()
	}
	if perimeter != 6 {
		t.Errorf("perimeter = %v, expected 6", perimeter)
	}
	if len(r.Vertices()) != 4 {
		t.Errorf("expected 4 vertices, got %d", len(r.Vertices()))
	}
}

func TestRectangle_IntersectsVector(t *testing.T) {
	r := Rectangle{Left: 0, Top: 0, Width: 10, Height: 10}
	tests := []struct {
		name string
		v    Vector
		want bool
	}{
		{"fully_inside", NewVector(2, 2, 3, 3), true},
		{"crosses_side", NewVector(-1, 5, 5, 5), true},
		{"passes_through", NewVector(-1, 5, 11, 5), true},
		{"along_edge", NewVector(0, 0, 10, 0), false},
		{"touches_corner", NewVector(-1, -1, 0, 0), false},
		{"outside", NewVector(11, 11, 12, 12), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.IntersectsVector(tt.v); got != tt.want {
				t.Errorf("IntersectsVector() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCircle(t *testing.T) {
	c := Circle{Center: Point{X: 0, Y: 0}, Radius: 1}

	if !c.ContainsPoint(Point{X: 0.5, Y: 0.5}) {
		t.Error("expected interior point to be contained")
	}
	if c.ContainsPoint(Point{X: 1, Y: 0}) {
		t.Error("point on the edge must not be contained")
	}

	box := c.BoundingBox()
	if box != (Rectangle{Left: -1, Top: -1, Width: 2, Height: 2}) {
		t.Errorf("BoundingBox() = %+v", box)
	}
	if c.Inflated(0.5).Radius != 1.5 {
		t.Errorf("Inflated() radius = %v", c.Inflated(0.5).Radius)
	}

	tests := []struct {
		name string
		v    Vector
		want bool
	}{
		{"chord", NewVector(-2, 0.5, 2, 0.5), true},
		{"tangent", NewVector(-2, 1, 2, 1), false},
		{"inside", NewVector(-0.1, 0, 0.1, 0), true},
		{"miss", NewVector(2, 2, 3, 3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IntersectsVector(tt.v); got != tt.want {
				t.Errorf("IntersectsVector() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuadTree_InsertAndQuery(t *testing.T) {
	qt := NewQuadTree[int](Rectangle{Left: 0, Top: 0, Width: 100, Height: 100}, 4)

	inserted := 0
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			if qt.Insert(Point{X: float64(x*10 + 5), Y: float64(y*10 + 5)}, x*10+y) {
				inserted++
			}
		}
	}
	if inserted != 100 {
		t.Fatalf("inserted %d points, expected 100", inserted)
	}
	if qt.Len() != 100 {
		t.Errorf("Len() = %d, expected 100", qt.Len())
	}
	if !qt.Divided {
		t.Error("expected tree to subdivide past capacity")
	}

	found := qt.Query(Rectangle{Left: 0, Top: 0, Width: 20, Height: 20})
	if len(found) != 4 {
		t.Errorf("Query() returned %d values, expected 4", len(found))
	}

	if qt.Insert(Point{X: 150, Y: 50}, -1) {
		t.Error("Insert() accepted a point outside the boundary")
	}
}

func TestQuadTree_DuplicatePoints(t *testing.T) {
	qt := NewQuadTree[string](Rectangle{Left: 0, Top: 0, Width: 1, Height: 1}, 2)
	for i := 0; i < 20; i++ {
		if !qt.Insert(Point{X: 0.5, Y: 0.5}, "p") {
			t.Fatalf("insert %d failed", i)
		}
	}
	if got := len(qt.Query(Rectangle{Left: 0.4, Top: 0.4, Width: 0.2, Height: 0.2})); got != 20 {
		t.Errorf("Query() returned %d values, expected 20", got)
	}
}
