// pkg/geometry/point.go
package geometry

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrOperandShape is returned when a dynamic operand is neither a scalar nor a pair.
	ErrOperandShape = errors.New("geometry: operand must be a scalar or a pair of two values")
	// ErrDivideByZero is returned when Combine divides by a zero component.
	ErrDivideByZero = errors.New("geometry: division by zero")
)

// Point represents a 2D point or a free vector with x and y components
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns the component-wise sum of two points
func (p Point) Add(other Point) Point {
	return Point{
		X: p.X + other.X,
		Y: p.Y + other.Y,
	}
}

// Sub returns the component-wise difference between two points
func (p Point) Sub(other Point) Point {
	return Point{
		X: p.X - other.X,
		Y: p.Y - other.Y,
	}
}

// Mul returns the component-wise product of two points
func (p Point) Mul(other Point) Point {
	return Point{
		X: p.X * other.X,
		Y: p.Y * other.Y,
	}
}

// Div returns the component-wise quotient of two points
func (p Point) Div(other Point) Point {
	return Point{
		X: p.X / other.X,
		Y: p.Y / other.Y,
	}
}

// AddScalar adds s to both components
func (p Point) AddScalar(s float64) Point {
	return Point{X: p.X + s, Y: p.Y + s}
}

// SubScalar subtracts s from both components
func (p Point) SubScalar(s float64) Point {
	return Point{X: p.X - s, Y: p.Y - s}
}

// Scale multiplies both components by a scalar value
func (p Point) Scale(factor float64) Point {
	return Point{
		X: p.X * factor,
		Y: p.Y * factor,
	}
}

// DivScalar divides both components by a scalar value
func (p Point) DivScalar(s float64) Point {
	return Point{X: p.X / s, Y: p.Y / s}
}

// Len returns the distance of the point from the origin
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Dist returns the distance between two points
func (p Point) Dist(other Point) float64 {
	return math.Hypot(other.X-p.X, other.Y-p.Y)
}

// Equal reports whether both components are approximately equal.
func (p Point) Equal(other Point) bool {
	return isClose(p.X, other.X) && isClose(p.Y, other.Y)
}

// IsFinite reports whether neither component is NaN or infinite
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

func (p Point) String() string {
	return fmt.Sprintf("Point(%g, %g)", p.X, p.Y)
}

const relTolerance = 1e-9

// isClose mirrors a relative tolerance comparison with no absolute floor,
// so values near zero must match exactly.
func isClose(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	return diff <= relTolerance*math.Max(math.Abs(a), math.Abs(b))
}

// Op selects the arithmetic performed by Combine.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Combine applies op between p and an operand whose shape is only known at
// runtime. Scalars (any integer or float kind) apply to both components;
// Point, [2]float64 and two-element []float64 apply component-wise.
func Combine(p Point, op Op, operand any) (Point, error) {
	other, err := toPair(operand)
	if err != nil {
		return Point{}, fmt.Errorf("%s %T: %w", op, operand, err)
	}

	switch op {
	case OpAdd:
		return p.Add(other), nil
	case OpSub:
		return p.Sub(other), nil
	case OpMul:
		return p.Mul(other), nil
	case OpDiv:
		if other.X == 0 || other.Y == 0 {
			return Point{}, ErrDivideByZero
		}
		return p.Div(other), nil
	default:
		return Point{}, fmt.Errorf("geometry: unknown operation %s", op)
	}
}

func toPair(operand any) (Point, error) {
	switch v := operand.(type) {
	case Point:
		return v, nil
	case [2]float64:
		return Point{X: v[0], Y: v[1]}, nil
	case []float64:
		if len(v) != 2 {
			return Point{}, ErrOperandShape
		}
		return Point{X: v[0], Y: v[1]}, nil
	case float64:
		return Point{X: v, Y: v}, nil
	case float32:
		return Point{X: float64(v), Y: float64(v)}, nil
	case int:
		return Point{X: float64(v), Y: float64(v)}, nil
	case int8:
		return Point{X: float64(v), Y: float64(v)}, nil
	case int16:
		return Point{X: float64(v), Y: float64(v)}, nil
	case int32:
		return Point{X: float64(v), Y: float64(v)}, nil
	case int64:
		return Point{X: float64(v), Y: float64(v)}, nil
	case uint:
		return Point{X: float64(v), Y: float64(v)}, nil
	case uint8:
		return Point{X: float64(v), Y: float64(v)}, nil
	case uint16:
		return Point{X: float64(v), Y: float64(v)}, nil
	case uint32:
		return Point{X: float64(v), Y: float64(v)}, nil
	case uint64:
		return Point{X: float64(v), Y: float64(v)}, nil
	default:
		return Point{}, ErrOperandShape
	}
}
