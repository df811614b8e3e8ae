package stochastic

import (
	"errors"
	"fmt"
	"math"

	"github.com/opd-ai/go-leaksim/pkg/geometry"
)

// ErrInvalidInterval is returned for an empty interval or a non-positive interval count.
var ErrInvalidInterval = errors.New("stochastic: invalid integration interval")

// TrapezoidalIntegral estimates the definite integral of f over [a, b] with
// n equal-width trapezoids.
func TrapezoidalIntegral(n int, a, b float64, f func(float64) float64) (float64, error) {
	if n < 1 {
		return 0, fmt.Errorf("%w: n=%d", ErrInvalidInterval, n)
	}

	width := (b - a) / float64(n)
	sum := f(a) + f(b)
	for i := 1; i < n; i++ {
		sum += 2 * f(a+float64(i)*width)
	}
	return width / 2 * sum, nil
}

// AverageOnInterval estimates the mean value of f over [a, b] using a
// trapezoidal integral with n intervals.
func AverageOnInterval(n int, a, b float64, f func(float64) float64) (float64, error) {
	if a == b {
		return 0, fmt.Errorf("%w: empty interval [%v, %v]", ErrInvalidInterval, a, b)
	}
	integral, err := TrapezoidalIntegral(n, a, b, f)
	if err != nil {
		return 0, err
	}
	return integral / (b - a), nil
}

// DistanceFunc returns the distance between two objects as a function of
// time, given the segments each traced at constant velocity over dt seconds.
func DistanceFunc(v1, v2 geometry.Vector, dt float64) (func(t float64) float64, error) {
	if !(dt > 0) {
		return nil, fmt.Errorf("%w: dt=%v", ErrInvalidInterval, dt)
	}

	a, b, c, d := v1.Start, v1.End, v2.Start, v2.End
	r1 := (b.Y - a.Y - d.Y + c.Y) / dt
	r2 := a.Y - c.Y
	r3 := (b.X - a.X - d.X + c.X) / dt
	r4 := a.X - c.X
	return func(t float64) float64 {
		return math.Hypot(r1*t+r2, r3*t+r4)
	}, nil
}

// ConstantAccelerationDisplacement returns the change in position over dt
// starting at velocity v under constant acceleration a.
func ConstantAccelerationDisplacement(v, a, dt float64) float64 {
	return v*dt + 0.5*a*dt*dt
}

// Average returns the arithmetic mean, or zero for no values.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
