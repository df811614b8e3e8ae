// Package validation provides numeric precondition checks shared by the
// configuration loader, the entity models and the simulation engine.
package validation

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotFinite is returned when a value is NaN or infinite.
var ErrNotFinite = errors.New("value must be finite")

// ErrOutOfRange is returned when a value falls outside its allowed bounds.
var ErrOutOfRange = errors.New("value out of range")

// Finite validates that v is neither NaN nor infinite
func Finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s: %w (got %v)", field, ErrNotFinite, v)
	}
	return nil
}

// FinitePair validates both components of a coordinate pair
func FinitePair(field string, x, y float64) error {
	if err := Finite(field+".x", x); err != nil {
		return err
	}
	return Finite(field+".y", y)
}

// Probability validates that p lies within [0, 1]
func Probability(field string, p float64) error {
	if err := Finite(field, p); err != nil {
		return err
	}
	if p < 0 || p > 1 {
		return fmt.Errorf("%s: %w: %v not within [0, 1]", field, ErrOutOfRange, p)
	}
	return nil
}

// Positive validates that v is finite and strictly greater than zero
func Positive(field string, v float64) error {
	if err := Finite(field, v); err != nil {
		return err
	}
	if v <= 0 {
		return fmt.Errorf("%s: %w: %v must be positive", field, ErrOutOfRange, v)
	}
	return nil
}

// NonNegative validates that v is finite and not below zero
func NonNegative(field string, v float64) error {
	if err := Finite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("%s: %w: %v must not be negative", field, ErrOutOfRange, v)
	}
	return nil
}

// Fraction validates that v lies within (0, 1]
func Fraction(field string, v float64) error {
	if err := Finite(field, v); err != nil {
		return err
	}
	if v <= 0 || v > 1 {
		return fmt.Errorf("%s: %w: %v not within (0, 1]", field, ErrOutOfRange, v)
	}
	return nil
}

// PositiveInt validates that n is at least one
func PositiveInt(field string, n int) error {
	if n < 1 {
		return fmt.Errorf("%s: %w: %d must be at least 1", field, ErrOutOfRange, n)
	}
	return nil
}
