// pkg/entity/drone.go
package entity

import (
	"errors"
	"fmt"
	"math"

	"github.com/opd-ai/go-leaksim/pkg/geometry"
	"github.com/opd-ai/go-leaksim/pkg/stochastic"
	"github.com/opd-ai/go-leaksim/pkg/validation"
)

// Default drone properties
const (
	DefaultDroneRadius   = 0.1
	DefaultDroneMass     = 0.3   // kg
	DefaultAirMultiplier = 0.995 // velocity kept per tick
)

var (
	// ErrInvalidMass is returned for a drone mass that is not strictly positive.
	ErrInvalidMass = errors.New("entity: drone mass must be positive")
	// ErrInvalidRadius is returned for a negative drone radius.
	ErrInvalidRadius = errors.New("entity: drone radius must not be negative")
)

// DragModel computes quadratic aerodynamic drag, 0.5*rho*v^2*Cd*A, acting
// against the direction of travel
type DragModel struct {
	AirDensity  float64 // kg/m^3
	Coefficient float64
	Area        float64 // m^2
}

// Force returns the drag force for the given velocity
func (d DragModel) Force(velocity geometry.Point) geometry.Point {
	speed := velocity.Len()
	if speed == 0 {
		return geometry.Point{}
	}
	magnitude := 0.5 * d.AirDensity * speed * speed * d.Coefficient * d.Area
	return velocity.Scale(-magnitude / speed)
}

// Collision describes the wall that blocked a drone's motion during a tick
type Collision struct {
	Wall  Wall
	Index int
	Point geometry.Point
}

// Drone is a point mass driven by externally applied forces
type Drone struct {
	ID       ID
	Position geometry.Point
	Radius   float64
	Velocity geometry.Point // m/s
	Accel    geometry.Point // m/s^2
	NetForce geometry.Point // N, recomputed every tick
	Mass     float64        // kg

	// AirMultiplier scales velocity once per tick
	AirMultiplier float64
	// Drag, when set, adds a quadratic drag force every tick
	Drag *DragModel

	forces []geometry.Point
}

// NewDrone creates a drone at rest
func NewDrone(position geometry.Point, radius, mass float64) (*Drone, error) {
	if err := validation.Positive("mass", mass); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMass, err)
	}
	if err := validation.NonNegative("radius", radius); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRadius, err)
	}
	if err := validation.FinitePair("position", position.X, position.Y); err != nil {
		return nil, err
	}

	return &Drone{
		ID:            NewID(),
		Position:      position,
		Radius:        radius,
		Mass:          mass,
		AirMultiplier: DefaultAirMultiplier,
	}, nil
}

// ApplyForce queues a force in Newtons for the next tick
func (d *Drone) ApplyForce(x, y float64) {
	d.forces = append(d.forces, geometry.Point{X: x, Y: y})
}

// PendingForces returns the number of forces queued for the next tick
func (d *Drone) PendingForces() int {
	return len(d.forces)
}

// Zone returns the circle within which particles are detected
func (d *Drone) Zone() geometry.Circle {
	return geometry.Circle{Center: d.Position, Radius: d.Radius}
}

// computeNetForce sums and drains the force accumulator
func (d *Drone) computeNetForce() {
	if d.Drag != nil {
		d.forces = append(d.forces, d.Drag.Force(d.Velocity))
	}

	d.NetForce = geometry.Point{}
	for _, f := range d.forces {
		d.NetForce = d.NetForce.Add(f)
	}
	d.forces = d.forces[:0]
}

// Update integrates one tick of motion against walls. It returns the wall
// that blocked the motion, or nil when the drone moved freely.
func (d *Drone) Update(walls []Wall, dt float64) *Collision {
	d.computeNetForce()

	d.Accel = d.NetForce.DivScalar(d.Mass)
	delta := geometry.Point{
		X: stochastic.ConstantAccelerationDisplacement(d.Velocity.X, d.Accel.X, dt),
		Y: stochastic.ConstantAccelerationDisplacement(d.Velocity.Y, d.Accel.Y, dt),
	}
	motion := geometry.Vector{Start: d.Position, End: d.Position.Add(delta)}
	collision := firstCollision(walls, motion)

	d.Velocity = d.Velocity.Add(d.Accel.Scale(dt)).Scale(d.AirMultiplier)

	if collision == nil {
		d.Position = motion.End
		return nil
	}

	d.resolveWallCollision()
	return collision
}

// resolveWallCollision stops the drone dead in place
func (d *Drone) resolveWallCollision() {
	d.Velocity = geometry.Point{}
}

// firstCollision returns the wall crossed nearest to the start of motion.
// Equal distances keep the earliest wall in list order.
func firstCollision(walls []Wall, motion geometry.Vector) *Collision {
	var (
		best     *Collision
		bestDist = math.Inf(1)
	)
	for i, w := range walls {
		if !geometry.AreVectorsIntersecting(w.Segment, motion) {
			continue
		}
		hit, ok := geometry.SegmentIntersection(motion, w.Segment)
		if !ok {
			hit = motion.Start
		}
		if dist := motion.Start.Dist(hit); dist < bestDist {
			bestDist = dist
			best = &Collision{Wall: w, Index: i, Point: hit}
		}
	}
	return best
}
