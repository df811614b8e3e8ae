package entity

import (
	"errors"
	"math"
	"testing"

	"github.com/opd-ai/go-leaksim/pkg/geometry"
)

func mustDrone(t *testing.T, x, y float64) *Drone {
	t.Helper()
	d, err := NewDrone(geometry.Point{X: x, Y: y}, DefaultDroneRadius, DefaultDroneMass)
	if err != nil {
		t.Fatalf("NewDrone: %v", err)
	}
	return d
}

func TestNewDrone(t *testing.T) {
	tests := []struct {
		name    string
		radius  float64
		mass    float64
		wantErr error
	}{
		{"defaults", DefaultDroneRadius, DefaultDroneMass, nil},
		{"zero_radius", 0, 1, nil},
		{"zero_mass", 0.1, 0, ErrInvalidMass},
		{"negative_mass", 0.1, -2, ErrInvalidMass},
		{"negative_radius", -0.1, 1, ErrInvalidRadius},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDrone(geometry.Point{X: 1, Y: 2}, tt.radius, tt.mass)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewDrone() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewDrone() unexpected error: %v", err)
			}
			if d.AirMultiplier != DefaultAirMultiplier {
				t.Errorf("AirMultiplier = %v, want %v", d.AirMultiplier, DefaultAirMultiplier)
			}
			if d.Velocity != (geometry.Point{}) {
				t.Errorf("new drone should be at rest, got %v", d.Velocity)
			}
		})
	}
}

func TestNewDrone_RejectsNonFinitePosition(t *testing.T) {
	if _, err := NewDrone(geometry.Point{X: math.NaN()}, 0.1, 0.3); err == nil {
		t.Error("expected error for NaN position")
	}
}

func TestDrone_ZeroForceDrift(t *testing.T) {
	d := mustDrone(t, 5, 5)
	d.Velocity = geometry.Point{X: 1, Y: 0}

	if c := d.Update(nil, 1); c != nil {
		t.Fatalf("unexpected collision %+v", c)
	}

	if !d.Position.Equal(geometry.Point{X: 6, Y: 5}) {
		t.Errorf("Position = %v, want (6, 5)", d.Position)
	}
	if !d.Velocity.Equal(geometry.Point{X: 0.995, Y: 0}) {
		t.Errorf("Velocity = %v, want (0.995, 0)", d.Velocity)
	}
	if d.Accel != (geometry.Point{}) {
		t.Errorf("Accel = %v, want zero", d.Accel)
	}
}

func TestDrone_AirMultiplierDecay(t *testing.T) {
	d := mustDrone(t, 0, 0)
	d.Velocity = geometry.Point{X: 2, Y: -2}

	for i := 0; i < 10; i++ {
		d.Update(nil, 0.1)
	}

	want := 2 * math.Pow(DefaultAirMultiplier, 10)
	if math.Abs(d.Velocity.X-want) > 1e-12 || math.Abs(d.Velocity.Y+want) > 1e-12 {
		t.Errorf("Velocity = %v, want (%v, %v)", d.Velocity, want, -want)
	}
}

func TestDrone_StopsAtWall(t *testing.T) {
	walls := []Wall{NewWall(geometry.NewVector(0, 0, 0, 10))}
	d := mustDrone(t, -1, 5)
	d.ApplyForce(1000, 0)

	c := d.Update(walls, 1)
	if c == nil {
		t.Fatal("expected a collision")
	}
	if c.Index != 0 || c.Wall.ID != walls[0].ID {
		t.Errorf("collision with wall %d, want 0", c.Index)
	}
	if !c.Point.Equal(geometry.Point{X: 0, Y: 5}) {
		t.Errorf("collision point = %v, want (0, 5)", c.Point)
	}
	if d.Velocity != (geometry.Point{}) {
		t.Errorf("Velocity = %v, want zero", d.Velocity)
	}
	if d.Position != (geometry.Point{X: -1, Y: 5}) {
		t.Errorf("Position = %v, want unchanged (-1, 5)", d.Position)
	}
	if math.Abs(d.Accel.X-1000/DefaultDroneMass) > 1e-9 {
		t.Errorf("Accel.X = %v, want %v", d.Accel.X, 1000/DefaultDroneMass)
	}
}

func TestDrone_ClosestWallWins(t *testing.T) {
	walls := []Wall{
		NewWall(geometry.NewVector(3, 0, 3, 10)),
		NewWall(geometry.NewVector(1, 0, 1, 10)),
		NewWall(geometry.NewVector(2, 0, 2, 10)),
	}
	d := mustDrone(t, 0, 5)
	d.Velocity = geometry.Point{X: 10, Y: 0}

	c := d.Update(walls, 1)
	if c == nil {
		t.Fatal("expected a collision")
	}
	if c.Index != 1 {
		t.Errorf("collided with wall %d, want 1", c.Index)
	}
}

func TestDrone_TouchingWallIsNotCollision(t *testing.T) {
	// Motion ends exactly on the wall
	walls := []Wall{NewWall(geometry.NewVector(1, 0, 1, 10))}
	d := mustDrone(t, 0, 5)
	d.Velocity = geometry.Point{X: 1, Y: 0}

	if c := d.Update(walls, 1); c != nil {
		t.Fatalf("unexpected collision %+v", c)
	}
	if !d.Position.Equal(geometry.Point{X: 1, Y: 5}) {
		t.Errorf("Position = %v, want (1, 5)", d.Position)
	}
}

func TestDrone_ForceAccumulatorDrains(t *testing.T) {
	d := mustDrone(t, 0, 0)
	d.ApplyForce(0.3, 0)
	d.ApplyForce(0, 0.6)

	if d.PendingForces() != 2 {
		t.Fatalf("PendingForces() = %d, want 2", d.PendingForces())
	}

	d.Update(nil, 1)
	if d.PendingForces() != 0 {
		t.Errorf("PendingForces() = %d after update, want 0", d.PendingForces())
	}
	if !d.NetForce.Equal(geometry.Point{X: 0.3, Y: 0.6}) {
		t.Errorf("NetForce = %v, want (0.3, 0.6)", d.NetForce)
	}

	d.Update(nil, 1)
	if d.NetForce != (geometry.Point{}) {
		t.Errorf("NetForce = %v on second tick, want zero", d.NetForce)
	}
}

func TestDragModel_Force(t *testing.T) {
	drag := DragModel{AirDensity: 1, Coefficient: 1, Area: 1}

	tests := []struct {
		name     string
		velocity geometry.Point
		want     geometry.Point
	}{
		{"at_rest", geometry.Point{}, geometry.Point{}},
		{"positive_x", geometry.Point{X: 2}, geometry.Point{X: -2}},
		{"negative_y", geometry.Point{Y: -4}, geometry.Point{Y: 8}},
		{"diagonal", geometry.Point{X: 3, Y: 4}, geometry.Point{X: -7.5, Y: -10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := drag.Force(tt.velocity)
			if !got.Equal(tt.want) {
				t.Errorf("Force(%v) = %v, want %v", tt.velocity, got, tt.want)
			}
		})
	}
}

func TestDrone_DragSlowsMotion(t *testing.T) {
	plain := mustDrone(t, 0, 0)
	dragged := mustDrone(t, 0, 0)
	dragged.Drag = &DragModel{AirDensity: 1.2, Coefficient: 1, Area: 0.05}

	plain.Velocity = geometry.Point{X: 5}
	dragged.Velocity = geometry.Point{X: 5}
	plain.Update(nil, 0.1)
	dragged.Update(nil, 0.1)

	if dragged.Velocity.X >= plain.Velocity.X {
		t.Errorf("drag velocity %v should be below %v", dragged.Velocity.X, plain.Velocity.X)
	}
	if dragged.NetForce.X >= 0 {
		t.Errorf("drag force %v should oppose motion", dragged.NetForce.X)
	}
}

func TestDrone_Zone(t *testing.T) {
	d := mustDrone(t, 2, 3)
	zone := d.Zone()
	if zone.Center != d.Position || zone.Radius != d.Radius {
		t.Errorf("Zone() = %+v", zone)
	}
}
