// pkg/engine/state.go
package engine

import (
	"math"

	"github.com/opd-ai/go-leaksim/pkg/entity"
	"github.com/opd-ai/go-leaksim/pkg/geometry"
)

// State represents a snapshot of the simulation
type State struct {
	Tick    uint64            `json:"tick"`
	Elapsed float64           `json:"elapsed"`
	Walls   []geometry.Vector `json:"walls"`
	Pipes   []geometry.Vector `json:"pipes"`
	Leaks   []LeakState       `json:"leaks"`
	Drone   DroneState        `json:"drone"`
}

// LeakState represents a snapshot of a leak and its particles
type LeakState struct {
	ID        entity.ID         `json:"id"`
	Emitter   geometry.Point    `json:"emitter"`
	Detected  bool              `json:"detected"`
	Particles []entity.Particle `json:"particles"`
}

// DroneState represents a snapshot of the drone
type DroneState struct {
	ID       entity.ID      `json:"id"`
	Position geometry.Point `json:"position"`
	Velocity geometry.Point `json:"velocity"`
	Radius   float64        `json:"radius"`
}

// ParticleCount returns the number of live particles across all leaks
func (s State) ParticleCount() int {
	n := 0
	for _, l := range s.Leaks {
		n += len(l.Particles)
	}
	return n
}

// Bounds returns the box covering every wall, pipe and the drone
func (s State) Bounds() geometry.Rectangle {
	minX, minY := s.Drone.Position.X, s.Drone.Position.Y
	maxX, maxY := minX, minY
	for _, segments := range [][]geometry.Vector{s.Walls, s.Pipes} {
		for _, v := range segments {
			for _, p := range []geometry.Point{v.Start, v.End} {
				minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
				minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
			}
		}
	}
	return geometry.Rectangle{Left: minX, Top: minY, Width: maxX - minX, Height: maxY - minY}
}

// Snapshot returns a deep copy of the current state
func (w *World) Snapshot() State {
	w.mu.RLock()
	defer w.mu.RUnlock()

	state := State{
		Tick:    w.tick,
		Elapsed: w.elapsed,
		Walls:   make([]geometry.Vector, len(w.walls)),
		Pipes:   make([]geometry.Vector, len(w.pipes)),
		Leaks:   make([]LeakState, len(w.leaks)),
		Drone: DroneState{
			ID:       w.drone.ID,
			Position: w.drone.Position,
			Velocity: w.drone.Velocity,
			Radius:   w.drone.Radius,
		},
	}
	for i, wall := range w.walls {
		state.Walls[i] = wall.Segment
	}
	for i, pipe := range w.pipes {
		state.Pipes[i] = pipe.Segment
	}
	for i, leak := range w.leaks {
		_, detected := w.notified[leak.ID]
		state.Leaks[i] = LeakState{
			ID:        leak.ID,
			Emitter:   leak.Emitter,
			Detected:  detected,
			Particles: leak.Particles(),
		}
	}
	return state
}

// ParticlesWithin returns the positions of every particle inside area,
// edges included
func (w *World) ParticlesWithin(area geometry.Rectangle) []geometry.Point {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.index.Query(area)
}

// rebuildIndex reinserts every particle into a fresh quadtree sized to the
// current particle cloud. Called with the write lock held.
func (w *World) rebuildIndex() {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	count := 0
	for _, leak := range w.leaks {
		for _, p := range leak.Particles() {
			minX, maxX = math.Min(minX, p.Position.X), math.Max(maxX, p.Position.X)
			minY, maxY = math.Min(minY, p.Position.Y), math.Max(maxY, p.Position.Y)
			count++
		}
	}
	if count == 0 {
		w.index = geometry.NewQuadTree[geometry.Point](geometry.Rectangle{}, 10)
		return
	}

	// Pad so the far edge is covered by the half-open bounds
	bounds := geometry.Rectangle{Left: minX, Top: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
	w.index = geometry.NewQuadTree[geometry.Point](bounds, 10)
	for _, leak := range w.leaks {
		for _, p := range leak.Particles() {
			w.index.Insert(p.Position, p.Position)
		}
	}
}
