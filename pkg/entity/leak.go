// pkg/entity/leak.go
package entity

import (
	"fmt"
	"slices"

	"github.com/opd-ai/go-leaksim/pkg/geometry"
	"github.com/opd-ai/go-leaksim/pkg/stochastic"
	"github.com/opd-ai/go-leaksim/pkg/validation"
)

// Default leak emission properties
const (
	DefaultLeakFrequency   = 0.99  // chance of at least one particle per second
	DefaultSpeedMultiplier = 0.003 // maximum per-axis drift per tick
	DefaultParticleDeath   = 20.0  // seconds
	DefaultMaxSpawnPerTick = 1000
)

// LeakParams configures the particle emission of new leaks
type LeakParams struct {
	Frequency       float64
	SpeedMultiplier float64
	DeathAge        float64
	MaxSpawnPerTick int
	Precision       int
}

// DefaultLeakParams returns the standard emission settings
func DefaultLeakParams() LeakParams {
	return LeakParams{
		Frequency:       DefaultLeakFrequency,
		SpeedMultiplier: DefaultSpeedMultiplier,
		DeathAge:        DefaultParticleDeath,
		MaxSpawnPerTick: DefaultMaxSpawnPerTick,
		Precision:       stochastic.DefaultPrecision,
	}
}

// Validate checks the parameters before any leak is created
func (p LeakParams) Validate() error {
	if err := validation.Probability("leak.frequency", p.Frequency); err != nil {
		return err
	}
	if err := validation.NonNegative("leak.speed_multiplier", p.SpeedMultiplier); err != nil {
		return err
	}
	if err := validation.Positive("leak.death_age", p.DeathAge); err != nil {
		return err
	}
	return validation.PositiveInt("leak.max_spawn_per_tick", p.MaxSpawnPerTick)
}

// Particle is a drifting unit of gas. Velocity is fixed at spawn and is
// applied once per tick.
type Particle struct {
	Position geometry.Point `json:"position"`
	Velocity geometry.Point `json:"velocity"`
	Age      float64        `json:"age"` // seconds since spawn
}

// UpdateStats summarises what happened to a leak during one tick
type UpdateStats struct {
	Spawned    int
	Evicted    int
	Detections int
}

// DetectFunc is called each time a particle is found inside the detection zone
type DetectFunc func(l *Leak)

// Leak is a persistent point source of gas particles
type Leak struct {
	ID      ID
	Emitter geometry.Point
	Params  LeakParams

	particles []Particle
}

// NewLeak creates a leak emitting at emitter
func NewLeak(emitter geometry.Point, params LeakParams) *Leak {
	return &Leak{
		ID:      NewID(),
		Emitter: emitter,
		Params:  params,
	}
}

// Particles returns a copy of the live particles
func (l *Leak) Particles() []Particle {
	return slices.Clone(l.particles)
}

// ParticleCount returns the number of live particles
func (l *Leak) ParticleCount() int {
	return len(l.particles)
}

// Update spawns a burst of particles, checks every particle against the
// detection zone, advances particles and evicts the ones past DeathAge.
func (l *Leak) Update(dt float64, roller *stochastic.Roller, zone geometry.Circle, detect DetectFunc) (UpdateStats, error) {
	var stats UpdateStats

	spawned, err := l.spawn(dt, roller)
	if err != nil {
		return stats, err
	}
	stats.Spawned = spawned

	kept := l.particles[:0]
	for _, p := range l.particles {
		if zone.ContainsPoint(p.Position) {
			stats.Detections++
			if detect != nil {
				detect(l)
			}
		}

		p.Position = p.Position.Add(p.Velocity)
		p.Age += dt
		if p.Age > l.Params.DeathAge {
			stats.Evicted++
			continue
		}
		kept = append(kept, p)
	}
	clear(l.particles[len(kept):])
	l.particles = kept

	return stats, nil
}

// spawn keeps rolling while trials succeed; each success emits one particle
func (l *Leak) spawn(dt float64, roller *stochastic.Roller) (int, error) {
	prob, err := stochastic.ScaleProbability(l.Params.Frequency, 1, dt, l.Params.Precision)
	if err != nil {
		return 0, fmt.Errorf("leak %d: %w", l.ID, err)
	}

	spawned := 0
	for spawned < l.Params.MaxSpawnPerTick {
		ok, err := roller.Roll(prob)
		if err != nil {
			return spawned, fmt.Errorf("leak %d: %w", l.ID, err)
		}
		if !ok {
			break
		}
		l.particles = append(l.particles, l.newParticle(roller))
		spawned++
	}
	return spawned, nil
}

func (l *Leak) newParticle(roller *stochastic.Roller) Particle {
	mult := l.Params.SpeedMultiplier
	return Particle{
		Position: l.Emitter,
		Velocity: geometry.Point{
			X: roller.Float64() * mult * roller.Sign(),
			Y: roller.Float64() * mult * roller.Sign(),
		},
	}
}
