// pkg/engine/world.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/opd-ai/go-leaksim/pkg/config"
	"github.com/opd-ai/go-leaksim/pkg/entity"
	"github.com/opd-ai/go-leaksim/pkg/event"
	"github.com/opd-ai/go-leaksim/pkg/geometry"
	"github.com/opd-ai/go-leaksim/pkg/logging"
	"github.com/opd-ai/go-leaksim/pkg/stochastic"
	"github.com/opd-ai/go-leaksim/pkg/validation"
)

var (
	// ErrInvalidStep is returned for a negative or non-finite time step
	ErrInvalidStep = errors.New("engine: time step must be finite and not negative")
	// ErrInvalidForce is returned for a non-finite force component
	ErrInvalidForce = errors.New("engine: force must be finite")
)

// World owns the simulation state: walls, pipes, leaks and the drone
type World struct {
	mu sync.RWMutex

	walls []entity.Wall
	pipes []*entity.Pipe
	leaks []*entity.Leak
	drone *entity.Drone

	roller *stochastic.Roller
	bus    *event.Bus
	logger *logging.Logger

	notified map[entity.ID]struct{}
	index    *geometry.QuadTree[geometry.Point]
	tick     uint64
	elapsed  float64
}

// Option configures a World
type Option func(*World)

// WithRoller replaces the seeded roller built from the configuration
func WithRoller(r *stochastic.Roller) Option {
	return func(w *World) { w.roller = r }
}

// WithEventBus publishes world events on bus
func WithEventBus(bus *event.Bus) Option {
	return func(w *World) { w.bus = bus }
}

// WithLogger sets the world logger
func WithLogger(l *logging.Logger) Option {
	return func(w *World) { w.logger = l.WithComponent("world") }
}

// NewWorld validates cfg and scn and builds the initial state
func NewWorld(cfg *config.SimConfig, scn *config.Scenario, opts ...Option) (*World, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if scn == nil {
		return nil, fmt.Errorf("%w: nil scenario", config.ErrInvalidScenario)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := scn.Validate(); err != nil {
		return nil, err
	}

	drone, err := newDrone(cfg, scn.DroneStart.Point())
	if err != nil {
		return nil, err
	}

	w := &World{
		drone:    drone,
		bus:      event.NewEventBus(),
		logger:   logging.Discard(),
		notified: make(map[entity.ID]struct{}),
	}
	for _, seg := range scn.WallVectors() {
		w.walls = append(w.walls, entity.NewWall(seg))
	}
	for _, seg := range scn.PipeVectors() {
		w.pipes = append(w.pipes, newPipe(cfg, seg))
	}

	for _, opt := range opts {
		opt(w)
	}
	if w.roller == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		w.roller = stochastic.NewRoller(seed)
	}
	w.rebuildIndex()

	return w, nil
}

func newDrone(cfg *config.SimConfig, start geometry.Point) (*entity.Drone, error) {
	drone, err := entity.NewDrone(start, cfg.Drone.Radius, cfg.Drone.Mass)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	drone.AirMultiplier = cfg.Drone.AirMultiplier
	if cfg.Drone.Drag.Enabled {
		drone.Drag = &entity.DragModel{
			AirDensity:  cfg.Drone.Drag.AirDensity,
			Coefficient: cfg.Drone.Drag.Coefficient,
			Area:        cfg.Drone.Drag.Area,
		}
	}
	return drone, nil
}

func newPipe(cfg *config.SimConfig, seg geometry.Vector) *entity.Pipe {
	pipe := entity.NewPipe(seg)
	pipe.RuptureProbability = cfg.Pipe.RuptureProbability
	pipe.RuptureWindow = cfg.Pipe.RuptureWindow
	pipe.Precision = cfg.Precision
	pipe.Leak = entity.LeakParams{
		Frequency:       cfg.Leak.Frequency,
		SpeedMultiplier: cfg.Leak.SpeedMultiplier,
		DeathAge:        cfg.Leak.DeathAge,
		MaxSpawnPerTick: cfg.Leak.MaxSpawnPerTick,
		Precision:       cfg.Precision,
	}
	return pipe
}

// Bus returns the bus world events are published on
func (w *World) Bus() *event.Bus {
	return w.bus
}

// ApplyForce queues a force on the drone for the next tick
func (w *World) ApplyForce(x, y float64) error {
	if err := validation.FinitePair("force", x, y); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidForce, err)
	}

	w.mu.Lock()
	w.drone.ApplyForce(x, y)
	w.mu.Unlock()
	return nil
}

// Step advances the simulation by dt seconds: the drone moves, every pipe
// may rupture, then every leak (including new ones) emits and is checked
// against the drone's detection zone. Events are published after the state
// lock is released.
func (w *World) Step(dt float64) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidStep, dt)
	}

	w.mu.Lock()
	pending, err := w.step(dt)
	w.mu.Unlock()

	for _, e := range pending {
		w.bus.Publish(e)
	}
	return err
}

func (w *World) step(dt float64) ([]event.Event, error) {
	var pending []event.Event
	ctx := context.Background()

	if c := w.drone.Update(w.walls, dt); c != nil {
		pending = append(pending, event.NewCollisionEvent(w, uint64(w.drone.ID), uint64(c.Wall.ID), c.Point))
		w.logger.Debug(ctx, "Drone blocked by wall",
			"tick", w.tick,
			"wall_index", c.Index,
			"x", c.Point.X,
			"y", c.Point.Y,
		)
	}

	for _, pipe := range w.pipes {
		leak, err := pipe.Update(dt, w.roller)
		if err != nil {
			return pending, logging.WrapError(err, "tick %d", w.tick)
		}
		if leak == nil {
			continue
		}
		w.leaks = append(w.leaks, leak)
		pending = append(pending, event.NewLeakEvent(event.LeakCreated, w, uint64(leak.ID), leak.Emitter))
		w.logger.Info(ctx, "Pipe ruptured",
			"tick", w.tick,
			"pipe_id", uint64(pipe.ID),
			"leak_id", uint64(leak.ID),
			"x", leak.Emitter.X,
			"y", leak.Emitter.Y,
		)
	}

	detect := func(l *entity.Leak) {
		if _, done := w.notified[l.ID]; done {
			return
		}
		w.notified[l.ID] = struct{}{}
		pending = append(pending, event.NewLeakEvent(event.LeakDetected, w, uint64(l.ID), l.Emitter))
		w.logger.Info(ctx, "Leak detected",
			"tick", w.tick,
			"leak_id", uint64(l.ID),
			"x", l.Emitter.X,
			"y", l.Emitter.Y,
		)
	}

	zone := w.drone.Zone()
	var total entity.UpdateStats
	for _, leak := range w.leaks {
		stats, err := leak.Update(dt, w.roller, zone, detect)
		if err != nil {
			return pending, logging.WrapError(err, "tick %d", w.tick)
		}
		total.Spawned += stats.Spawned
		total.Evicted += stats.Evicted
		total.Detections += stats.Detections
	}

	w.rebuildIndex()
	w.tick++
	w.elapsed += dt

	w.logger.Debug(ctx, "Tick complete",
		"tick", w.tick,
		"dt", dt,
		"leaks", len(w.leaks),
		"spawned", total.Spawned,
		"evicted", total.Evicted,
		"detections", total.Detections,
	)
	return pending, nil
}

// Tick returns the number of completed steps
func (w *World) Tick() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tick
}

// Detected reports whether the leak has already been reported
func (w *World) Detected(id entity.ID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.notified[id]
	return ok
}
