// pkg/engine/runner.go
package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-leaksim/pkg/config"
	"github.com/opd-ai/go-leaksim/pkg/event"
	"github.com/opd-ai/go-leaksim/pkg/logging"
)

// Runner steps a World in real time
type Runner struct {
	world    *World
	interval time.Duration
	speed    float64
	maxStep  time.Duration
	logger   *logging.Logger

	lastTick atomic.Int64 // unix nanoseconds, 0 before the first tick
}

// NewRunner creates a runner that ticks world at cfg.TickRate, clamped to
// config.MaxTickRate
func NewRunner(world *World, cfg config.RunnerConfig, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	rate := cfg.TickRate
	if rate <= 0 {
		rate = 60
	}
	rate = min(rate, config.MaxTickRate)
	speed := cfg.Speed
	if speed <= 0 {
		speed = 1
	}
	return &Runner{
		world:    world,
		interval: time.Second / time.Duration(rate),
		speed:    speed,
		maxStep:  cfg.MaxStep,
		logger:   logger.WithComponent("runner"),
	}
}

// Run steps the world until ctx is cancelled. Each step covers the wall
// clock time since the previous one, capped at MaxStep and scaled by Speed.
// A cancelled context is a clean stop and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	bus := r.world.Bus()
	bus.Publish(event.NewSimulationEvent(event.SimulationStarted, r, r.world.Tick()))
	r.logger.Info(ctx, "Simulation started", "interval", r.interval, "speed", r.speed)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			tick := r.world.Tick()
			bus.Publish(event.NewSimulationEvent(event.SimulationStopped, r, tick))
			r.logger.Info(ctx, "Simulation stopped", "tick", tick)
			return nil
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			if r.maxStep > 0 && elapsed > r.maxStep {
				elapsed = r.maxStep
			}

			if err := r.world.Step(elapsed.Seconds() * r.speed); err != nil {
				r.logger.Error(ctx, "Simulation step failed", err)
				return fmt.Errorf("simulation step: %w", err)
			}
			r.lastTick.Store(now.UnixNano())
		}
	}
}

// LastTick returns the wall clock time of the latest completed step, or the
// zero time before the first one
func (r *Runner) LastTick() time.Time {
	ns := r.lastTick.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
