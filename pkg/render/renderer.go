// pkg/render/renderer.go
package render

import (
	"context"

	"github.com/opd-ai/go-leaksim/pkg/engine"
	"github.com/opd-ai/go-leaksim/pkg/logging"
)

// Renderer draws a simulation snapshot
type Renderer interface {
	Render(state engine.State) error
}

// NullRenderer is a Renderer that only logs what it was given.
type NullRenderer struct {
	logger *logging.Logger
}

// NewNullRenderer creates a new NullRenderer with structured logging.
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &NullRenderer{
		logger: logger.WithComponent("render"),
	}
}

// Render implements Renderer.
func (d *NullRenderer) Render(state engine.State) error {
	d.logger.Debug(context.Background(), "Render called",
		"tick", state.Tick,
		"walls", len(state.Walls),
		"pipes", len(state.Pipes),
		"leaks", len(state.Leaks),
		"particles", state.ParticleCount(),
		"drone_x", state.Drone.Position.X,
		"drone_y", state.Drone.Position.Y,
	)
	return nil
}
