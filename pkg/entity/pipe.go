// pkg/entity/pipe.go
package entity

import (
	"fmt"

	"github.com/opd-ai/go-leaksim/pkg/geometry"
	"github.com/opd-ai/go-leaksim/pkg/stochastic"
)

// Default pipe rupture properties
const (
	DefaultRuptureProbability = 0.999
	DefaultRuptureWindow      = 3600.0 // seconds the probability is defined over
)

// Pipe is a static segment that may rupture into a new leak on any tick.
// A pipe has no ruptured state; it may leak again later.
type Pipe struct {
	ID                 ID
	Segment            geometry.Vector
	RuptureProbability float64
	RuptureWindow      float64
	Precision          int
	Leak               LeakParams
}

// NewPipe creates a pipe with the default rupture and leak settings
func NewPipe(segment geometry.Vector) *Pipe {
	return &Pipe{
		ID:                 NewID(),
		Segment:            segment,
		RuptureProbability: DefaultRuptureProbability,
		RuptureWindow:      DefaultRuptureWindow,
		Precision:          stochastic.DefaultPrecision,
		Leak:               DefaultLeakParams(),
	}
}

// Update rolls once for a rupture over dt seconds. On success it returns a
// new leak at a uniformly random point along the pipe.
func (p *Pipe) Update(dt float64, roller *stochastic.Roller) (*Leak, error) {
	prob, err := stochastic.ScaleProbability(p.RuptureProbability, p.RuptureWindow, dt, p.Precision)
	if err != nil {
		return nil, fmt.Errorf("pipe %d: %w", p.ID, err)
	}

	ruptured, err := roller.Roll(prob)
	if err != nil {
		return nil, fmt.Errorf("pipe %d: %w", p.ID, err)
	}
	if !ruptured {
		return nil, nil
	}

	return NewLeak(p.Segment.PointAt(roller.Float64()), p.Leak), nil
}
