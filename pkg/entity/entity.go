// pkg/entity/entity.go
package entity

import (
	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-leaksim/pkg/geometry"
)

// ID is a unique identifier for an entity
type ID uint64

// NewID allocates a process-unique identifier
func NewID() ID {
	basic := ecs.NewBasic()
	return ID(basic.ID())
}

// Wall is a static, impassable segment
type Wall struct {
	ID      ID
	Segment geometry.Vector
}

// NewWall creates a wall along segment
func NewWall(segment geometry.Vector) Wall {
	return Wall{ID: NewID(), Segment: segment}
}
