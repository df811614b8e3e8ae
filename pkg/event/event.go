// pkg/event/event.go
package event

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/opd-ai/go-leaksim/pkg/geometry"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	LeakCreated       Type = "leak_created"
	LeakDetected      Type = "leak_detected"
	DroneCollision    Type = "drone_collision"
	SimulationStarted Type = "simulation_started"
	SimulationStopped Type = "simulation_stopped"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events. Handlers run on the
// publisher's goroutine and must not block.
type Handler func(Event)

// Subscription identifies a registered handler
type Subscription struct {
	ID     string
	Type   Type
	Cancel func()
}

type registration struct {
	id      string
	handler Handler
}

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]registration
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registration),
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	id := uuid.NewString()

	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], registration{id: id, handler: handler})
	b.mu.Unlock()

	return &Subscription{
		ID:     id,
		Type:   eventType,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

// Unsubscribe removes the handler registered by sub
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.unsubscribe(sub.Type, sub.ID)
}

func (b *Bus) unsubscribe(eventType Type, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[eventType]
	i := slices.IndexFunc(regs, func(r registration) bool { return r.id == id })
	if i < 0 {
		return
	}
	// Clone so an in-flight Publish keeps iterating its own copy
	regs = slices.Delete(slices.Clone(regs), i, i+1)
	if len(regs) == 0 {
		delete(b.handlers, eventType)
		return
	}
	b.handlers[eventType] = regs
}

// Subscribers returns the number of handlers registered for eventType
func (b *Bus) Subscribers(eventType Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	regs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, r := range regs {
		r.handler(event)
	}
}

// Specific event implementations

// LeakEvent carries a leak and the location of its emitter
type LeakEvent struct {
	BaseEvent
	LeakID   uint64
	Location geometry.Point
}

// NewLeakEvent creates a new leak event
func NewLeakEvent(eventType Type, source interface{}, leakID uint64, location geometry.Point) *LeakEvent {
	return &LeakEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		LeakID:   leakID,
		Location: location,
	}
}

// CollisionEvent reports a drone blocked by a wall
type CollisionEvent struct {
	BaseEvent
	DroneID uint64
	WallID  uint64
	Point   geometry.Point
}

// NewCollisionEvent creates a new collision event
func NewCollisionEvent(source interface{}, droneID, wallID uint64, point geometry.Point) *CollisionEvent {
	return &CollisionEvent{
		BaseEvent: BaseEvent{
			EventType: DroneCollision,
			Source:    source,
		},
		DroneID: droneID,
		WallID:  wallID,
		Point:   point,
	}
}

// SimulationEvent marks the start or end of a run
type SimulationEvent struct {
	BaseEvent
	Tick uint64
}

// NewSimulationEvent creates a new simulation lifecycle event
func NewSimulationEvent(eventType Type, source interface{}, tick uint64) *SimulationEvent {
	return &SimulationEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Tick: tick,
	}
}
