package admission

import (
	"time"

	"github.com/google/uuid"
)

// EventType admission event type
type EventType string

const (
	// EventAdmitted request admitted
	EventAdmitted EventType = "admitted"

	// EventBlocked request rejected with 429
	EventBlocked EventType = "blocked"

	// EventThrottled request admitted with artificial delay
	EventThrottled EventType = "throttled"

	// EventStoreDegraded counter backend unreachable, guard failed open
	EventStoreDegraded EventType = "store_degraded"
)

// Event interface
type Event interface {
	ID() string
	Type() EventType
	Identity() string
	Endpoint() string
	Timestamp() time.Time
}

// BaseEvent carries the fields shared by all admission events.
type BaseEvent struct {
	id        string
	eventType EventType
	identity  string
	endpoint  string
	timestamp time.Time
}

// NewBaseEvent creates a base event with a fresh event id.
func NewBaseEvent(eventType EventType, identity, endpoint string) BaseEvent {
	return BaseEvent{
		id:        uuid.NewString(),
		eventType: eventType,
		identity:  identity,
		endpoint:  endpoint,
		timestamp: time.Now(),
	}
}

// ID returns the unique event id.
func (e *BaseEvent) ID() string {
	return e.id
}

// Type returns the event type.
func (e *BaseEvent) Type() EventType {
	return e.eventType
}

// Identity returns the caller identity.
func (e *BaseEvent) Identity() string {
	return e.identity
}

// Endpoint returns the endpoint pattern.
func (e *BaseEvent) Endpoint() string {
	return e.endpoint
}

// Timestamp returns the event time.
func (e *BaseEvent) Timestamp() time.Time {
	return e.timestamp
}

// AdmittedEvent request admitted
type AdmittedEvent struct {
	BaseEvent
	Remaining int64
	Warnings  []string
}

// BlockedEvent request rejected
type BlockedEvent struct {
	BaseEvent
	Reason     string
	RetryAfter time.Duration
	ResetAt    time.Time
}

// ThrottledEvent request delayed before forwarding
type ThrottledEvent struct {
	BaseEvent
	Delay time.Duration
}

// StoreDegradedEvent backend unreachable, request allowed fail-open
type StoreDegradedEvent struct {
	BaseEvent
	Err error
}

// EventListener event listener interface
type EventListener interface {
	OnEvent(event Event)
}

// EventListenerFunc adapts a function to EventListener.
type EventListenerFunc func(event Event)

// OnEvent implements EventListener.
func (f EventListenerFunc) OnEvent(event Event) {
	f(event)
}

// EventBus event bus interface
type EventBus interface {
	// Subscribe registers a listener for all events.
	Subscribe(listener EventListener)

	// Publish delivers an event without blocking the caller.
	Publish(event Event)

	// Close shuts the bus down and waits for the dispatcher.
	Close()
}
