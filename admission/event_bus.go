package admission

import (
	"sync"
)

// eventBus buffered async event bus. Publish never blocks request
// handling: when the buffer is full the event is dropped.
type eventBus struct {
	listeners []EventListener
	eventChan chan Event
	closed    bool
	mu        sync.RWMutex
	wg        sync.WaitGroup
}

// NewEventBus creates an event bus with the given buffer size.
func NewEventBus(bufferSize int) EventBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	bus := &eventBus{
		listeners: make([]EventListener, 0),
		eventChan: make(chan Event, bufferSize),
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

// Subscribe registers a listener.
func (b *eventBus) Subscribe(listener EventListener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.listeners = append(b.listeners, listener)
}

// Publish delivers an event, dropping it when the buffer is full.
func (b *eventBus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	select {
	case b.eventChan <- event:
	default:
		// buffer full, drop
	}
}

// Close shuts the bus down and waits for the dispatcher goroutine.
func (b *eventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.eventChan)
	b.mu.Unlock()

	b.wg.Wait()
}

// dispatch fans events out to all listeners. A panicking listener must not
// take down the dispatcher or the other listeners.
func (b *eventBus) dispatch() {
	defer b.wg.Done()

	for event := range b.eventChan {
		b.mu.RLock()
		listeners := make([]EventListener, len(b.listeners))
		copy(listeners, b.listeners)
		b.mu.RUnlock()

		for _, listener := range listeners {
			func() {
				defer func() {
					_ = recover()
				}()
				listener.OnEvent(event)
			}()
		}
	}
}
