// eventsink.go provides an in-memory implementation of EventSink.
//
// This adapter stores all published events in memory for testing purposes.
// It provides helper methods for inspecting events during tests:
//   - GetEvents(): Returns all published events
//   - GetOrderPlacedEvents(): Type-specific event retrieval
//   - SetOnPublish(): Register callback for event assertions
//   - SetPublishError(): Force publish failures
//
// All operations are thread-safe. For production, use the SNS adapter.
package memory

import (
	"context"
	"sync"

	"github.com/freshmart/orderflow/internal/ports/outbound"
)

// Compile-time check that EventSink implements outbound.EventSink
var _ outbound.EventSink = (*EventSink)(nil)

// EventSink is an in-memory implementation of the EventSink port for testing.
// It stores all published events for later inspection.
type EventSink struct {
	mu     sync.RWMutex
	events []outbound.Event
	closed bool

	// Callback for test assertions
	onPublish func(outbound.Event)

	// Forced publish failure for tests
	publishErr error
}

// NewEventSink creates a new in-memory event sink for testing.
func NewEventSink() *EventSink {
	return &EventSink{
		events: make([]outbound.Event, 0),
	}
}

// Publish stores the event in memory.
func (s *EventSink) Publish(ctx context.Context, event outbound.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if s.publishErr != nil {
		return s.publishErr
	}

	s.events = append(s.events, event)

	if s.onPublish != nil {
		s.onPublish(event)
	}

	return nil
}

// Close marks the sink as closed.
func (s *EventSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// GetEvents returns all published events.
func (s *EventSink) GetEvents() []outbound.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]outbound.Event, len(s.events))
	copy(result, s.events)
	return result
}

// GetOrderPlacedEvents returns all order-placed events.
func (s *EventSink) GetOrderPlacedEvents() []outbound.OrderPlacedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]outbound.OrderPlacedEvent, 0)
	for _, e := range s.events {
		if oe, ok := e.(outbound.OrderPlacedEvent); ok {
			result = append(result, oe)
		}
	}
	return result
}

// SetOnPublish registers a callback invoked for every published event.
func (s *EventSink) SetOnPublish(fn func(outbound.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPublish = fn
}

// SetPublishError forces Publish to return err. Pass nil to clear.
func (s *EventSink) SetPublishError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishErr = err
}
