package events

import (
	"context"
	"sync"
)

// MemoryPublisher keeps events in a bounded ring, mainly for tests and
// local development.
type MemoryPublisher struct {
	mu       sync.Mutex
	events   []Event
	capacity int
	closed   bool
}

// NewMemory creates a publisher retaining up to capacity events.
func NewMemory(capacity int) *MemoryPublisher {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryPublisher{capacity: capacity}
}

// Publish appends the event, evicting the oldest past capacity.
func (m *MemoryPublisher) Publish(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.events = append(m.events, event)
	if len(m.events) > m.capacity {
		m.events = m.events[len(m.events)-m.capacity:]
	}
	return nil
}

// Events returns a snapshot of the retained events.
func (m *MemoryPublisher) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Close stops accepting events.
func (m *MemoryPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
