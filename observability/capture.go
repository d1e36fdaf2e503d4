package observability

import (
	"context"
	"sync"
)

// CaptureObserver keeps every event in memory. It is meant for tests and
// diagnostics.
type CaptureObserver struct {
	events []Event
	mu     sync.Mutex
}

func NewCaptureObserver() *CaptureObserver {
	return &CaptureObserver{}
}

func (c *CaptureObserver) OnEvent(_ context.Context, event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns a copy of the captured events in arrival order.
func (c *CaptureObserver) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// OfType returns the captured events with the given type.
func (c *CaptureObserver) OfType(eventType EventType) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	var matched []Event
	for _, e := range c.events {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}
