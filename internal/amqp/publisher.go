package amqp

import (
	"context"
	"sync"
)

// Publisher emits domain events. Implementations may fail; callers treat
// publication as best-effort.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Event
	// Err, when set, is returned from Publish and nothing is recorded.
	Err error
}

func (p *RecordingPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, e)
	return nil
}

// Events returns a copy of what has been published so far.
func (p *RecordingPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Types returns the type of every recorded event in order.
func (p *RecordingPublisher) Types() []EventType {
	events := p.Events()
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
