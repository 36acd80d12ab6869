package events

import (
	"context"
	"sync"

	"konsulin-wallet-service/internal/app/models"
)

// MemoryPublisher records published events in order.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []models.Event
	Err    error
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(ctx context.Context, events ...models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *MemoryPublisher) Events() []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Event(nil), p.events...)
}

// RoutingKeys lists "<entity>.<state>" for every recorded event.
func (p *MemoryPublisher) RoutingKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for i := range p.events {
		keys = append(keys, p.events[i].RoutingKey())
	}
	return keys
}

func (p *MemoryPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
