package events

import (
	"context"
	"encoding/json"
	"sync"

	sharedBus "github.com/davicafu/crudlab/internal/shared/infra/platform/bus"
)

// InMemoryBus fans events out to in-process subscribers. It backs the
// facades when no broker is configured: publishes never fail, and a
// subscriber that cannot keep up simply misses events.
type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers []chan []byte
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{}
}

func (b *InMemoryBus) Publish(_ context.Context, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers {
		select {
		case sub <- payload:
		default: // slow subscriber, drop
		}
	}
	return nil
}

// Subscribe registers a listener with the given channel buffer.
func (b *InMemoryBus) Subscribe(bufferSize int) <-chan []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(chan []byte, bufferSize)
	b.subscribers = append(b.subscribers, sub)
	return sub
}

// Static check
var _ sharedBus.EventBus = (*InMemoryBus)(nil)
