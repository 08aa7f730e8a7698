// Package perception provides sensors that feed belief updates into agents.
package perception

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Harshitk-cp/bdicore/internal/domain"
)

const DefaultBufferCapacity = 1024

var ErrBufferFull = errors.New("percept buffer full")

// Buffer queues percepts pushed from outside the tick loop (the HTTP API) until the
// next tick drains them. It is safe for concurrent use.
type Buffer struct {
	mu       sync.Mutex
	pending  []domain.BeliefUpdate
	capacity int
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &Buffer{capacity: capacity}
}

// Push validates and queues updates. Either all of them are queued or none is.
func (b *Buffer) Push(updates ...domain.BeliefUpdate) error {
	for i, u := range updates {
		if err := u.Validate(); err != nil {
			return fmt.Errorf("percept %d: %w", i, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending)+len(updates) > b.capacity {
		return fmt.Errorf("%w: %d pending, capacity %d", ErrBufferFull, len(b.pending), b.capacity)
	}
	b.pending = append(b.pending, updates...)
	return nil
}

// Sense drains every queued percept in arrival order.
func (b *Buffer) Sense(ctx context.Context) ([]domain.BeliefUpdate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out, nil
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
