// Package services provides technical collaborators of the business flows such as change event transport
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/amirphl/Kusanagi/models"
)

var (
	ErrEventBusClosed = errors.New("event bus closed")
	ErrEventBusFull   = errors.New("event bus queue is full")
)

// EventPublisher publishes committed change events
type EventPublisher interface {
	Publish(ctx context.Context, event models.ChangeEvent) error
}

// EventHandler processes one change event
type EventHandler func(ctx context.Context, event models.ChangeEvent) error

// EventBus carries change events from mutations to the cascade worker
type EventBus interface {
	EventPublisher
	// Consume blocks, delivering events to handler until ctx is done or the bus is closed
	Consume(ctx context.Context, handler EventHandler) error
	Close() error
}

// MemoryEventBus is an in-process bus backed by a buffered channel.
// Publish waits for room in the queue until ctx is done or the bus closes,
// so a committed change is never dropped while the caller is still waiting.
type MemoryEventBus struct {
	queue     chan models.ChangeEvent
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewMemoryEventBus creates an in-process bus holding up to size pending events
func NewMemoryEventBus(size int) *MemoryEventBus {
	if size <= 0 {
		size = 1
	}
	return &MemoryEventBus{
		queue: make(chan models.ChangeEvent, size),
		done:  make(chan struct{}),
	}
}

// Publish enqueues event. When ctx ends while the queue is still full the
// error wraps both ErrEventBusFull and the context error.
func (b *MemoryEventBus) Publish(ctx context.Context, event models.ChangeEvent) error {
	if !event.Kind.Valid() {
		return fmt.Errorf("invalid change kind %q", event.Kind)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrEventBusClosed
	}

	select {
	case b.queue <- event:
		return nil
	default:
	}

	select {
	case b.queue <- event:
		return nil
	case <-b.done:
		return ErrEventBusClosed
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrEventBusFull, ctx.Err())
	}
}

func (b *MemoryEventBus) Consume(ctx context.Context, handler EventHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-b.queue:
			if !ok {
				return ErrEventBusClosed
			}
			if err := handler(ctx, ev); err != nil {
				log.Printf("event bus: handler failed for %s (%s): %v", ev.Key(), ev.ID, err)
			}
		}
	}
}

// Pending returns the number of queued events
func (b *MemoryEventBus) Pending() int {
	return len(b.queue)
}

func (b *MemoryEventBus) Close() error {
	// release publishers blocked on a full queue before taking the write lock
	b.closeOnce.Do(func() { close(b.done) })

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.queue)
	return nil
}

// NoopEventPublisher drops every event
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(ctx context.Context, event models.ChangeEvent) error {
	return nil
}
