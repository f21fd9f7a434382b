package event

import (
	"context"
	"time"

	"github.com/viant/agentspace/service/messaging"
	"github.com/viant/agentspace/service/messaging/memory"
)

// Publisher fans events out over a messaging queue. A nil publisher drops
// events, so wiring one in is optional.
type Publisher[T any] struct {
	queue messaging.Queue[Event[T]]
}

// NewPublisher creates a publisher over the supplied queue.
func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{queue: queue}
}

// NewMemoryPublisher creates a publisher backed by an in-memory queue.
func NewMemoryPublisher[T any]() *Publisher[T] {
	return NewPublisher[T](memory.NewQueue[Event[T]](memory.DefaultConfig()))
}

// Publish stamps and enqueues the event.
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	if p == nil || p.queue == nil {
		return nil
	}
	event.CreatedAt = time.Now()
	return p.queue.Publish(ctx, event)
}

// Consume blocks until the next event or context cancellation.
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
