package event

import (
	"context"
	"errors"

	"github.com/viant/agentspace/internal/log"
)

// Listener drains a publisher on a background goroutine, invoking the
// handler for every event.
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	cancel    context.CancelFunc
}

// NewListener wires a handler to a publisher; call Start to begin delivery.
func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	return &Listener[T]{publisher: publisher, handler: handler}
}

// Start begins event delivery until Stop is called.
func (l *Listener[T]) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	go func() {
		for {
			event, err := l.publisher.Consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				log.GetLogger().Warnf("event listener: %v", err)
				continue
			}
			l.handler(event)
		}
	}()
}

// Stop terminates delivery.
func (l *Listener[T]) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
}
