package events

import (
	"context"
	"sync"
)

// EventHandler handles a published event. Errors are absorbed by the
// dispatcher; a failing handler never reaches the publisher.
type EventHandler func(context.Context, Event) error

// Dispatcher decouples ticket mutations from notification delivery.
// Publish enqueues and returns immediately; a worker goroutine drains the
// queue and fans events out to subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
	Close()
}

// DropFunc is invoked when an event is discarded because the queue is full.
type DropFunc func(Event)

type queueDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	queue     chan Event
	onDrop    DropFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueueDispatcher creates a dispatcher with a bounded outbound queue and
// starts its drain worker. onDrop may be nil.
func NewQueueDispatcher(queueSize int, onDrop DropFunc) Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &queueDispatcher{
		listeners: make(map[EventType][]EventHandler),
		queue:     make(chan Event, queueSize),
		onDrop:    onDrop,
		done:      make(chan struct{}),
	}
	go d.drain()
	return d
}

// Publish enqueues the event without blocking. A saturated queue drops the
// event rather than delaying the ticket mutation that produced it.
func (d *queueDispatcher) Publish(_ context.Context, event Event) error {
	select {
	case d.queue <- event:
	default:
		if d.onDrop != nil {
			d.onDrop(event)
		}
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *queueDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Close stops accepting events and waits for the queue to drain.
func (d *queueDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *queueDispatcher) drain() {
	defer close(d.done)
	for event := range d.queue {
		d.mu.RLock()
		handlers := append([]EventHandler{}, d.listeners[event.Type]...)
		d.mu.RUnlock()

		for _, handler := range handlers {
			// handler failures must never propagate to publishers
			_ = handler(context.Background(), event)
		}
	}
}
