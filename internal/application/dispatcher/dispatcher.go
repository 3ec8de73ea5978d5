package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/podhive/access-engine/internal/domain/event"
)

// Dispatcher routes events to registered handlers. Async dispatch goes
// through a bounded queue drained by a fixed worker pool: a committing
// workflow operation hands its events off and never waits on delivery.
type Dispatcher interface {
	// Subscribe registers a handler for an event type
	Subscribe(eventType event.Type, handler Handler)

	// SubscribeNamed registers a handler with a name for debugging
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// Dispatch sends event to all registered handlers synchronously.
	// Returns first error encountered (handlers run in order)
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync enqueues the event for the worker pool. When the queue
	// is full the event is dropped with an error log; the caller is never
	// blocked or failed.
	DispatchAsync(ctx context.Context, evt *event.Event)

	// Close stops accepting events and waits for queued ones to drain
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type task struct {
	ctx context.Context
	evt *event.Event
}

// eventDispatcher is the concrete implementation of Dispatcher
type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	logger   Logger

	queue   chan task
	workers int
	wg      sync.WaitGroup

	// closeMu serializes enqueue against Close so no send can race the
	// channel close
	closeMu sync.RWMutex
	closed  atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// WithQueueSize bounds the async queue
func WithQueueSize(size int) Option {
	return func(d *eventDispatcher) {
		if size > 0 {
			d.queue = make(chan task, size)
		}
	}
}

// WithWorkers sets the number of queue workers
func WithWorkers(n int) Option {
	return func(d *eventDispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// NewDispatcher creates a new event dispatcher and starts its worker pool
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]HandlerInfo),
		queue:    make(chan task, 256),
		workers:  4,
	}

	for _, opt := range opts {
		opt(d)
	}

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return d
}

// Subscribe registers a handler for an event type with an auto-generated name
func (d *eventDispatcher) Subscribe(eventType event.Type, handler Handler) {
	d.SubscribeNamed(eventType, "", handler)
}

// SubscribeNamed registers a handler with a specific name for debugging.
// An empty name gets an auto-generated one.
func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("handler-%d", len(d.handlers[eventType]))
	}

	d.handlers[eventType] = append(d.handlers[eventType], HandlerInfo{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})

	if d.logger != nil {
		d.logger.Info("Handler registered",
			"event_type", eventType,
			"handler_name", name,
		)
	}
}

// Dispatch sends event to all registered handlers synchronously
func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return fmt.Errorf("dispatcher is closed")
	}

	d.mu.RLock()
	handlers := d.handlers[evt.Type]
	d.mu.RUnlock()

	for _, info := range handlers {
		if err := d.safeExecute(ctx, evt, info); err != nil {
			if d.logger != nil {
				d.logger.Error("Handler error",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"handler_name", info.Name,
					"error", err,
				)
			}
			return fmt.Errorf("handler %s failed: %w", info.Name, err)
		}
	}

	return nil
}

// DispatchAsync enqueues the event for asynchronous delivery
func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()

	if d.closed.Load() {
		if d.logger != nil {
			d.logger.Error("Cannot dispatch async event, dispatcher is closed",
				"event_type", evt.Type,
				"event_id", evt.ID,
			)
		}
		return
	}

	// Delivery happens after the caller's transaction committed; it must not
	// be cut short when the originating request context is canceled.
	t := task{ctx: context.WithoutCancel(ctx), evt: evt}

	select {
	case d.queue <- t:
	default:
		if d.logger != nil {
			d.logger.Error("Async queue full, dropping event",
				"event_type", evt.Type,
				"event_id", evt.ID,
			)
		}
	}
}

// Close stops accepting events and waits for queued ones to drain
func (d *eventDispatcher) Close() error {
	d.closeMu.Lock()
	if !d.closed.CompareAndSwap(false, true) {
		d.closeMu.Unlock()
		return fmt.Errorf("dispatcher already closed")
	}
	close(d.queue)
	d.closeMu.Unlock()

	d.wg.Wait()

	if d.logger != nil {
		d.logger.Info("Dispatcher closed")
	}

	return nil
}

// worker drains the async queue
func (d *eventDispatcher) worker() {
	defer d.wg.Done()

	for t := range d.queue {
		d.mu.RLock()
		handlers := d.handlers[t.evt.Type]
		d.mu.RUnlock()

		for _, info := range handlers {
			if err := d.safeExecute(t.ctx, t.evt, info); err != nil {
				if d.logger != nil {
					d.logger.Error("Async handler error",
						"event_type", t.evt.Type,
						"event_id", t.evt.ID,
						"handler_name", info.Name,
						"error", err,
					)
				}
			}
		}
	}
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			if d.logger != nil {
				d.logger.Error("Handler panic recovered",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"handler_name", info.Name,
					"panic", r,
				)
			}
		}
	}()

	return info.Handler(ctx, evt)
}
