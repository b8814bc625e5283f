// Package event provides a small synchronous/async event dispatcher.
//
//	bus := event.New()
//	bus.Listen("product.deleted", func(ctx context.Context, payload interface{}) { ... })
//	bus.FireAsync(ctx, "product.deleted", paths) // after commit
//	bus.Fire(ctx, "product.deleted", paths)      // before returning
//	bus.Wait() // on shutdown, drain async listeners
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload interface{})

// Bus dispatches named events to registered handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	inflight sync.WaitGroup
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers a handler for the given event name.
func (b *Bus) Listen(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

func (b *Bus) snapshot(event string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler, len(b.handlers[event]))
	copy(hs, b.handlers[event])
	return hs
}

// Fire dispatches an event synchronously to all registered listeners.
func (b *Bus) Fire(ctx context.Context, event string, payload interface{}) {
	for _, h := range b.snapshot(event) {
		run(ctx, event, h, payload)
	}
}

// FireAsync dispatches the event to all listeners concurrently and returns
// immediately. Listeners get a context detached from ctx's cancellation, so
// they survive the request that fired them.
func (b *Bus) FireAsync(ctx context.Context, event string, payload interface{}) {
	detached := context.WithoutCancel(ctx)
	for _, h := range b.snapshot(event) {
		b.inflight.Add(1)
		go func(h Handler) {
			defer b.inflight.Done()
			run(detached, event, h, payload)
		}(h)
	}
}

// Wait blocks until every FireAsync listener has returned.
func (b *Bus) Wait() { b.inflight.Wait() }

// run keeps one panicking listener from taking the others down.
func run(ctx context.Context, event string, h Handler, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event listener panicked", "event", event, "error", fmt.Sprint(r))
		}
	}()
	h(ctx, payload)
}
