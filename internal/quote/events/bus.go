package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Bus fans events out to subscribed handlers. Each delivery runs on its own
// goroutine, so publishing never blocks on a slow side effect and a failing
// handler cannot affect the publisher or the other handlers.
type Bus struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	closed   bool
	wg       sync.WaitGroup
}

type Option func(*Bus)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) { b.logger = logger }
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{handlers: map[string]Handler{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h under name, replacing any handler with that name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = h
}

// PublishStatusChanged delivers e to every handler. The deliveries outlive
// ctx's cancellation but keep its values.
func (b *Bus) PublishStatusChanged(ctx context.Context, e StatusChanged) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.warn(ctx, "event dropped, bus closed", "", nil, e)
		return
	}
	ctx = context.WithoutCancel(ctx)
	for name, h := range b.handlers {
		b.wg.Add(1)
		go b.deliver(ctx, name, h, e)
	}
}

func (b *Bus) deliver(ctx context.Context, name string, h Handler, e StatusChanged) {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			b.warn(ctx, "event handler panicked", name, fmt.Errorf("panic: %v", r), e)
		}
	}()
	if err := h.HandleStatusChanged(ctx, e); err != nil {
		b.warn(ctx, "event handler failed", name, err, e)
	}
}

// Close stops accepting events and waits for in-flight deliveries.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bus) warn(ctx context.Context, msg, handler string, err error, e StatusChanged) {
	if b.logger == nil {
		return
	}
	b.logger.WarnContext(ctx, msg,
		"handler", handler,
		"quote_id", e.QuoteID.String(),
		"quote_type", string(e.QuoteType),
		"new_status", string(e.NewStatus),
		"error", err,
	)
}
