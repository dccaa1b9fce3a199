// Package publisher emits audit events to a Store, synchronously or through
// a bounded buffer drained by a background goroutine.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "brokerdesk/pkg/platform/audit"
)

// ErrBufferFull is returned by Emit in async mode when the buffer is full.
var ErrBufferFull = errors.New("audit buffer full")

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	sampler *Sampler
	now     func() time.Time

	mu     sync.RWMutex
	buffer chan audit.Event
	closed bool
	done   chan struct{}
}

type Option func(*Publisher)

// WithAsyncBuffer makes Emit enqueue into a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = make(chan audit.Event, n)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// WithSampler samples operations events. Compliance and security events are
// always kept.
func WithSampler(s *Sampler) Option {
	return func(p *Publisher) { p.sampler = s }
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

// Emit records event. The category is derived from the action when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.Category == audit.CategoryOperations && p.sampler != nil && !p.sampler.ShouldSample(event.Action) {
		p.metrics.IncSampled()
		return nil
	}

	if p.buffer == nil {
		return p.persist(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrBufferFull
	}
	select {
	case p.buffer <- event:
		return nil
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.metrics.IncDropped()
	return ErrBufferFull
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncPersistFailures()
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit event not persisted",
				"action", event.Action,
				"quote_id", event.QuoteID,
				"error", err,
			)
		}
		return err
	}
	p.metrics.IncEmitted()
	return nil
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.buffer {
		_ = p.persist(context.Background(), event)
	}
}

// List returns the events recorded for a quote.
func (p *Publisher) List(ctx context.Context, quoteID string) ([]audit.Event, error) {
	return p.store.ListByQuote(ctx, quoteID)
}

// Close stops accepting events and, in async mode, waits until the buffer is
// drained.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.buffer != nil {
		close(p.buffer)
	}
	p.mu.Unlock()
	if p.done != nil {
		<-p.done
	}
}
