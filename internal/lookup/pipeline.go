package lookup

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"
)

// pipeline turns a stream of field values into at most one in-flight lookup.
// Values are debounced, values shorter than minLen resolve to the empty result
// without a call, identical consecutive values re-apply the previous result,
// and a newer value supersedes the in-flight one: its context is cancelled and
// its result is dropped.
type pipeline[T any] struct {
	name     string
	debounce time.Duration
	minLen   int
	parent   context.Context
	wg       *sync.WaitGroup
	resolve  func(ctx context.Context, q string) (T, error)
	apply    func(q string, v T)
	failed   func(q string, err error)
	metrics  metricsOrNil

	mu         sync.Mutex
	timer      *time.Timer
	pending    string
	last       string
	lastResult T
	hasResult  bool
	inFlight   bool
	generation uint64
	cancel     context.CancelFunc
	closed     bool
}

// Push schedules q after the debounce window, replacing any pending value.
func (p *pipeline[T]) Push(q string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.pending = q
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.debounce <= 0 {
		p.fireLocked()
		return
	}
	p.timer = time.AfterFunc(p.debounce, p.fire)
}

// Trigger resolves q immediately, bypassing the debounce.
func (p *pipeline[T]) Trigger(q string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.pending = q
	p.fireLocked()
}

// Cancel drops the pending value and the in-flight lookup. The pipeline
// stays usable.
func (p *pipeline[T]) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.hasResult = false
	p.last = ""
}

// Close cancels everything and ignores later input.
func (p *pipeline[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.stopLocked()
}

func (p *pipeline[T]) fire() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.timer = nil
	p.fireLocked()
}

func (p *pipeline[T]) fireLocked() {
	q := p.pending
	if utf8.RuneCountInString(q) < p.minLen {
		p.supersedeLocked()
		p.hasResult = false
		p.last = ""
		var empty T
		p.metrics.incrementLookup(p.name, "skipped")
		p.apply(q, empty)
		return
	}
	if p.hasResult && q == p.last && !p.inFlight {
		p.metrics.incrementLookup(p.name, "deduplicated")
		p.apply(q, p.lastResult)
		return
	}
	if p.inFlight && q == p.last {
		return
	}
	p.supersedeLocked()
	p.last = q
	p.hasResult = false
	p.inFlight = true

	ctx, cancel := context.WithCancel(p.parent)
	p.cancel = cancel
	gen := p.generation
	p.wg.Add(1)
	go p.run(ctx, gen, q)
}

func (p *pipeline[T]) run(ctx context.Context, gen uint64, q string) {
	defer p.wg.Done()
	v, err := p.resolve(ctx, q)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.generation {
		return
	}
	p.inFlight = false
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if err != nil {
		p.metrics.incrementLookup(p.name, "error")
		if p.failed != nil {
			p.failed(q, err)
		}
		p.last = ""
		var empty T
		p.apply(q, empty)
		return
	}
	p.metrics.incrementLookup(p.name, "ok")
	p.lastResult = v
	p.hasResult = true
	p.apply(q, v)
}

// supersedeLocked invalidates the in-flight lookup, if any.
func (p *pipeline[T]) supersedeLocked() {
	p.generation++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
		p.metrics.incrementSuperseded(p.name)
	}
	p.inFlight = false
}

func (p *pipeline[T]) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.supersedeLocked()
}

type metricsOrNil struct{ Metrics }

func (m metricsOrNil) incrementLookup(pipeline, result string) {
	if m.Metrics != nil {
		m.Metrics.IncrementLookup(pipeline, result)
	}
}

func (m metricsOrNil) incrementSuperseded(pipeline string) {
	if m.Metrics != nil {
		m.Metrics.IncrementSuperseded(pipeline)
	}
}
