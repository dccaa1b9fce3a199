package lookup

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"brokerdesk/internal/quote/editmodel"
	strs "brokerdesk/pkg/platform/strings"
)

const (
	DefaultDebounce        = 300 * time.Millisecond
	DefaultPostalMinLength = 4
	DefaultMakeMinLength   = 2

	pipelinePostal = "postal_code"
	pipelineMake   = "make"
	pipelineModel  = "model"
)

// Session binds the lookup pipelines to one edit model. It reacts to the
// model's postal-code and make changes and writes results back into the
// model. Close severs every pending and in-flight lookup.
type Session struct {
	model    *editmodel.Model
	resolver Resolver
	logger   *slog.Logger
	metrics  Metrics

	debounce        time.Duration
	postalMinLength int
	makeMinLength   int

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()

	mu     sync.Mutex
	postal map[editmodel.GroupKey]*pipeline[[]string]
	makes  *pipeline[[]Make]
	models *pipeline[[]Model]
	closed bool
}

type SessionOption func(*Session)

func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

func WithMetrics(m Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

func WithDebounce(d time.Duration) SessionOption {
	return func(s *Session) { s.debounce = d }
}

func WithPostalMinLength(n int) SessionOption {
	return func(s *Session) { s.postalMinLength = n }
}

func WithMakeMinLength(n int) SessionOption {
	return func(s *Session) { s.makeMinLength = n }
}

// NewSession subscribes to model and resolves the cities and models already
// present in it.
func NewSession(parent context.Context, model *editmodel.Model, resolver Resolver, opts ...SessionOption) *Session {
	s := &Session{
		model:           model,
		resolver:        resolver,
		debounce:        DefaultDebounce,
		postalMinLength: DefaultPostalMinLength,
		makeMinLength:   DefaultMakeMinLength,
		postal:          map[editmodel.GroupKey]*pipeline[[]string]{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(parent))
	s.makes = newPipeline(s, pipelineMake, s.debounce, s.makeMinLength, s.searchMakes, s.applyMakes)
	s.models = newPipeline(s, pipelineModel, 0, 1, s.searchModels, s.applyModels)
	s.unsubscribe = model.Subscribe(s.onChange)
	s.prime()
	return s
}

func newPipeline[T any](s *Session, name string, debounce time.Duration, minLen int,
	resolve func(context.Context, string) (T, error), apply func(string, T)) *pipeline[T] {
	return &pipeline[T]{
		name:     name,
		debounce: debounce,
		minLen:   minLen,
		parent:   s.ctx,
		wg:       &s.wg,
		resolve:  resolve,
		apply:    apply,
		failed:   s.logFailure(name),
		metrics:  metricsOrNil{s.metrics},
	}
}

// Close cancels every pipeline and detaches from the model. Results still in
// flight are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	pipes := make([]*pipeline[[]string], 0, len(s.postal))
	for _, p := range s.postal {
		pipes = append(pipes, p)
	}
	s.mu.Unlock()

	s.unsubscribe()
	for _, p := range pipes {
		p.Close()
	}
	s.makes.Close()
	s.models.Close()
	s.cancel()
}

// Wait blocks until no lookup is running. Debounced values not yet fired are
// not waited for.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) onChange(c editmodel.Change) {
	switch c.Kind {
	case editmodel.ChangePostalCode:
		if p := s.postalPipeline(c.Group); p != nil {
			p.Push(strings.TrimSpace(c.Value))
		}
	case editmodel.ChangeMakeText:
		s.models.Cancel()
		s.makes.Push(strings.TrimSpace(c.Value))
	case editmodel.ChangeMakeSelected:
		s.makes.Cancel()
		s.models.Trigger(c.Value)
	case editmodel.ChangeMakeCleared:
		s.makes.Cancel()
		s.models.Cancel()
	case editmodel.ChangeGroupRemoved:
		s.removeGroup(c.Group)
	case editmodel.ChangeReset:
		s.cancelAll()
		s.prime()
	}
}

// prime resolves what the model already holds, without debounce.
func (s *Session) prime() {
	for _, g := range s.model.AddressGroups() {
		if code := strings.TrimSpace(g.PostalCode()); code != "" {
			if p := s.postalPipeline(g.Key()); p != nil {
				p.Trigger(code)
			}
		}
	}
	if v, ok := s.model.Vehicle(); ok {
		if makeID := v.Vehicle().MakeID; makeID != "" {
			s.models.Trigger(makeID)
		}
	}
}

func (s *Session) postalPipeline(key editmodel.GroupKey) *pipeline[[]string] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if p, ok := s.postal[key]; ok {
		return p
	}
	p := newPipeline(s, pipelinePostal, s.debounce, s.postalMinLength,
		func(ctx context.Context, code string) ([]string, error) {
			cities, err := s.resolver.CitiesByPostalCode(ctx, code)
			return strs.DedupeAndTrim(cities), err
		},
		func(code string, cities []string) {
			if g, ok := s.model.AddressGroup(key); ok {
				g.ApplyCities(code, cities)
			}
		})
	s.postal[key] = p
	return p
}

// removeGroup drops lookups for a removed group. Insured keys are positional:
// every insured after the removed one moved down a slot, so their pipelines
// are dropped and restarted from the postal codes they now hold.
func (s *Session) removeGroup(key editmodel.GroupKey) {
	removed, insured := editmodel.InsuredIndex(key)
	shifted := func(k editmodel.GroupKey) bool {
		i, ok := editmodel.InsuredIndex(k)
		return insured && ok && i >= removed
	}

	s.mu.Lock()
	var pipes []*pipeline[[]string]
	for k, p := range s.postal {
		if k == key || shifted(k) {
			pipes = append(pipes, p)
			delete(s.postal, k)
		}
	}
	s.mu.Unlock()
	for _, p := range pipes {
		p.Close()
	}

	if !insured {
		return
	}
	for _, g := range s.model.AddressGroups() {
		if !shifted(g.Key()) {
			continue
		}
		if code := strings.TrimSpace(g.PostalCode()); code != "" {
			if p := s.postalPipeline(g.Key()); p != nil {
				p.Trigger(code)
			}
		}
	}
}

func (s *Session) cancelAll() {
	s.mu.Lock()
	pipes := make([]*pipeline[[]string], 0, len(s.postal))
	for _, p := range s.postal {
		pipes = append(pipes, p)
	}
	s.mu.Unlock()
	for _, p := range pipes {
		p.Cancel()
	}
	s.makes.Cancel()
	s.models.Cancel()
}

func (s *Session) searchMakes(ctx context.Context, prefix string) ([]Make, error) {
	return s.resolver.SearchMakes(ctx, prefix)
}

func (s *Session) applyMakes(query string, makes []Make) {
	v, ok := s.model.Vehicle()
	if !ok {
		return
	}
	opts := make([]editmodel.Option, 0, len(makes))
	for _, m := range makes {
		opts = append(opts, editmodel.Option{ID: m.ID, Label: m.Name})
	}
	v.ApplyMakeOptions(query, opts)
}

func (s *Session) searchModels(ctx context.Context, makeID string) ([]Model, error) {
	return s.resolver.SearchModels(ctx, makeID, "")
}

func (s *Session) applyModels(makeID string, models []Model) {
	v, ok := s.model.Vehicle()
	if !ok {
		return
	}
	opts := make([]editmodel.Option, 0, len(models))
	for _, m := range models {
		opts = append(opts, editmodel.Option{ID: m.ID, Label: m.Name})
	}
	v.ApplyModelOptions(makeID, opts)
}

func (s *Session) logFailure(name string) func(string, error) {
	return func(q string, err error) {
		if s.logger == nil {
			return
		}
		s.logger.WarnContext(s.ctx, "lookup failed, degrading to empty result",
			"pipeline", name,
			"query", q,
			"error", err,
		)
	}
}
