// Package service orchestrates quote edit sessions: it opens a quote from the
// backend into an edit model and runs each save through validation and a
// single atomic update call.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"brokerdesk/internal/lookup"
	"brokerdesk/internal/notification"
	"brokerdesk/internal/quote/editmodel"
	"brokerdesk/internal/quote/metrics"
	"brokerdesk/internal/quote/normalizer"
	"brokerdesk/internal/quote/ports"
	id "brokerdesk/pkg/domain"
	dErrors "brokerdesk/pkg/domain-errors"
	"brokerdesk/pkg/platform/audit"
	"brokerdesk/pkg/platform/sentinel"
	"brokerdesk/pkg/requestcontext"
)

const tracerName = "brokerdesk/internal/quote/service"

type Service struct {
	gateway ports.QuoteGateway
	auditor ports.AuditPort
	events  ports.EventPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	resolver         lookup.Resolver
	lookupOpts       []lookup.SessionOption
	notificationOpts []notification.Option
	modelOpts        []editmodel.ModelOption
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditor(a ports.AuditPort) Option {
	return func(s *Service) { s.auditor = a }
}

// WithEvents publishes QuoteStatusChanged after successful saves.
func WithEvents(p ports.EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithLookups attaches a lookup session to every opened quote.
func WithLookups(resolver lookup.Resolver, opts ...lookup.SessionOption) Option {
	return func(s *Service) {
		s.resolver = resolver
		s.lookupOpts = opts
	}
}

// OpenOption tunes a single Open call.
type OpenOption func(*openConfig)

type openConfig struct {
	lookups bool
}

// WithoutLookups opens a session with no lookup pipelines, for callers that
// never edit interactively such as one-shot HTTP requests.
func WithoutLookups() OpenOption {
	return func(c *openConfig) { c.lookups = false }
}

func WithNotificationOptions(opts ...notification.Option) Option {
	return func(s *Service) { s.notificationOpts = opts }
}

func WithModelOptions(opts ...editmodel.ModelOption) Option {
	return func(s *Service) { s.modelOpts = opts }
}

func New(gateway ports.QuoteGateway, opts ...Option) (*Service, error) {
	if gateway == nil {
		return nil, errors.New("quote gateway is required")
	}
	s := &Service{gateway: gateway}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s, nil
}

// Open fetches a quote and starts an edit session on it.
//
// Errors: CodeBadRequest for an unsupported type or a malformed record,
// CodeNotFound when the quote does not exist, CodeUnavailable wrapping a
// TransportError when the backend cannot be reached.
func (s *Service) Open(ctx context.Context, quoteType id.QuoteType, quoteID id.QuoteID, opts ...OpenOption) (*Session, error) {
	cfg := openConfig{lookups: s.resolver != nil}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, span := s.tracer.Start(ctx, "quote.Open", trace.WithAttributes(
		attribute.String("quote.type", quoteType.String()),
		attribute.String("quote.id", quoteID.String()),
	))
	defer span.End()

	if !quoteType.IsValid() {
		s.metrics.IncrementOpen(quoteType.String(), "unsupported")
		return nil, dErrors.Wrap(normalizer.ErrUnsupportedQuoteType, dErrors.CodeBadRequest, "unsupported quote type")
	}

	raw, err := s.gateway.FetchQuote(ctx, quoteType, quoteID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementOpen(quoteType.String(), "not_found")
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "quote not found")
		}
		s.metrics.IncrementOpen(quoteType.String(), "error")
		return nil, dErrors.Wrap(&TransportError{Err: err}, dErrors.CodeUnavailable, "quote backend unavailable")
	}

	q, err := normalizer.Normalize(quoteType, raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "normalize failed")
		s.metrics.IncrementOpen(quoteType.String(), "malformed")
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "quote record cannot be edited")
	}

	sess := &Session{
		svc:       s,
		quoteType: quoteType,
		quoteID:   q.Head().ID,
		model:     editmodel.New(q, s.modelOpts...),
		notes:     notification.New(s.notificationOpts...),
	}
	if cfg.lookups {
		sess.lookups = lookup.NewSession(ctx, sess.model, s.resolver, s.lookupOpts...)
	}

	s.metrics.IncrementOpen(quoteType.String(), "ok")
	s.emitAudit(ctx, audit.Event{
		QuoteID:   sess.quoteID.String(),
		QuoteType: quoteType.String(),
		Action:    string(audit.EventQuoteOpened),
	})
	return sess, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.OperatorID = operatorID(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", event.Action,
			"quote_id", event.QuoteID,
			"error", err,
		)
	}
}

func operatorID(ctx context.Context) string {
	if op := requestcontext.OperatorID(ctx); !op.IsNil() {
		return op.String()
	}
	return ""
}

func (s *Service) observeSave(quoteType id.QuoteType, started time.Time) {
	s.metrics.ObserveSaveLatency(quoteType.String(), time.Since(started))
}
