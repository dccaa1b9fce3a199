package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"brokerdesk/internal/lookup"
	"brokerdesk/internal/notification"
	"brokerdesk/internal/quote/editmodel"
	"brokerdesk/internal/quote/events"
	"brokerdesk/internal/quote/models"
	"brokerdesk/internal/quote/normalizer"
	"brokerdesk/internal/quote/payload"
	id "brokerdesk/pkg/domain"
	dErrors "brokerdesk/pkg/domain-errors"
	"brokerdesk/pkg/platform/audit"
	"brokerdesk/pkg/requestcontext"
)

// Session is one operator's edit of one quote. Saves on a session are
// serialized; Close severs pending lookups and hides the notification.
type Session struct {
	svc       *Service
	quoteType id.QuoteType
	quoteID   id.QuoteID
	model     *editmodel.Model
	notes     *notification.State
	lookups   *lookup.Session

	saveMu    sync.Mutex
	closeOnce sync.Once
}

func (s *Session) Model() *editmodel.Model { return s.model }

func (s *Session) Notifications() *notification.State { return s.notes }

// Lookups returns the lookup session, or nil when the service has no resolver.
func (s *Session) Lookups() *lookup.Session { return s.lookups }

func (s *Session) QuoteType() id.QuoteType { return s.quoteType }

func (s *Session) QuoteID() id.QuoteID { return s.quoteID }

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.lookups != nil {
			s.lookups.Close()
		}
		s.model.Close()
		s.notes.Close()
	})
}

// Save runs one update attempt: validate, then submit the working copy in a
// single atomic call. The returned Attempt is never nil when err is a
// *ValidationRejected, *TransportError or *PersistenceError.
func (s *Session) Save(ctx context.Context) (*Attempt, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if s.model.Closed() {
		return nil, dErrors.New(dErrors.CodeConflict, "edit session is closed")
	}

	svc := s.svc
	ctx, span := svc.tracer.Start(ctx, "quote.Save", trace.WithAttributes(
		attribute.String("quote.type", s.quoteType.String()),
		attribute.String("quote.id", s.quoteID.String()),
	))
	defer span.End()

	attempt := newAttempt()
	attempt.enter(StateValidating)
	report := s.model.Validate()
	if !report.Valid() {
		s.model.TouchAll()
		attempt.Report = report
		attempt.Err = &ValidationRejected{Report: report}
		attempt.enter(StateRejected)
		span.SetAttributes(attribute.Int("quote.invalid_fields", len(report.Fields)))
		s.finish(ctx, attempt, audit.EventQuoteSaveRejected, fmt.Sprintf("%d invalid field(s)", len(report.Fields)))
		return attempt, attempt.Err
	}

	attempt.enter(StateSubmitting)
	before := s.model.Baseline()
	snapshot := s.model.Quote()
	p, err := payload.FromQuote(snapshot)
	if err != nil {
		return s.fail(ctx, span, attempt, err, MessageGenericFailure)
	}

	started := time.Now()
	res, err := svc.gateway.UpdateQuote(ctx, p)
	svc.observeSave(s.quoteType, started)
	if err != nil {
		return s.fail(ctx, span, attempt, &TransportError{Err: err}, MessageTransportFailure)
	}
	if !res.Success {
		perr := &PersistenceError{Message: res.Error}
		return s.fail(ctx, span, attempt, perr, perr.UserMessage())
	}

	s.model.MarkPersistedAs(snapshot)
	if saved, err := normalizer.Normalize(s.quoteType, res.Data); err == nil {
		s.model.AdoptPersonIDs(saved)
	}
	attempt.Data = res.Data
	attempt.enter(StateSucceeded)
	s.notes.Success(MessageSaved)
	s.finish(ctx, attempt, audit.EventQuoteSaved, "")

	if old, next := before.Head().Status, snapshot.Head().Status; old != next {
		s.statusChanged(ctx, old, next, snapshot)
	}
	return attempt, nil
}

func (s *Session) fail(ctx context.Context, span trace.Span, attempt *Attempt, err error, message string) (*Attempt, error) {
	attempt.Err = err
	attempt.enter(StateFailed)
	span.RecordError(err)
	span.SetStatus(codes.Error, "save failed")
	s.notes.Error(message)
	s.finish(ctx, attempt, audit.EventQuoteSaveFailed, err.Error())

	if s.svc.logger != nil {
		s.svc.logger.WarnContext(ctx, "quote save failed",
			"quote_id", s.quoteID.String(),
			"quote_type", s.quoteType.String(),
			"error", err,
		)
	}
	return attempt, err
}

func (s *Session) finish(ctx context.Context, attempt *Attempt, action audit.AuditEvent, reason string) {
	s.svc.metrics.IncrementSave(s.quoteType.String(), attempt.outcome())
	s.svc.emitAudit(ctx, audit.Event{
		QuoteID:   s.quoteID.String(),
		QuoteType: s.quoteType.String(),
		Action:    string(action),
		Decision:  attempt.outcome(),
		Reason:    reason,
	})
}

func (s *Session) statusChanged(ctx context.Context, old, next models.Status, snapshot models.Quote) {
	s.svc.emitAudit(ctx, audit.Event{
		QuoteID:   s.quoteID.String(),
		QuoteType: s.quoteType.String(),
		Action:    string(audit.EventQuoteStatusChanged),
		Decision:  string(next),
		Reason:    string(old) + " -> " + string(next),
	})
	if s.svc.events == nil {
		return
	}
	s.svc.events.PublishStatusChanged(ctx, events.StatusChanged{
		EventID:    id.NewEventID(),
		QuoteID:    s.quoteID,
		QuoteType:  s.quoteType,
		OldStatus:  old,
		NewStatus:  next,
		OccurredAt: requestcontext.Now(ctx),
		RequestID:  requestcontext.RequestID(ctx),
		Quote:      snapshot,
	})
}
