// Package notifier turns quote status events into customer notifications.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"brokerdesk/internal/quote/events"
	"brokerdesk/internal/quote/models"
	"brokerdesk/internal/sms"
	id "brokerdesk/pkg/domain"
)

const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// DefaultTemplate is the message sent when a new document is available. %s
// is the policyholder's first name.
const DefaultTemplate = "Bonjour %s, un nouveau document concernant votre devis auto est disponible dans votre espace client."

type Metrics interface {
	IncrementSMS(outcome string)
}

// SMS sends the "document available" message to the policyholder of an auto
// quote when the quote enters the document status.
type SMS struct {
	sender         sms.Sender
	documentStatus models.Status
	template       string
	logger         *slog.Logger
	metrics        Metrics
}

type Option func(*SMS)

func WithLogger(logger *slog.Logger) Option {
	return func(n *SMS) { n.logger = logger }
}

func WithMetrics(m Metrics) Option {
	return func(n *SMS) { n.metrics = m }
}

// WithDocumentStatus overrides the status that triggers the message.
func WithDocumentStatus(s models.Status) Option {
	return func(n *SMS) {
		if s != "" {
			n.documentStatus = s
		}
	}
}

func WithTemplate(t string) Option {
	return func(n *SMS) {
		if t != "" {
			n.template = t
		}
	}
}

func NewSMS(sender sms.Sender, opts ...Option) *SMS {
	n := &SMS{
		sender:         sender,
		documentStatus: models.StatusDocumentAvailable,
		template:       DefaultTemplate,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var _ events.Handler = (*SMS)(nil)

// HandleStatusChanged sends at most one message per event.
func (n *SMS) HandleStatusChanged(ctx context.Context, e events.StatusChanged) error {
	phone, name, ok := n.recipient(e)
	if !ok {
		n.count(OutcomeSkipped)
		return nil
	}
	text := n.template
	if strings.Contains(text, "%s") {
		text = fmt.Sprintf(text, name)
	}
	if err := n.sender.Send(ctx, phone, text); err != nil {
		n.count(OutcomeFailed)
		return fmt.Errorf("send document sms for quote %s: %w", e.QuoteID, err)
	}
	n.count(OutcomeSent)
	if n.logger != nil {
		n.logger.InfoContext(ctx, "document sms sent",
			"quote_id", e.QuoteID.String(),
			"request_id", e.RequestID,
		)
	}
	return nil
}

// recipient applies the trigger condition: auto quote, transition into the
// document status, and a phone number on file.
func (n *SMS) recipient(e events.StatusChanged) (phone, name string, ok bool) {
	if e.QuoteType != id.QuoteTypeAuto {
		return "", "", false
	}
	if e.NewStatus != n.documentStatus || e.OldStatus == n.documentStatus {
		return "", "", false
	}
	q, isAuto := e.Quote.(*models.AutoQuote)
	if !isAuto || q == nil {
		return "", "", false
	}
	phone = strings.TrimSpace(q.Policyholder.Phone)
	if phone == "" {
		return "", "", false
	}
	name = q.Policyholder.FirstName
	if name == "" {
		name = q.Policyholder.FullName()
	}
	return phone, name, true
}

func (n *SMS) count(outcome string) {
	if n.metrics != nil {
		n.metrics.IncrementSMS(outcome)
	}
}
