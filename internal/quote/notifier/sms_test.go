package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerdesk/internal/quote/events"
	"brokerdesk/internal/quote/models"
	"brokerdesk/internal/sms"
	id "brokerdesk/pkg/domain"
)

type countingMetrics map[string]int

func (m countingMetrics) IncrementSMS(outcome string) { m[outcome]++ }

type failingSender struct{}

func (failingSender) Send(context.Context, string, string) error {
	return errors.New("gateway down")
}

func autoEvent(oldStatus, newStatus models.Status, phone string) events.StatusChanged {
	q := &models.AutoQuote{
		Header:       models.Header{ID: id.NewQuoteID(), Status: newStatus},
		Policyholder: models.Person{FirstName: "Anne", LastName: "Peeters", Phone: phone},
	}
	return events.StatusChanged{
		EventID:   id.NewEventID(),
		QuoteID:   q.ID,
		QuoteType: id.QuoteTypeAuto,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Quote:     q,
	}
}

func TestSMSTriggerCondition(t *testing.T) {
	habitation := autoEvent(models.StatusInProgress, models.StatusDocumentAvailable, "0470123456")
	habitation.QuoteType = id.QuoteTypeHabitation
	habitation.Quote = &models.HabitationQuote{Header: models.Header{ID: habitation.QuoteID}}

	tests := []struct {
		name  string
		event events.StatusChanged
		sent  bool
	}{
		{"transition into document status", autoEvent(models.StatusInProgress, models.StatusDocumentAvailable, "0470123456"), true},
		{"already in document status", autoEvent(models.StatusDocumentAvailable, models.StatusDocumentAvailable, "0470123456"), false},
		{"other target status", autoEvent(models.StatusNew, models.StatusInProgress, "0470123456"), false},
		{"no phone on file", autoEvent(models.StatusInProgress, models.StatusDocumentAvailable, "  "), false},
		{"not an auto quote", habitation, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := sms.NewLogSender(nil)
			metrics := countingMetrics{}
			n := NewSMS(sender, WithMetrics(metrics))

			require.NoError(t, n.HandleStatusChanged(context.Background(), tt.event))

			if tt.sent {
				require.Len(t, sender.Sent(), 1)
				assert.Equal(t, "+32470123456", sender.Sent()[0].Phone)
				assert.Contains(t, sender.Sent()[0].Text, "Bonjour Anne")
				assert.Equal(t, 1, metrics[OutcomeSent])
			} else {
				assert.Empty(t, sender.Sent())
				assert.Equal(t, 1, metrics[OutcomeSkipped])
			}
		})
	}
}

func TestSMSFailureIsReported(t *testing.T) {
	metrics := countingMetrics{}
	n := NewSMS(failingSender{}, WithMetrics(metrics))

	err := n.HandleStatusChanged(context.Background(), autoEvent(models.StatusInProgress, models.StatusDocumentAvailable, "0470123456"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway down")
	assert.Equal(t, 1, metrics[OutcomeFailed])
}

func TestSMSCustomStatusAndTemplate(t *testing.T) {
	sender := sms.NewLogSender(nil)
	n := NewSMS(sender, WithDocumentStatus("Contrat prêt"), WithTemplate("Votre contrat est prêt."))

	require.NoError(t, n.HandleStatusChanged(context.Background(), autoEvent(models.StatusInProgress, "Contrat prêt", "+32 470 12 34 56")))
	require.Len(t, sender.Sent(), 1)
	assert.Equal(t, "Votre contrat est prêt.", sender.Sent()[0].Text)
}

func TestSMSThroughBusDoesNotReachPublisher(t *testing.T) {
	bus := events.NewBus()
	bus.Subscribe("sms", NewSMS(failingSender{}))

	assert.NotPanics(t, func() {
		bus.PublishStatusChanged(context.Background(), autoEvent(models.StatusInProgress, models.StatusDocumentAvailable, "0470123456"))
		bus.Close()
	})
}
