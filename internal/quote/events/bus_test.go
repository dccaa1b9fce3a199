package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerdesk/internal/quote/models"
	id "brokerdesk/pkg/domain"
)

func sampleEvent() StatusChanged {
	return StatusChanged{
		EventID:   id.NewEventID(),
		QuoteID:   id.NewQuoteID(),
		QuoteType: id.QuoteTypeAuto,
		OldStatus: models.StatusInProgress,
		NewStatus: models.StatusDocumentAvailable,
	}
}

func TestBusDeliversToEveryHandler(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	got := map[string]models.Status{}
	for _, name := range []string{"sms", "kafka"} {
		bus.Subscribe(name, HandlerFunc(func(_ context.Context, e StatusChanged) error {
			mu.Lock()
			defer mu.Unlock()
			got[name] = e.NewStatus
			return nil
		}))
	}

	bus.PublishStatusChanged(context.Background(), sampleEvent())
	bus.Close()

	assert.Equal(t, map[string]models.Status{
		"sms":   models.StatusDocumentAvailable,
		"kafka": models.StatusDocumentAvailable,
	}, got)
}

func TestBusIsolatesFailingHandlers(t *testing.T) {
	bus := NewBus()
	var delivered atomic.Int32
	bus.Subscribe("panics", HandlerFunc(func(context.Context, StatusChanged) error {
		panic("boom")
	}))
	bus.Subscribe("errors", HandlerFunc(func(context.Context, StatusChanged) error {
		return errors.New("gateway down")
	}))
	bus.Subscribe("ok", HandlerFunc(func(context.Context, StatusChanged) error {
		delivered.Add(1)
		return nil
	}))

	require.NotPanics(t, func() {
		bus.PublishStatusChanged(context.Background(), sampleEvent())
		bus.Close()
	})
	assert.EqualValues(t, 1, delivered.Load())
}

func TestBusDeliveryOutlivesCallerContext(t *testing.T) {
	bus := NewBus()
	errs := make(chan error, 1)
	bus.Subscribe("ctx", HandlerFunc(func(ctx context.Context, _ StatusChanged) error {
		errs <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.PublishStatusChanged(ctx, sampleEvent())
	bus.Close()

	assert.NoError(t, <-errs)
}

func TestBusDropsAfterClose(t *testing.T) {
	bus := NewBus()
	var delivered atomic.Int32
	bus.Subscribe("ok", HandlerFunc(func(context.Context, StatusChanged) error {
		delivered.Add(1)
		return nil
	}))
	bus.Close()
	bus.PublishStatusChanged(context.Background(), sampleEvent())
	assert.Zero(t, delivered.Load())
}
