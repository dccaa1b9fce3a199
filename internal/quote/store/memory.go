// Package store implements the quote gateway against an in-process map and
// against PostgreSQL.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"brokerdesk/internal/quote/payload"
	"brokerdesk/internal/quote/ports"
	"brokerdesk/internal/quote/records"
	id "brokerdesk/pkg/domain"
	"brokerdesk/pkg/platform/sentinel"
)

// MessageNotFound is the backend message for an update of an unknown quote.
const MessageNotFound = "devis introuvable"

type rowKey struct {
	quoteType id.QuoteType
	quoteID   string
}

// MemoryGateway keeps view rows as raw JSON and applies update payloads the
// way the backend procedures do: new persons get an id, the stored row is
// replaced by the payload's echo in one step.
type MemoryGateway struct {
	mu    sync.RWMutex
	rows  map[rowKey][]byte
	newID func() string
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		rows:  map[rowKey][]byte{},
		newID: func() string { return uuid.NewString() },
	}
}

var _ ports.QuoteGateway = (*MemoryGateway)(nil)

// Seed stores raw as the view row of its devis id.
func (g *MemoryGateway) Seed(quoteType id.QuoteType, raw []byte) (id.QuoteID, error) {
	var head struct {
		ID records.FlexString `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return id.QuoteID{}, fmt.Errorf("seed %s row: %w", quoteType, err)
	}
	qid, err := id.ParseQuoteID(strings.TrimSpace(head.ID.String()))
	if err != nil {
		return id.QuoteID{}, fmt.Errorf("seed %s row: %w", quoteType, err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rows[rowKey{quoteType, qid.String()}] = append([]byte(nil), raw...)
	return qid, nil
}

func (g *MemoryGateway) FetchQuote(ctx context.Context, quoteType id.QuoteType, quoteID id.QuoteID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	raw, ok := g.rows[rowKey{quoteType, quoteID.String()}]
	if !ok {
		return nil, fmt.Errorf("devis_%s %s: %w", quoteType, quoteID, sentinel.ErrNotFound)
	}
	return append([]byte(nil), raw...), nil
}

func (g *MemoryGateway) UpdateQuote(ctx context.Context, p payload.UpdatePayload) (*ports.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	key := rowKey{p.QuoteType(), p.QuoteID()}
	if _, ok := g.rows[key]; !ok {
		return &ports.UpdateResult{Error: MessageNotFound}, nil
	}
	g.assignIDs(p)
	echo, err := payload.EchoJSON(p)
	if err != nil {
		return &ports.UpdateResult{Error: err.Error()}, nil
	}
	g.rows[key] = echo
	return &ports.UpdateResult{Success: true, Data: append([]byte(nil), echo...)}, nil
}

// assignIDs gives every person without an id a fresh one, as the backend's
// insert does.
func (g *MemoryGateway) assignIDs(p payload.UpdatePayload) {
	fill := func(pp *payload.PersonParams) {
		if strings.TrimSpace(pp.ID) == "" {
			pp.ID = g.newID()
		}
	}
	switch v := p.(type) {
	case *payload.AutoPayload:
		fill(&v.Preneur)
		if v.ConducteurDifferent && v.Conducteur != nil {
			fill(v.Conducteur)
		}
	case *payload.HabitationPayload:
		fill(&v.Preneur)
	case *payload.ObsequesPayload:
		fill(&v.Preneur)
		for i := range v.Assures {
			fill(&v.Assures[i])
		}
	}
}
