//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "brokerdesk/pkg/domain"
	audit "brokerdesk/pkg/platform/audit"
	"brokerdesk/pkg/platform/audit/store/postgres"
	"brokerdesk/pkg/testutil/containers"
)

type StoreSuite struct {
	suite.Suite
	store *postgres.Store
}

func TestStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	pg := containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(pg.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
	s.Require().NoError(s.store.Migrate(context.Background()), "migration is repeatable")
}

func (s *StoreSuite) TestListByQuoteIsChronological() {
	ctx := context.Background()
	qid := id.NewQuoteID().String()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: base.Add(time.Minute),
		QuoteID:   qid,
		QuoteType: "auto",
		Action:    string(audit.EventQuoteSaved),
		Decision:  "succeeded",
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: base,
		QuoteID:   qid,
		QuoteType: "auto",
		Action:    string(audit.EventQuoteOpened),
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: base,
		QuoteID:   id.NewQuoteID().String(),
		Action:    string(audit.EventQuoteOpened),
	}))

	events, err := s.store.ListByQuote(ctx, qid)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventQuoteOpened), events[0].Action)
	s.Equal(audit.CategoryOperations, events[0].Category)
	s.Equal(string(audit.EventQuoteSaved), events[1].Action)
	s.Equal(audit.CategoryCompliance, events[1].Category)
	s.Equal("succeeded", events[1].Decision)
}

func (s *StoreSuite) TestListRecentHonoursLimit() {
	ctx := context.Background()
	for range 3 {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			Timestamp: time.Now(),
			QuoteID:   id.NewQuoteID().String(),
			Action:    string(audit.EventQuoteOpened),
		}))
	}
	events, err := s.store.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Len(events, 2)
}
