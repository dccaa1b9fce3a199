//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"brokerdesk/internal/quote/payload"
	"brokerdesk/internal/quote/store"
	id "brokerdesk/pkg/domain"
	"brokerdesk/pkg/platform/sentinel"
	"brokerdesk/pkg/testutil/containers"
)

const voyageSchema = `
CREATE TABLE IF NOT EXISTS devis_voyage (
	id uuid PRIMARY KEY,
	statut text NOT NULL,
	assureur_id text,
	description text NOT NULL DEFAULT ''
);
CREATE OR REPLACE VIEW devis_voyage_view AS
	SELECT id, statut, assureur_id, description FROM devis_voyage;

CREATE OR REPLACE FUNCTION update_devis_voyage(p_id uuid, p_payload jsonb) RETURNS jsonb AS $$
DECLARE
	updated devis_voyage_view;
BEGIN
	IF p_payload->>'p_description' = 'boom' THEN
		RAISE EXCEPTION 'description refusée';
	END IF;
	UPDATE devis_voyage SET
		statut = p_payload->>'p_statut',
		assureur_id = p_payload->>'p_assureur_id',
		description = p_payload->>'p_description'
	WHERE id = p_id;
	IF NOT FOUND THEN
		RETURN jsonb_build_object('success', false, 'error', 'devis introuvable');
	END IF;
	SELECT * INTO updated FROM devis_voyage_view WHERE id = p_id;
	RETURN jsonb_build_object('success', true, 'data', to_jsonb(updated));
END;
$$ LANGUAGE plpgsql;
`

type PostgresGatewaySuite struct {
	suite.Suite
	pg  *containers.PostgresContainer
	gw  *store.PostgresGateway
	qid id.QuoteID
}

func TestPostgresGatewaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresGatewaySuite))
}

func (s *PostgresGatewaySuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	_, err := s.pg.Pool.Exec(context.Background(), voyageSchema)
	s.Require().NoError(err)
	s.gw = store.NewPostgresGateway(s.pg.Pool, 5*time.Second)
}

func (s *PostgresGatewaySuite) SetupTest() {
	s.qid = id.NewQuoteID()
	_, err := s.pg.Pool.Exec(context.Background(),
		`INSERT INTO devis_voyage (id, statut, description) VALUES ($1::uuid, 'Nouveau', 'Séjour à Rome')`,
		s.qid.String())
	s.Require().NoError(err)
}

func (s *PostgresGatewaySuite) voyage(description string) payload.UpdatePayload {
	insurer := "3"
	return &payload.VoyagePayload{
		Header:      payload.Header{ID: s.qid.String(), Statut: "En cours", AssureurID: &insurer},
		Description: description,
	}
}

func (s *PostgresGatewaySuite) TestFetch() {
	raw, err := s.gw.FetchQuote(context.Background(), id.QuoteTypeVoyage, s.qid)
	s.Require().NoError(err)
	s.Contains(string(raw), `"description":"Séjour à Rome"`)

	_, err = s.gw.FetchQuote(context.Background(), id.QuoteTypeVoyage, id.NewQuoteID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresGatewaySuite) TestUpdateSucceeds() {
	res, err := s.gw.UpdateQuote(context.Background(), s.voyage("Séjour à Lisbonne"))
	s.Require().NoError(err)
	s.Require().True(res.Success)
	s.Contains(string(res.Data), "Lisbonne")

	raw, err := s.gw.FetchQuote(context.Background(), id.QuoteTypeVoyage, s.qid)
	s.Require().NoError(err)
	s.Contains(string(raw), `"statut":"En cours"`)
}

func (s *PostgresGatewaySuite) TestRaisedExceptionIsARefusal() {
	res, err := s.gw.UpdateQuote(context.Background(), s.voyage("boom"))
	s.Require().NoError(err)
	s.False(res.Success)
	s.Equal("description refusée", res.Error)

	raw, err := s.gw.FetchQuote(context.Background(), id.QuoteTypeVoyage, s.qid)
	s.Require().NoError(err)
	s.Contains(string(raw), `"statut":"Nouveau"`)
}

func (s *PostgresGatewaySuite) TestUnknownQuoteIsARefusal() {
	p := s.voyage("x")
	p.(*payload.VoyagePayload).ID = id.NewQuoteID().String()
	res, err := s.gw.UpdateQuote(context.Background(), p)
	s.Require().NoError(err)
	s.False(res.Success)
	s.Equal("devis introuvable", res.Error)
}
