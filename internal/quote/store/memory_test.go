package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"brokerdesk/internal/quote/models"
	"brokerdesk/internal/quote/normalizer"
	"brokerdesk/internal/quote/payload"
	id "brokerdesk/pkg/domain"
	"brokerdesk/pkg/platform/sentinel"
)

const autoRow = `{
	"id": "0b7a3c1e-58f6-4f43-9a57-0e0c7b1d2f10",
	"statut": "En cours",
	"assureur_id": 2,
	"preneur_id": 41,
	"conducteur_id": 41,
	"preneur": {
		"id": 41, "prenom": "Anne", "nom": "Peeters",
		"date_naissance": "1985-07-14", "numero_national": "85071412330",
		"code_postal": "1000", "localite": "Bruxelles", "telephone": "0470123456"
	},
	"vehicule": {"marque_id": 12, "marque": "Volkswagen", "modele": "Golf", "annee": "2019"},
	"garanties": {"rc": true, "omnium": null}
}`

type MemoryGatewaySuite struct {
	suite.Suite
	gw  *MemoryGateway
	qid id.QuoteID
}

func TestMemoryGatewaySuite(t *testing.T) {
	suite.Run(t, new(MemoryGatewaySuite))
}

func (s *MemoryGatewaySuite) SetupTest() {
	s.gw = NewMemoryGateway()
	qid, err := s.gw.Seed(id.QuoteTypeAuto, []byte(autoRow))
	s.Require().NoError(err)
	s.qid = qid
}

func (s *MemoryGatewaySuite) fetch() *models.AutoQuote {
	raw, err := s.gw.FetchQuote(context.Background(), id.QuoteTypeAuto, s.qid)
	s.Require().NoError(err)
	q, err := normalizer.Normalize(id.QuoteTypeAuto, raw)
	s.Require().NoError(err)
	return q.(*models.AutoQuote)
}

func (s *MemoryGatewaySuite) TestFetchUnknownIsNotFound() {
	_, err := s.gw.FetchQuote(context.Background(), id.QuoteTypeAuto, id.NewQuoteID())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.gw.FetchQuote(context.Background(), id.QuoteTypeHabitation, s.qid)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryGatewaySuite) TestUpdateRoundTripsThroughNormalizer() {
	q := s.fetch()
	q.Status = models.StatusDocumentAvailable
	q.Vehicle.Model = "Polo"

	p, err := payload.FromQuote(q)
	s.Require().NoError(err)
	res, err := s.gw.UpdateQuote(context.Background(), p)
	s.Require().NoError(err)
	s.Require().True(res.Success)
	s.NotEmpty(res.Data)

	back := s.fetch()
	s.Equal(models.StatusDocumentAvailable, back.Status)
	s.Equal("Polo", back.Vehicle.Model)
	s.Nil(back.Driver)
	s.Equal("41", back.Policyholder.ID)
}

func (s *MemoryGatewaySuite) TestNewDriverGetsAnIDAndSurvives() {
	q := s.fetch()
	q.Driver = &models.Person{FirstName: "Marc", LastName: "Peeters", BirthDate: "1978-04-12", NationalNumber: "78041205785"}

	p, err := payload.FromQuote(q)
	s.Require().NoError(err)
	res, err := s.gw.UpdateQuote(context.Background(), p)
	s.Require().NoError(err)
	s.Require().True(res.Success)

	back := s.fetch()
	s.Require().NotNil(back.Driver)
	s.NotEmpty(back.Driver.ID)
	s.NotEqual(back.Policyholder.ID, back.Driver.ID)
	s.Equal("78041205785", back.Driver.NationalNumber)
}

func (s *MemoryGatewaySuite) TestUnknownQuoteIsRefusedWithoutWriting() {
	q := s.fetch()
	q.ID = id.NewQuoteID()
	p, err := payload.FromQuote(q)
	s.Require().NoError(err)

	res, err := s.gw.UpdateQuote(context.Background(), p)
	s.Require().NoError(err)
	s.False(res.Success)
	s.Equal(MessageNotFound, res.Error)

	_, err = s.gw.FetchQuote(context.Background(), id.QuoteTypeAuto, q.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryGatewaySuite) TestCancelledContextIsATransportError() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, err := payload.FromQuote(s.fetch())
	s.Require().NoError(err)

	res, err := s.gw.UpdateQuote(ctx, p)
	s.Nil(res)
	s.ErrorIs(err, context.Canceled)
}

func (s *MemoryGatewaySuite) TestObsequesEmptyInsuredList() {
	raw := `{"id": "5f0c2b8e-0d7e-4c55-b8b0-6a1d2f3e4a5b", "statut": "Nouveau",
		"preneur_obseques": {"id": 7, "prenom": "Luc", "nom": "Dubois"}, "assures": null}`
	qid, err := s.gw.Seed(id.QuoteTypeObseques, []byte(raw))
	s.Require().NoError(err)

	fetched, err := s.gw.FetchQuote(context.Background(), id.QuoteTypeObseques, qid)
	s.Require().NoError(err)
	q, err := normalizer.Normalize(id.QuoteTypeObseques, fetched)
	s.Require().NoError(err)

	p, err := payload.FromQuote(q)
	s.Require().NoError(err)
	res, err := s.gw.UpdateQuote(context.Background(), p)
	s.Require().NoError(err)
	s.True(res.Success)
	s.Contains(string(res.Data), `"assures":[]`)
	s.Contains(string(res.Data), `"nombre_assures":0`)
}

func (s *MemoryGatewaySuite) TestSeedRejectsRowWithoutID() {
	_, err := s.gw.Seed(id.QuoteTypeVoyage, []byte(`{"statut": "Nouveau"}`))
	s.Error(err)
}
