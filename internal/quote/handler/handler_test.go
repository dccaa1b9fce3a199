package handler_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"brokerdesk/internal/lookup"
	lookupstore "brokerdesk/internal/lookup/store"
	"brokerdesk/internal/quote/handler"
	"brokerdesk/internal/quote/models"
	"brokerdesk/internal/quote/payload"
	"brokerdesk/internal/quote/ports"
	"brokerdesk/internal/quote/service"
	"brokerdesk/internal/quote/store"
	id "brokerdesk/pkg/domain"
	"brokerdesk/pkg/platform/audit/publisher"
	auditmemory "brokerdesk/pkg/platform/audit/store/memory"
	"brokerdesk/pkg/platform/middleware/admin"
	"brokerdesk/pkg/platform/middleware/auth"
	"brokerdesk/pkg/testutil"
)

const autoRow = `{
	"id": %q,
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
	"garanties": {"rc": true}
}`

const (
	validToken = "valid-token"
	adminToken = "admin-secret"
)

type stubValidator struct {
	operatorID string
}

func (v stubValidator) ValidateToken(token string) (*auth.JWTClaims, error) {
	if token != validToken {
		return nil, errors.New("invalid token")
	}
	return &auth.JWTClaims{OperatorID: v.operatorID, Name: "Operator", JTI: "jti-1"}, nil
}

// flakyGateway fails updates while down is set.
type flakyGateway struct {
	*store.MemoryGateway
	down bool
}

func (g *flakyGateway) UpdateQuote(ctx context.Context, p payload.UpdatePayload) (*ports.UpdateResult, error) {
	if g.down {
		return nil, errors.New("dial tcp: connection refused")
	}
	return g.MemoryGateway.UpdateQuote(ctx, p)
}

// countingResolver records every catalog call made on behalf of sessions.
type countingResolver struct {
	lookup.Resolver
	calls *atomic.Int64
}

func (r countingResolver) CitiesByPostalCode(ctx context.Context, postalCode string) ([]string, error) {
	r.calls.Add(1)
	return r.Resolver.CitiesByPostalCode(ctx, postalCode)
}

func (r countingResolver) SearchMakes(ctx context.Context, prefix string) ([]lookup.Make, error) {
	r.calls.Add(1)
	return r.Resolver.SearchMakes(ctx, prefix)
}

func (r countingResolver) SearchModels(ctx context.Context, makeID, prefix string) ([]lookup.Model, error) {
	r.calls.Add(1)
	return r.Resolver.SearchModels(ctx, makeID, prefix)
}

type HandlerSuite struct {
	suite.Suite
	lookupCalls atomic.Int64
	gateway     *flakyGateway
	auditor     *publisher.Publisher
	router      *chi.Mux
	qid         id.QuoteID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.gateway = &flakyGateway{MemoryGateway: store.NewMemoryGateway()}
	qid, err := s.gateway.Seed(id.QuoteTypeAuto, fmt.Appendf(nil, autoRow, uuid.NewString()))
	s.Require().NoError(err)
	s.qid = qid

	catalog, err := lookupstore.NewMemoryCatalog()
	s.Require().NoError(err)

	s.lookupCalls.Store(0)
	s.auditor = publisher.NewPublisher(auditmemory.NewInMemoryStore())
	svc, err := service.New(s.gateway,
		service.WithLogger(logger),
		service.WithAuditor(s.auditor),
		service.WithLookups(countingResolver{Resolver: catalog, calls: &s.lookupCalls}),
	)
	s.Require().NoError(err)

	h := handler.New(svc, catalog, stubValidator{operatorID: uuid.NewString()}, logger,
		handler.WithAuthFailureRecorder(s.auditor),
		handler.WithAuditLog(s.auditor, adminToken),
	)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), method, path, body), validToken)
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) quotePath() string {
	return "/quotes/auto/" + s.qid.String()
}

// fetchAuto returns the quote as the UI would receive it.
func (s *HandlerSuite) fetchAuto() *models.AutoQuote {
	rr := s.do(http.MethodGet, s.quotePath(), nil)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	resp := testutil.UnmarshalResponse[struct {
		Quote json.RawMessage `json:"quote"`
	}](s.T(), rr)
	q := &models.AutoQuote{}
	s.Require().NoError(json.Unmarshal(resp.Quote, q))
	return q
}

func (s *HandlerSuite) put(q models.Quote) *httptest.ResponseRecorder {
	return s.do(http.MethodPut, s.quotePath(), q)
}

func (s *HandlerSuite) TestRequestsMakeNoSessionLookups() {
	q := s.fetchAuto()
	q.Policyholder.Phone = "0470999999"
	rr := s.put(q)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	s.Never(func() bool { return s.lookupCalls.Load() > 0 }, 300*time.Millisecond, 20*time.Millisecond)
}

func (s *HandlerSuite) TestRequiresBearerToken() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, s.quotePath(), nil))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	s.NotEmpty(rr.Header().Get("X-Request-ID"))
}

func (s *HandlerSuite) TestGetQuote() {
	s.Run("normalized view", func() {
		q := s.fetchAuto()
		s.Equal(s.qid, q.ID)
		s.Equal(models.StatusInProgress, q.Status)
		s.Equal("Anne", q.Policyholder.FirstName)
		s.Nil(q.Driver)
	})

	s.Run("unknown type", func() {
		rr := s.do(http.MethodGet, "/quotes/sante/"+s.qid.String(), nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("unknown quote", func() {
		rr := s.do(http.MethodGet, "/quotes/auto/"+uuid.NewString(), nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *HandlerSuite) TestSaveQuote() {
	q := s.fetchAuto()
	q.Status = models.StatusDocumentAvailable
	q.Policyholder.Phone = "0470999999"

	rr := s.put(q)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		States       []service.State `json:"states"`
		Notification struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"notification"`
	}
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Equal([]service.State{service.StateValidating, service.StateSubmitting, service.StateSucceeded}, resp.States)
	s.Equal(service.MessageSaved, resp.Notification.Message)

	saved := s.fetchAuto()
	s.Equal(models.StatusDocumentAvailable, saved.Status)
	s.Equal("0470999999", saved.Policyholder.Phone)
}

func (s *HandlerSuite) TestSaveRejectedByValidation() {
	q := s.fetchAuto()
	q.Policyholder.NationalNumber = "85071412331"
	q.Policyholder.FirstName = ""

	rr := s.put(q)
	s.Require().Equal(http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

	var resp struct {
		Error  string              `json:"error"`
		Fields map[string][]string `json:"fields"`
	}
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Equal("validation_error", resp.Error)
	s.Contains(resp.Fields, "policyholder.nationalNumber")
	s.Contains(resp.Fields, "policyholder.firstName")

	s.Equal("Anne", s.fetchAuto().Policyholder.FirstName)
}

func (s *HandlerSuite) TestSaveTransportFailure() {
	q := s.fetchAuto()
	q.Policyholder.Phone = "0470999999"
	s.gateway.down = true

	rr := s.put(q)
	s.Require().Equal(http.StatusBadGateway, rr.Code, rr.Body.String())
	s.Contains(rr.Body.String(), service.MessageTransportFailure)

	s.gateway.down = false
	s.Equal("0470123456", s.fetchAuto().Policyholder.Phone)
}

func (s *HandlerSuite) TestSaveRejectsMismatchedID() {
	q := s.fetchAuto()
	q.ID = id.NewQuoteID()

	testutil.AssertStatusAndError(s.T(), s.put(q), http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestSaveRejectsMalformedBody() {
	rr := s.do(http.MethodPut, s.quotePath(), `{"policyholder":`)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestCityLookup() {
	s.Run("known postal code", func() {
		rr := s.do(http.MethodGet, "/lookups/cities?postal_code=1300", nil)
		s.Require().Equal(http.StatusOK, rr.Code)
		s.JSONEq(`{"cities":["Wavre","Limal","Bierges"]}`, rr.Body.String())
	})

	s.Run("short postal code answers empty", func() {
		rr := s.do(http.MethodGet, "/lookups/cities?postal_code=13", nil)
		s.Require().Equal(http.StatusOK, rr.Code)
		s.JSONEq(`{"cities":[]}`, rr.Body.String())
	})

	s.Run("unknown postal code answers empty", func() {
		rr := s.do(http.MethodGet, "/lookups/cities?postal_code=9999", nil)
		s.Require().Equal(http.StatusOK, rr.Code)
		s.JSONEq(`{"cities":[]}`, rr.Body.String())
	})
}

func (s *HandlerSuite) TestMakeLookup() {
	rr := s.do(http.MethodGet, "/lookups/makes?q=A", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"makes":[]}`, rr.Body.String())

	rr = s.do(http.MethodGet, "/lookups/makes?q=au", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), "Audi")
}

func (s *HandlerSuite) TestReference() {
	rr := s.do(http.MethodGet, "/reference", nil)
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp struct {
		Insurers      []json.RawMessage `json:"insurers"`
		Statuses      []json.RawMessage `json:"statuses"`
		Nationalities []json.RawMessage `json:"nationalities"`
	}
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.NotEmpty(resp.Insurers)
	s.NotEmpty(resp.Statuses)
	s.NotEmpty(resp.Nationalities)
}

func (s *HandlerSuite) TestAuditTrail() {
	q := s.fetchAuto()
	q.Status = models.StatusDocumentAvailable
	s.Require().Equal(http.StatusOK, s.put(q).Code)

	path := "/admin/quotes/" + s.qid.String() + "/audit"

	s.Run("requires admin token", func() {
		rr := s.do(http.MethodGet, path, nil)
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("lists events in order", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodGet, path, nil)
		req.Header.Set(admin.HeaderAdminToken, adminToken)
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

		var resp struct {
			Events []struct {
				Action   string
				Decision string
			} `json:"events"`
		}
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
		var actions []string
		for _, e := range resp.Events {
			actions = append(actions, e.Action)
		}
		s.Contains(actions, "quote_saved")
		s.Contains(actions, "quote_status_changed")
	})
}
