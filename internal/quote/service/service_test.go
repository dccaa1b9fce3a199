package service_test

//go:generate mockgen -source=../ports/ports.go -destination=../ports/mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	lookupstore "brokerdesk/internal/lookup/store"
	"brokerdesk/internal/notification"
	"brokerdesk/internal/quote/editmodel"
	"brokerdesk/internal/quote/events"
	"brokerdesk/internal/quote/models"
	"brokerdesk/internal/quote/payload"
	"brokerdesk/internal/quote/ports"
	"brokerdesk/internal/quote/ports/mocks"
	"brokerdesk/internal/quote/service"
	id "brokerdesk/pkg/domain"
	dErrors "brokerdesk/pkg/domain-errors"
	"brokerdesk/pkg/platform/audit"
	"brokerdesk/pkg/platform/sentinel"
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

type stubTimer struct{}

func (stubTimer) Stop() bool { return true }

// manualClock never fires; notifications stay visible for inspection.
type manualClock struct{}

func (manualClock) AfterFunc(time.Duration, func()) notification.Timer { return stubTimer{} }

type ServiceSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockGateway *mocks.MockQuoteGateway
	mockAudit   *mocks.MockAuditPort
	mockEvents  *mocks.MockEventPublisher
	service     *service.Service
	qid         id.QuoteID
	ctx         context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockGateway = mocks.NewMockQuoteGateway(s.ctrl)
	s.mockAudit = mocks.NewMockAuditPort(s.ctrl)
	s.mockEvents = mocks.NewMockEventPublisher(s.ctrl)
	s.qid = id.NewQuoteID()
	s.ctx = testutil.OperatorContext(id.OperatorID(uuid.New()), "req-1")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, err := service.New(s.mockGateway,
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithAuditor(s.mockAudit),
		service.WithEvents(s.mockEvents),
		service.WithNotificationOptions(notification.WithClock(manualClock{})),
		service.WithModelOptions(editmodel.WithClock(func() time.Time { return now })),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) raw() []byte {
	return []byte(fmt.Sprintf(autoRow, s.qid.String()))
}

// open returns a session on the auto quote, ignoring audit traffic.
func (s *ServiceSuite) open() *service.Session {
	s.mockGateway.EXPECT().FetchQuote(gomock.Any(), id.QuoteTypeAuto, s.qid).Return(s.raw(), nil)
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	sess, err := s.service.Open(s.ctx, id.QuoteTypeAuto, s.qid)
	s.Require().NoError(err)
	s.T().Cleanup(sess.Close)
	return sess
}

func succeeded() *ports.UpdateResult {
	return &ports.UpdateResult{Success: true, Data: []byte(`{"ok":true}`)}
}

func (s *ServiceSuite) TestNew() {
	_, err := service.New(nil)
	s.EqualError(err, "quote gateway is required")
}

func (s *ServiceSuite) TestOpen() {
	s.Run("unsupported type is rejected without a fetch", func() {
		_, err := s.service.Open(s.ctx, id.QuoteType("moto"), s.qid)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("missing quote is not found", func() {
		s.mockGateway.EXPECT().FetchQuote(gomock.Any(), id.QuoteTypeAuto, s.qid).
			Return(nil, fmt.Errorf("devis_auto_view: %w", sentinel.ErrNotFound))
		_, err := s.service.Open(s.ctx, id.QuoteTypeAuto, s.qid)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("backend failure is a transport error", func() {
		s.mockGateway.EXPECT().FetchQuote(gomock.Any(), id.QuoteTypeAuto, s.qid).
			Return(nil, errors.New("dial tcp: connection refused"))
		_, err := s.service.Open(s.ctx, id.QuoteTypeAuto, s.qid)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		var transport *service.TransportError
		s.ErrorAs(err, &transport)
	})

	s.Run("malformed record cannot be edited", func() {
		s.mockGateway.EXPECT().FetchQuote(gomock.Any(), id.QuoteTypeAuto, s.qid).Return([]byte(`{`), nil)
		_, err := s.service.Open(s.ctx, id.QuoteTypeAuto, s.qid)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("opened quote has no driver group when the policyholder drives", func() {
		s.mockGateway.EXPECT().FetchQuote(gomock.Any(), id.QuoteTypeAuto, s.qid).Return(s.raw(), nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e audit.Event) error {
				s.Equal(string(audit.EventQuoteOpened), e.Action)
				s.Equal(s.qid.String(), e.QuoteID)
				s.Equal("req-1", e.RequestID)
				return nil
			})

		sess, err := s.service.Open(s.ctx, id.QuoteTypeAuto, s.qid)
		s.Require().NoError(err)
		defer sess.Close()

		s.Equal(s.qid, sess.QuoteID())
		s.Equal("Anne", sess.Model().Policyholder().Get(editmodel.FieldFirstName))
		s.False(sess.Model().DriverDiffers())
		s.False(sess.Model().IsDirty())
		s.Nil(sess.Lookups())
	})
}

func (s *ServiceSuite) TestOpenWithoutLookups() {
	catalog, err := lookupstore.NewMemoryCatalog()
	s.Require().NoError(err)
	svc, err := service.New(s.mockGateway,
		service.WithAuditor(s.mockAudit),
		service.WithLookups(catalog),
	)
	s.Require().NoError(err)
	s.mockGateway.EXPECT().FetchQuote(gomock.Any(), id.QuoteTypeAuto, s.qid).Return(s.raw(), nil).Times(2)
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	interactive, err := svc.Open(s.ctx, id.QuoteTypeAuto, s.qid)
	s.Require().NoError(err)
	defer interactive.Close()
	s.NotNil(interactive.Lookups())

	oneShot, err := svc.Open(s.ctx, id.QuoteTypeAuto, s.qid, service.WithoutLookups())
	s.Require().NoError(err)
	defer oneShot.Close()
	s.Nil(oneShot.Lookups())
}

func (s *ServiceSuite) TestSaveRejectedNeverReachesBackend() {
	sess := s.open()
	sess.Model().Policyholder().Set(editmodel.FieldNationalNumber, "85071412331")

	attempt, err := sess.Save(s.ctx)

	var rejected *service.ValidationRejected
	s.Require().ErrorAs(err, &rejected)
	s.Equal([]service.State{service.StateIdle, service.StateValidating, service.StateRejected}, attempt.States)
	s.True(rejected.Report.Has("policyholder.nationalNumber", editmodel.ErrInvalidChecksum))
	s.True(sess.Model().Touched(editmodel.PathOf(editmodel.GroupPolicyholder, string(editmodel.FieldFirstName))),
		"every control is revealed after a rejection")
	s.True(sess.Model().IsDirty())
	s.False(sess.Notifications().Visible())
}

func (s *ServiceSuite) TestSaveSucceeds() {
	sess := s.open()
	sess.Model().Policyholder().Set(editmodel.FieldPhone, "0470999999")

	s.mockGateway.EXPECT().UpdateQuote(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p payload.UpdatePayload) (*ports.UpdateResult, error) {
			auto, ok := p.(*payload.AutoPayload)
			s.Require().True(ok)
			s.Equal(s.qid.String(), auto.QuoteID())
			s.False(auto.ConducteurDifferent)
			s.Nil(auto.Conducteur)
			s.Equal("0470999999", auto.Preneur.Telephone)
			return succeeded(), nil
		})

	attempt, err := sess.Save(s.ctx)
	s.Require().NoError(err)
	s.Equal([]service.State{
		service.StateIdle, service.StateValidating, service.StateSubmitting, service.StateSucceeded,
	}, attempt.States)
	s.Equal(service.StateSucceeded, attempt.Final())
	s.JSONEq(`{"ok":true}`, string(attempt.Data))
	s.False(sess.Model().IsDirty())
	s.Equal("0470999999", sess.Model().Baseline().(*models.AutoQuote).Policyholder.Phone)

	n, ok := sess.Notifications().Current()
	s.Require().True(ok)
	s.Equal(notification.KindSuccess, n.Kind)
	s.Equal(service.MessageSaved, n.Message)
}

func (s *ServiceSuite) TestStatusChangePublishesEvent() {
	sess := s.open()
	sess.Model().SetStatus(models.StatusDocumentAvailable)

	s.mockGateway.EXPECT().UpdateQuote(gomock.Any(), gomock.Any()).Return(succeeded(), nil)
	s.mockEvents.EXPECT().PublishStatusChanged(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, e events.StatusChanged) {
			s.Equal(s.qid, e.QuoteID)
			s.Equal(id.QuoteTypeAuto, e.QuoteType)
			s.Equal(models.StatusInProgress, e.OldStatus)
			s.Equal(models.StatusDocumentAvailable, e.NewStatus)
			s.Equal("req-1", e.RequestID)
			s.Require().NotNil(e.Quote)
			s.Equal(models.StatusDocumentAvailable, e.Quote.Head().Status)
		})

	_, err := sess.Save(s.ctx)
	s.Require().NoError(err)

	s.Run("saving again without a status change publishes nothing", func() {
		s.mockGateway.EXPECT().UpdateQuote(gomock.Any(), gomock.Any()).Return(succeeded(), nil)
		_, err := sess.Save(s.ctx)
		s.Require().NoError(err)
	})
}

func (s *ServiceSuite) TestTransportFailureKeepsEdits() {
	sess := s.open()
	sess.Model().SetStatus(models.StatusDone)

	s.mockGateway.EXPECT().UpdateQuote(gomock.Any(), gomock.Any()).Return(nil, errors.New("i/o timeout"))

	attempt, err := sess.Save(s.ctx)
	var transport *service.TransportError
	s.Require().ErrorAs(err, &transport)
	s.EqualError(transport.Unwrap(), "i/o timeout")
	s.Equal(service.StateFailed, attempt.Final())
	s.True(sess.Model().IsDirty())
	s.Equal(models.StatusDone, sess.Model().Quote().Head().Status)
	s.Equal(models.StatusInProgress, sess.Model().Baseline().Head().Status)

	n, ok := sess.Notifications().Current()
	s.Require().True(ok)
	s.Equal(notification.KindError, n.Kind)
	s.Equal(service.MessageTransportFailure, n.Message)

	s.Run("operator retry succeeds", func() {
		s.mockGateway.EXPECT().UpdateQuote(gomock.Any(), gomock.Any()).Return(succeeded(), nil)
		s.mockEvents.EXPECT().PublishStatusChanged(gomock.Any(), gomock.Any())
		_, err := sess.Save(s.ctx)
		s.Require().NoError(err)
		s.False(sess.Model().IsDirty())
	})
}

func (s *ServiceSuite) TestPersistenceErrorMessage() {
	sess := s.open()

	s.Run("backend reason is shown", func() {
		s.mockGateway.EXPECT().UpdateQuote(gomock.Any(), gomock.Any()).
			Return(&ports.UpdateResult{Error: "plaque déjà enregistrée"}, nil)
		attempt, err := sess.Save(s.ctx)
		var perr *service.PersistenceError
		s.Require().ErrorAs(err, &perr)
		s.Equal(service.StateFailed, attempt.Final())
		n, _ := sess.Notifications().Current()
		s.Equal("plaque déjà enregistrée", n.Message)
	})

	s.Run("missing reason falls back to a generic message", func() {
		s.mockGateway.EXPECT().UpdateQuote(gomock.Any(), gomock.Any()).
			Return(&ports.UpdateResult{}, nil)
		_, err := sess.Save(s.ctx)
		var perr *service.PersistenceError
		s.Require().ErrorAs(err, &perr)
		n, _ := sess.Notifications().Current()
		s.Equal(service.MessageGenericFailure, n.Message)
	})
}

func (s *ServiceSuite) TestAuditOutcomes() {
	s.mockGateway.EXPECT().FetchQuote(gomock.Any(), id.QuoteTypeAuto, s.qid).Return(s.raw(), nil)
	var actions []string
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e audit.Event) error {
			actions = append(actions, e.Action+":"+e.Decision)
			return errors.New("audit store down")
		}).AnyTimes()

	sess, err := s.service.Open(s.ctx, id.QuoteTypeAuto, s.qid)
	s.Require().NoError(err, "audit failures never fail the operation")
	defer sess.Close()

	sess.Model().Policyholder().Set(editmodel.FieldLastName, "")
	_, err = sess.Save(s.ctx)
	s.Error(err)

	sess.Model().Policyholder().Set(editmodel.FieldLastName, "Janssens")
	sess.Model().SetStatus(models.StatusDocumentAvailable)
	s.mockGateway.EXPECT().UpdateQuote(gomock.Any(), gomock.Any()).Return(succeeded(), nil)
	s.mockEvents.EXPECT().PublishStatusChanged(gomock.Any(), gomock.Any())
	_, err = sess.Save(s.ctx)
	s.Require().NoError(err)

	s.Equal([]string{
		"quote_opened:",
		"quote_save_rejected:rejected",
		"quote_saved:succeeded",
		"quote_status_changed:Document disponible",
	}, actions)
}

func (s *ServiceSuite) TestClosedSessionRefusesSave() {
	sess := s.open()
	sess.Close()
	sess.Close()

	_, err := sess.Save(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestObsequesWithoutInsuredPersons() {
	raw := fmt.Sprintf(`{
		"id": %q, "statut": "Nouveau",
		"preneur_obseques": {"prenom": "Marc", "nom": "Dubois"},
		"assures": [],
		"preneur_est_assure": true
	}`, s.qid.String())
	s.mockGateway.EXPECT().FetchQuote(gomock.Any(), id.QuoteTypeObseques, s.qid).Return([]byte(raw), nil)
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	sess, err := s.service.Open(s.ctx, id.QuoteTypeObseques, s.qid)
	s.Require().NoError(err)
	defer sess.Close()

	s.mockGateway.EXPECT().UpdateQuote(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p payload.UpdatePayload) (*ports.UpdateResult, error) {
			ob, ok := p.(*payload.ObsequesPayload)
			s.Require().True(ok)
			s.NotNil(ob.Assures)
			s.Empty(ob.Assures)
			s.Equal(0, ob.NombreAssures)
			s.True(ob.PreneurEstAssure)
			return succeeded(), nil
		})

	attempt, err := sess.Save(s.ctx)
	s.Require().NoError(err)
	s.Equal(service.StateSucceeded, attempt.Final())
}

func (s *ServiceSuite) TestSaveAdoptsAssignedPersonIDs() {
	row := `{
		"id": %q, "statut": "Nouveau",
		"preneur_obseques": {"id": 7, "prenom": "Marc", "nom": "Dubois"},
		"assures": [{%s"prenom": "Léa", "nom": "Dubois"}],
		"preneur_est_assure": false
	}`
	s.mockGateway.EXPECT().FetchQuote(gomock.Any(), id.QuoteTypeObseques, s.qid).
		Return([]byte(fmt.Sprintf(row, s.qid.String(), "")), nil)
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	sess, err := s.service.Open(s.ctx, id.QuoteTypeObseques, s.qid)
	s.Require().NoError(err)
	defer sess.Close()

	echo := []byte(fmt.Sprintf(row, s.qid.String(), `"id": 501, `))
	s.mockGateway.EXPECT().UpdateQuote(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p payload.UpdatePayload) (*ports.UpdateResult, error) {
			ob := p.(*payload.ObsequesPayload)
			s.Require().Len(ob.Assures, 1)
			s.Empty(ob.Assures[0].ID)
			return &ports.UpdateResult{Success: true, Data: echo}, nil
		})
	_, err = sess.Save(s.ctx)
	s.Require().NoError(err)

	ob := sess.Model().Quote().(*models.ObsequesQuote)
	s.Equal("501", ob.InsuredPersons[0].ID)
	s.Equal("501", sess.Model().Baseline().(*models.ObsequesQuote).InsuredPersons[0].ID)
	s.False(sess.Model().IsDirty())

	s.Run("the next save sends the assigned id", func() {
		s.mockGateway.EXPECT().UpdateQuote(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p payload.UpdatePayload) (*ports.UpdateResult, error) {
				ob := p.(*payload.ObsequesPayload)
				s.Equal("501", ob.Assures[0].ID)
				return &ports.UpdateResult{Success: true, Data: echo}, nil
			})
		_, err := sess.Save(s.ctx)
		s.Require().NoError(err)
	})

	s.Run("an echo for another quote is ignored", func() {
		g, err := sess.Model().AddInsured()
		s.Require().NoError(err)
		g.Set(editmodel.FieldFirstName, "Tom")
		g.Set(editmodel.FieldLastName, "Dubois")
		other := []byte(fmt.Sprintf(row, id.NewQuoteID().String(), `"id": 999, `))
		s.mockGateway.EXPECT().UpdateQuote(gomock.Any(), gomock.Any()).
			Return(&ports.UpdateResult{Success: true, Data: other}, nil)
		_, err = sess.Save(s.ctx)
		s.Require().NoError(err)
		s.Equal("501", sess.Model().Quote().(*models.ObsequesQuote).InsuredPersons[0].ID)
		s.Empty(sess.Model().Quote().(*models.ObsequesQuote).InsuredPersons[1].ID)
	})
}
