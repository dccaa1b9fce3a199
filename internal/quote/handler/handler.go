// Package handler exposes quote editing to the back-office UI over HTTP.
//
// Each request opens its own edit session: GET returns the normalized quote,
// PUT replaces the working copy with the submitted quote and runs one save.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"brokerdesk/internal/lookup"
	"brokerdesk/internal/notification"
	"brokerdesk/internal/quote/editmodel"
	"brokerdesk/internal/quote/models"
	"brokerdesk/internal/quote/service"
	id "brokerdesk/pkg/domain"
	dErrors "brokerdesk/pkg/domain-errors"
	"brokerdesk/pkg/platform/audit"
	"brokerdesk/pkg/platform/httputil"
	"brokerdesk/pkg/platform/middleware/admin"
	"brokerdesk/pkg/platform/middleware/auth"
	"brokerdesk/pkg/platform/middleware/metadata"
	"brokerdesk/pkg/platform/middleware/request"
	"brokerdesk/pkg/platform/middleware/requesttime"
)

// QuoteService opens edit sessions.
type QuoteService interface {
	Open(ctx context.Context, quoteType id.QuoteType, quoteID id.QuoteID, opts ...service.OpenOption) (*service.Session, error)
}

// AuditLister reads the audit trail of a quote.
type AuditLister interface {
	List(ctx context.Context, quoteID string) ([]audit.Event, error)
}

type Handler struct {
	quotes       QuoteService
	catalog      lookup.Catalog
	logger       *slog.Logger
	jwtValidator auth.JWTValidator
	authFailures auth.FailureRecorder
	auditLog     AuditLister
	adminToken   string
	timeout      time.Duration

	postalMinLength int
	makeMinLength   int
}

type Option func(*Handler)

func WithAuthFailureRecorder(r auth.FailureRecorder) Option {
	return func(h *Handler) { h.authFailures = r }
}

// WithAuditLog mounts the admin audit route, guarded by token.
func WithAuditLog(l AuditLister, token string) Option {
	return func(h *Handler) {
		h.auditLog = l
		h.adminToken = token
	}
}

func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// WithMinLengths sets the query lengths below which lookups answer empty
// without calling the catalog.
func WithMinLengths(postal, makes int) Option {
	return func(h *Handler) {
		h.postalMinLength = postal
		h.makeMinLength = makes
	}
}

func New(quotes QuoteService, catalog lookup.Catalog, validator auth.JWTValidator, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		quotes:          quotes,
		catalog:         catalog,
		logger:          logger,
		jwtValidator:    validator,
		timeout:         30 * time.Second,
		postalMinLength: lookup.DefaultPostalMinLength,
		makeMinLength:   lookup.DefaultMakeMinLength,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(request.Recovery(h.logger))
	router.Use(request.RequestID)
	router.Use(request.Logger(h.logger))
	router.Use(metadata.ClientMetadata)
	router.Use(requesttime.Middleware)

	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(h.jwtValidator, h.authFailures, h.logger))
		r.Get("/quotes/{type}/{id}", h.handleGetQuote)
		r.Put("/quotes/{type}/{id}", h.handleSaveQuote)
		r.Get("/lookups/cities", h.handleCities)
		r.Get("/lookups/makes", h.handleMakes)
		r.Get("/lookups/makes/{makeID}/models", h.handleModels)
		r.Get("/reference", h.handleReference)
	})

	if h.auditLog != nil {
		router.Group(func(r chi.Router) {
			r.Use(admin.RequireAdminToken(h.adminToken, h.logger))
			r.Get("/admin/quotes/{id}/audit", h.handleAuditTrail)
		})
	}

	r.Mount("/", router)
}

func (h *Handler) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func pathQuote(r *http.Request) (id.QuoteType, id.QuoteID, error) {
	quoteType, err := id.ParseQuoteType(chi.URLParam(r, "type"))
	if err != nil {
		return "", id.QuoteID{}, err
	}
	quoteID, err := id.ParseQuoteID(chi.URLParam(r, "id"))
	if err != nil {
		return "", id.QuoteID{}, err
	}
	return quoteType, quoteID, nil
}

type quoteResponse struct {
	Type   id.QuoteType                             `json:"type"`
	Quote  models.Quote                             `json:"quote"`
	Errors map[editmodel.Path][]editmodel.ErrorCode `json:"errors"`
}

func (h *Handler) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	quoteType, quoteID, err := pathQuote(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sess, err := h.quotes.Open(ctx, quoteType, quoteID, service.WithoutLookups())
	if err != nil {
		h.logError(ctx, "open quote failed", quoteID, err)
		httputil.WriteError(w, err)
		return
	}
	defer sess.Close()

	m := sess.Model()
	m.TouchAll()
	httputil.WriteJSON(w, http.StatusOK, quoteResponse{
		Type:   quoteType,
		Quote:  m.Quote(),
		Errors: m.VisibleErrors().Fields,
	})
}

type saveResponse struct {
	States       []service.State                          `json:"states"`
	Quote        models.Quote                             `json:"quote,omitempty"`
	Notification *notification.Notification               `json:"notification,omitempty"`
	Error        string                                   `json:"error,omitempty"`
	Description  string                                   `json:"error_description,omitempty"`
	Fields       map[editmodel.Path][]editmodel.ErrorCode `json:"fields,omitempty"`
}

func (h *Handler) handleSaveQuote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	quoteType, quoteID, err := pathQuote(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	submitted, _ := models.Empty(quoteType)
	if err := httputil.DecodeJSON(r, submitted); err != nil {
		httputil.WriteError(w, err)
		return
	}
	head := submitted.Head()
	if head.ID.IsNil() {
		head.ID = quoteID
	}
	if head.ID != quoteID {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "quote id does not match the path"))
		return
	}

	sess, err := h.quotes.Open(ctx, quoteType, quoteID, service.WithoutLookups())
	if err != nil {
		h.logError(ctx, "open quote failed", quoteID, err)
		httputil.WriteError(w, err)
		return
	}
	defer sess.Close()

	if err := sess.Model().Replace(submitted); err != nil {
		httputil.WriteError(w, err)
		return
	}

	attempt, err := sess.Save(ctx)
	if attempt == nil {
		httputil.WriteError(w, err)
		return
	}
	resp := saveResponse{States: attempt.States}
	if n, ok := sess.Notifications().Current(); ok {
		resp.Notification = &n
	}

	var (
		rejected  *service.ValidationRejected
		transport *service.TransportError
		persist   *service.PersistenceError
	)
	switch {
	case err == nil:
		resp.Quote = sess.Model().Baseline()
		httputil.WriteJSON(w, http.StatusOK, resp)
	case errors.As(err, &rejected):
		resp.Error = string(dErrors.CodeValidation)
		resp.Fields = rejected.Report.Fields
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.As(err, &transport):
		resp.Error = string(dErrors.CodeUnavailable)
		resp.Description = service.MessageTransportFailure
		httputil.WriteJSON(w, http.StatusBadGateway, resp)
	case errors.As(err, &persist):
		resp.Error = "persistence_failed"
		resp.Description = persist.UserMessage()
		httputil.WriteJSON(w, http.StatusBadGateway, resp)
	default:
		h.logError(ctx, "save quote failed", quoteID, err)
		resp.Error = string(dErrors.CodeInternal)
		httputil.WriteJSON(w, http.StatusInternalServerError, resp)
	}
}

func (h *Handler) handleCities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	code := strings.TrimSpace(r.URL.Query().Get("postal_code"))
	cities := []string{}
	if len(code) >= h.postalMinLength {
		found, err := h.catalog.CitiesByPostalCode(ctx, code)
		if err != nil {
			h.logger.WarnContext(ctx, "city lookup degraded to empty", "postal_code", code, "error", err)
		} else if found != nil {
			cities = found
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"cities": cities})
}

func (h *Handler) handleMakes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	makes := []lookup.Make{}
	if len([]rune(q)) >= h.makeMinLength {
		found, err := h.catalog.SearchMakes(ctx, q)
		if err != nil {
			h.logger.WarnContext(ctx, "make lookup degraded to empty", "query", q, "error", err)
		} else if found != nil {
			makes = found
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]lookup.Make{"makes": makes})
}

func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	makeID := chi.URLParam(r, "makeID")
	found, err := h.catalog.SearchModels(ctx, makeID, strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		h.logger.WarnContext(ctx, "model lookup degraded to empty", "make_id", makeID, "error", err)
		found = nil
	}
	if found == nil {
		found = []lookup.Model{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]lookup.Model{"models": found})
}

// handleReference serves the lists a view loads once when it opens.
func (h *Handler) handleReference(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()
	httputil.WriteJSON(w, http.StatusOK, lookup.NewReference(h.catalog, h.logger).Load(ctx))
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	quoteID, err := id.ParseQuoteID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.auditLog.List(ctx, quoteID.String())
	if err != nil {
		h.logError(ctx, "list audit events failed", quoteID, err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]audit.Event{"events": events})
}

func (h *Handler) logError(ctx context.Context, msg string, quoteID id.QuoteID, err error) {
	h.logger.ErrorContext(ctx, msg,
		"quote_id", quoteID.String(),
		"request_id", request.GetRequestID(ctx),
		"error", err,
	)
}
