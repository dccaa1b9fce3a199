// Package payload shapes edit-model state into the per-type parameter sets of
// the backend's atomic update procedures.
//
// Every variant has one table in each direction: FromQuote renames canonical
// fields to p_-prefixed procedure parameters, and Record rebuilds the view row
// the backend would return after applying the payload.
package payload

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"brokerdesk/internal/quote/models"
	"brokerdesk/internal/quote/records"
	id "brokerdesk/pkg/domain"
)

// ErrNoMapping is returned for a quote value outside the five variants.
var ErrNoMapping = errors.New("no payload mapping")

// UpdatePayload is the argument of one atomic update call.
type UpdatePayload interface {
	QuoteType() id.QuoteType
	QuoteID() string
	// Record is the backend view row after the update has been applied.
	Record() any
}

// Header carries the devis columns shared by every procedure.
type Header struct {
	ID         string  `json:"p_id"`
	Statut     string  `json:"p_statut"`
	AssureurID *string `json:"p_assureur_id"`
}

func (h Header) QuoteID() string { return h.ID }

func (h Header) common() records.Common {
	c := records.Common{ID: h.ID, Statut: h.Statut}
	if h.AssureurID != nil {
		c.AssureurID = records.FlexString(*h.AssureurID)
	}
	return c
}

func headerFrom(h *models.Header) Header {
	out := Header{ID: h.ID.String(), Statut: string(h.Status)}
	if h.InsurerID != nil && *h.InsurerID != "" {
		v := *h.InsurerID
		out.AssureurID = &v
	}
	return out
}

// FromQuote maps a canonical quote onto its update payload.
func FromQuote(q models.Quote) (UpdatePayload, error) {
	switch v := q.(type) {
	case *models.AutoQuote:
		return fromAuto(v), nil
	case *models.HabitationQuote:
		return fromHabitation(v), nil
	case *models.ObsequesQuote:
		return fromObseques(v), nil
	case *models.VoyageQuote:
		return &VoyagePayload{Header: headerFrom(&v.Header), Description: v.Description}, nil
	case *models.RcFamilialeQuote:
		return fromRc(v), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrNoMapping, q)
	}
}

// Marshal encodes p as the procedure's JSON argument.
func Marshal(p UpdatePayload) ([]byte, error) {
	return json.Marshal(p)
}

// EchoJSON encodes the view row produced by p.
func EchoJSON(p UpdatePayload) ([]byte, error) {
	return json.Marshal(p.Record())
}

// interchangeDate renders a canonical date for the backend; absent dates are
// sent as null.
func interchangeDate(s string) *string {
	v := records.NormalizeDate(s)
	if v == "" {
		return nil
	}
	return &v
}
