// Package normalizer maps raw backend quote records onto the canonical quote
// models consumed by the edit model.
//
// Dispatch is a plain switch on the quote type supplied by the caller; the
// record shape is never sniffed. Display data is normalized best-effort:
// unparseable dates become absent fields. Identity numbers are copied as-is
// so that the edit model can fail loudly on them.
package normalizer

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"brokerdesk/internal/quote/editmodel"
	"brokerdesk/internal/quote/models"
	"brokerdesk/internal/quote/records"
	id "brokerdesk/pkg/domain"
)

var (
	// ErrUnsupportedQuoteType is returned for types outside the closed set.
	ErrUnsupportedQuoteType = errors.New("unsupported quote type")
	// ErrMalformedRecord is returned when the raw JSON cannot be decoded or
	// carries no usable devis id.
	ErrMalformedRecord = errors.New("malformed quote record")
)

// Normalize decodes raw according to quoteType and returns the canonical quote.
func Normalize(quoteType id.QuoteType, raw []byte) (models.Quote, error) {
	var (
		q   models.Quote
		err error
	)
	switch quoteType {
	case id.QuoteTypeAuto:
		q, err = normalizeAuto(raw)
	case id.QuoteTypeHabitation:
		q, err = normalizeHabitation(raw)
	case id.QuoteTypeObseques:
		q, err = normalizeObseques(raw)
	case id.QuoteTypeVoyage:
		q, err = normalizeVoyage(raw)
	case id.QuoteTypeRcFamiliale:
		q, err = normalizeRc(raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedQuoteType, string(quoteType))
	}
	if err != nil {
		return nil, err
	}
	return NormalizeQuote(q), nil
}

// ToEditModel normalizes raw and wraps the result in a fresh edit model whose
// baseline is the normalized record.
func ToEditModel(quoteType id.QuoteType, raw []byte) (*editmodel.Model, error) {
	q, err := Normalize(quoteType, raw)
	if err != nil {
		return nil, err
	}
	return editmodel.New(q), nil
}

func decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return nil
}

func header(c records.Common) (models.Header, error) {
	quoteID, err := id.ParseQuoteID(strings.TrimSpace(c.ID))
	if err != nil {
		return models.Header{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	h := models.Header{ID: quoteID, Status: models.Status(c.Statut)}
	if insurer := c.AssureurID.String(); insurer != "" {
		h.InsurerID = &insurer
	}
	return h, nil
}

func normalizeAuto(raw []byte) (models.Quote, error) {
	var rec records.AutoRecord
	if err := decode(raw, &rec); err != nil {
		return nil, err
	}
	h, err := header(rec.Common)
	if err != nil {
		return nil, err
	}
	q := &models.AutoQuote{
		Header:       h,
		Policyholder: personFromRecord(rec.Preneur),
		Vehicle:      vehicleFromRecord(rec.Vehicule),
		Guarantees: models.AutoGuarantees{
			Liability:        rec.Garanties.RC,
			Omnium:           rec.Garanties.Omnium,
			MiniOmnium:       rec.Garanties.MiniOmnium,
			Theft:            rec.Garanties.Vol,
			Assistance:       rec.Garanties.Assistance,
			DriverProtection: rec.Garanties.ProtectionConducteur,
			LegalAssistance:  rec.Garanties.ProtectionJuridique,
		},
	}
	if q.Policyholder.ID == "" {
		q.Policyholder.ID = rec.PreneurID.String()
	}
	if DriverDiffers(rec.PreneurID.String(), rec.ConducteurID.String()) {
		driver := personFromRecord(rec.Conducteur)
		if driver.ID == "" {
			driver.ID = rec.ConducteurID.String()
		}
		q.Driver = &driver
	}
	return q, nil
}

// DriverDiffers reports whether an auto record names a driver distinct from
// the policyholder. A missing driver id means the policyholder drives.
func DriverDiffers(policyholderID, driverID string) bool {
	return driverID != "" && driverID != policyholderID
}

func normalizeHabitation(raw []byte) (models.Quote, error) {
	var rec records.HabitationRecord
	if err := decode(raw, &rec); err != nil {
		return nil, err
	}
	h, err := header(rec.Common)
	if err != nil {
		return nil, err
	}
	q := &models.HabitationQuote{
		Header:       h,
		Policyholder: personFromRecord(rec.Preneur),
		Guarantees: models.HabitationGuarantees{
			Fire:             rec.Garanties.Incendie,
			Contents:         rec.Garanties.Contenu,
			Theft:            rec.Garanties.Vol,
			NaturalDisasters: rec.Garanties.CatastrophesNaturelles,
			LegalAssistance:  rec.Garanties.ProtectionJuridique,
		},
	}
	if b := rec.Batiment; b != nil {
		q.Building = models.Building{
			Street:     b.Rue,
			PostalCode: b.CodePostal.String(),
			City:       b.Localite,
			Kind:       b.TypeBatiment,
			Rooms:      int(b.NombrePieces),
			Occupancy:  b.QualiteOccupant,
			BuiltYear:  int(b.AnneeConstruction),
		}
	}
	if e := rec.Evaluation; e != nil {
		q.Evaluation = models.Evaluation{Method: e.Methode, Amount: float64(e.Montant)}
	}
	return q, nil
}

func normalizeObseques(raw []byte) (models.Quote, error) {
	var rec records.ObsequesRecord
	if err := decode(raw, &rec); err != nil {
		return nil, err
	}
	h, err := header(rec.Common)
	if err != nil {
		return nil, err
	}
	insured := make([]models.Person, 0, len(rec.Assures))
	for i := range rec.Assures {
		insured = append(insured, personFromRecord(&rec.Assures[i]))
	}
	return &models.ObsequesQuote{
		Header:         h,
		Policyholder:   personFromRecord(rec.PreneurObseques),
		InsuredPersons: insured,
		Meta: models.ObsequesMeta{
			Capital:               float64(rec.Capital),
			PaymentFrequency:      rec.FrequencePaiement,
			PolicyholderIsInsured: rec.PreneurEstAssure,
		},
	}, nil
}

func normalizeVoyage(raw []byte) (models.Quote, error) {
	var rec records.VoyageRecord
	if err := decode(raw, &rec); err != nil {
		return nil, err
	}
	h, err := header(rec.Common)
	if err != nil {
		return nil, err
	}
	return &models.VoyageQuote{Header: h, Description: rec.Description}, nil
}

func normalizeRc(raw []byte) (models.Quote, error) {
	var rec records.RcRecord
	if err := decode(raw, &rec); err != nil {
		return nil, err
	}
	h, err := header(rec.Head())
	if err != nil {
		return nil, err
	}
	return &models.RcFamilialeQuote{
		Header:       h,
		Policyholder: personFromRecord(&rec.PersonRecord),
		RiskScope: models.RiskScope{
			HouseholdSize: int(rec.CompositionMenage),
			Children:      int(rec.NombreEnfants),
			Pets:          rec.Animaux,
			FamilyStatus:  rec.SituationFamiliale,
		},
	}, nil
}
