package payload

import (
	"brokerdesk/internal/quote/models"
	"brokerdesk/internal/quote/records"
	id "brokerdesk/pkg/domain"
)

type VehiculeParams struct {
	MarqueID                    string  `json:"marque_id"`
	Marque                      string  `json:"marque"`
	Modele                      string  `json:"modele"`
	Annee                       int     `json:"annee"`
	Plaque                      string  `json:"plaque"`
	DatePremiereImmatriculation *string `json:"date_premiere_immatriculation"`
	PuissanceKW                 int     `json:"puissance_kw"`
}

type GarantiesAutoParams struct {
	RC                   bool `json:"rc"`
	Omnium               bool `json:"omnium"`
	MiniOmnium           bool `json:"mini_omnium"`
	Vol                  bool `json:"vol"`
	Assistance           bool `json:"assistance"`
	ProtectionConducteur bool `json:"protection_conducteur"`
	ProtectionJuridique  bool `json:"protection_juridique"`
}

// AutoPayload feeds update_devis_auto. Conducteur is present only when the
// driver differs from the policyholder.
type AutoPayload struct {
	Header
	Preneur             PersonParams        `json:"p_preneur"`
	ConducteurDifferent bool                `json:"p_conducteur_different"`
	Conducteur          *PersonParams       `json:"p_conducteur,omitempty"`
	Vehicule            VehiculeParams      `json:"p_vehicule"`
	Garanties           GarantiesAutoParams `json:"p_garanties"`
}

func (*AutoPayload) QuoteType() id.QuoteType { return id.QuoteTypeAuto }

func fromAuto(q *models.AutoQuote) *AutoPayload {
	p := &AutoPayload{
		Header:  headerFrom(&q.Header),
		Preneur: personParams(q.Policyholder),
		Vehicule: VehiculeParams{
			MarqueID:                    q.Vehicle.MakeID,
			Marque:                      q.Vehicle.Make,
			Modele:                      q.Vehicle.Model,
			Annee:                       q.Vehicle.Year,
			Plaque:                      q.Vehicle.LicensePlate,
			DatePremiereImmatriculation: interchangeDate(q.Vehicle.FirstRegistration),
			PuissanceKW:                 q.Vehicle.PowerKW,
		},
		Garanties: GarantiesAutoParams{
			RC:                   q.Guarantees.Liability,
			Omnium:               models.Bool(q.Guarantees.Omnium),
			MiniOmnium:           models.Bool(q.Guarantees.MiniOmnium),
			Vol:                  models.Bool(q.Guarantees.Theft),
			Assistance:           models.Bool(q.Guarantees.Assistance),
			ProtectionConducteur: models.Bool(q.Guarantees.DriverProtection),
			ProtectionJuridique:  models.Bool(q.Guarantees.LegalAssistance),
		},
	}
	if q.Driver != nil {
		d := personParams(*q.Driver)
		p.ConducteurDifferent = true
		p.Conducteur = &d
	}
	return p
}

func (p *AutoPayload) Record() any {
	preneur := p.Preneur.record()
	rec := &records.AutoRecord{
		Common:       p.common(),
		PreneurID:    records.FlexString(p.Preneur.ID),
		ConducteurID: records.FlexString(p.Preneur.ID),
		Preneur:      &preneur,
		Vehicule: &records.VehiculeRecord{
			MarqueID:                    records.FlexString(p.Vehicule.MarqueID),
			Marque:                      p.Vehicule.Marque,
			Modele:                      p.Vehicule.Modele,
			Annee:                       records.FlexInt(p.Vehicule.Annee),
			Plaque:                      p.Vehicule.Plaque,
			DatePremiereImmatriculation: p.Vehicule.DatePremiereImmatriculation,
			PuissanceKW:                 records.FlexInt(p.Vehicule.PuissanceKW),
		},
		Garanties: records.GarantiesAutoRecord{
			RC:                   p.Garanties.RC,
			Omnium:               models.BoolPtr(p.Garanties.Omnium),
			MiniOmnium:           models.BoolPtr(p.Garanties.MiniOmnium),
			Vol:                  models.BoolPtr(p.Garanties.Vol),
			Assistance:           models.BoolPtr(p.Garanties.Assistance),
			ProtectionConducteur: models.BoolPtr(p.Garanties.ProtectionConducteur),
			ProtectionJuridique:  models.BoolPtr(p.Garanties.ProtectionJuridique),
		},
	}
	if p.ConducteurDifferent && p.Conducteur != nil {
		driver := p.Conducteur.record()
		rec.ConducteurID = records.FlexString(p.Conducteur.ID)
		rec.Conducteur = &driver
	}
	return rec
}

type BatimentParams struct {
	Rue               string `json:"rue"`
	CodePostal        string `json:"code_postal"`
	Localite          string `json:"localite"`
	TypeBatiment      string `json:"type_batiment"`
	NombrePieces      int    `json:"nombre_pieces"`
	QualiteOccupant   string `json:"qualite_occupant"`
	AnneeConstruction int    `json:"annee_construction"`
}

type EvaluationParams struct {
	Methode string  `json:"methode"`
	Montant float64 `json:"montant"`
}

type GarantiesHabitationParams struct {
	Incendie               bool `json:"incendie"`
	Contenu                bool `json:"contenu"`
	Vol                    bool `json:"vol"`
	CatastrophesNaturelles bool `json:"catastrophes_naturelles"`
	ProtectionJuridique    bool `json:"protection_juridique"`
}

type HabitationPayload struct {
	Header
	Preneur    PersonParams              `json:"p_preneur"`
	Batiment   BatimentParams            `json:"p_batiment"`
	Evaluation EvaluationParams          `json:"p_evaluation"`
	Garanties  GarantiesHabitationParams `json:"p_garanties"`
}

func (*HabitationPayload) QuoteType() id.QuoteType { return id.QuoteTypeHabitation }

func fromHabitation(q *models.HabitationQuote) *HabitationPayload {
	b := q.Building
	return &HabitationPayload{
		Header:  headerFrom(&q.Header),
		Preneur: personParams(q.Policyholder),
		Batiment: BatimentParams{
			Rue:               b.Street,
			CodePostal:        b.PostalCode,
			Localite:          b.City,
			TypeBatiment:      b.Kind,
			NombrePieces:      b.Rooms,
			QualiteOccupant:   b.Occupancy,
			AnneeConstruction: b.BuiltYear,
		},
		Evaluation: EvaluationParams{Methode: q.Evaluation.Method, Montant: q.Evaluation.Amount},
		Garanties: GarantiesHabitationParams{
			Incendie:               q.Guarantees.Fire,
			Contenu:                models.Bool(q.Guarantees.Contents),
			Vol:                    models.Bool(q.Guarantees.Theft),
			CatastrophesNaturelles: models.Bool(q.Guarantees.NaturalDisasters),
			ProtectionJuridique:    models.Bool(q.Guarantees.LegalAssistance),
		},
	}
}

func (p *HabitationPayload) Record() any {
	preneur := p.Preneur.record()
	return &records.HabitationRecord{
		Common:  p.common(),
		Preneur: &preneur,
		Batiment: &records.BatimentRecord{
			Rue:               p.Batiment.Rue,
			CodePostal:        records.FlexString(p.Batiment.CodePostal),
			Localite:          p.Batiment.Localite,
			TypeBatiment:      p.Batiment.TypeBatiment,
			NombrePieces:      records.FlexInt(p.Batiment.NombrePieces),
			QualiteOccupant:   p.Batiment.QualiteOccupant,
			AnneeConstruction: records.FlexInt(p.Batiment.AnneeConstruction),
		},
		Evaluation: &records.EvaluationRecord{
			Methode: p.Evaluation.Methode,
			Montant: records.FlexFloat(p.Evaluation.Montant),
		},
		Garanties: records.GarantiesHabitationRecord{
			Incendie:               p.Garanties.Incendie,
			Contenu:                models.BoolPtr(p.Garanties.Contenu),
			Vol:                    models.BoolPtr(p.Garanties.Vol),
			CatastrophesNaturelles: models.BoolPtr(p.Garanties.CatastrophesNaturelles),
			ProtectionJuridique:    models.BoolPtr(p.Garanties.ProtectionJuridique),
		},
	}
}

// ObsequesPayload feeds update_devis_obseques. Assures is never null and
// NombreAssures always equals its length.
type ObsequesPayload struct {
	Header
	Preneur           PersonParams   `json:"p_preneur"`
	Assures           []PersonParams `json:"p_assures"`
	Capital           float64        `json:"p_capital"`
	FrequencePaiement string         `json:"p_frequence_paiement"`
	PreneurEstAssure  bool           `json:"p_preneur_est_assure"`
	NombreAssures     int            `json:"p_nombre_assures"`
}

func (*ObsequesPayload) QuoteType() id.QuoteType { return id.QuoteTypeObseques }

func fromObseques(q *models.ObsequesQuote) *ObsequesPayload {
	assures := make([]PersonParams, 0, len(q.InsuredPersons))
	for _, p := range q.InsuredPersons {
		assures = append(assures, personParams(p))
	}
	return &ObsequesPayload{
		Header:            headerFrom(&q.Header),
		Preneur:           personParams(q.Policyholder),
		Assures:           assures,
		Capital:           q.Meta.Capital,
		FrequencePaiement: q.Meta.PaymentFrequency,
		PreneurEstAssure:  models.Bool(q.Meta.PolicyholderIsInsured),
		NombreAssures:     len(assures),
	}
}

func (p *ObsequesPayload) Record() any {
	preneur := p.Preneur.record()
	assures := make([]records.PersonRecord, 0, len(p.Assures))
	for _, a := range p.Assures {
		assures = append(assures, a.record())
	}
	return &records.ObsequesRecord{
		Common:            p.common(),
		PreneurObseques:   &preneur,
		Assures:           assures,
		Capital:           records.FlexFloat(p.Capital),
		FrequencePaiement: p.FrequencePaiement,
		PreneurEstAssure:  models.BoolPtr(p.PreneurEstAssure),
		NombreAssures:     records.FlexInt(p.NombreAssures),
	}
}

type VoyagePayload struct {
	Header
	Description string `json:"p_description"`
}

func (*VoyagePayload) QuoteType() id.QuoteType { return id.QuoteTypeVoyage }

func (p *VoyagePayload) Record() any {
	return &records.VoyageRecord{Common: p.common(), Description: p.Description}
}

type RcPayload struct {
	Header
	Preneur            PersonParams `json:"p_preneur"`
	CompositionMenage  int          `json:"p_composition_menage"`
	NombreEnfants      int          `json:"p_nombre_enfants"`
	Animaux            bool         `json:"p_animaux"`
	SituationFamiliale string       `json:"p_situation_familiale"`
}

func (*RcPayload) QuoteType() id.QuoteType { return id.QuoteTypeRcFamiliale }

func fromRc(q *models.RcFamilialeQuote) *RcPayload {
	return &RcPayload{
		Header:             headerFrom(&q.Header),
		Preneur:            personParams(q.Policyholder),
		CompositionMenage:  q.RiskScope.HouseholdSize,
		NombreEnfants:      q.RiskScope.Children,
		Animaux:            models.Bool(q.RiskScope.Pets),
		SituationFamiliale: q.RiskScope.FamilyStatus,
	}
}

// Record flattens the policyholder next to the devis columns, as the rc view
// does.
func (p *RcPayload) Record() any {
	c := p.common()
	return &records.RcRecord{
		ID:                 c.ID,
		Statut:             c.Statut,
		AssureurID:         c.AssureurID,
		PersonRecord:       p.Preneur.record(),
		CompositionMenage:  records.FlexInt(p.CompositionMenage),
		NombreEnfants:      records.FlexInt(p.NombreEnfants),
		Animaux:            models.BoolPtr(p.Animaux),
		SituationFamiliale: p.SituationFamiliale,
	}
}
