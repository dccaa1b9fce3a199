// Package records holds the raw quote shapes exchanged with the backend.
//
// Field names follow the backend views (French, snake_case). Nothing here
// validates; the normalizer maps these shapes onto the canonical models and
// the payload package writes them back.
package records

// PersonRecord is the person sub-record found under preneur, conducteur,
// preneur_obseques and in the assures array.
type PersonRecord struct {
	ID                    FlexString `json:"id,omitempty"`
	Prenom                string     `json:"prenom"`
	Nom                   string     `json:"nom"`
	DateNaissance         *string    `json:"date_naissance"`
	NumeroNational        string     `json:"numero_national,omitempty"`
	NumeroCarteIdentite   string     `json:"numero_carte_identite,omitempty"`
	ValiditeCarteIdentite *string    `json:"validite_carte_identite,omitempty"`
	Rue                   string     `json:"rue,omitempty"`
	CodePostal            FlexString `json:"code_postal,omitempty"`
	Localite              string     `json:"localite,omitempty"`
	Telephone             string     `json:"telephone,omitempty"`
	Email                 string     `json:"email,omitempty"`
	Nationalite           string     `json:"nationalite,omitempty"`
	EtatCivilID           FlexString `json:"etat_civil_id,omitempty"`
	Lien                  string     `json:"lien,omitempty"`
}

// Common carries the columns every devis view exposes.
type Common struct {
	ID         string     `json:"id"`
	Statut     string     `json:"statut"`
	AssureurID FlexString `json:"assureur_id,omitempty"`
}

type VehiculeRecord struct {
	MarqueID                    FlexString `json:"marque_id,omitempty"`
	Marque                      string     `json:"marque,omitempty"`
	Modele                      string     `json:"modele,omitempty"`
	Annee                       FlexInt    `json:"annee,omitempty"`
	Plaque                      string     `json:"plaque,omitempty"`
	DatePremiereImmatriculation *string    `json:"date_premiere_immatriculation,omitempty"`
	PuissanceKW                 FlexInt    `json:"puissance_kw,omitempty"`
}

type GarantiesAutoRecord struct {
	RC                   bool  `json:"rc"`
	Omnium               *bool `json:"omnium,omitempty"`
	MiniOmnium           *bool `json:"mini_omnium,omitempty"`
	Vol                  *bool `json:"vol,omitempty"`
	Assistance           *bool `json:"assistance,omitempty"`
	ProtectionConducteur *bool `json:"protection_conducteur,omitempty"`
	ProtectionJuridique  *bool `json:"protection_juridique,omitempty"`
}

type AutoRecord struct {
	Common
	PreneurID    FlexString          `json:"preneur_id"`
	ConducteurID FlexString          `json:"conducteur_id"`
	Preneur      *PersonRecord       `json:"preneur"`
	Conducteur   *PersonRecord       `json:"conducteur,omitempty"`
	Vehicule     *VehiculeRecord     `json:"vehicule"`
	Garanties    GarantiesAutoRecord `json:"garanties"`
}

type BatimentRecord struct {
	Rue               string     `json:"rue,omitempty"`
	CodePostal        FlexString `json:"code_postal,omitempty"`
	Localite          string     `json:"localite,omitempty"`
	TypeBatiment      string     `json:"type_batiment,omitempty"`
	NombrePieces      FlexInt    `json:"nombre_pieces,omitempty"`
	QualiteOccupant   string     `json:"qualite_occupant,omitempty"`
	AnneeConstruction FlexInt    `json:"annee_construction,omitempty"`
}

type EvaluationRecord struct {
	Methode string    `json:"methode,omitempty"`
	Montant FlexFloat `json:"montant,omitempty"`
}

type GarantiesHabitationRecord struct {
	Incendie               bool  `json:"incendie"`
	Contenu                *bool `json:"contenu,omitempty"`
	Vol                    *bool `json:"vol,omitempty"`
	CatastrophesNaturelles *bool `json:"catastrophes_naturelles,omitempty"`
	ProtectionJuridique    *bool `json:"protection_juridique,omitempty"`
}

type HabitationRecord struct {
	Common
	Preneur    *PersonRecord             `json:"preneur"`
	Batiment   *BatimentRecord           `json:"batiment"`
	Evaluation *EvaluationRecord         `json:"evaluation"`
	Garanties  GarantiesHabitationRecord `json:"garanties"`
}

type ObsequesRecord struct {
	Common
	PreneurObseques   *PersonRecord  `json:"preneur_obseques"`
	Assures           []PersonRecord `json:"assures"`
	Capital           FlexFloat      `json:"capital,omitempty"`
	FrequencePaiement string         `json:"frequence_paiement,omitempty"`
	PreneurEstAssure  *bool          `json:"preneur_est_assure,omitempty"`
	NombreAssures     FlexInt        `json:"nombre_assures"`
}

type VoyageRecord struct {
	Common
	Description string `json:"description"`
}

// RcRecord is flat: the policyholder columns sit next to the devis columns.
// The devis columns are declared directly so that "id" resolves to the devis
// id and shadows PersonRecord.ID.
type RcRecord struct {
	ID         string     `json:"id"`
	Statut     string     `json:"statut"`
	AssureurID FlexString `json:"assureur_id,omitempty"`
	PersonRecord
	CompositionMenage  FlexInt `json:"composition_menage,omitempty"`
	NombreEnfants      FlexInt `json:"nombre_enfants,omitempty"`
	Animaux            *bool   `json:"animaux,omitempty"`
	SituationFamiliale string  `json:"situation_familiale,omitempty"`
}

// Head returns the devis columns of an RC record in the shared shape.
func (r *RcRecord) Head() Common {
	return Common{ID: r.ID, Statut: r.Statut, AssureurID: r.AssureurID}
}
