package payload

import (
	"brokerdesk/internal/quote/models"
	"brokerdesk/internal/quote/records"
)

// PersonParams is the nested person argument. Keys match the backend person
// columns.
type PersonParams struct {
	ID                    string  `json:"id,omitempty"`
	Prenom                string  `json:"prenom"`
	Nom                   string  `json:"nom"`
	DateNaissance         *string `json:"date_naissance"`
	NumeroNational        string  `json:"numero_national"`
	NumeroCarteIdentite   string  `json:"numero_carte_identite"`
	ValiditeCarteIdentite *string `json:"validite_carte_identite"`
	Rue                   string  `json:"rue"`
	CodePostal            string  `json:"code_postal"`
	Localite              string  `json:"localite"`
	Telephone             string  `json:"telephone"`
	Email                 string  `json:"email"`
	Nationalite           string  `json:"nationalite"`
	EtatCivilID           string  `json:"etat_civil_id"`
	Lien                  string  `json:"lien,omitempty"`
}

func personParams(p models.Person) PersonParams {
	return PersonParams{
		ID:                    p.ID,
		Prenom:                p.FirstName,
		Nom:                   p.LastName,
		DateNaissance:         interchangeDate(p.BirthDate),
		NumeroNational:        p.NationalNumber,
		NumeroCarteIdentite:   p.IDCardNumber,
		ValiditeCarteIdentite: interchangeDate(p.IDCardValidUntil),
		Rue:                   p.Street,
		CodePostal:            p.PostalCode,
		Localite:              p.City,
		Telephone:             p.Phone,
		Email:                 p.Email,
		Nationalite:           p.Nationality,
		EtatCivilID:           p.MaritalStatusID,
		Lien:                  p.Relationship,
	}
}

func (p PersonParams) record() records.PersonRecord {
	return records.PersonRecord{
		ID:                    records.FlexString(p.ID),
		Prenom:                p.Prenom,
		Nom:                   p.Nom,
		DateNaissance:         p.DateNaissance,
		NumeroNational:        p.NumeroNational,
		NumeroCarteIdentite:   p.NumeroCarteIdentite,
		ValiditeCarteIdentite: p.ValiditeCarteIdentite,
		Rue:                   p.Rue,
		CodePostal:            records.FlexString(p.CodePostal),
		Localite:              p.Localite,
		Telephone:             p.Telephone,
		Email:                 p.Email,
		Nationalite:           p.Nationalite,
		EtatCivilID:           records.FlexString(p.EtatCivilID),
		Lien:                  p.Lien,
	}
}
