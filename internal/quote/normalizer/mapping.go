package normalizer

import (
	"strings"

	"brokerdesk/internal/quote/models"
	"brokerdesk/internal/quote/records"
)

// personFromRecord is the backend→canonical person renaming table. A nil
// record yields an empty person.
func personFromRecord(r *records.PersonRecord) models.Person {
	if r == nil {
		return models.Person{}
	}
	return models.Person{
		ID:               r.ID.String(),
		FirstName:        r.Prenom,
		LastName:         r.Nom,
		BirthDate:        records.NormalizeDatePtr(r.DateNaissance),
		NationalNumber:   r.NumeroNational,
		IDCardNumber:     r.NumeroCarteIdentite,
		IDCardValidUntil: records.NormalizeDatePtr(r.ValiditeCarteIdentite),
		Street:           r.Rue,
		PostalCode:       r.CodePostal.String(),
		City:             r.Localite,
		Phone:            r.Telephone,
		Email:            r.Email,
		Nationality:      r.Nationalite,
		MaritalStatusID:  r.EtatCivilID.String(),
		Relationship:     r.Lien,
	}
}

func vehicleFromRecord(r *records.VehiculeRecord) models.Vehicle {
	if r == nil {
		return models.Vehicle{}
	}
	return models.Vehicle{
		MakeID:            r.MarqueID.String(),
		Make:              r.Marque,
		Model:             r.Modele,
		Year:              int(r.Annee),
		LicensePlate:      r.Plaque,
		FirstRegistration: records.NormalizeDatePtr(r.DatePremiereImmatriculation),
		PowerKW:           int(r.PuissanceKW),
	}
}

// NormalizeQuote canonicalizes an already-typed quote: trims text, rewrites
// dates to YYYY-MM-DD (dropping unparseable ones) and upper-cases plates.
// The status is kept byte for byte; it is written back on save.
// Applying it twice is the same as applying it once.
func NormalizeQuote(q models.Quote) models.Quote {
	if q == nil {
		return nil
	}
	out := q.Clone()
	h := out.Head()
	if h.InsurerID != nil {
		v := strings.TrimSpace(*h.InsurerID)
		if v == "" {
			h.InsurerID = nil
		} else {
			h.InsurerID = &v
		}
	}

	switch v := out.(type) {
	case *models.AutoQuote:
		v.Policyholder = normalizePerson(v.Policyholder)
		if v.Driver != nil {
			d := normalizePerson(*v.Driver)
			v.Driver = &d
		}
		v.Vehicle.Make = strings.TrimSpace(v.Vehicle.Make)
		v.Vehicle.Model = strings.TrimSpace(v.Vehicle.Model)
		v.Vehicle.LicensePlate = strings.ToUpper(strings.TrimSpace(v.Vehicle.LicensePlate))
		v.Vehicle.FirstRegistration = records.NormalizeDate(v.Vehicle.FirstRegistration)
	case *models.HabitationQuote:
		v.Policyholder = normalizePerson(v.Policyholder)
		v.Building.Street = strings.TrimSpace(v.Building.Street)
		v.Building.PostalCode = strings.TrimSpace(v.Building.PostalCode)
		v.Building.City = strings.TrimSpace(v.Building.City)
	case *models.ObsequesQuote:
		v.Policyholder = normalizePerson(v.Policyholder)
		if v.InsuredPersons == nil {
			v.InsuredPersons = []models.Person{}
		}
		for i := range v.InsuredPersons {
			v.InsuredPersons[i] = normalizePerson(v.InsuredPersons[i])
		}
	case *models.VoyageQuote:
		v.Description = strings.TrimSpace(v.Description)
	case *models.RcFamilialeQuote:
		v.Policyholder = normalizePerson(v.Policyholder)
	}
	return out
}

func normalizePerson(p models.Person) models.Person {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.BirthDate = records.NormalizeDate(p.BirthDate)
	p.NationalNumber = strings.TrimSpace(p.NationalNumber)
	p.IDCardNumber = strings.TrimSpace(p.IDCardNumber)
	p.IDCardValidUntil = records.NormalizeDate(p.IDCardValidUntil)
	p.Street = strings.TrimSpace(p.Street)
	p.PostalCode = strings.TrimSpace(p.PostalCode)
	p.City = strings.TrimSpace(p.City)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Nationality = strings.TrimSpace(p.Nationality)
	return p
}
