package models

// Person is the identity record shared by policyholders, co-drivers and
// insured dependents. Dates are canonical YYYY-MM-DD strings; an empty string
// means the value is absent.
//
// Invariant (enforced by the edit model, not here): when both BirthDate and
// NationalNumber are set, the date encoded in the number equals BirthDate.
type Person struct {
	ID               string `json:"id,omitempty"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	BirthDate        string `json:"birthDate,omitempty"`
	NationalNumber   string `json:"nationalNumber,omitempty"`
	IDCardNumber     string `json:"idCardNumber,omitempty"`
	IDCardValidUntil string `json:"idCardValidUntil,omitempty"`
	Street           string `json:"street,omitempty"`
	PostalCode       string `json:"postalCode,omitempty"`
	City             string `json:"city,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Email            string `json:"email,omitempty"`
	Nationality      string `json:"nationality,omitempty"`
	MaritalStatusID  string `json:"maritalStatusId,omitempty"`
	// Relationship links an insured dependent to the policyholder (obsèques).
	Relationship string `json:"relationship,omitempty"`
}

// FullName joins first and last name for display and notifications.
func (p Person) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

// Vehicle is the insured vehicle of an auto quote. MakeID keys the reference
// catalogue used to resolve models.
type Vehicle struct {
	MakeID            string `json:"makeId,omitempty"`
	Make              string `json:"make,omitempty"`
	Model             string `json:"model,omitempty"`
	Year              int    `json:"year,omitempty"`
	LicensePlate      string `json:"licensePlate,omitempty"`
	FirstRegistration string `json:"firstRegistration,omitempty"`
	PowerKW           int    `json:"powerKw,omitempty"`
}

// Building is the insured dwelling of a habitation quote.
type Building struct {
	Street     string `json:"street,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	City       string `json:"city,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Rooms      int    `json:"rooms,omitempty"`
	Occupancy  string `json:"occupancy,omitempty"`
	BuiltYear  int    `json:"builtYear,omitempty"`
}

// Evaluation records how the building value was assessed.
type Evaluation struct {
	Method string  `json:"method,omitempty"`
	Amount float64 `json:"amount,omitempty"`
}

// RiskScope describes the household covered by a family-liability quote.
type RiskScope struct {
	HouseholdSize int    `json:"householdSize,omitempty"`
	Children      int    `json:"children,omitempty"`
	Pets          *bool  `json:"pets,omitempty"`
	FamilyStatus  string `json:"familyStatus,omitempty"`
}
