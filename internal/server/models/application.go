package models

import (
	"time"

	"github.com/dmitrijs2005/gophmatch/internal/fhe"
)

// Criteria are the plaintext eligibility constraints of an application.
type Criteria struct {
	Country      Bound[uint32]
	City         Bound[uint32]
	MinSalary    Bound[uint64]
	MaxSalary    Bound[uint64]
	MinBirthYear Bound[uint16]
	MaxBirthYear Bound[uint16]
}

// RawCriteria is Criteria in the 0-means-any wire convention.
type RawCriteria struct {
	CountryID    uint32
	CityID       uint32
	MinSalary    uint64
	MaxSalary    uint64
	MinBirthYear uint16
	MaxBirthYear uint16
}

func (r RawCriteria) Criteria() Criteria {
	return Criteria{
		Country:      FromRaw(r.CountryID),
		City:         FromRaw(r.CityID),
		MinSalary:    FromRaw(r.MinSalary),
		MaxSalary:    FromRaw(r.MaxSalary),
		MinBirthYear: FromRaw(r.MinBirthYear),
		MaxBirthYear: FromRaw(r.MaxBirthYear),
	}
}

func (c Criteria) Raw() RawCriteria {
	return RawCriteria{
		CountryID:    c.Country.Raw(),
		CityID:       c.City.Raw(),
		MinSalary:    c.MinSalary.Raw(),
		MaxSalary:    c.MaxSalary.Raw(),
		MinBirthYear: c.MinBirthYear.Raw(),
		MaxBirthYear: c.MaxBirthYear.Raw(),
	}
}

// Application is a published set of criteria. Criteria never change after
// creation; only Active can be cleared, by the creator.
type Application struct {
	ID        uint64
	Creator   fhe.Address
	Active    bool
	Criteria  Criteria
	CreatedAt time.Time
}
