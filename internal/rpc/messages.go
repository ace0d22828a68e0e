package rpc

import (
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
)

// Messages map onto the protobuf schema of package gophmatch.v1: the proto
// tag is the field number and the json tag the field name. Handles travel
// as 32-byte bytes fields, addresses as strings.

type Empty struct{}

type RegisterRequest struct {
	Username string       `json:"username" proto:"1" validate:"required,max=64"`
	Handles  []fhe.Handle `json:"handles" proto:"2" validate:"len=4"`
	Proof    []byte       `json:"proof" proto:"3" validate:"required"`
}

// Criteria uses 0 for an unconstrained bound.
type Criteria struct {
	CountryID    uint32 `json:"country_id" proto:"1"`
	CityID       uint32 `json:"city_id" proto:"2"`
	MinSalary    uint64 `json:"min_salary" proto:"3"`
	MaxSalary    uint64 `json:"max_salary" proto:"4"`
	MinBirthYear uint16 `json:"min_birth_year" proto:"5"`
	MaxBirthYear uint16 `json:"max_birth_year" proto:"6"`
}

type CreateApplicationRequest struct {
	Criteria Criteria `json:"criteria" proto:"1"`
}

type ApplicationIDResponse struct {
	ID uint64 `json:"id" proto:"1"`
}

type ApplicationRequest struct {
	ID uint64 `json:"id" proto:"1"`
}

type Application struct {
	ID       uint64      `json:"id" proto:"1"`
	Creator  fhe.Address `json:"creator" proto:"2"`
	Active   bool        `json:"active" proto:"3"`
	Criteria Criteria    `json:"criteria" proto:"4"`
}

type HandleResponse struct {
	Handle fhe.Handle `json:"handle" proto:"1"`
}

type UserRequest struct {
	Account fhe.Address `json:"account" proto:"1" validate:"required"`
}

type User struct {
	Account    fhe.Address `json:"account" proto:"1"`
	Username   string      `json:"username" proto:"2"`
	Country    fhe.Handle  `json:"country" proto:"3"`
	City       fhe.Handle  `json:"city" proto:"4"`
	Salary     fhe.Handle  `json:"salary" proto:"5"`
	BirthYear  fhe.Handle  `json:"birth_year" proto:"6"`
	Registered bool        `json:"registered" proto:"7"`
}

type ApplicationResultRequest struct {
	ID      uint64      `json:"id" proto:"1"`
	Account fhe.Address `json:"account" proto:"2" validate:"required"`
}

type IsAllowedRequest struct {
	Handle  fhe.Handle  `json:"handle" proto:"1"`
	Account fhe.Address `json:"account" proto:"2" validate:"required"`
}

type IsAllowedResponse struct {
	Allowed bool `json:"allowed" proto:"1"`
}

type Plaintext struct {
	Kind  fhe.Kind `json:"kind" proto:"1"`
	Value uint64   `json:"value" proto:"2"`
}

type EncryptInputRequest struct {
	Values []Plaintext `json:"values" proto:"1" validate:"required,min=1,max=16,dive"`
}

type EncryptInputResponse struct {
	Handles []fhe.Handle `json:"handles" proto:"1"`
	Proof   []byte       `json:"proof" proto:"2"`
}

type DecryptRequest struct {
	Handle fhe.Handle `json:"handle" proto:"1"`
}

type DecryptResponse struct {
	Value uint64 `json:"value" proto:"1"`
}
