package models

import (
	"time"

	"github.com/dmitrijs2005/gophmatch/internal/fhe"
)

// ApplicationResult is the latest encrypted verdict for an
// (application, applicant) pair.
type ApplicationResult struct {
	ApplicationID uint64
	Applicant     fhe.Address
	Result        fhe.Handle // ebool
	UpdatedAt     time.Time
}

// Grant authorizes Account to decrypt Handle through the gateway.
type Grant struct {
	Handle  fhe.Handle
	Account fhe.Address
}
