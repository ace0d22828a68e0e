package models

import (
	"time"

	"github.com/dmitrijs2005/gophmatch/internal/fhe"
)

// UserRecord is an account's encrypted attribute tuple. A record with
// Registered == false carries zero handles and is never matched.
type UserRecord struct {
	Account    fhe.Address
	Username   string
	Country    fhe.Handle // euint32
	City       fhe.Handle // euint32
	Salary     fhe.Handle // euint64
	BirthYear  fhe.Handle // euint16
	Registered bool
	UpdatedAt  time.Time
}

// Handles lists the attribute handles in registration order.
func (u *UserRecord) Handles() []fhe.Handle {
	return []fhe.Handle{u.Country, u.City, u.Salary, u.BirthYear}
}

// AttributeKinds is the expected kind of each registration input, in the
// order Handles returns them.
var AttributeKinds = []fhe.Kind{fhe.KindUint32, fhe.KindUint32, fhe.KindUint64, fhe.KindUint16}
