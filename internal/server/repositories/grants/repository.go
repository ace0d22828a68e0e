// Package grants is the access list deciding which account may decrypt
// which ciphertext handle. Grants are only ever added.
package grants

import (
	"context"

	"github.com/dmitrijs2005/gophmatch/internal/fhe"
)

type Repository interface {
	// Grant is idempotent.
	Grant(ctx context.Context, h fhe.Handle, account fhe.Address) error
	IsAllowed(ctx context.Context, h fhe.Handle, account fhe.Address) (bool, error)
}
