// Package users persists encrypted user records keyed by account.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
)

type Repository interface {
	// Upsert stores u, replacing any previous record of the same account.
	Upsert(ctx context.Context, u *models.UserRecord) error
	// Get returns common.ErrorNotFound for an account that never registered.
	Get(ctx context.Context, account fhe.Address) (*models.UserRecord, error)
}
