// Package applications persists published eligibility criteria.
package applications

import (
	"context"

	"github.com/dmitrijs2005/gophmatch/internal/server/models"
)

type Repository interface {
	// Create inserts app under the id it already carries.
	Create(ctx context.Context, app *models.Application) error
	Get(ctx context.Context, id uint64) (*models.Application, error)
	// IsActive reads only the mutable flag; common.ErrorNotFound when id does
	// not exist.
	IsActive(ctx context.Context, id uint64) (bool, error)
	// SetActive returns common.ErrorNotFound when id does not exist.
	SetActive(ctx context.Context, id uint64, active bool) error
}
