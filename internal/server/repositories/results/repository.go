// Package results persists the latest encrypted verdict per
// (application, applicant).
package results

import (
	"context"

	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
)

type Repository interface {
	// Put stores r, overwriting an earlier result for the same pair.
	Put(ctx context.Context, r *models.ApplicationResult) error
	Get(ctx context.Context, applicationID uint64, applicant fhe.Address) (*models.ApplicationResult, error)
}
