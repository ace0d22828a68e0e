package services

import (
	"context"

	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/repomanager"
)

// GetApplicationResult returns the latest result handle account obtained for
// application id, or common.ErrorNotFound if it never applied.
func (s *MatchService) GetApplicationResult(ctx context.Context, id uint64, account fhe.Address) (fhe.Handle, error) {
	var h fhe.Handle
	err := s.ledger.View(ctx, func(ctx context.Context, r *repomanager.Repositories) error {
		res, err := r.Results.Get(ctx, id, account)
		if err != nil {
			return err
		}
		h = res.Result
		return nil
	})
	return h, err
}

// IsAllowed reports whether account holds a decryption grant for h.
func (s *MatchService) IsAllowed(ctx context.Context, h fhe.Handle, account fhe.Address) (bool, error) {
	var ok bool
	err := s.ledger.View(ctx, func(ctx context.Context, r *repomanager.Repositories) error {
		var err error
		ok, err = r.Grants.IsAllowed(ctx, h, account)
		return err
	})
	return ok, err
}
