package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/server/eligibility"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/repomanager"
)

// SubmitApplication evaluates the caller's record against application id and
// stores the encrypted verdict, replacing any earlier one. The caller alone
// is granted access to the returned handle.
func (s *MatchService) SubmitApplication(ctx context.Context, caller fhe.Address, id uint64) (result fhe.Handle, err error) {
	defer func() { observe("submit_application", err) }()

	err = s.ledger.Atomic(ctx, func(ctx context.Context, r *repomanager.Repositories) error {
		app, err := r.Applications.Get(ctx, id)
		if err != nil {
			return err
		}
		if !app.Active {
			return fmt.Errorf("%w: %d", common.ErrorApplicationClosed, id)
		}

		u, err := r.Users.Get(ctx, caller)
		if errors.Is(err, common.ErrorNotFound) || (err == nil && !u.Registered) {
			return fmt.Errorf("%w: %s", common.ErrorNotRegistered, caller)
		}
		if err != nil {
			return err
		}

		if result, err = eligibility.Evaluate(ctx, s.fabric, u, app.Criteria); err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}

		if err := r.Grants.Grant(ctx, result, caller); err != nil {
			return fmt.Errorf("grant: %w", err)
		}
		res := &models.ApplicationResult{ApplicationID: id, Applicant: caller, Result: result, UpdatedAt: s.now()}
		if err := r.Results.Put(ctx, res); err != nil {
			return fmt.Errorf("store result: %w", err)
		}
		return r.Events.Append(ctx, models.Applied(id, caller, result))
	})
	if err != nil {
		return fhe.Handle{}, err
	}

	s.logger.Info(ctx, "application submitted", "app_id", id, "applicant", caller)
	return result, nil
}
