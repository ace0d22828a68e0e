package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/repomanager"
)

// Register verifies the caller's encrypted attributes and stores them,
// replacing an earlier registration. Only the caller is granted access to
// the stored handles.
//
// handles must be (country, city, salary, birth year) as produced by one
// input bundle for this contract and caller. A bad proof leaves the ledger
// untouched.
func (s *MatchService) Register(ctx context.Context, caller fhe.Address, username string, handles []fhe.Handle, proof []byte) (err error) {
	defer func() { observe("register", err) }()

	verified, err := s.fabric.FromExternal(ctx, s.contract, caller, handles, models.AttributeKinds, proof)
	if err != nil {
		return fmt.Errorf("verify inputs: %w", err)
	}

	u := &models.UserRecord{
		Account:    caller,
		Username:   username,
		Country:    verified[0],
		City:       verified[1],
		Salary:     verified[2],
		BirthYear:  verified[3],
		Registered: true,
		UpdatedAt:  s.now(),
	}

	err = s.ledger.Atomic(ctx, func(ctx context.Context, r *repomanager.Repositories) error {
		if err := r.Users.Upsert(ctx, u); err != nil {
			return fmt.Errorf("store user: %w", err)
		}
		for _, h := range u.Handles() {
			if err := r.Grants.Grant(ctx, h, caller); err != nil {
				return fmt.Errorf("grant: %w", err)
			}
		}
		return r.Events.Append(ctx, models.UserRegistered(caller, username))
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "user registered", "account", caller)
	return nil
}

// GetUser returns the record of account. An account that never registered
// yields a record with Registered == false and zero handles.
func (s *MatchService) GetUser(ctx context.Context, account fhe.Address) (*models.UserRecord, error) {
	var u *models.UserRecord
	err := s.ledger.View(ctx, func(ctx context.Context, r *repomanager.Repositories) error {
		var err error
		u, err = r.Users.Get(ctx, account)
		return err
	})

	if errors.Is(err, common.ErrorNotFound) {
		return &models.UserRecord{Account: account}, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
