package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/counters"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/repomanager"
)

// CreateApplication publishes criteria under the next id. The application is
// active and its criteria never change.
func (s *MatchService) CreateApplication(ctx context.Context, caller fhe.Address, c models.Criteria) (id uint64, err error) {
	defer func() { observe("create_application", err) }()

	err = s.ledger.Atomic(ctx, func(ctx context.Context, r *repomanager.Repositories) error {
		var err error
		if id, err = r.Counters.Allocate(ctx, counters.ApplicationID); err != nil {
			return fmt.Errorf("allocate id: %w", err)
		}

		app := &models.Application{
			ID:        id,
			Creator:   caller,
			Active:    true,
			Criteria:  c,
			CreatedAt: s.now(),
		}
		if err := r.Applications.Create(ctx, app); err != nil {
			return fmt.Errorf("store application: %w", err)
		}
		return r.Events.Append(ctx, models.ApplicationCreated(id, caller))
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "application created", "app_id", id, "creator", caller)
	return id, nil
}

// GetApplication returns common.ErrorNotFound for an id never issued.
// Cached criteria are reused, but the active flag always comes from the
// ledger, so a close made by another process is seen at once.
func (s *MatchService) GetApplication(ctx context.Context, id uint64) (*models.Application, error) {
	if app, ok := s.cache.get(id); ok {
		err := s.ledger.View(ctx, func(ctx context.Context, r *repomanager.Repositories) error {
			var err error
			app.Active, err = r.Applications.IsActive(ctx, id)
			return err
		})
		if err != nil {
			return nil, err
		}
		return app, nil
	}

	var app *models.Application
	err := s.ledger.View(ctx, func(ctx context.Context, r *repomanager.Repositories) error {
		var err error
		app, err = r.Applications.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.add(app)
	return app, nil
}

// CloseApplication deactivates id. Only its creator may close it; closing
// twice is a no-op.
func (s *MatchService) CloseApplication(ctx context.Context, caller fhe.Address, id uint64) (err error) {
	defer func() { observe("close_application", err) }()

	closed := false
	err = s.ledger.Atomic(ctx, func(ctx context.Context, r *repomanager.Repositories) error {
		app, err := r.Applications.Get(ctx, id)
		if err != nil {
			return err
		}
		if app.Creator != caller {
			return fmt.Errorf("%w: only the creator may close application %d", common.ErrorForbidden, id)
		}
		if !app.Active {
			return nil
		}
		if err := r.Applications.SetActive(ctx, id, false); err != nil {
			return err
		}
		closed = true
		return r.Events.Append(ctx, models.ApplicationClosed(id, caller))
	})
	if err != nil {
		return err
	}

	if closed {
		s.logger.Info(ctx, "application closed", "app_id", id)
	}
	return nil
}

// NextAppID is the id the next CreateApplication will be assigned.
func (s *MatchService) NextAppID(ctx context.Context) (uint64, error) {
	var next uint64
	err := s.ledger.View(ctx, func(ctx context.Context, r *repomanager.Repositories) error {
		var err error
		next, err = r.Counters.Peek(ctx, counters.ApplicationID)
		return err
	})
	return next, err
}
