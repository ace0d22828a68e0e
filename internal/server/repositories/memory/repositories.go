package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
)

type userRepository struct{ t *txn }

func (r *userRepository) Upsert(ctx context.Context, u *models.UserRecord) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	put(r.t, r.t.s.users, u.Account, *u)
	return nil
}

func (r *userRepository) Get(ctx context.Context, account fhe.Address) (*models.UserRecord, error) {
	u, ok := r.t.s.users[account]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

type applicationRepository struct{ t *txn }

func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	if _, taken := r.t.s.applications[app.ID]; taken {
		return fmt.Errorf("application %d already exists", app.ID)
	}
	put(r.t, r.t.s.applications, app.ID, *app)
	return nil
}

func (r *applicationRepository) Get(ctx context.Context, id uint64) (*models.Application, error) {
	app, ok := r.t.s.applications[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &app, nil
}

func (r *applicationRepository) IsActive(ctx context.Context, id uint64) (bool, error) {
	app, ok := r.t.s.applications[id]
	if !ok {
		return false, common.ErrorNotFound
	}
	return app.Active, nil
}

func (r *applicationRepository) SetActive(ctx context.Context, id uint64, active bool) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	app, ok := r.t.s.applications[id]
	if !ok {
		return common.ErrorNotFound
	}
	app.Active = active
	put(r.t, r.t.s.applications, id, app)
	return nil
}

type counterRepository struct{ t *txn }

func (r *counterRepository) Peek(ctx context.Context, name string) (uint64, error) {
	v, ok := r.t.s.counters[name]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return v, nil
}

func (r *counterRepository) Allocate(ctx context.Context, name string) (uint64, error) {
	if err := r.t.writable(); err != nil {
		return 0, err
	}
	v, ok := r.t.s.counters[name]
	if !ok {
		return 0, common.ErrorNotFound
	}
	put(r.t, r.t.s.counters, name, v+1)
	return v, nil
}

type resultRepository struct{ t *txn }

func (r *resultRepository) Put(ctx context.Context, res *models.ApplicationResult) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	put(r.t, r.t.s.results, resultKey{res.ApplicationID, res.Applicant}, *res)
	return nil
}

func (r *resultRepository) Get(ctx context.Context, applicationID uint64, applicant fhe.Address) (*models.ApplicationResult, error) {
	res, ok := r.t.s.results[resultKey{applicationID, applicant}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &res, nil
}

type grantRepository struct{ t *txn }

func (r *grantRepository) Grant(ctx context.Context, h fhe.Handle, account fhe.Address) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	put(r.t, r.t.s.grants, grantKey{h, account}, struct{}{})
	return nil
}

func (r *grantRepository) IsAllowed(ctx context.Context, h fhe.Handle, account fhe.Address) (bool, error) {
	_, ok := r.t.s.grants[grantKey{h, account}]
	return ok, nil
}

// eventRepository drops an event once it is delivered, so ListPending only
// ever walks undelivered events.
type eventRepository struct{ t *txn }

func (r *eventRepository) Append(ctx context.Context, e *models.Event) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	s := r.t.s

	s.lastSeq++
	e.Seq = s.lastSeq
	s.events[e.Seq] = *e
	s.pending = append(s.pending, e.Seq)

	r.t.onRollback(func() {
		delete(s.events, e.Seq)
		s.pending = s.pending[:len(s.pending)-1]
		s.lastSeq--
	})
	return nil
}

func (r *eventRepository) ListPending(ctx context.Context, limit int) ([]*models.Event, error) {
	s := r.t.s
	n := min(limit, len(s.pending))

	out := make([]*models.Event, 0, n)
	for _, seq := range s.pending[:n] {
		e := s.events[seq]
		out = append(out, &e)
	}
	return out, nil
}

func (r *eventRepository) MarkDelivered(ctx context.Context, seq int64, at time.Time) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	s := r.t.s

	e, ok := s.events[seq]
	if !ok {
		return common.ErrorNotFound
	}
	i, _ := slices.BinarySearch(s.pending, seq)

	delete(s.events, seq)
	if i == 0 {
		// the dispatcher delivers in order, so this is the common case
		s.pending = s.pending[1:]
	} else {
		s.pending = slices.Delete(s.pending, i, i+1)
	}

	r.t.onRollback(func() {
		s.events[seq] = e
		s.pending = slices.Insert(s.pending, i, seq)
	})
	return nil
}
