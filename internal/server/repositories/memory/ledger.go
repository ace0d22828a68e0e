// Package memory is an in-process Ledger used when no database is configured
// and throughout the service tests. Transitions write the live state in place
// and record how to undo each write; a failed transition replays the undo log
// backwards. Views read the live state directly and may not write.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/counters"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/repomanager"
)

// ErrReadOnly is returned by a write attempted inside View.
var ErrReadOnly = errors.New("write in read-only view")

type resultKey struct {
	app       uint64
	applicant fhe.Address
}

type grantKey struct {
	handle  fhe.Handle
	account fhe.Address
}

type state struct {
	users        map[fhe.Address]models.UserRecord
	applications map[uint64]models.Application
	counters     map[string]uint64
	results      map[resultKey]models.ApplicationResult
	grants       map[grantKey]struct{}

	// Only undelivered events are kept. pending holds their sequence
	// numbers in ascending order.
	events  map[int64]models.Event
	pending []int64
	lastSeq int64
}

func newState() *state {
	return &state{
		users:        make(map[fhe.Address]models.UserRecord),
		applications: make(map[uint64]models.Application),
		counters:     map[string]uint64{counters.ApplicationID: 0},
		results:      make(map[resultKey]models.ApplicationResult),
		grants:       make(map[grantKey]struct{}),
		events:       make(map[int64]models.Event),
	}
}

// txn is the view of the state one Atomic or View call works through.
type txn struct {
	s        *state
	readOnly bool
	undo     []func()
}

func (t *txn) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (t *txn) onRollback(f func()) {
	t.undo = append(t.undo, f)
}

func (t *txn) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

// put sets m[k] = v and records how to restore the previous entry.
func put[K comparable, V any](t *txn, m map[K]V, k K, v V) {
	old, had := m[k]
	t.onRollback(func() {
		if had {
			m[k] = old
		} else {
			delete(m, k)
		}
	})
	m[k] = v
}

func (t *txn) repositories() *repomanager.Repositories {
	return &repomanager.Repositories{
		Users:        &userRepository{t},
		Applications: &applicationRepository{t},
		Counters:     &counterRepository{t},
		Results:      &resultRepository{t},
		Grants:       &grantRepository{t},
		Events:       &eventRepository{t},
	}
}

type Ledger struct {
	mu      sync.RWMutex
	current *state
}

var _ repomanager.Ledger = (*Ledger)(nil)

func NewLedger() *Ledger {
	return &Ledger{current: newState()}
}

func (l *Ledger) Atomic(ctx context.Context, fn func(ctx context.Context, r *repomanager.Repositories) error) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	t := &txn{s: l.current}
	defer func() {
		if p := recover(); p != nil {
			t.rollback()
			panic(p)
		}
		if err != nil {
			t.rollback()
		}
	}()

	return fn(ctx, t.repositories())
}

// View runs fn against the live state. Writes fail with ErrReadOnly.
func (l *Ledger) View(ctx context.Context, fn func(ctx context.Context, r *repomanager.Repositories) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t := &txn{s: l.current, readOnly: true}
	return fn(ctx, t.repositories())
}

func (l *Ledger) Close() error { return nil }
