package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophmatch/internal/dbx"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/applications"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/counters"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/events"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/grants"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/results"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Applications(db dbx.DBTX) applications.Repository
	Counters(db dbx.DBTX) counters.Repository
	Results(db dbx.DBTX) results.Repository
	Grants(db dbx.DBTX) grants.Repository
	Events(db dbx.DBTX) events.Repository
}

// Repositories is the set of repositories one ledger transition works with.
// All of them observe and write the same snapshot.
type Repositories struct {
	Users        users.Repository
	Applications applications.Repository
	Counters     counters.Repository
	Results      results.Repository
	Grants       grants.Repository
	Events       events.Repository
}

// Bind returns every repository of m bound to db.
func Bind(m RepositoryManager, db dbx.DBTX) *Repositories {
	return &Repositories{
		Users:        m.Users(db),
		Applications: m.Applications(db),
		Counters:     m.Counters(db),
		Results:      m.Results(db),
		Grants:       m.Grants(db),
		Events:       m.Events(db),
	}
}

// Ledger orders state transitions. Atomic runs fn as one transition: either
// every write fn makes is kept or none is. Transitions never interleave.
// View runs fn against a consistent read-only snapshot.
type Ledger interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, r *Repositories) error) error
	View(ctx context.Context, fn func(ctx context.Context, r *Repositories) error) error
	Close() error
}
