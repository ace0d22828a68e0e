// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose),
// and the Ledger that runs every state transition in one transaction.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophmatch/internal/dbx"
	"github.com/dmitrijs2005/gophmatch/internal/server/migrations"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/applications"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/counters"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/events"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/grants"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/results"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Applications(db dbx.DBTX) applications.Repository {
	return applications.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Counters(db dbx.DBTX) counters.Repository {
	return counters.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Results(db dbx.DBTX) results.Repository {
	return results.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Grants(db dbx.DBTX) grants.Repository {
	return grants.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Events(db dbx.DBTX) events.Repository {
	return events.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

// PostgresLedger serializes transitions with a process-wide mutex and runs
// each in a SERIALIZABLE transaction.
type PostgresLedger struct {
	mu      sync.Mutex
	db      *sql.DB
	manager RepositoryManager
}

var _ Ledger = (*PostgresLedger)(nil)

// OpenPostgres connects to dsn with the pgx driver and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresLedger, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	l := NewPostgresLedger(db, NewPostgresRepositoryManager())
	if err := l.manager.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return l, nil
}

func NewPostgresLedger(db *sql.DB, m RepositoryManager) *PostgresLedger {
	return &PostgresLedger{db: db, manager: m}
}

func (l *PostgresLedger) Atomic(ctx context.Context, fn func(ctx context.Context, r *Repositories) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return dbx.WithTx(ctx, l.db, dbx.Serializable, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, Bind(l.manager, tx))
	})
}

func (l *PostgresLedger) View(ctx context.Context, fn func(ctx context.Context, r *Repositories) error) error {
	return fn(ctx, Bind(l.manager, l.db))
}

func (l *PostgresLedger) Close() error {
	return l.db.Close()
}
