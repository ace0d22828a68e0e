package counters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Peek(ctx context.Context, name string) (uint64, error) {
	query := `SELECT next_value FROM counters WHERE name = $1`

	var v int64
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return uint64(v), nil
}

func (r *PostgresRepository) Allocate(ctx context.Context, name string) (uint64, error) {
	query :=
		`UPDATE counters SET next_value = next_value + 1
		 WHERE name = $1
		 RETURNING next_value - 1
		 `

	var v int64
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return uint64(v), nil
}
