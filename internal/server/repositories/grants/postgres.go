package grants

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophmatch/internal/dbx"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Grant(ctx context.Context, h fhe.Handle, account fhe.Address) error {
	query :=
		`INSERT INTO grants (handle, account) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, h, account); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) IsAllowed(ctx context.Context, h fhe.Handle, account fhe.Address) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM grants WHERE handle = $1 AND account = $2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, h, account).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}
