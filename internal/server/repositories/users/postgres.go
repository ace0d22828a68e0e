package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/dbx"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, u *models.UserRecord) error {
	query :=
		`INSERT INTO users (account, username, country, city, salary, birth_year, registered, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (account) DO UPDATE SET
		 username = EXCLUDED.username, country = EXCLUDED.country, city = EXCLUDED.city,
		 salary = EXCLUDED.salary, birth_year = EXCLUDED.birth_year,
		 registered = EXCLUDED.registered, updated_at = EXCLUDED.updated_at
		 `

	_, err := r.db.ExecContext(ctx, query,
		u.Account, u.Username, u.Country, u.City, u.Salary, u.BirthYear, u.Registered, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, account fhe.Address) (*models.UserRecord, error) {
	query :=
		`SELECT account, username, country, city, salary, birth_year, registered, updated_at FROM users
		 WHERE account = $1
		 `

	u := &models.UserRecord{}
	err := r.db.QueryRowContext(ctx, query, account).Scan(
		&u.Account, &u.Username, &u.Country, &u.City, &u.Salary, &u.BirthYear, &u.Registered, &u.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}
