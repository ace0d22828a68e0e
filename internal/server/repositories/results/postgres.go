package results

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

func (r *PostgresRepository) Put(ctx context.Context, res *models.ApplicationResult) error {
	query :=
		`INSERT INTO application_results (application_id, applicant, result, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (application_id, applicant)
		 DO UPDATE SET result = EXCLUDED.result, updated_at = EXCLUDED.updated_at
		 `

	_, err := r.db.ExecContext(ctx, query, int64(res.ApplicationID), res.Applicant, res.Result, res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, applicationID uint64, applicant fhe.Address) (*models.ApplicationResult, error) {
	query :=
		`SELECT result, updated_at FROM application_results
		 WHERE application_id = $1 AND applicant = $2
		 `

	res := &models.ApplicationResult{ApplicationID: applicationID, Applicant: applicant}
	err := r.db.QueryRowContext(ctx, query, int64(applicationID), applicant).Scan(&res.Result, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return res, nil
}
