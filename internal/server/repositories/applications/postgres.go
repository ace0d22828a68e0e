package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/dbx"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
)

// PostgresRepository stores one row per application. An unconstrained bound
// is stored as NULL; salaries use NUMERIC(20) since they may exceed BIGINT.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, app *models.Application) error {
	query :=
		`INSERT INTO applications (id, creator, active, country_id, city_id, min_salary, max_salary, min_birth_year, max_birth_year, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 `

	c := app.Criteria
	_, err := r.db.ExecContext(ctx, query,
		int64(app.ID), app.Creator, app.Active,
		nullInt(c.Country), nullInt(c.City),
		nullNumeric(c.MinSalary), nullNumeric(c.MaxSalary),
		nullInt(c.MinBirthYear), nullInt(c.MaxBirthYear),
		app.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uint64) (*models.Application, error) {
	query :=
		`SELECT id, creator, active, country_id, city_id, min_salary, max_salary, min_birth_year, max_birth_year, created_at
		 FROM applications WHERE id = $1
		 `

	var (
		appID                      int64
		country, city              sql.NullInt64
		minSalary, maxSalary       sql.NullString
		minBirthYear, maxBirthYear sql.NullInt64
	)

	app := &models.Application{}
	err := r.db.QueryRowContext(ctx, query, int64(id)).Scan(
		&appID, &app.Creator, &app.Active, &country, &city,
		&minSalary, &maxSalary, &minBirthYear, &maxBirthYear, &app.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	app.ID = uint64(appID)
	app.Criteria.Country = boundFromInt[uint32](country)
	app.Criteria.City = boundFromInt[uint32](city)
	app.Criteria.MinBirthYear = boundFromInt[uint16](minBirthYear)
	app.Criteria.MaxBirthYear = boundFromInt[uint16](maxBirthYear)

	if app.Criteria.MinSalary, err = boundFromNumeric(minSalary); err != nil {
		return nil, err
	}
	if app.Criteria.MaxSalary, err = boundFromNumeric(maxSalary); err != nil {
		return nil, err
	}

	return app, nil
}

func (r *PostgresRepository) IsActive(ctx context.Context, id uint64) (bool, error) {
	query := `SELECT active FROM applications WHERE id = $1`

	var active bool
	err := r.db.QueryRowContext(ctx, query, int64(id)).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, common.ErrorNotFound
	}
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return active, nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, id uint64, active bool) error {
	query := `UPDATE applications SET active = $1 WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, active, int64(id))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nullInt[T uint16 | uint32](b models.Bound[T]) sql.NullInt64 {
	v, ok := b.Get()
	return sql.NullInt64{Int64: int64(v), Valid: ok}
}

func nullNumeric(b models.Bound[uint64]) sql.NullString {
	v, ok := b.Get()
	if !ok {
		return sql.NullString{}
	}
	return sql.NullString{String: strconv.FormatUint(v, 10), Valid: true}
}

func boundFromInt[T uint16 | uint32](v sql.NullInt64) models.Bound[T] {
	if !v.Valid {
		return models.Any[T]()
	}
	return models.Value(T(v.Int64))
}

func boundFromNumeric(v sql.NullString) (models.Bound[uint64], error) {
	if !v.Valid {
		return models.Any[uint64](), nil
	}
	n, err := strconv.ParseUint(v.String, 10, 64)
	if err != nil {
		return models.Bound[uint64]{}, fmt.Errorf("db error: bad salary bound %q: %w", v.String, err)
	}
	return models.Value(n), nil
}
