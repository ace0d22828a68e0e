package applications

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const creator = fhe.Address("0x00000000000000000000000000000000000000c0")

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

var createdAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func sampleApp() *models.Application {
	return &models.Application{
		ID:      7,
		Creator: creator,
		Active:  true,
		Criteria: models.Criteria{
			Country:      models.Value[uint32](86),
			City:         models.Any[uint32](),
			MinSalary:    models.Value[uint64](18446744073709551615),
			MaxSalary:    models.Any[uint64](),
			MinBirthYear: models.Value[uint16](1980),
			MaxBirthYear: models.Value[uint16](2000),
		},
		CreatedAt: createdAt,
	}
}

const insertQuery = `(?s)^INSERT\s+INTO\s+applications\s*\(id,\s*creator,.*created_at\)\s*VALUES\s*\(\$1,.*\$10\)\s*$`

func TestCreate_StoresAnyAsNull(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQuery).
		WithArgs(int64(7), creator, true,
			sql.NullInt64{Int64: 86, Valid: true}, sql.NullInt64{},
			sql.NullString{String: "18446744073709551615", Valid: true}, sql.NullString{},
			sql.NullInt64{Int64: 1980, Valid: true}, sql.NullInt64{Int64: 2000, Valid: true},
			createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), sampleApp()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQuery).WillReturnError(errors.New("duplicate key"))

	err := repo.Create(context.Background(), sampleApp())
	require.Error(t, err)
	assert.Regexp(t, `db error: .*duplicate key`, err.Error())
}

const selectQuery = `(?s)^SELECT\s+id,\s*creator,\s*active,.*FROM\s+applications\s+WHERE\s+id\s*=\s*\$1\s*$`

func appColumns() []string {
	return []string{"id", "creator", "active", "country_id", "city_id", "min_salary", "max_salary", "min_birth_year", "max_birth_year", "created_at"}
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(appColumns()).
		AddRow(int64(7), string(creator), true, int64(86), nil, "18446744073709551615", nil, int64(1980), int64(2000), createdAt)
	mock.ExpectQuery(selectQuery).WithArgs(int64(7)).WillReturnRows(rows)

	got, err := repo.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(sampleApp(), got, cmp.AllowUnexported(models.Bound[uint16]{}, models.Bound[uint32]{}, models.Bound[uint64]{})))
}

func TestGet_ZeroIsAValue(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(appColumns()).
		AddRow(int64(0), string(creator), true, nil, nil, "0", nil, nil, nil, createdAt)
	mock.ExpectQuery(selectQuery).WithArgs(int64(0)).WillReturnRows(rows)

	got, err := repo.Get(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, models.Value[uint64](0), got.Criteria.MinSalary)
	assert.True(t, got.Criteria.Country.IsAny())
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQuery).WithArgs(int64(3)).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 3)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet_BadNumeric(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(appColumns()).
		AddRow(int64(1), string(creator), true, nil, nil, "-5", nil, nil, nil, createdAt)
	mock.ExpectQuery(selectQuery).WithArgs(int64(1)).WillReturnRows(rows)

	_, err := repo.Get(context.Background(), 1)
	assert.ErrorContains(t, err, "bad salary bound")
}

const activeQuery = `^SELECT\s+active\s+FROM\s+applications\s+WHERE\s+id\s*=\s*\$1$`

func TestIsActive(t *testing.T) {
	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		err     error
		want    bool
		wantErr error
	}{
		{name: "active", rows: sqlmock.NewRows([]string{"active"}).AddRow(true), want: true},
		{name: "closed", rows: sqlmock.NewRows([]string{"active"}).AddRow(false)},
		{name: "missing", err: sql.ErrNoRows, wantErr: common.ErrorNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			exp := mock.ExpectQuery(activeQuery).WithArgs(int64(4))
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnRows(tt.rows)
			}

			got, err := repo.IsActive(context.Background(), 4)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIsActive_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(activeQuery).WithArgs(int64(4)).WillReturnError(errors.New("conn reset"))

	_, err := repo.IsActive(context.Background(), 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

const updateQuery = `^UPDATE\s+applications\s+SET\s+active\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2$`

func TestSetActive(t *testing.T) {
	tests := []struct {
		name    string
		rows    int64
		wantErr error
	}{
		{name: "updated", rows: 1},
		{name: "missing", rows: 0, wantErr: common.ErrorNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectExec(updateQuery).WithArgs(false, int64(4)).
				WillReturnResult(sqlmock.NewResult(0, tt.rows))

			err := repo.SetActive(context.Background(), 4, false)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
