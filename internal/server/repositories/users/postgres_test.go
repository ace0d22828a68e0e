package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
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

const alice = fhe.Address("0x00000000000000000000000000000000000a11ce")

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func record() *models.UserRecord {
	return &models.UserRecord{
		Account:    alice,
		Username:   "alice",
		Country:    fhe.NewHandle([]byte{1}, fhe.KindUint32),
		City:       fhe.NewHandle([]byte{2}, fhe.KindUint32),
		Salary:     fhe.NewHandle([]byte{3}, fhe.KindUint64),
		BirthYear:  fhe.NewHandle([]byte{4}, fhe.KindUint16),
		Registered: true,
		UpdatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

const upsertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(account,.*\)\s*VALUES\s*\(\$1,.*\$8\)\s*ON\s+CONFLICT\s*\(account\)\s*DO\s+UPDATE\s+SET.*$`

func TestUpsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := record()
	mock.ExpectExec(upsertQuery).
		WithArgs(u.Account, u.Username, u.Country, u.City, u.Salary, u.BirthYear, true, u.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(upsertQuery).WillReturnError(errors.New("db down"))

	err := repo.Upsert(context.Background(), record())
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

const getQuery = `(?s)^SELECT\s+account,\s*username,\s*country,\s*city,\s*salary,\s*birth_year,\s*registered,\s*updated_at\s+FROM\s+users\s+WHERE\s+account\s*=\s*\$1\s*$`

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	want := record()
	rows := sqlmock.NewRows([]string{"account", "username", "country", "city", "salary", "birth_year", "registered", "updated_at"}).
		AddRow(string(want.Account), want.Username, want.Country[:], want.City[:], want.Salary[:], want.BirthYear[:], true, want.UpdatedAt)
	mock.ExpectQuery(getQuery).WithArgs(alice).WillReturnRows(rows)

	got, err := repo.Get(context.Background(), alice)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(want, got))
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getQuery).WithArgs(alice).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), alice)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getQuery).WithArgs(alice).WillReturnError(errors.New("db err"))

	_, err := repo.Get(context.Background(), alice)
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db err`, err.Error())
}
