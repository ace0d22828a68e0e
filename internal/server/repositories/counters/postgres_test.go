package counters

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

const (
	peekQuery     = `^SELECT\s+next_value\s+FROM\s+counters\s+WHERE\s+name\s*=\s*\$1$`
	allocateQuery = `(?s)^UPDATE\s+counters\s+SET\s+next_value\s*=\s*next_value\s*\+\s*1\s+WHERE\s+name\s*=\s*\$1\s+RETURNING\s+next_value\s*-\s*1\s*$`
)

func TestPeek(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(peekQuery).WithArgs(ApplicationID).
		WillReturnRows(sqlmock.NewRows([]string{"next_value"}).AddRow(int64(0)))

	v, err := repo.Peek(context.Background(), ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}

func TestPeek_Missing(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(peekQuery).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.Peek(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAllocate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(allocateQuery).WithArgs(ApplicationID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(int64(5)))

	v, err := repo.Allocate(context.Background(), ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v)
}

func TestAllocate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(allocateQuery).WithArgs(ApplicationID).WillReturnError(errors.New("serialization failure"))

	_, err := repo.Allocate(context.Background(), ApplicationID)
	require.Error(t, err)
	assert.Regexp(t, `db error: .*serialization failure`, err.Error())
}
