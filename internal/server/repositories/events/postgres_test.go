package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const carol = fhe.Address("0x00000000000000000000000000000000000ca401")

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

const (
	appendQuery  = `(?s)^INSERT\s+INTO\s+events\s*\(id,\s*kind,\s*payload,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+seq\s*$`
	pendingQuery = `(?s)^SELECT\s+seq,\s*payload\s+FROM\s+events\s+WHERE\s+delivered_at\s+IS\s+NULL\s+ORDER\s+BY\s+seq\s+LIMIT\s+\$1\s*$`
	markQuery    = `^UPDATE\s+events\s+SET\s+delivered_at\s*=\s*\$1\s+WHERE\s+seq\s*=\s*\$2$`
)

func TestAppend_AssignsSeq(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	e := models.ApplicationCreated(4, carol)
	mock.ExpectQuery(appendQuery).
		WithArgs(e.ID, "ApplicationCreated", sqlmock.AnyArg(), e.CreatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(11)))

	require.NoError(t, repo.Append(context.Background(), e))
	assert.Equal(t, int64(11), e.Seq)
}

func TestAppend_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(appendQuery).WillReturnError(errors.New("db down"))

	err := repo.Append(context.Background(), models.UserRegistered(carol, "carol"))
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestListPending(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	first := models.UserRegistered(carol, "carol")
	second := models.Applied(1, carol, fhe.NewHandle([]byte{7}, fhe.KindBool))
	p1, _ := json.Marshal(first)
	p2, _ := json.Marshal(second)

	mock.ExpectQuery(pendingQuery).WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"seq", "payload"}).AddRow(int64(1), p1).AddRow(int64(2), p2))

	got, err := repo.ListPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, "carol", got[0].Username)
	assert.Equal(t, models.EventApplied, got[1].Kind)
	assert.Equal(t, *second.Result, *got[1].Result)
	assert.Equal(t, uint64(1), *got[1].ApplicationID)
}

func TestListPending_BadPayload(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(pendingQuery).WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"seq", "payload"}).AddRow(int64(3), []byte("{")))

	_, err := repo.ListPending(context.Background(), 10)
	assert.ErrorContains(t, err, "event 3")
}

func TestMarkDelivered(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now().UTC()
	mock.ExpectExec(markQuery).WithArgs(at, int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkDelivered(context.Background(), 5, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
