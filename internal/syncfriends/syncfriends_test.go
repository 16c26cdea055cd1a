package syncfriends

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestPersist(t *testing.T) {
	req := require.New(t)
	db, mock, err := sqlmock.New()
	req.NoError(err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO friendships`).
		WithArgs("alice", "bob").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO friendships`).
		WithArgs("carol", "dave").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	msgs := []redis.XMessage{
		{ID: "1-0", Values: map[string]interface{}{"ua": "alice", "ub": "bob", "at": "1"}},
		{ID: "2-0", Values: map[string]interface{}{"ua": "carol", "ub": "dave", "at": "2"}},
	}
	req.NoError(persist(context.Background(), db, msgs))
	req.NoError(mock.ExpectationsWereMet())
}

func TestPersist_SkipsMalformedEntries(t *testing.T) {
	req := require.New(t)
	db, mock, err := sqlmock.New()
	req.NoError(err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO friendships`).
		WithArgs("alice", "bob").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	msgs := []redis.XMessage{
		{ID: "1-0", Values: map[string]interface{}{"ua": "alice"}}, // missing ub
		{ID: "2-0", Values: map[string]interface{}{"ua": "alice", "ub": "bob", "at": "1"}},
	}
	req.NoError(persist(context.Background(), db, msgs))
	req.NoError(mock.ExpectationsWereMet())
}
