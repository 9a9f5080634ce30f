package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, ChallengeRepository) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, NewPostgresChallengeRepository(db)
}

func challengeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "category", "points", "flag", "solved", "solved_at",
		"team_id", "event_id", "created_by", "created_at",
	})
}

func TestChallengeGetByIDForUpdate_LocksRow(t *testing.T) {
	mock, repo := newMock(t)

	rows := challengeRows().
		AddRow(7, "pwn me", "pwn", 500, "flag{x}", false, nil, 5, 3, 11, time.Now())
	mock.ExpectQuery(`SELECT .+ FROM challenges WHERE id = \$1 FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(rows)

	challenge, err := repo.GetByIDForUpdate(context.Background(), nil, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, challenge.ID)
	require.NotNil(t, challenge.Flag)
	assert.Equal(t, "flag{x}", *challenge.Flag)
	assert.False(t, challenge.Solved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChallengeGetByIDForUpdate_NotFound(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM challenges WHERE id = \$1 FOR UPDATE`).
		WithArgs(99).
		WillReturnRows(challengeRows())

	_, err := repo.GetByIDForUpdate(context.Background(), nil, 99)
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestChallengeMarkSolved_GuardedTransition(t *testing.T) {
	mock, repo := newMock(t)
	solvedAt := time.Now()

	mock.ExpectExec(`UPDATE challenges\s+SET solved = TRUE, solved_at = \$1\s+WHERE id = \$2 AND solved = FALSE`).
		WithArgs(solvedAt, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkSolved(context.Background(), nil, 7, solvedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChallengeMarkSolved_AlreadySolvedAffectsNoRows(t *testing.T) {
	mock, repo := newMock(t)
	solvedAt := time.Now()

	mock.ExpectExec(`UPDATE challenges\s+SET solved = TRUE, solved_at = \$1\s+WHERE id = \$2 AND solved = FALSE`).
		WithArgs(solvedAt, 7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkSolved(context.Background(), nil, 7, solvedAt)
	assert.ErrorIs(t, err, ErrChallengeAlreadyUpdated)
}
