package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Glebradost/ctfhub/models"
)

func TestAttemptCreate_InsideTransaction(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresAttemptRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO flag_attempts`).
		WithArgs(7, 11, "flag{guess}", false, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(42, time.Now()))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	attempt := &models.FlagAttempt{ChallengeID: 7, UserID: 11, FlagValue: "flag{guess}", IsSuccess: false}
	require.NoError(t, repo.Create(context.Background(), tx, attempt))
	assert.Equal(t, 42, attempt.ID)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptListByChallengeID_NewestFirstWithSubmitter(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresAttemptRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "challenge_id", "user_id", "flag_value", "is_success", "comment", "created_at",
		"id", "username", "email", "password_hash", "role", "avatar_key", "created_at", "last_login_at",
	}).
		AddRow(2, 7, 11, "flag{x}", true, nil, now, 11, "alice", "a@example.com", "hash", "USER", nil, now, nil).
		AddRow(1, 7, 12, "flag{y}", false, "close", now.Add(-time.Minute), 12, "bob", "b@example.com", "hash", "USER", nil, now, nil)

	mock.ExpectQuery(`FROM flag_attempts a\s+JOIN users u ON u\.id = a\.user_id\s+WHERE a\.challenge_id = \$1\s+ORDER BY a\.created_at DESC, a\.id DESC`).
		WithArgs(7).
		WillReturnRows(rows)

	attempts, err := repo.ListByChallengeID(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, 2, attempts[0].ID)
	require.NotNil(t, attempts[0].User)
	assert.Equal(t, "alice", attempts[0].User.Username)
	require.NotNil(t, attempts[1].Comment)
	assert.Equal(t, "close", *attempts[1].Comment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptUpdateComment(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresAttemptRepository(db)

	mock.ExpectExec(`UPDATE flag_attempts SET comment = \$1 WHERE id = \$2`).
		WithArgs("rabbit hole", 42).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateComment(context.Background(), 42, "rabbit hole"))

	mock.ExpectExec(`UPDATE flag_attempts SET comment = \$1 WHERE id = \$2`).
		WithArgs("gone", 99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.UpdateComment(context.Background(), 99, "gone"), ErrAttemptNotFound)
}
