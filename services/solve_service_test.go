package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

type solveTestEnv struct {
	db            *sql.DB
	mock          sqlmock.Sqlmock
	challengeRepo *fakeChallengeRepo
	attemptRepo   *fakeAttemptRepo
	recorded      []models.FlagAttempt
	markedSolved  int
}

func newSolveTestEnv(t *testing.T, challenge *models.Challenge) *solveTestEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &solveTestEnv{db: db, mock: mock}
	env.challengeRepo = &fakeChallengeRepo{
		getByIDForUpdateFn: func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Challenge, error) {
			if challenge == nil || challenge.ID != id {
				return nil, repositories.ErrChallengeNotFound
			}
			c := *challenge
			return &c, nil
		},
		markSolvedFn: func(ctx context.Context, exec repositories.SQLExecutor, id int, solvedAt time.Time) error {
			env.markedSolved++
			return nil
		},
	}
	env.attemptRepo = &fakeAttemptRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, attempt *models.FlagAttempt) error {
			env.recorded = append(env.recorded, *attempt)
			return nil
		},
	}
	return env
}

func (env *solveTestEnv) service(gate *MembershipGate) SolveService {
	return NewSolveService(env.db, env.challengeRepo, env.attemptRepo, gate, nil, testLogger())
}

func TestSolve_CorrectFlagSolvesOnce(t *testing.T) {
	challenge := &models.Challenge{
		ID: 7, EventID: 3, TeamID: 5, Points: 500,
		Flag: strPtr("flag{correct}"),
	}
	env := newSolveTestEnv(t, challenge)
	env.mock.ExpectBegin()
	env.mock.ExpectCommit()

	svc := env.service(memberGate(11, 5, models.MemberRoleMember))
	result, err := svc.Solve(context.Background(), 3, 7, 11, "flag{correct}")
	require.NoError(t, err)
	assert.True(t, result.Solved)
	assert.Equal(t, 500, result.Points)

	require.Len(t, env.recorded, 1)
	assert.True(t, env.recorded[0].IsSuccess)
	assert.Equal(t, "flag{correct}", env.recorded[0].FlagValue)
	assert.Equal(t, 11, env.recorded[0].UserID)
	assert.Equal(t, 1, env.markedSolved)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestSolve_WrongFlagRecordsFailedAttempt(t *testing.T) {
	challenge := &models.Challenge{
		ID: 7, EventID: 3, TeamID: 5, Points: 500,
		Flag: strPtr("flag{correct}"),
	}
	env := newSolveTestEnv(t, challenge)
	env.mock.ExpectBegin()
	env.mock.ExpectCommit()

	svc := env.service(memberGate(11, 5, models.MemberRoleMember))
	result, err := svc.Solve(context.Background(), 3, 7, 11, "flag{wrong}")
	require.NoError(t, err)
	assert.False(t, result.Solved)
	assert.Zero(t, result.Points)

	require.Len(t, env.recorded, 1)
	assert.False(t, env.recorded[0].IsSuccess)
	assert.Equal(t, "flag{wrong}", env.recorded[0].FlagValue)
	assert.Zero(t, env.markedSolved)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestSolve_NilConfiguredFlagNeverMatches(t *testing.T) {
	challenge := &models.Challenge{ID: 7, EventID: 3, TeamID: 5, Flag: nil}
	env := newSolveTestEnv(t, challenge)
	env.mock.ExpectBegin()
	env.mock.ExpectCommit()

	svc := env.service(memberGate(11, 5, models.MemberRoleMember))
	result, err := svc.Solve(context.Background(), 3, 7, 11, "")
	require.NoError(t, err)
	assert.False(t, result.Solved)

	require.Len(t, env.recorded, 1)
	assert.False(t, env.recorded[0].IsSuccess)
	assert.Zero(t, env.markedSolved)
}

func TestSolve_AlreadySolvedStillRecordsAttempt(t *testing.T) {
	solvedAt := time.Now().Add(-time.Hour)
	challenge := &models.Challenge{
		ID: 7, EventID: 3, TeamID: 5, Points: 500,
		Flag: strPtr("flag{correct}"), Solved: true, SolvedAt: &solvedAt,
	}
	env := newSolveTestEnv(t, challenge)
	env.mock.ExpectBegin()
	env.mock.ExpectCommit()

	svc := env.service(memberGate(11, 5, models.MemberRoleMember))
	_, err := svc.Solve(context.Background(), 3, 7, 11, "flag{correct}")
	require.ErrorIs(t, err, ErrChallengeAlreadySolved)

	// The ledger row must land even though the solve is rejected.
	require.Len(t, env.recorded, 1)
	assert.True(t, env.recorded[0].IsSuccess)
	assert.Zero(t, env.markedSolved)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestSolve_EventMismatchIsNotFoundAndNoLedgerRow(t *testing.T) {
	challenge := &models.Challenge{
		ID: 7, EventID: 3, TeamID: 5,
		Flag: strPtr("flag{correct}"),
	}
	env := newSolveTestEnv(t, challenge)
	env.mock.ExpectBegin()
	env.mock.ExpectRollback()

	svc := env.service(memberGate(11, 5, models.MemberRoleMember))
	_, err := svc.Solve(context.Background(), 99, 7, 11, "flag{correct}")
	require.ErrorIs(t, err, ErrChallengeNotFound)

	assert.Empty(t, env.recorded)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestSolve_NonMemberIsForbiddenAndNoLedgerRow(t *testing.T) {
	challenge := &models.Challenge{
		ID: 7, EventID: 3, TeamID: 5,
		Flag: strPtr("flag{correct}"),
	}
	env := newSolveTestEnv(t, challenge)
	env.mock.ExpectBegin()
	env.mock.ExpectRollback()

	// User 12 belongs to a different team.
	svc := env.service(memberGate(12, 8, models.MemberRoleMember))
	_, err := svc.Solve(context.Background(), 3, 7, 12, "flag{correct}")
	require.ErrorIs(t, err, ErrNotTeamMember)

	assert.Empty(t, env.recorded)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestSolve_UnknownChallengeIsNotFound(t *testing.T) {
	env := newSolveTestEnv(t, nil)
	env.mock.ExpectBegin()
	env.mock.ExpectRollback()

	svc := env.service(memberGate(11, 5, models.MemberRoleMember))
	_, err := svc.Solve(context.Background(), 3, 7, 11, "anything")
	require.ErrorIs(t, err, ErrChallengeNotFound)
	assert.Empty(t, env.recorded)
}
