package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/repositories"
)

func TestCreateTeam_OwnerMembershipInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	var createdMember *models.TeamMember
	teamRepo := &fakeTeamRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
			require.NotNil(t, exec, "team insert must run inside the transaction")
			team.ID = 5
			return nil
		},
	}
	memberRepo := &fakeMemberRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error {
			require.NotNil(t, exec, "owner membership must share the transaction")
			createdMember = member
			return nil
		},
	}

	svc := NewTeamService(db, teamRepo, memberRepo, NewMembershipGate(memberRepo), nil)

	team, err := svc.CreateTeam(context.Background(), CreateTeamInput{Name: "wreckers", CreatorID: 11})
	require.NoError(t, err)
	assert.Equal(t, 5, team.ID)
	assert.NotEmpty(t, team.InviteCode)

	require.NotNil(t, createdMember)
	assert.Equal(t, 11, createdMember.UserID)
	assert.Equal(t, 5, createdMember.TeamID)
	assert.Equal(t, models.MemberRoleOwner, createdMember.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTeam_RetriesOnInviteCodeCollision(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// First attempt rolls back on the collision, second commits.
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	teamRepo := &fakeTeamRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
			calls++
			if calls == 1 {
				return repositories.ErrTeamInviteCodeConflict
			}
			team.ID = 5
			return nil
		},
	}
	memberRepo := &fakeMemberRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error {
			return nil
		},
	}

	svc := NewTeamService(db, teamRepo, memberRepo, NewMembershipGate(memberRepo), nil)

	team, err := svc.CreateTeam(context.Background(), CreateTeamInput{Name: "wreckers", CreatorID: 11})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NotEmpty(t, team.InviteCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTeam_NameRequired(t *testing.T) {
	svc := NewTeamService(nil, &fakeTeamRepo{}, &fakeMemberRepo{}, nil, nil)
	_, err := svc.CreateTeam(context.Background(), CreateTeamInput{CreatorID: 11})
	assert.ErrorIs(t, err, ErrTeamNameRequired)
}

func TestJoinByInviteCode_DuplicateMembershipConflicts(t *testing.T) {
	teamRepo := &fakeTeamRepo{
		getByInviteCodeFn: func(ctx context.Context, code string) (*models.Team, error) {
			if code != "abcd1234" {
				return nil, repositories.ErrTeamNotFound
			}
			return &models.Team{ID: 5, Name: "wreckers"}, nil
		},
	}
	memberRepo := &fakeMemberRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error {
			return repositories.ErrMemberConflict
		},
	}

	svc := NewTeamService(nil, teamRepo, memberRepo, NewMembershipGate(memberRepo), nil)

	_, err := svc.JoinByInviteCode(context.Background(), "abcd1234", 11)
	assert.ErrorIs(t, err, ErrAlreadyTeamMember)

	_, err = svc.JoinByInviteCode(context.Background(), "wrong", 11)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestGetTeamByID_InviteCodeHiddenFromNonMembers(t *testing.T) {
	teamRepo := &fakeTeamRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Team, error) {
			return &models.Team{ID: 5, Name: "wreckers", InviteCode: "secret99"}, nil
		},
	}

	svc := NewTeamService(nil, teamRepo, &fakeMemberRepo{}, memberGate(11, 5, models.MemberRoleMember), nil)

	team, err := svc.GetTeamByID(context.Background(), 5, 11)
	require.NoError(t, err)
	assert.Equal(t, "secret99", team.InviteCode)

	team, err = svc.GetTeamByID(context.Background(), 5, 99)
	require.NoError(t, err)
	assert.Empty(t, team.InviteCode)
}

func TestRemoveMember_OwnerProtectedAndSelfLeaveAllowed(t *testing.T) {
	memberships := map[int]models.MemberRole{
		10: models.MemberRoleOwner,
		11: models.MemberRoleMember,
		12: models.MemberRoleMember,
	}
	deleted := 0
	memberRepo := &fakeMemberRepo{
		getByUserAndTeamFn: func(ctx context.Context, userID, teamID int) (*models.TeamMember, error) {
			role, ok := memberships[userID]
			if !ok || teamID != 5 {
				return nil, repositories.ErrMemberNotFound
			}
			return &models.TeamMember{UserID: userID, TeamID: teamID, Role: role}, nil
		},
		deleteFn: func(ctx context.Context, userID, teamID int) error {
			deleted++
			return nil
		},
	}

	svc := NewTeamService(nil, &fakeTeamRepo{}, memberRepo, NewMembershipGate(memberRepo), nil)

	// Self leave.
	require.NoError(t, svc.RemoveMember(context.Background(), 5, 11, 11))

	// A plain member cannot remove someone else.
	err := svc.RemoveMember(context.Background(), 5, 12, 11)
	assert.ErrorIs(t, err, ErrTeamRoleInsufficient)

	// The owner can, but never themselves via removal.
	require.NoError(t, svc.RemoveMember(context.Background(), 5, 12, 10))
	err = svc.RemoveMember(context.Background(), 5, 10, 10)
	assert.ErrorIs(t, err, ErrOwnerCannotBeRemoved)

	assert.Equal(t, 2, deleted)
}

func TestRotateInviteCode_OwnerOnly(t *testing.T) {
	var updatedCode string
	teamRepo := &fakeTeamRepo{
		updateInviteCodeFn: func(ctx context.Context, teamID int, code string) error {
			updatedCode = code
			return nil
		},
	}

	ownerSvc := NewTeamService(nil, teamRepo, &fakeMemberRepo{}, memberGate(10, 5, models.MemberRoleOwner), nil)
	code, err := ownerSvc.RotateInviteCode(context.Background(), 5, 10)
	require.NoError(t, err)
	assert.Equal(t, code, updatedCode)
	assert.Len(t, code, inviteCodeLength*2)

	adminSvc := NewTeamService(nil, teamRepo, &fakeMemberRepo{}, memberGate(11, 5, models.MemberRoleAdmin), nil)
	_, err = adminSvc.RotateInviteCode(context.Background(), 5, 11)
	assert.ErrorIs(t, err, ErrTeamRoleInsufficient)
}
