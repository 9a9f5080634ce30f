package services

import (
	"context"
	"time"

	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/repositories"
)

// Function-field fakes. The embedded interface panics on any call a
// test did not stub, which keeps unexpected repo traffic visible.

type fakeMemberRepo struct {
	repositories.MemberRepository
	createFn           func(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error
	getByUserAndTeamFn func(ctx context.Context, userID, teamID int) (*models.TeamMember, error)
	listByTeamIDFn     func(ctx context.Context, teamID int) ([]models.TeamMember, error)
	deleteFn           func(ctx context.Context, userID, teamID int) error
}

func (f *fakeMemberRepo) Create(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error {
	return f.createFn(ctx, exec, member)
}

func (f *fakeMemberRepo) GetByUserAndTeam(ctx context.Context, userID, teamID int) (*models.TeamMember, error) {
	return f.getByUserAndTeamFn(ctx, userID, teamID)
}

func (f *fakeMemberRepo) ListByTeamID(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	return f.listByTeamIDFn(ctx, teamID)
}

func (f *fakeMemberRepo) Delete(ctx context.Context, userID, teamID int) error {
	return f.deleteFn(ctx, userID, teamID)
}

type fakeChallengeRepo struct {
	repositories.ChallengeRepository
	createFn           func(ctx context.Context, challenge *models.Challenge) error
	getByIDFn          func(ctx context.Context, id int) (*models.Challenge, error)
	getByIDForUpdateFn func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Challenge, error)
	markSolvedFn       func(ctx context.Context, exec repositories.SQLExecutor, id int, solvedAt time.Time) error
	createAssignmentFn func(ctx context.Context, assignment *models.ChallengeAssignment) error
}

func (f *fakeChallengeRepo) Create(ctx context.Context, challenge *models.Challenge) error {
	return f.createFn(ctx, challenge)
}

func (f *fakeChallengeRepo) GetByID(ctx context.Context, id int) (*models.Challenge, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeChallengeRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Challenge, error) {
	return f.getByIDForUpdateFn(ctx, exec, id)
}

func (f *fakeChallengeRepo) MarkSolved(ctx context.Context, exec repositories.SQLExecutor, id int, solvedAt time.Time) error {
	return f.markSolvedFn(ctx, exec, id, solvedAt)
}

func (f *fakeChallengeRepo) CreateAssignment(ctx context.Context, assignment *models.ChallengeAssignment) error {
	return f.createAssignmentFn(ctx, assignment)
}

type fakeAttemptRepo struct {
	repositories.AttemptRepository
	createFn            func(ctx context.Context, exec repositories.SQLExecutor, attempt *models.FlagAttempt) error
	getByIDFn           func(ctx context.Context, id int) (*models.FlagAttempt, error)
	listByChallengeIDFn func(ctx context.Context, challengeID int) ([]models.FlagAttempt, error)
	updateCommentFn     func(ctx context.Context, id int, comment string) error
}

func (f *fakeAttemptRepo) Create(ctx context.Context, exec repositories.SQLExecutor, attempt *models.FlagAttempt) error {
	return f.createFn(ctx, exec, attempt)
}

func (f *fakeAttemptRepo) GetByID(ctx context.Context, id int) (*models.FlagAttempt, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeAttemptRepo) ListByChallengeID(ctx context.Context, challengeID int) ([]models.FlagAttempt, error) {
	return f.listByChallengeIDFn(ctx, challengeID)
}

func (f *fakeAttemptRepo) UpdateComment(ctx context.Context, id int, comment string) error {
	return f.updateCommentFn(ctx, id, comment)
}

type fakeTeamRepo struct {
	repositories.TeamRepository
	createFn           func(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error
	getByIDFn          func(ctx context.Context, id int) (*models.Team, error)
	getByInviteCodeFn  func(ctx context.Context, code string) (*models.Team, error)
	updateInviteCodeFn func(ctx context.Context, teamID int, code string) error
}

func (f *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	return f.createFn(ctx, exec, team)
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeTeamRepo) GetByInviteCode(ctx context.Context, code string) (*models.Team, error) {
	return f.getByInviteCodeFn(ctx, code)
}

func (f *fakeTeamRepo) UpdateInviteCode(ctx context.Context, teamID int, code string) error {
	return f.updateInviteCodeFn(ctx, teamID, code)
}

type fakeEventRepo struct {
	repositories.EventRepository
	getByIDFn             func(ctx context.Context, id int) (*models.Event, error)
	getTeamRegistrationFn func(ctx context.Context, eventID, teamID int) (*models.EventTeam, error)
	countTeamsFn          func(ctx context.Context, eventID int) (int, error)
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id int) (*models.Event, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeEventRepo) GetTeamRegistration(ctx context.Context, eventID, teamID int) (*models.EventTeam, error) {
	return f.getTeamRegistrationFn(ctx, eventID, teamID)
}

func (f *fakeEventRepo) CountTeams(ctx context.Context, eventID int) (int, error) {
	return f.countTeamsFn(ctx, eventID)
}

type fakeUserRepo struct {
	repositories.UserRepository
	createFn          func(ctx context.Context, user *models.User) error
	getByEmailFn      func(ctx context.Context, email string) (*models.User, error)
	updateLastLoginFn func(ctx context.Context, id int, at time.Time) error
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	return f.createFn(ctx, user)
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.getByEmailFn(ctx, email)
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id int, at time.Time) error {
	return f.updateLastLoginFn(ctx, id, at)
}

// memberGate builds a MembershipGate whose lookup returns the given
// membership for exactly one (user, team) pair.
func memberGate(userID, teamID int, role models.MemberRole) *MembershipGate {
	return NewMembershipGate(&fakeMemberRepo{
		getByUserAndTeamFn: func(ctx context.Context, u, t int) (*models.TeamMember, error) {
			if u == userID && t == teamID {
				return &models.TeamMember{UserID: u, TeamID: t, Role: role}, nil
			}
			return nil, repositories.ErrMemberNotFound
		},
	})
}
