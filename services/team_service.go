package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/repositories"
	"github.com/Glebradost/ctfhub/storage"
)

const (
	inviteCodeLength      = 8 // bytes, 16 hex characters
	inviteCodeMaxAttempts = 3
)

type CreateTeamInput struct {
	Name      string `json:"name"`
	CreatorID int    `json:"-"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeamByID(ctx context.Context, teamID, currentUserID int) (*models.Team, error)
	UpdateTeamName(ctx context.Context, teamID int, name string, currentUserID int) (*models.Team, error)
	JoinByInviteCode(ctx context.Context, code string, currentUserID int) (*models.TeamMember, error)
	ListMembers(ctx context.Context, teamID, currentUserID int) ([]models.TeamMember, error)
	RemoveMember(ctx context.Context, teamID, userID, currentUserID int) error
	RotateInviteCode(ctx context.Context, teamID, currentUserID int) (string, error)
}

type teamService struct {
	db         *sql.DB
	teamRepo   repositories.TeamRepository
	memberRepo repositories.MemberRepository
	gate       *MembershipGate
	uploader   storage.FileUploader
}

func NewTeamService(
	db *sql.DB,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.MemberRepository,
	gate *MembershipGate,
	uploader storage.FileUploader,
) TeamService {
	return &teamService{
		db:         db,
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		gate:       gate,
		uploader:   uploader,
	}
}

// CreateTeam inserts the team and the creator's OWNER membership in
// one transaction so a team can never exist without its owner joined.
func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	if input.Name == "" {
		return nil, ErrTeamNameRequired
	}

	for attempt := 0; attempt < inviteCodeMaxAttempts; attempt++ {
		code, err := generateSecureToken(inviteCodeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate invite code: %w", err)
		}

		team := &models.Team{
			Name:       input.Name,
			InviteCode: code,
			OwnerID:    input.CreatorID,
		}

		team, err = s.createTeamTx(ctx, team, input.CreatorID)
		if err == nil {
			return team, nil
		}
		if errors.Is(err, repositories.ErrTeamInviteCodeConflict) {
			continue // rare collision, retry with a fresh code
		}
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, err
	}
	return nil, fmt.Errorf("failed to generate a unique invite code after %d attempts", inviteCodeMaxAttempts)
}

func (s *teamService) createTeamTx(ctx context.Context, team *models.Team, creatorID int) (*models.Team, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			_ = tx.Rollback()
		}
	}()

	if txErr = s.teamRepo.Create(ctx, tx, team); txErr != nil {
		return nil, txErr
	}

	owner := &models.TeamMember{
		UserID: creatorID,
		TeamID: team.ID,
		Role:   models.MemberRoleOwner,
	}
	if txErr = s.memberRepo.Create(ctx, tx, owner); txErr != nil {
		return nil, fmt.Errorf("failed to create owner membership: %w", txErr)
	}

	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("failed to commit team creation: %w", txErr)
	}

	team.Members = []models.TeamMember{*owner}
	return team, nil
}

func (s *teamService) GetTeamByID(ctx context.Context, teamID, currentUserID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	// The invite code is only disclosed to members.
	if _, err := s.gate.RequireMember(ctx, currentUserID, teamID); err != nil {
		team.InviteCode = ""
		if !errors.Is(err, ErrNotTeamMember) {
			return nil, err
		}
	}
	return team, nil
}

func (s *teamService) UpdateTeamName(ctx context.Context, teamID int, name string, currentUserID int) (*models.Team, error) {
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	if _, err := s.gate.RequireManager(ctx, currentUserID, teamID); err != nil {
		return nil, err
	}

	if err := s.teamRepo.UpdateName(ctx, teamID, name); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNotFound):
			return nil, ErrTeamNotFound
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to update team %d: %w", teamID, err)
	}

	return s.teamRepo.GetByID(ctx, teamID)
}

func (s *teamService) JoinByInviteCode(ctx context.Context, code string, currentUserID int) (*models.TeamMember, error) {
	team, err := s.teamRepo.GetByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to resolve invite code: %w", err)
	}

	member := &models.TeamMember{
		UserID: currentUserID,
		TeamID: team.ID,
		Role:   models.MemberRoleMember,
	}
	if err := s.memberRepo.Create(ctx, nil, member); err != nil {
		if errors.Is(err, repositories.ErrMemberConflict) {
			return nil, ErrAlreadyTeamMember
		}
		return nil, fmt.Errorf("failed to join team %d: %w", team.ID, err)
	}
	return member, nil
}

func (s *teamService) ListMembers(ctx context.Context, teamID, currentUserID int) ([]models.TeamMember, error) {
	if _, err := s.gate.RequireMember(ctx, currentUserID, teamID); err != nil {
		return nil, err
	}

	members, err := s.memberRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}
	for i := range members {
		populateUserDetails(members[i].User, s.uploader)
	}
	return members, nil
}

func (s *teamService) RemoveMember(ctx context.Context, teamID, userID, currentUserID int) error {
	// A member may leave on their own; removing someone else needs
	// the OWNER or ADMIN role.
	if userID != currentUserID {
		if _, err := s.gate.RequireManager(ctx, currentUserID, teamID); err != nil {
			return err
		}
	}

	member, err := s.gate.RequireMember(ctx, userID, teamID)
	if err != nil {
		return err
	}
	if member.Role == models.MemberRoleOwner {
		return ErrOwnerCannotBeRemoved
	}

	if err := s.memberRepo.Delete(ctx, userID, teamID); err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrNotTeamMember
		}
		return fmt.Errorf("failed to remove user %d from team %d: %w", userID, teamID, err)
	}
	return nil
}

func (s *teamService) RotateInviteCode(ctx context.Context, teamID, currentUserID int) (string, error) {
	member, err := s.gate.RequireMember(ctx, currentUserID, teamID)
	if err != nil {
		return "", err
	}
	if member.Role != models.MemberRoleOwner {
		return "", ErrTeamRoleInsufficient
	}

	for attempt := 0; attempt < inviteCodeMaxAttempts; attempt++ {
		code, err := generateSecureToken(inviteCodeLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}
		err = s.teamRepo.UpdateInviteCode(ctx, teamID, code)
		if err == nil {
			return code, nil
		}
		if errors.Is(err, repositories.ErrTeamInviteCodeConflict) {
			continue
		}
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return "", ErrTeamNotFound
		}
		return "", fmt.Errorf("failed to rotate invite code for team %d: %w", teamID, err)
	}
	return "", fmt.Errorf("failed to generate a unique invite code after %d attempts", inviteCodeMaxAttempts)
}
