package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/repositories"
	"github.com/Glebradost/ctfhub/storage"
)

type CreateChallengeInput struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Points   int     `json:"points"`
	Flag     *string `json:"flag"`
	TeamID   int     `json:"team_id"`
}

type UpdateChallengeInput struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
	Points   *int    `json:"points"`
	Flag     *string `json:"flag"`
	// ClearFlag removes the configured flag; it wins over Flag.
	ClearFlag bool `json:"clear_flag"`
}

type ChallengeService interface {
	CreateChallenge(ctx context.Context, eventID, currentUserID int, input CreateChallengeInput) (*models.Challenge, error)
	GetChallenge(ctx context.Context, eventID, challengeID, currentUserID int) (*models.Challenge, error)
	ListChallenges(ctx context.Context, eventID, teamID, currentUserID int) ([]models.Challenge, error)
	UpdateChallenge(ctx context.Context, eventID, challengeID, currentUserID int, input UpdateChallengeInput) (*models.Challenge, error)
	AssignUser(ctx context.Context, eventID, challengeID, userID, currentUserID int) (*models.ChallengeAssignment, error)
	ListAssignees(ctx context.Context, eventID, challengeID, currentUserID int) ([]models.ChallengeAssignment, error)
}

type challengeService struct {
	challengeRepo repositories.ChallengeRepository
	eventRepo     repositories.EventRepository
	gate          *MembershipGate
	uploader      storage.FileUploader
}

func NewChallengeService(
	challengeRepo repositories.ChallengeRepository,
	eventRepo repositories.EventRepository,
	gate *MembershipGate,
	uploader storage.FileUploader,
) ChallengeService {
	return &challengeService{
		challengeRepo: challengeRepo,
		eventRepo:     eventRepo,
		gate:          gate,
		uploader:      uploader,
	}
}

// resolveChallenge loads a challenge, verifies it belongs to the
// claimed event and that the requester is a member of its team. Every
// challenge-scoped operation funnels through here so the cross-event
// guard and the membership gate cannot diverge between endpoints.
func (s *challengeService) resolveChallenge(ctx context.Context, eventID, challengeID, currentUserID int) (*models.Challenge, *models.TeamMember, error) {
	challenge, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, repositories.ErrChallengeNotFound) {
			return nil, nil, ErrChallengeNotFound
		}
		return nil, nil, fmt.Errorf("failed to get challenge %d: %w", challengeID, err)
	}
	if challenge.EventID != eventID {
		return nil, nil, ErrChallengeNotFound
	}

	member, err := s.gate.RequireMember(ctx, currentUserID, challenge.TeamID)
	if err != nil {
		return nil, nil, err
	}
	return challenge, member, nil
}

func (s *challengeService) CreateChallenge(ctx context.Context, eventID, currentUserID int, input CreateChallengeInput) (*models.Challenge, error) {
	if input.Name == "" {
		return nil, ErrChallengeNameRequired
	}
	if input.Points < 0 {
		return nil, ErrChallengeInvalidPoints
	}

	if _, err := s.gate.RequireMember(ctx, currentUserID, input.TeamID); err != nil {
		return nil, err
	}

	// The team must actually participate in the event.
	if _, err := s.eventRepo.GetTeamRegistration(ctx, eventID, input.TeamID); err != nil {
		if errors.Is(err, repositories.ErrEventTeamNotFound) {
			return nil, ErrTeamNotInEvent
		}
		return nil, fmt.Errorf("failed to check event registration: %w", err)
	}

	challenge := &models.Challenge{
		Name:      input.Name,
		Category:  input.Category,
		Points:    input.Points,
		Flag:      input.Flag,
		TeamID:    input.TeamID,
		EventID:   eventID,
		CreatedBy: currentUserID,
	}
	if err := s.challengeRepo.Create(ctx, challenge); err != nil {
		switch {
		case errors.Is(err, repositories.ErrChallengeNameConflict):
			return nil, ErrChallengeNameConflict
		case errors.Is(err, repositories.ErrChallengeEventInvalid):
			return nil, ErrEventNotFound
		case errors.Is(err, repositories.ErrChallengeTeamInvalid):
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	// The creator starts working the challenge by default.
	assignment := &models.ChallengeAssignment{ChallengeID: challenge.ID, UserID: currentUserID}
	if err := s.challengeRepo.CreateAssignment(ctx, assignment); err != nil && !errors.Is(err, repositories.ErrAssignmentConflict) {
		return nil, fmt.Errorf("failed to auto-assign creator to challenge %d: %w", challenge.ID, err)
	}

	return challenge, nil
}

func (s *challengeService) GetChallenge(ctx context.Context, eventID, challengeID, currentUserID int) (*models.Challenge, error) {
	challenge, _, err := s.resolveChallenge(ctx, eventID, challengeID, currentUserID)
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

func (s *challengeService) ListChallenges(ctx context.Context, eventID, teamID, currentUserID int) ([]models.Challenge, error) {
	if _, err := s.gate.RequireMember(ctx, currentUserID, teamID); err != nil {
		return nil, err
	}

	challenges, err := s.challengeRepo.ListByEventAndTeam(ctx, eventID, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges for event %d team %d: %w", eventID, teamID, err)
	}
	return challenges, nil
}

func (s *challengeService) UpdateChallenge(ctx context.Context, eventID, challengeID, currentUserID int, input UpdateChallengeInput) (*models.Challenge, error) {
	challenge, member, err := s.resolveChallenge(ctx, eventID, challengeID, currentUserID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrChallengeNameRequired
		}
		challenge.Name = *input.Name
	}
	if input.Category != nil {
		challenge.Category = *input.Category
	}
	if input.Points != nil {
		if *input.Points < 0 {
			return nil, ErrChallengeInvalidPoints
		}
		challenge.Points = *input.Points
	}

	// Changing the stored flag rewrites the ground truth every future
	// submission is judged against, so it is held to the manager roles.
	if input.ClearFlag || input.Flag != nil {
		if !member.Role.CanManage() {
			return nil, ErrTeamRoleInsufficient
		}
		if input.ClearFlag {
			challenge.Flag = nil
		} else {
			challenge.Flag = input.Flag
		}
	}

	if err := s.challengeRepo.Update(ctx, challenge); err != nil {
		switch {
		case errors.Is(err, repositories.ErrChallengeNameConflict):
			return nil, ErrChallengeNameConflict
		case errors.Is(err, repositories.ErrChallengeNotFound):
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to update challenge %d: %w", challengeID, err)
	}
	return challenge, nil
}

func (s *challengeService) AssignUser(ctx context.Context, eventID, challengeID, userID, currentUserID int) (*models.ChallengeAssignment, error) {
	challenge, _, err := s.resolveChallenge(ctx, eventID, challengeID, currentUserID)
	if err != nil {
		return nil, err
	}

	// The assignee must also belong to the owning team.
	if _, err := s.gate.RequireMember(ctx, userID, challenge.TeamID); err != nil {
		return nil, err
	}

	assignment := &models.ChallengeAssignment{ChallengeID: challengeID, UserID: userID}
	if err := s.challengeRepo.CreateAssignment(ctx, assignment); err != nil {
		switch {
		case errors.Is(err, repositories.ErrAssignmentConflict):
			return nil, ErrAlreadyAssigned
		case errors.Is(err, repositories.ErrChallengeNotFound):
			return nil, ErrChallengeNotFound
		case errors.Is(err, repositories.ErrAssignmentUserInvalid):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to assign user %d to challenge %d: %w", userID, challengeID, err)
	}
	return assignment, nil
}

func (s *challengeService) ListAssignees(ctx context.Context, eventID, challengeID, currentUserID int) ([]models.ChallengeAssignment, error) {
	if _, _, err := s.resolveChallenge(ctx, eventID, challengeID, currentUserID); err != nil {
		return nil, err
	}

	assignments, err := s.challengeRepo.ListAssignees(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignees of challenge %d: %w", challengeID, err)
	}
	for i := range assignments {
		populateUserDetails(assignments[i].User, s.uploader)
	}
	return assignments, nil
}
