package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/repositories"
	"github.com/Glebradost/ctfhub/storage"
)

// AttemptService is the read/annotate side of the flag-attempt
// ledger. Rows only ever come into existence through the solve
// workflow; here they are listed, fetched and commented on by
// authorized team members.
type AttemptService interface {
	ListAttempts(ctx context.Context, eventID, challengeID, currentUserID int) ([]models.FlagAttempt, error)
	GetAttempt(ctx context.Context, eventID, challengeID, attemptID, currentUserID int) (*models.FlagAttempt, error)
	AnnotateAttempt(ctx context.Context, eventID, challengeID, attemptID, currentUserID int, comment string) (*models.FlagAttempt, error)
}

type attemptService struct {
	attemptRepo   repositories.AttemptRepository
	challengeRepo repositories.ChallengeRepository
	gate          *MembershipGate
	uploader      storage.FileUploader
}

func NewAttemptService(
	attemptRepo repositories.AttemptRepository,
	challengeRepo repositories.ChallengeRepository,
	gate *MembershipGate,
	uploader storage.FileUploader,
) AttemptService {
	return &attemptService{
		attemptRepo:   attemptRepo,
		challengeRepo: challengeRepo,
		gate:          gate,
		uploader:      uploader,
	}
}

// resolveChallenge checks the challenge exists under the claimed
// event and that the requester belongs to its team.
func (s *attemptService) resolveChallenge(ctx context.Context, eventID, challengeID, currentUserID int) (*models.Challenge, error) {
	challenge, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, repositories.ErrChallengeNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge %d: %w", challengeID, err)
	}
	if challenge.EventID != eventID {
		return nil, ErrChallengeNotFound
	}
	if _, err := s.gate.RequireMember(ctx, currentUserID, challenge.TeamID); err != nil {
		return nil, err
	}
	return challenge, nil
}

func (s *attemptService) ListAttempts(ctx context.Context, eventID, challengeID, currentUserID int) ([]models.FlagAttempt, error) {
	if _, err := s.resolveChallenge(ctx, eventID, challengeID, currentUserID); err != nil {
		return nil, err
	}

	attempts, err := s.attemptRepo.ListByChallengeID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts of challenge %d: %w", challengeID, err)
	}
	for i := range attempts {
		populateUserDetails(attempts[i].User, s.uploader)
	}
	return attempts, nil
}

// GetAttempt authorizes by walking attempt -> challenge -> team. An
// attempt fetched through the wrong challenge or event path reads as
// absent rather than forbidden, so existence is not leaked across
// teams.
func (s *attemptService) GetAttempt(ctx context.Context, eventID, challengeID, attemptID, currentUserID int) (*models.FlagAttempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, repositories.ErrAttemptNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt %d: %w", attemptID, err)
	}
	if attempt.ChallengeID != challengeID {
		return nil, ErrAttemptNotFound
	}
	if _, err := s.resolveChallenge(ctx, eventID, challengeID, currentUserID); err != nil {
		return nil, err
	}

	populateUserDetails(attempt.User, s.uploader)
	return attempt, nil
}

// AnnotateAttempt overwrites the advisory comment. The submitted
// value and outcome stay untouched; the ledger remains append-only
// for the factual record.
func (s *attemptService) AnnotateAttempt(ctx context.Context, eventID, challengeID, attemptID, currentUserID int, comment string) (*models.FlagAttempt, error) {
	if comment == "" {
		return nil, ErrCommentRequired
	}

	attempt, err := s.GetAttempt(ctx, eventID, challengeID, attemptID, currentUserID)
	if err != nil {
		return nil, err
	}

	if err := s.attemptRepo.UpdateComment(ctx, attemptID, comment); err != nil {
		if errors.Is(err, repositories.ErrAttemptNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to annotate attempt %d: %w", attemptID, err)
	}

	attempt.Comment = &comment
	return attempt, nil
}
