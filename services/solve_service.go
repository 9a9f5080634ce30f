package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Glebradost/ctfhub/feed"
	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/repositories"
)

// SolveService turns a flag submission into a ledger row and, on a
// match, the challenge's one-time solved transition. Both writes
// happen inside a single transaction holding a row lock on the
// challenge, so concurrent submissions for the same challenge record
// every attempt but flip solved exactly once.
type SolveService interface {
	Solve(ctx context.Context, eventID, challengeID, currentUserID int, submittedFlag string) (*models.SolveResult, error)
}

type solveService struct {
	db            *sql.DB
	challengeRepo repositories.ChallengeRepository
	attemptRepo   repositories.AttemptRepository
	gate          *MembershipGate
	hub           *feed.Hub
	logger        *slog.Logger
}

func NewSolveService(
	db *sql.DB,
	challengeRepo repositories.ChallengeRepository,
	attemptRepo repositories.AttemptRepository,
	gate *MembershipGate,
	hub *feed.Hub,
	logger *slog.Logger,
) SolveService {
	return &solveService{
		db:            db,
		challengeRepo: challengeRepo,
		attemptRepo:   attemptRepo,
		gate:          gate,
		hub:           hub,
		logger:        logger,
	}
}

func (s *solveService) Solve(ctx context.Context, eventID, challengeID, currentUserID int, submittedFlag string) (*models.SolveResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin solve transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("failed to roll back solve transaction",
					slog.Int("challenge_id", challengeID), slog.Any("error", rbErr))
			}
		}
	}()

	// Lock the challenge row. Concurrent solves for the same
	// challenge serialize here.
	challenge, txErr := s.challengeRepo.GetByIDForUpdate(ctx, tx, challengeID)
	if txErr != nil {
		if errors.Is(txErr, repositories.ErrChallengeNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to lock challenge %d: %w", challengeID, txErr)
	}
	if challenge.EventID != eventID {
		txErr = ErrChallengeNotFound
		return nil, ErrChallengeNotFound
	}

	if _, txErr = s.gate.RequireMember(ctx, currentUserID, challenge.TeamID); txErr != nil {
		return nil, txErr
	}

	// Plain equality on purpose: flags are not secrets from the
	// authorized team, and a timing oracle is acceptable here.
	matched := challenge.Flag != nil && *challenge.Flag == submittedFlag

	attempt := &models.FlagAttempt{
		ChallengeID: challengeID,
		UserID:      currentUserID,
		FlagValue:   submittedFlag,
		IsSuccess:   matched,
	}
	if txErr = s.attemptRepo.Create(ctx, tx, attempt); txErr != nil {
		return nil, fmt.Errorf("failed to record flag attempt: %w", txErr)
	}

	if challenge.Solved {
		// The attempt is still part of the history, so commit the
		// ledger row before reporting the conflict.
		if commitErr := tx.Commit(); commitErr != nil {
			txErr = commitErr
			return nil, fmt.Errorf("failed to commit attempt for solved challenge: %w", commitErr)
		}
		return nil, ErrChallengeAlreadySolved
	}

	result := &models.SolveResult{}
	solvedAt := time.Now()
	if matched {
		if txErr = s.challengeRepo.MarkSolved(ctx, tx, challengeID, solvedAt); txErr != nil {
			return nil, fmt.Errorf("failed to mark challenge %d solved: %w", challengeID, txErr)
		}
		result.Solved = true
		result.Points = challenge.Points
	}

	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("failed to commit solve transaction: %w", txErr)
	}

	if result.Solved {
		s.logger.Info("challenge solved",
			slog.Int("challenge_id", challengeID),
			slog.Int("event_id", eventID),
			slog.Int("user_id", currentUserID),
			slog.Int("points", challenge.Points),
		)
		s.broadcastSolve(challenge, currentUserID, solvedAt)
	}

	return result, nil
}

func (s *solveService) broadcastSolve(challenge *models.Challenge, userID int, solvedAt time.Time) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(feed.EventRoom(strconv.Itoa(challenge.EventID)), feed.Message{
		Type: "CHALLENGE_SOLVED",
		Payload: map[string]interface{}{
			"challenge_id":   challenge.ID,
			"challenge_name": challenge.Name,
			"team_id":        challenge.TeamID,
			"user_id":        userID,
			"points":         challenge.Points,
			"solved_at":      solvedAt,
		},
	})
}
