package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/repositories"
)

type StatsService interface {
	GetEventStats(ctx context.Context, eventID int) (*models.EventStats, error)
}

type statsService struct {
	eventRepo     repositories.EventRepository
	challengeRepo repositories.ChallengeRepository
	attemptRepo   repositories.AttemptRepository
}

func NewStatsService(
	eventRepo repositories.EventRepository,
	challengeRepo repositories.ChallengeRepository,
	attemptRepo repositories.AttemptRepository,
) StatsService {
	return &statsService{
		eventRepo:     eventRepo,
		challengeRepo: challengeRepo,
		attemptRepo:   attemptRepo,
	}
}

// GetEventStats fans the four independent counts out concurrently.
func (s *statsService) GetEventStats(ctx context.Context, eventID int) (*models.EventStats, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}

	stats := &models.EventStats{EventID: eventID}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.eventRepo.CountTeams(gctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to count teams: %w", err)
		}
		stats.TeamsTotal = n
		return nil
	})
	g.Go(func() error {
		n, err := s.challengeRepo.CountByEvent(gctx, eventID, false)
		if err != nil {
			return fmt.Errorf("failed to count challenges: %w", err)
		}
		stats.ChallengesTotal = n
		return nil
	})
	g.Go(func() error {
		n, err := s.challengeRepo.CountByEvent(gctx, eventID, true)
		if err != nil {
			return fmt.Errorf("failed to count solved challenges: %w", err)
		}
		stats.ChallengesSolved = n
		return nil
	})
	g.Go(func() error {
		n, err := s.attemptRepo.CountByEvent(gctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to count attempts: %w", err)
		}
		stats.AttemptsTotal = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
