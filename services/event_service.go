package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/repositories"
)

type EventInput struct {
	Name        string  `json:"name"`
	StartsAt    string  `json:"starts_at"`
	EndsAt      string  `json:"ends_at"`
	PlatformURL *string `json:"platform_url"`
	PlatformKey *string `json:"platform_key"`
}

type EventService interface {
	CreateEvent(ctx context.Context, event *models.Event, currentUserRole models.UserRole) error
	GetEventByID(ctx context.Context, id int) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	UpdateEvent(ctx context.Context, event *models.Event, currentUserRole models.UserRole) error
	RegisterTeam(ctx context.Context, eventID, teamID, currentUserID int) (*models.EventTeam, error)
	ListEventTeams(ctx context.Context, eventID int) ([]models.EventTeam, error)
	ListTeamEvents(ctx context.Context, teamID, currentUserID int) ([]models.Event, error)
}

type eventService struct {
	eventRepo repositories.EventRepository
	gate      *MembershipGate
}

func NewEventService(eventRepo repositories.EventRepository, gate *MembershipGate) EventService {
	return &eventService{
		eventRepo: eventRepo,
		gate:      gate,
	}
}

func validateEvent(event *models.Event) error {
	if event.Name == "" {
		return ErrEventNameRequired
	}
	if event.StartsAt.IsZero() || event.EndsAt.IsZero() || !event.StartsAt.Before(event.EndsAt) {
		return ErrEventInvalidDates
	}
	return nil
}

func (s *eventService) CreateEvent(ctx context.Context, event *models.Event, currentUserRole models.UserRole) error {
	if currentUserRole != models.RoleAdmin {
		return ErrAdminRoleRequired
	}
	if err := validateEvent(event); err != nil {
		return err
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (s *eventService) GetEventByID(ctx context.Context, id int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", id, err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, event *models.Event, currentUserRole models.UserRole) error {
	if currentUserRole != models.RoleAdmin {
		return ErrAdminRoleRequired
	}
	if err := validateEvent(event); err != nil {
		return err
	}
	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to update event %d: %w", event.ID, err)
	}
	return nil
}

func (s *eventService) RegisterTeam(ctx context.Context, eventID, teamID, currentUserID int) (*models.EventTeam, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}

	if _, err := s.gate.RequireManager(ctx, currentUserID, teamID); err != nil {
		return nil, err
	}

	et := &models.EventTeam{EventID: eventID, TeamID: teamID}
	if err := s.eventRepo.AddTeam(ctx, et); err != nil {
		switch {
		case errors.Is(err, repositories.ErrEventTeamConflict):
			return nil, ErrTeamAlreadyInEvent
		case errors.Is(err, repositories.ErrEventTeamEventInvalid):
			return nil, ErrEventNotFound
		case errors.Is(err, repositories.ErrEventTeamTeamInvalid):
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to register team %d for event %d: %w", teamID, eventID, err)
	}
	return et, nil
}

func (s *eventService) ListEventTeams(ctx context.Context, eventID int) ([]models.EventTeam, error) {
	if _, err := s.GetEventByID(ctx, eventID); err != nil {
		return nil, err
	}

	registrations, err := s.eventRepo.ListTeams(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of event %d: %w", eventID, err)
	}
	// Invite codes are never exposed through event listings.
	for i := range registrations {
		if registrations[i].Team != nil {
			registrations[i].Team.InviteCode = ""
		}
	}
	return registrations, nil
}

func (s *eventService) ListTeamEvents(ctx context.Context, teamID, currentUserID int) ([]models.Event, error) {
	if _, err := s.gate.RequireMember(ctx, currentUserID, teamID); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListEventsByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events of team %d: %w", teamID, err)
	}
	return events, nil
}
