package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Glebradost/ctfhub/models"
	"github.com/lib/pq"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventTeamNotFound     = errors.New("event team registration not found")
	ErrEventTeamConflict     = errors.New("team is already registered for this event")
	ErrEventTeamEventInvalid = errors.New("event team event conflict or invalid")
	ErrEventTeamTeamInvalid  = errors.New("event team team conflict or invalid")
)

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	Update(ctx context.Context, event *models.Event) error

	AddTeam(ctx context.Context, et *models.EventTeam) error
	GetTeamRegistration(ctx context.Context, eventID, teamID int) (*models.EventTeam, error)
	ListTeams(ctx context.Context, eventID int) ([]models.EventTeam, error)
	ListEventsByTeam(ctx context.Context, teamID int) ([]models.Event, error)
	CountTeams(ctx context.Context, eventID int) (int, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `id, name, starts_at, ends_at, platform_url, platform_key, created_at`

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (name, starts_at, ends_at, platform_url, platform_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		event.Name,
		event.StartsAt,
		event.EndsAt,
		event.PlatformURL,
		event.PlatformKey,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event := &models.Event{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Name,
		&event.StartsAt,
		&event.EndsAt,
		&event.PlatformURL,
		&event.PlatformKey,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	return event, nil
}

func (r *postgresEventRepository) List(ctx context.Context) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY starts_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var event models.Event
		scanErr := rows.Scan(
			&event.ID,
			&event.Name,
			&event.StartsAt,
			&event.EndsAt,
			&event.PlatformURL,
			&event.PlatformKey,
			&event.CreatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *postgresEventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events SET
			name = $1,
			starts_at = $2,
			ends_at = $3,
			platform_url = $4,
			platform_key = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		event.Name,
		event.StartsAt,
		event.EndsAt,
		event.PlatformURL,
		event.PlatformKey,
		event.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) AddTeam(ctx context.Context, et *models.EventTeam) error {
	query := `
		INSERT INTO event_teams (event_id, team_id)
		VALUES ($1, $2)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query, et.EventID, et.TeamID).Scan(&et.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "event_teams_event_id_team_id_key" {
					return ErrEventTeamConflict
				}
			case "23503":
				if pqErr.Constraint == "event_teams_event_id_fkey" {
					return ErrEventTeamEventInvalid
				}
				if pqErr.Constraint == "event_teams_team_id_fkey" {
					return ErrEventTeamTeamInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresEventRepository) GetTeamRegistration(ctx context.Context, eventID, teamID int) (*models.EventTeam, error) {
	query := `SELECT id, event_id, team_id FROM event_teams WHERE event_id = $1 AND team_id = $2`

	et := &models.EventTeam{}
	err := r.db.QueryRowContext(ctx, query, eventID, teamID).Scan(&et.ID, &et.EventID, &et.TeamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan event team: %w", err)
	}
	return et, nil
}

func (r *postgresEventRepository) ListTeams(ctx context.Context, eventID int) ([]models.EventTeam, error) {
	query := `
		SELECT
			et.id, et.event_id, et.team_id,
			t.id, t.name, t.invite_code, t.owner_id, t.created_at
		FROM event_teams et
		JOIN teams t ON t.id = et.team_id
		WHERE et.event_id = $1
		ORDER BY t.name ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	registrations := make([]models.EventTeam, 0)
	for rows.Next() {
		var et models.EventTeam
		var team models.Team
		scanErr := rows.Scan(
			&et.ID,
			&et.EventID,
			&et.TeamID,
			&team.ID,
			&team.Name,
			&team.InviteCode,
			&team.OwnerID,
			&team.CreatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		et.Team = &team
		registrations = append(registrations, et)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return registrations, nil
}

func (r *postgresEventRepository) ListEventsByTeam(ctx context.Context, teamID int) ([]models.Event, error) {
	query := `
		SELECT e.id, e.name, e.starts_at, e.ends_at, e.platform_url, e.platform_key, e.created_at
		FROM events e
		JOIN event_teams et ON et.event_id = e.id
		WHERE et.team_id = $1
		ORDER BY e.starts_at DESC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var event models.Event
		scanErr := rows.Scan(
			&event.ID,
			&event.Name,
			&event.StartsAt,
			&event.EndsAt,
			&event.PlatformURL,
			&event.PlatformKey,
			&event.CreatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *postgresEventRepository) CountTeams(ctx context.Context, eventID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_teams WHERE event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
