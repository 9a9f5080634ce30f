package models

import "time"

// Event is a time-boxed CTF competition. Teams participate via
// EventTeam rows; challenges are scoped to one event+team pair.
type Event struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	StartsAt    time.Time `json:"starts_at" db:"starts_at"`
	EndsAt      time.Time `json:"ends_at" db:"ends_at"`
	PlatformURL *string   `json:"platform_url,omitempty" db:"platform_url"`
	PlatformKey *string   `json:"-" db:"platform_key"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type EventTeam struct {
	ID      int `json:"id" db:"id"`
	EventID int `json:"event_id" db:"event_id"`
	TeamID  int `json:"team_id" db:"team_id"`

	Team *Team `json:"team,omitempty" db:"-"`
}

// EventStats is an aggregate view over one event's challenges.
type EventStats struct {
	EventID          int `json:"event_id"`
	TeamsTotal       int `json:"teams_total"`
	ChallengesTotal  int `json:"challenges_total"`
	ChallengesSolved int `json:"challenges_solved"`
	AttemptsTotal    int `json:"attempts_total"`
}
