package models

import "time"

// Challenge is a CTF puzzle owned by exactly one team within one
// event. The name is unique per (team, event). Flag is the plaintext
// secret to compare submissions against; it may be unset for
// challenges tracked without a known flag.
type Challenge struct {
	ID        int        `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Category  string     `json:"category" db:"category"`
	Points    int        `json:"points" db:"points"`
	Flag      *string    `json:"-" db:"flag"`
	Solved    bool       `json:"solved" db:"solved"`
	SolvedAt  *time.Time `json:"solved_at,omitempty" db:"solved_at"`
	TeamID    int        `json:"team_id" db:"team_id"`
	EventID   int        `json:"event_id" db:"event_id"`
	CreatedBy int        `json:"created_by" db:"created_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`

	Assignees []PublicProfile `json:"assignees,omitempty" db:"-"`
}

// ChallengeAssignment marks a user as working on a challenge.
// Unique on (challenge_id, user_id).
type ChallengeAssignment struct {
	ID          int       `json:"id" db:"id"`
	ChallengeID int       `json:"challenge_id" db:"challenge_id"`
	UserID      int       `json:"user_id" db:"user_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
}

// SolveResult is returned by the solve workflow. Points is the
// challenge's value when this call performed the solved transition,
// zero otherwise.
type SolveResult struct {
	Solved bool `json:"solved"`
	Points int  `json:"points"`
}
