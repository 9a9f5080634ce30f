package models

import "time"

// Note is a free-form text annotation on a challenge.
type Note struct {
	ID          int       `json:"id" db:"id"`
	ChallengeID int       `json:"challenge_id" db:"challenge_id"`
	AuthorID    int       `json:"author_id" db:"author_id"`
	Title       string    `json:"title" db:"title"`
	Body        string    `json:"body" db:"body"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Author *User `json:"author,omitempty" db:"-"`
}
