package models

import "time"

// FlagAttempt is one row of the append-only submission ledger. The
// submitted value and its outcome are immutable after insert; only
// the advisory comment may be overwritten afterwards, so reviewers
// can annotate history ("this flag was a decoy") without changing
// the factual record.
type FlagAttempt struct {
	ID          int       `json:"id" db:"id"`
	ChallengeID int       `json:"challenge_id" db:"challenge_id"`
	UserID      int       `json:"user_id" db:"user_id"`
	FlagValue   string    `json:"flag_value" db:"flag_value"`
	IsSuccess   bool      `json:"is_success" db:"is_success"`
	Comment     *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
}
