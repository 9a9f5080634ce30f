package models

import "time"

type Team struct {
	ID         int       `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	InviteCode string    `json:"-" db:"invite_code"`
	OwnerID    int       `json:"owner_id" db:"owner_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	Owner   *User        `json:"owner,omitempty" db:"-"`
	Members []TeamMember `json:"members,omitempty" db:"-"`
}
