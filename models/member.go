package models

import "time"

// MemberRole is a user's role inside one team. A user holds exactly
// one membership row per team (unique on user_id+team_id).
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "OWNER"
	MemberRoleAdmin  MemberRole = "ADMIN"
	MemberRoleMember MemberRole = "MEMBER"
)

// CanManage reports whether the role may act on behalf of the team:
// editing team data, registering for events, removing members,
// moderating other members' notes and uploads.
func (r MemberRole) CanManage() bool {
	return r == MemberRoleOwner || r == MemberRoleAdmin
}

type TeamMember struct {
	ID        int        `json:"id" db:"id"`
	UserID    int        `json:"user_id" db:"user_id"`
	TeamID    int        `json:"team_id" db:"team_id"`
	Role      MemberRole `json:"role" db:"role"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
}
