package models

import "time"

// TeamMemberRole соответствует ENUM team_member_role в БД.
type TeamMemberRole string

const (
	TeamRoleLeader TeamMemberRole = "leader"
	TeamRoleMember TeamMemberRole = "member"
)

type Team struct {
	ID          int       `json:"id" db:"id"`
	EventID     int       `json:"event_id" db:"event_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	MaxMembers  int       `json:"max_members" db:"max_members"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Members    []TeamMember `json:"members,omitempty" db:"-"`
	Categories []Category   `json:"categories,omitempty" db:"-"`
}

type TeamMember struct {
	ID        int            `json:"id" db:"id"`
	TeamID    int            `json:"team_id" db:"team_id"`
	ProfileID int            `json:"profile_id" db:"profile_id"`
	Role      TeamMemberRole `json:"role" db:"role"`
	JoinedAt  time.Time      `json:"joined_at" db:"joined_at"`

	Profile *Profile `json:"profile,omitempty" db:"-"`
}
