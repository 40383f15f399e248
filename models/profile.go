package models

import "time"

// UserType соответствует ENUM user_type в БД.
type UserType string

const (
	UserTypeParticipant UserType = "participant"
	UserTypeOrganizer   UserType = "organizer"
	UserTypeAdmin       UserType = "admin"
)

// ProfileStatus соответствует ENUM profile_status в БД.
type ProfileStatus string

const (
	ProfileStatusActive    ProfileStatus = "active"
	ProfileStatusSuspended ProfileStatus = "suspended"
	ProfileStatusPending   ProfileStatus = "pending"
)

// Profile — учётная запись платформы. Идентификатор профиля одновременно
// является субъектом аутентификации (claim "sub" в сессионном токене).
type Profile struct {
	ID           int           `json:"id" db:"id"`
	FirstName    string        `json:"first_name" db:"first_name"`
	LastName     string        `json:"last_name" db:"last_name"`
	Email        string        `json:"email" db:"email"`
	PasswordHash string        `json:"-" db:"password_hash"`
	Phone        *string       `json:"phone,omitempty" db:"phone"`
	Bio          *string       `json:"bio,omitempty" db:"bio"`
	Website      *string       `json:"website,omitempty" db:"website"`
	AvatarURL    *string       `json:"avatar_url,omitempty" db:"avatar_url"`
	UserType     UserType      `json:"user_type" db:"user_type"`
	Status       ProfileStatus `json:"status" db:"status"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`

	PasswordResetToken     *string    `json:"-" db:"password_reset_token"`
	PasswordResetExpiresAt *time.Time `json:"-" db:"password_reset_expires_at"`
}

type ProfileFilter struct {
	UserType *UserType
	Status   *ProfileStatus
	Search   string
	Page     int
	Limit    int
}

type ProfileListResponse struct {
	Profiles   []Profile `json:"profiles"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
}
