package models

import "time"

// EventStatus представляет статусы события, соответствующие ENUM в БД.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusActive    EventStatus = "active"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

type EventFormat string

const (
	EventFormatInPerson EventFormat = "in_person"
	EventFormatOnline   EventFormat = "online"
	EventFormatHybrid   EventFormat = "hybrid"
)

// Event — хакатон, воркшоп или идеатон.
type Event struct {
	ID              int         `json:"id" db:"id"`
	OrganizerID     int         `json:"organizer_id" db:"organizer_id"`
	Name            string      `json:"name" db:"name"`
	Description     *string     `json:"description,omitempty" db:"description"`
	EventType       string      `json:"event_type" db:"event_type"`
	Format          EventFormat `json:"format" db:"format"`
	Location        *string     `json:"location,omitempty" db:"location"`
	OnlineURL       *string     `json:"online_url,omitempty" db:"online_url"`
	StartDate       time.Time   `json:"start_date" db:"start_date"`
	EndDate         time.Time   `json:"end_date" db:"end_date"`
	MaxParticipants *int        `json:"max_participants,omitempty" db:"max_participants"`
	MaxTeamSize     *int        `json:"max_team_size,omitempty" db:"max_team_size"`
	RegistrationFee float64     `json:"registration_fee" db:"registration_fee"`
	IsFeatured      bool        `json:"is_featured" db:"is_featured"`
	Status          EventStatus `json:"status" db:"status"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`

	CoverKey *string `json:"-" db:"cover_key"`
	CoverURL *string `json:"cover_image_url,omitempty" db:"-"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Organizer  *Profile   `json:"organizer,omitempty" db:"-"`
	Categories []Category `json:"categories,omitempty" db:"-"`
}

type EventFilter struct {
	Status      *EventStatus
	EventType   *string
	Format      *EventFormat
	OrganizerID *int
	Featured    *bool
	Search      string
	Page        int
	Limit       int
}

type EventListResponse struct {
	Events     []Event `json:"events"`
	TotalCount int     `json:"total_count"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
}
