package models

import "time"

// Certificate выдаётся участнику завершённого события. Serial — публичный
// идентификатор для проверки подлинности.
type Certificate struct {
	ID          int       `json:"id" db:"id"`
	Serial      string    `json:"serial" db:"serial"`
	EventID     int       `json:"event_id" db:"event_id"`
	ProfileID   int       `json:"profile_id" db:"profile_id"`
	TeamID      int       `json:"team_id" db:"team_id"`
	DocumentKey *string   `json:"-" db:"document_key"`
	DocumentURL *string   `json:"document_url,omitempty" db:"-"`
	IssuedAt    time.Time `json:"issued_at" db:"issued_at"`

	Event   *Event   `json:"event,omitempty" db:"-"`
	Profile *Profile `json:"profile,omitempty" db:"-"`
}
