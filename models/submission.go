package models

import "time"

// SubmissionStatus соответствует ENUM submission_status в БД.
type SubmissionStatus string

const (
	SubmissionStatusDraft     SubmissionStatus = "draft"
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusEvaluated SubmissionStatus = "evaluated"
)

// Submission — проект, сданный командой в рамках события.
// На одну команду в одном событии допускается не более одной заявки.
type Submission struct {
	ID               int              `json:"id" db:"id"`
	EventID          int              `json:"event_id" db:"event_id"`
	TeamID           int              `json:"team_id" db:"team_id"`
	Name             string           `json:"name" db:"name"`
	ShortDescription *string          `json:"short_description,omitempty" db:"short_description"`
	Description      *string          `json:"description,omitempty" db:"description"`
	RepositoryURL    *string          `json:"repository_url,omitempty" db:"repository_url"`
	DemoURL          *string          `json:"demo_url,omitempty" db:"demo_url"`
	VideoURL         *string          `json:"video_url,omitempty" db:"video_url"`
	Status           SubmissionStatus `json:"status" db:"status"`
	SubmittedAt      *time.Time       `json:"submitted_at,omitempty" db:"submitted_at"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`

	Team       *Team            `json:"team,omitempty" db:"-"`
	Images     []SubmissionFile `json:"images,omitempty" db:"-"`
	Files      []SubmissionFile `json:"files,omitempty" db:"-"`
	Categories []Category       `json:"categories,omitempty" db:"-"`
}

type SubmissionFileKind string

const (
	SubmissionFileImage    SubmissionFileKind = "image"
	SubmissionFileDocument SubmissionFileKind = "document"
)

type SubmissionFile struct {
	ID           int                `json:"id" db:"id"`
	SubmissionID int                `json:"submission_id" db:"submission_id"`
	Kind         SubmissionFileKind `json:"kind" db:"kind"`
	FileName     string             `json:"file_name" db:"file_name"`
	ContentType  string             `json:"content_type" db:"content_type"`
	StorageKey   string             `json:"-" db:"storage_key"`
	URL          string             `json:"url" db:"-"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
}
