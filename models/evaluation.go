package models

import "time"

// Evaluation — оценка заявки одним судьёй. Четыре подшкалы, каждая 0–10.
type Evaluation struct {
	ID           int       `json:"id" db:"id"`
	SubmissionID int       `json:"submission_id" db:"submission_id"`
	EvaluatorID  int       `json:"evaluator_id" db:"evaluator_id"`
	Innovation   int       `json:"innovation" db:"innovation"`
	Execution    int       `json:"execution" db:"execution"`
	Impact       int       `json:"impact" db:"impact"`
	Presentation int       `json:"presentation" db:"presentation"`
	Comments     *string   `json:"comments,omitempty" db:"comments"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	Evaluator *Profile `json:"evaluator,omitempty" db:"-"`
}

// AverageScores — средние значения подшкал по всем оценкам события.
type AverageScores struct {
	Innovation   float64 `json:"innovation"`
	Execution    float64 `json:"execution"`
	Impact       float64 `json:"impact"`
	Presentation float64 `json:"presentation"`
	Overall      float64 `json:"overall"`
}

// EvaluationStats возвращается даже при отсутствии заявок или оценок:
// TotalEvaluations = 0 и нулевые средние, без ошибки.
type EvaluationStats struct {
	EventID          int           `json:"event_id"`
	TotalEvaluations int           `json:"total_evaluations"`
	AverageScores    AverageScores `json:"average_scores"`
}
