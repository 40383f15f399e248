package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hackingtorch/hackingtorch/models"
	"github.com/lib/pq"
)

var (
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrSubmissionConflict  = errors.New("team already has a submission for this event")
	ErrSubmissionFKInvalid = errors.New("submission references unknown event or team")
)

type SubmissionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, submission *models.Submission) error
	GetByID(ctx context.Context, id int) (*models.Submission, error)
	GetByTeamAndEvent(ctx context.Context, exec SQLExecutor, teamID, eventID int) (*models.Submission, error)
	ListByEvent(ctx context.Context, eventID int) ([]models.Submission, error)
	ListIDsByEvent(ctx context.Context, eventID int) ([]int, error)
	Update(ctx context.Context, submission *models.Submission) error
	UpdateStatus(ctx context.Context, id int, status models.SubmissionStatus, submittedAt *time.Time) error
	Delete(ctx context.Context, id int) error

	AddFile(ctx context.Context, file *models.SubmissionFile) error
	ListFiles(ctx context.Context, submissionID int) ([]models.SubmissionFile, error)
	Count(ctx context.Context) (int, error)
}

type postgresSubmissionRepository struct {
	db *sql.DB
}

func NewPostgresSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &postgresSubmissionRepository{db: db}
}

func (r *postgresSubmissionRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const submissionColumns = `id, event_id, team_id, name, short_description, description,
	repository_url, demo_url, video_url, status, submitted_at, created_at, updated_at`

func (r *postgresSubmissionRepository) Create(ctx context.Context, exec SQLExecutor, submission *models.Submission) error {
	query := `
		INSERT INTO submissions (event_id, team_id, name, short_description, description,
			repository_url, demo_url, video_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		submission.EventID,
		submission.TeamID,
		submission.Name,
		submission.ShortDescription,
		submission.Description,
		submission.RepositoryURL,
		submission.DemoURL,
		submission.VideoURL,
		submission.Status,
	).Scan(&submission.ID, &submission.CreatedAt, &submission.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "submissions_event_id_team_id_key" {
					return ErrSubmissionConflict
				}
			case "23503":
				return ErrSubmissionFKInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresSubmissionRepository) GetByID(ctx context.Context, id int) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	return r.scanSubmission(ctx, r.db, query, id)
}

func (r *postgresSubmissionRepository) GetByTeamAndEvent(ctx context.Context, exec SQLExecutor, teamID, eventID int) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE team_id = $1 AND event_id = $2`
	return r.scanSubmission(ctx, r.executor(exec), query, teamID, eventID)
}

func (r *postgresSubmissionRepository) ListByEvent(ctx context.Context, eventID int) ([]models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE event_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := make([]models.Submission, 0)
	for rows.Next() {
		var s models.Submission
		if err := scanSubmissionRow(rows, &s); err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

func (r *postgresSubmissionRepository) ListIDsByEvent(ctx context.Context, eventID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM submissions WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresSubmissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	query := `
		UPDATE submissions SET
			name = $1,
			short_description = $2,
			description = $3,
			repository_url = $4,
			demo_url = $5,
			video_url = $6,
			updated_at = NOW()
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		submission.Name,
		submission.ShortDescription,
		submission.Description,
		submission.RepositoryURL,
		submission.DemoURL,
		submission.VideoURL,
		submission.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSubmissionNotFound)
}

func (r *postgresSubmissionRepository) UpdateStatus(ctx context.Context, id int, status models.SubmissionStatus, submittedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE submissions SET status = $1, submitted_at = $2, updated_at = NOW() WHERE id = $3`,
		status, submittedAt, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSubmissionNotFound)
}

func (r *postgresSubmissionRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSubmissionNotFound)
}

func (r *postgresSubmissionRepository) AddFile(ctx context.Context, file *models.SubmissionFile) error {
	query := `
		INSERT INTO submission_files (submission_id, kind, file_name, content_type, storage_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		file.SubmissionID,
		file.Kind,
		file.FileName,
		file.ContentType,
		file.StorageKey,
	).Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrSubmissionNotFound
		}
		return err
	}
	return nil
}

func (r *postgresSubmissionRepository) ListFiles(ctx context.Context, submissionID int) ([]models.SubmissionFile, error) {
	query := `
		SELECT id, submission_id, kind, file_name, content_type, storage_key, created_at
		FROM submission_files
		WHERE submission_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]models.SubmissionFile, 0)
	for rows.Next() {
		var f models.SubmissionFile
		scanErr := rows.Scan(
			&f.ID,
			&f.SubmissionID,
			&f.Kind,
			&f.FileName,
			&f.ContentType,
			&f.StorageKey,
			&f.CreatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *postgresSubmissionRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&count)
	return count, err
}

func scanSubmissionRow(row rowScanner, s *models.Submission) error {
	return row.Scan(
		&s.ID,
		&s.EventID,
		&s.TeamID,
		&s.Name,
		&s.ShortDescription,
		&s.Description,
		&s.RepositoryURL,
		&s.DemoURL,
		&s.VideoURL,
		&s.Status,
		&s.SubmittedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
}

func (r *postgresSubmissionRepository) scanSubmission(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Submission, error) {
	submission := &models.Submission{}
	err := scanSubmissionRow(exec.QueryRowContext(ctx, query, args...), submission)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return submission, nil
}
