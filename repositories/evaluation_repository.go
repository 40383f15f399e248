package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hackingtorch/hackingtorch/models"
	"github.com/lib/pq"
)

var (
	ErrEvaluationNotFound  = errors.New("evaluation not found")
	ErrEvaluationConflict  = errors.New("evaluator already scored this submission")
	ErrEvaluationFKInvalid = errors.New("evaluation references unknown submission or evaluator")
)

type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *models.Evaluation) error
	GetByID(ctx context.Context, id int) (*models.Evaluation, error)
	GetByEvaluatorAndSubmission(ctx context.Context, evaluatorID, submissionID int) (*models.Evaluation, error)
	ListBySubmission(ctx context.Context, submissionID int) ([]models.Evaluation, error)
	ListBySubmissionIDs(ctx context.Context, submissionIDs []int) ([]models.Evaluation, error)
	Update(ctx context.Context, evaluation *models.Evaluation) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

type postgresEvaluationRepository struct {
	db *sql.DB
}

func NewPostgresEvaluationRepository(db *sql.DB) EvaluationRepository {
	return &postgresEvaluationRepository{db: db}
}

const evaluationColumns = `id, submission_id, evaluator_id, innovation, execution, impact,
	presentation, comments, created_at, updated_at`

func (r *postgresEvaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	query := `
		INSERT INTO evaluations (submission_id, evaluator_id, innovation, execution, impact, presentation, comments)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		evaluation.SubmissionID,
		evaluation.EvaluatorID,
		evaluation.Innovation,
		evaluation.Execution,
		evaluation.Impact,
		evaluation.Presentation,
		evaluation.Comments,
	).Scan(&evaluation.ID, &evaluation.CreatedAt, &evaluation.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "evaluations_submission_id_evaluator_id_key" {
					return ErrEvaluationConflict
				}
			case "23503":
				return ErrEvaluationFKInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresEvaluationRepository) GetByID(ctx context.Context, id int) (*models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE id = $1`
	return r.scanEvaluation(ctx, query, id)
}

func (r *postgresEvaluationRepository) GetByEvaluatorAndSubmission(ctx context.Context, evaluatorID, submissionID int) (*models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE evaluator_id = $1 AND submission_id = $2`
	return r.scanEvaluation(ctx, query, evaluatorID, submissionID)
}

func (r *postgresEvaluationRepository) ListBySubmission(ctx context.Context, submissionID int) ([]models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE submission_id = $1 ORDER BY created_at ASC`
	return r.collect(ctx, query, submissionID)
}

func (r *postgresEvaluationRepository) ListBySubmissionIDs(ctx context.Context, submissionIDs []int) ([]models.Evaluation, error) {
	if len(submissionIDs) == 0 {
		return []models.Evaluation{}, nil
	}
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE submission_id = ANY($1) ORDER BY submission_id, created_at`
	return r.collect(ctx, query, pq.Array(submissionIDs))
}

func (r *postgresEvaluationRepository) Update(ctx context.Context, evaluation *models.Evaluation) error {
	query := `
		UPDATE evaluations SET
			innovation = $1,
			execution = $2,
			impact = $3,
			presentation = $4,
			comments = $5,
			updated_at = NOW()
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		evaluation.Innovation,
		evaluation.Execution,
		evaluation.Impact,
		evaluation.Presentation,
		evaluation.Comments,
		evaluation.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEvaluationNotFound)
}

func (r *postgresEvaluationRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM evaluations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEvaluationNotFound)
}

func (r *postgresEvaluationRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM evaluations`).Scan(&count)
	return count, err
}

func (r *postgresEvaluationRepository) collect(ctx context.Context, query string, args ...interface{}) ([]models.Evaluation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	evaluations := make([]models.Evaluation, 0)
	for rows.Next() {
		var e models.Evaluation
		if err := scanEvaluationRow(rows, &e); err != nil {
			return nil, err
		}
		evaluations = append(evaluations, e)
	}
	return evaluations, rows.Err()
}

func scanEvaluationRow(row rowScanner, e *models.Evaluation) error {
	return row.Scan(
		&e.ID,
		&e.SubmissionID,
		&e.EvaluatorID,
		&e.Innovation,
		&e.Execution,
		&e.Impact,
		&e.Presentation,
		&e.Comments,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
}

func (r *postgresEvaluationRepository) scanEvaluation(ctx context.Context, query string, args ...interface{}) (*models.Evaluation, error) {
	evaluation := &models.Evaluation{}
	err := scanEvaluationRow(r.db.QueryRowContext(ctx, query, args...), evaluation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEvaluationNotFound
		}
		return nil, err
	}
	return evaluation, nil
}
