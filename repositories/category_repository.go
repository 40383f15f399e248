package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hackingtorch/hackingtorch/models"
	"github.com/lib/pq"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryRepository interface {
	ListAll(ctx context.Context) ([]models.Category, error)
	// ResolveByNames возвращает категории с указанными именами.
	// Неизвестные имена молча пропускаются — решает вызывающая сторона.
	ResolveByNames(ctx context.Context, names []string) ([]models.Category, error)
	AttachToTeam(ctx context.Context, exec SQLExecutor, teamID int, categoryIDs []int) error
	AttachToSubmission(ctx context.Context, exec SQLExecutor, submissionID int, categoryIDs []int) error
	ListByTeam(ctx context.Context, teamID int) ([]models.Category, error)
	ListBySubmission(ctx context.Context, submissionID int) ([]models.Category, error)
}

type postgresCategoryRepository struct {
	db *sql.DB
}

func NewPostgresCategoryRepository(db *sql.DB) CategoryRepository {
	return &postgresCategoryRepository{db: db}
}

func (r *postgresCategoryRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCategoryRepository) ListAll(ctx context.Context) ([]models.Category, error) {
	return r.collect(ctx, r.db, `SELECT id, name FROM categories ORDER BY name ASC`)
}

func (r *postgresCategoryRepository) ResolveByNames(ctx context.Context, names []string) ([]models.Category, error) {
	return r.collect(ctx, r.db,
		`SELECT id, name FROM categories WHERE name = ANY($1) ORDER BY name ASC`,
		pq.Array(names))
}

func (r *postgresCategoryRepository) AttachToTeam(ctx context.Context, exec SQLExecutor, teamID int, categoryIDs []int) error {
	query := `
		INSERT INTO team_categories (team_id, category_id)
		SELECT $1, unnest($2::int[])
		ON CONFLICT DO NOTHING`
	_, err := r.executor(exec).ExecContext(ctx, query, teamID, pq.Array(categoryIDs))
	return err
}

func (r *postgresCategoryRepository) AttachToSubmission(ctx context.Context, exec SQLExecutor, submissionID int, categoryIDs []int) error {
	query := `
		INSERT INTO submission_categories (submission_id, category_id)
		SELECT $1, unnest($2::int[])
		ON CONFLICT DO NOTHING`
	_, err := r.executor(exec).ExecContext(ctx, query, submissionID, pq.Array(categoryIDs))
	return err
}

func (r *postgresCategoryRepository) ListByTeam(ctx context.Context, teamID int) ([]models.Category, error) {
	return r.collect(ctx, r.db, `
		SELECT c.id, c.name
		FROM categories c
		JOIN team_categories tc ON c.id = tc.category_id
		WHERE tc.team_id = $1
		ORDER BY c.name ASC`, teamID)
}

func (r *postgresCategoryRepository) ListBySubmission(ctx context.Context, submissionID int) ([]models.Category, error) {
	return r.collect(ctx, r.db, `
		SELECT c.id, c.name
		FROM categories c
		JOIN submission_categories sc ON c.id = sc.category_id
		WHERE sc.submission_id = $1
		ORDER BY c.name ASC`, submissionID)
}

func (r *postgresCategoryRepository) collect(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Category, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
