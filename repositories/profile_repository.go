package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hackingtorch/hackingtorch/models"
	"github.com/lib/pq"
)

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileEmailConflict = errors.New("profile email conflict")
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id int) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetByPasswordResetToken(ctx context.Context, token string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	UpdateStatus(ctx context.Context, id int, status models.ProfileStatus) error
	UpdateUserType(ctx context.Context, id int, userType models.UserType) error
	SetPasswordResetToken(ctx context.Context, id int, token string, expiresAt time.Time) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error)
	Count(ctx context.Context, status *models.ProfileStatus) (int, error)
}

type postgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

const profileColumns = `id, first_name, last_name, email, password_hash, phone, bio, website, avatar_url,
	user_type, status, password_reset_token, password_reset_expires_at, created_at, updated_at`

func (r *postgresProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (first_name, last_name, email, password_hash, phone, user_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		profile.FirstName,
		profile.LastName,
		profile.Email,
		profile.PasswordHash,
		profile.Phone,
		profile.UserType,
		profile.Status,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "profiles_email_key" {
				return ErrProfileEmailConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresProfileRepository) GetByID(ctx context.Context, id int) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE id = $1`, profileColumns)
	return r.scanProfile(ctx, query, id)
}

func (r *postgresProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE email = $1`, profileColumns)
	return r.scanProfile(ctx, query, email)
}

func (r *postgresProfileRepository) GetByPasswordResetToken(ctx context.Context, token string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE password_reset_token = $1`, profileColumns)
	return r.scanProfile(ctx, query, token)
}

func (r *postgresProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	query := `
		UPDATE profiles SET
			first_name = $1,
			last_name = $2,
			email = $3,
			password_hash = $4,
			phone = $5,
			bio = $6,
			website = $7,
			avatar_url = $8,
			user_type = $9,
			status = $10,
			password_reset_token = $11,
			password_reset_expires_at = $12,
			updated_at = NOW()
		WHERE id = $13`

	result, err := r.db.ExecContext(ctx, query,
		profile.FirstName,
		profile.LastName,
		profile.Email,
		profile.PasswordHash,
		profile.Phone,
		profile.Bio,
		profile.Website,
		profile.AvatarURL,
		profile.UserType,
		profile.Status,
		profile.PasswordResetToken,
		profile.PasswordResetExpiresAt,
		profile.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "profiles_email_key" {
				return ErrProfileEmailConflict
			}
		}
		return err
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) UpdateStatus(ctx context.Context, id int, status models.ProfileStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) UpdateUserType(ctx context.Context, id int, userType models.UserType) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET user_type = $1, updated_at = NOW() WHERE id = $2`, userType, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) SetPasswordResetToken(ctx context.Context, id int, token string, expiresAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET password_reset_token = $1, password_reset_expires_at = $2, updated_at = NOW() WHERE id = $3`,
		token, expiresAt, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if filter.UserType != nil {
		conditions = append(conditions, fmt.Sprintf("user_type = $%d", argPos))
		args = append(args, *filter.UserType)
		argPos++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM profiles WHERE %s`, where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		profileColumns, where, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		var p models.Profile
		if err := scanProfileRow(rows, &p); err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

func (r *postgresProfileRepository) Count(ctx context.Context, status *models.ProfileStatus) (int, error) {
	var count int
	var err error
	if status != nil {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles WHERE status = $1`, *status).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count)
	}
	return count, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfileRow(row rowScanner, p *models.Profile) error {
	return row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.PasswordHash,
		&p.Phone,
		&p.Bio,
		&p.Website,
		&p.AvatarURL,
		&p.UserType,
		&p.Status,
		&p.PasswordResetToken,
		&p.PasswordResetExpiresAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *postgresProfileRepository) scanProfile(ctx context.Context, query string, args ...interface{}) (*models.Profile, error) {
	profile := &models.Profile{}
	err := scanProfileRow(r.db.QueryRowContext(ctx, query, args...), profile)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}
