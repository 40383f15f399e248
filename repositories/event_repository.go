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
	ErrEventNotFound         = errors.New("event not found")
	ErrEventNameConflict     = errors.New("event name conflict")
	ErrEventOrganizerInvalid = errors.New("event organizer invalid")
)

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	Update(ctx context.Context, event *models.Event) error
	UpdateStatus(ctx context.Context, id int, status models.EventStatus) error
	SetFeatured(ctx context.Context, id int, featured bool) error
	UpdateCoverKey(ctx context.Context, id int, key *string) error
	Delete(ctx context.Context, id int) error
	// ActivateDue переводит published события с наступившей датой старта в active,
	// CompleteDue — active события с прошедшей датой окончания в completed.
	// Обе возвращают идентификаторы затронутых событий.
	ActivateDue(ctx context.Context, now time.Time) ([]int, error)
	CompleteDue(ctx context.Context, now time.Time) ([]int, error)
	Count(ctx context.Context, status *models.EventStatus) (int, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `id, organizer_id, name, description, event_type, format, location, online_url,
	start_date, end_date, max_participants, max_team_size, registration_fee, is_featured, status,
	cover_key, created_at, updated_at`

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (organizer_id, name, description, event_type, format, location, online_url,
			start_date, end_date, max_participants, max_team_size, registration_fee, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, is_featured, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		event.OrganizerID,
		event.Name,
		event.Description,
		event.EventType,
		event.Format,
		event.Location,
		event.OnlineURL,
		event.StartDate,
		event.EndDate,
		event.MaxParticipants,
		event.MaxTeamSize,
		event.RegistrationFee,
		event.Status,
	).Scan(&event.ID, &event.IsFeatured, &event.CreatedAt, &event.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "events_name_key" {
					return ErrEventNameConflict
				}
			case "23503":
				if pqErr.Constraint == "events_organizer_id_fkey" {
					return ErrEventOrganizerInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `
		SELECT
			e.id, e.organizer_id, e.name, e.description, e.event_type, e.format, e.location, e.online_url,
			e.start_date, e.end_date, e.max_participants, e.max_team_size, e.registration_fee,
			e.is_featured, e.status, e.cover_key, e.created_at, e.updated_at,
			p.first_name, p.last_name, p.email, p.user_type
		FROM events e
		JOIN profiles p ON e.organizer_id = p.id
		WHERE e.id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	var event models.Event
	var organizer models.Profile

	err := row.Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Name,
		&event.Description,
		&event.EventType,
		&event.Format,
		&event.Location,
		&event.OnlineURL,
		&event.StartDate,
		&event.EndDate,
		&event.MaxParticipants,
		&event.MaxTeamSize,
		&event.RegistrationFee,
		&event.IsFeatured,
		&event.Status,
		&event.CoverKey,
		&event.CreatedAt,
		&event.UpdatedAt,
		&organizer.FirstName,
		&organizer.LastName,
		&organizer.Email,
		&organizer.UserType,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event with organizer: %w", err)
	}

	organizer.ID = event.OrganizerID
	event.Organizer = &organizer

	return &event, nil
}

func (r *postgresEventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.EventType != nil {
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", argPos))
		args = append(args, *filter.EventType)
		argPos++
	}
	if filter.Format != nil {
		conditions = append(conditions, fmt.Sprintf("format = $%d", argPos))
		args = append(args, *filter.Format)
		argPos++
	}
	if filter.OrganizerID != nil {
		conditions = append(conditions, fmt.Sprintf("organizer_id = $%d", argPos))
		args = append(args, *filter.OrganizerID)
		argPos++
	}
	if filter.Featured != nil {
		conditions = append(conditions, fmt.Sprintf("is_featured = $%d", argPos))
		args = append(args, *filter.Featured)
		argPos++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM events WHERE %s`, where)
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

	query := fmt.Sprintf(`SELECT %s FROM events WHERE %s ORDER BY start_date DESC LIMIT $%d OFFSET $%d`,
		eventColumns, where, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var e models.Event
		scanErr := rows.Scan(
			&e.ID,
			&e.OrganizerID,
			&e.Name,
			&e.Description,
			&e.EventType,
			&e.Format,
			&e.Location,
			&e.OnlineURL,
			&e.StartDate,
			&e.EndDate,
			&e.MaxParticipants,
			&e.MaxTeamSize,
			&e.RegistrationFee,
			&e.IsFeatured,
			&e.Status,
			&e.CoverKey,
			&e.CreatedAt,
			&e.UpdatedAt,
		)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (r *postgresEventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events SET
			name = $1,
			description = $2,
			event_type = $3,
			format = $4,
			location = $5,
			online_url = $6,
			start_date = $7,
			end_date = $8,
			max_participants = $9,
			max_team_size = $10,
			registration_fee = $11,
			updated_at = NOW()
		WHERE id = $12`

	result, err := r.db.ExecContext(ctx, query,
		event.Name,
		event.Description,
		event.EventType,
		event.Format,
		event.Location,
		event.OnlineURL,
		event.StartDate,
		event.EndDate,
		event.MaxParticipants,
		event.MaxTeamSize,
		event.RegistrationFee,
		event.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "events_name_key" {
				return ErrEventNameConflict
			}
		}
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdateStatus(ctx context.Context, id int, status models.EventStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) SetFeatured(ctx context.Context, id int, featured bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE events SET is_featured = $1, updated_at = NOW() WHERE id = $2`, featured, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdateCoverKey(ctx context.Context, id int, key *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE events SET cover_key = $1, updated_at = NOW() WHERE id = $2`, key, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) Delete(ctx context.Context, id int) error {
	// Каскад на teams/submissions/evaluations задан внешними ключами схемы.
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) ActivateDue(ctx context.Context, now time.Time) ([]int, error) {
	return r.collectIDs(ctx,
		`UPDATE events SET status = $1, updated_at = NOW()
		 WHERE status = $2 AND start_date <= $3
		 RETURNING id`,
		models.EventStatusActive, models.EventStatusPublished, now)
}

func (r *postgresEventRepository) CompleteDue(ctx context.Context, now time.Time) ([]int, error) {
	return r.collectIDs(ctx,
		`UPDATE events SET status = $1, updated_at = NOW()
		 WHERE status = $2 AND end_date < $3
		 RETURNING id`,
		models.EventStatusCompleted, models.EventStatusActive, now)
}

func (r *postgresEventRepository) collectIDs(ctx context.Context, query string, args ...interface{}) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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

func (r *postgresEventRepository) Count(ctx context.Context, status *models.EventStatus) (int, error) {
	var count int
	var err error
	if status != nil {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE status = $1`, *status).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count)
	}
	return count, err
}
