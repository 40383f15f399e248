package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hackingtorch/hackingtorch/models"
	"github.com/lib/pq"
)

var (
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrCertificateConflict = errors.New("certificate already issued for this profile and event")
)

type CertificateRepository interface {
	Create(ctx context.Context, certificate *models.Certificate) error
	GetBySerial(ctx context.Context, serial string) (*models.Certificate, error)
	ListByProfile(ctx context.Context, profileID int) ([]models.Certificate, error)
	UpdateDocumentKey(ctx context.Context, id int, key string) error
}

type postgresCertificateRepository struct {
	db *sql.DB
}

func NewPostgresCertificateRepository(db *sql.DB) CertificateRepository {
	return &postgresCertificateRepository{db: db}
}

func (r *postgresCertificateRepository) Create(ctx context.Context, certificate *models.Certificate) error {
	query := `
		INSERT INTO certificates (serial, event_id, profile_id, team_id, document_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, issued_at`

	err := r.db.QueryRowContext(ctx, query,
		certificate.Serial,
		certificate.EventID,
		certificate.ProfileID,
		certificate.TeamID,
		certificate.DocumentKey,
	).Scan(&certificate.ID, &certificate.IssuedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "certificates_event_id_profile_id_key" {
				return ErrCertificateConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresCertificateRepository) GetBySerial(ctx context.Context, serial string) (*models.Certificate, error) {
	query := `
		SELECT
			c.id, c.serial, c.event_id, c.profile_id, c.team_id, c.document_key, c.issued_at,
			e.name, e.start_date, e.end_date,
			p.first_name, p.last_name
		FROM certificates c
		JOIN events e ON c.event_id = e.id
		JOIN profiles p ON c.profile_id = p.id
		WHERE c.serial = $1`

	var cert models.Certificate
	var event models.Event
	var profile models.Profile

	err := r.db.QueryRowContext(ctx, query, serial).Scan(
		&cert.ID,
		&cert.Serial,
		&cert.EventID,
		&cert.ProfileID,
		&cert.TeamID,
		&cert.DocumentKey,
		&cert.IssuedAt,
		&event.Name,
		&event.StartDate,
		&event.EndDate,
		&profile.FirstName,
		&profile.LastName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCertificateNotFound
		}
		return nil, err
	}

	event.ID = cert.EventID
	profile.ID = cert.ProfileID
	cert.Event = &event
	cert.Profile = &profile

	return &cert, nil
}

func (r *postgresCertificateRepository) ListByProfile(ctx context.Context, profileID int) ([]models.Certificate, error) {
	query := `
		SELECT id, serial, event_id, profile_id, team_id, document_key, issued_at
		FROM certificates
		WHERE profile_id = $1
		ORDER BY issued_at DESC`

	rows, err := r.db.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	certificates := make([]models.Certificate, 0)
	for rows.Next() {
		var c models.Certificate
		scanErr := rows.Scan(
			&c.ID,
			&c.Serial,
			&c.EventID,
			&c.ProfileID,
			&c.TeamID,
			&c.DocumentKey,
			&c.IssuedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		certificates = append(certificates, c)
	}
	return certificates, rows.Err()
}

func (r *postgresCertificateRepository) UpdateDocumentKey(ctx context.Context, id int, key string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE certificates SET document_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCertificateNotFound)
}
