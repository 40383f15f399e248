package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hackingtorch/hackingtorch/models"
	"github.com/hackingtorch/hackingtorch/repositories"
	"github.com/hackingtorch/hackingtorch/storage"
)

type CertificateService interface {
	Issue(ctx context.Context, eventID, profileID int) (*models.Certificate, error)
	GetBySerial(ctx context.Context, serial string) (*models.Certificate, error)
	ListByProfile(ctx context.Context, profileID int) ([]models.Certificate, error)
}

type certificateService struct {
	certificateRepo repositories.CertificateRepository
	eventRepo       repositories.EventRepository
	profileRepo     repositories.ProfileRepository
	teamRepo        repositories.TeamRepository
	submissionRepo  repositories.SubmissionRepository
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewCertificateService(
	certificateRepo repositories.CertificateRepository,
	eventRepo repositories.EventRepository,
	profileRepo repositories.ProfileRepository,
	teamRepo repositories.TeamRepository,
	submissionRepo repositories.SubmissionRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) CertificateService {
	return &certificateService{
		certificateRepo: certificateRepo,
		eventRepo:       eventRepo,
		profileRepo:     profileRepo,
		teamRepo:        teamRepo,
		submissionRepo:  submissionRepo,
		uploader:        uploader,
		logger:          logger,
	}
}

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Certificate {{.Serial}}</title>
<style>
  body { font-family: Georgia, serif; text-align: center; padding: 64px; }
  .serial { color: #888; font-size: 12px; margin-top: 48px; }
  h1 { font-size: 42px; margin-bottom: 8px; }
</style>
</head>
<body>
  <p>This certifies that</p>
  <h1>{{.RecipientName}}</h1>
  <p>participated in and completed</p>
  <h2>{{.EventName}}</h2>
  <p>as a member of team «{{.TeamName}}»</p>
  <p>{{.EventStart}} — {{.EventEnd}}</p>
  <p class="serial">Serial: {{.Serial}}</p>
</body>
</html>`))

type certificateDocument struct {
	Serial        string
	RecipientName string
	EventName     string
	TeamName      string
	EventStart    string
	EventEnd      string
}

// Issue выдаёт сертификат участнику завершённого события. Право на
// сертификат есть только у члена команды, чей проект был отправлен.
func (s *certificateService) Issue(ctx context.Context, eventID, profileID int) (*models.Certificate, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	if event.Status != models.EventStatusCompleted {
		return nil, ErrEventNotCompleted
	}

	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile %d: %w", profileID, err)
	}

	membership, err := s.teamRepo.FindMembershipByEvent(ctx, eventID, profileID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamMemberNotFound) {
			return nil, ErrNoSubmittedProject
		}
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}

	submission, err := s.submissionRepo.GetByTeamAndEvent(ctx, nil, membership.TeamID, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return nil, ErrNoSubmittedProject
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if submission.Status == models.SubmissionStatusDraft {
		return nil, ErrNoSubmittedProject
	}

	team, err := s.teamRepo.GetByID(ctx, membership.TeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team %d: %w", membership.TeamID, err)
	}

	certificate := &models.Certificate{
		Serial:    uuid.New().String(),
		EventID:   eventID,
		ProfileID: profileID,
		TeamID:    membership.TeamID,
	}
	if err := s.certificateRepo.Create(ctx, certificate); err != nil {
		if errors.Is(err, repositories.ErrCertificateConflict) {
			return nil, ErrCertificateExists
		}
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	// Документ рендерится после вставки: упавшая генерация не должна
	// откатывать выдачу, сертификат остаётся валидным по серийному номеру.
	doc := certificateDocument{
		Serial:        certificate.Serial,
		RecipientName: profile.FirstName + " " + profile.LastName,
		EventName:     event.Name,
		TeamName:      team.Name,
		EventStart:    event.StartDate.Format("January 2, 2006"),
		EventEnd:      event.EndDate.Format("January 2, 2006"),
	}
	if key, renderErr := s.uploadDocument(ctx, doc); renderErr != nil {
		s.logger.Warn("failed to generate certificate document",
			slog.String("serial", certificate.Serial), slog.Any("error", renderErr))
	} else {
		if err := s.certificateRepo.UpdateDocumentKey(ctx, certificate.ID, key); err != nil {
			s.logger.Warn("failed to store certificate document key",
				slog.String("serial", certificate.Serial), slog.Any("error", err))
		} else {
			certificate.DocumentKey = &key
		}
	}

	s.fillDocumentURL(certificate)
	return certificate, nil
}

func (s *certificateService) GetBySerial(ctx context.Context, serial string) (*models.Certificate, error) {
	certificate, err := s.certificateRepo.GetBySerial(ctx, serial)
	if err != nil {
		if errors.Is(err, repositories.ErrCertificateNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to get certificate %s: %w", serial, err)
	}
	s.fillDocumentURL(certificate)
	return certificate, nil
}

func (s *certificateService) ListByProfile(ctx context.Context, profileID int) ([]models.Certificate, error) {
	certificates, err := s.certificateRepo.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates for profile %d: %w", profileID, err)
	}
	for i := range certificates {
		s.fillDocumentURL(&certificates[i])
	}
	return certificates, nil
}

func (s *certificateService) uploadDocument(ctx context.Context, doc certificateDocument) (string, error) {
	var buf bytes.Buffer
	if err := certificateTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("failed to render certificate template: %w", err)
	}

	key := fmt.Sprintf("certificates/%s.html", doc.Serial)
	if _, err := s.uploader.Upload(ctx, key, "text/html; charset=utf-8", &buf); err != nil {
		return "", fmt.Errorf("failed to upload certificate document: %w", err)
	}
	return key, nil
}

func (s *certificateService) fillDocumentURL(certificate *models.Certificate) {
	if certificate.DocumentKey != nil && *certificate.DocumentKey != "" {
		url := s.uploader.GetPublicURL(*certificate.DocumentKey)
		certificate.DocumentURL = &url
	}
}
