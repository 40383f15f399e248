package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hackingtorch/hackingtorch/models"
	"github.com/hackingtorch/hackingtorch/repositories"
	"github.com/hackingtorch/hackingtorch/storage"
)

func completedEvent(id int) *models.Event {
	return &models.Event{
		ID:        id,
		Name:      "Autumn Hack",
		Status:    models.EventStatusCompleted,
		StartDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC),
	}
}

func certificateFixture(submissionStatus models.SubmissionStatus) (*mockEventRepo, *mockProfileRepo, *mockTeamRepo, *mockSubmissionRepo) {
	events := &mockEventRepo{
		GetByIDFn: func(ctx context.Context, id int) (*models.Event, error) {
			return completedEvent(id), nil
		},
	}
	profiles := &mockProfileRepo{
		GetByIDFn: func(ctx context.Context, id int) (*models.Profile, error) {
			return &models.Profile{ID: id, FirstName: "Maks", LastName: "Petrov"}, nil
		},
	}
	teams := &mockTeamRepo{
		FindMembershipByEventFn: func(ctx context.Context, eventID, profileID int) (*models.TeamMember, error) {
			return &models.TeamMember{TeamID: 3, ProfileID: profileID, Role: models.TeamRoleMember}, nil
		},
		GetByIDFn: func(ctx context.Context, id int) (*models.Team, error) {
			return &models.Team{ID: id, Name: "Torchbearers"}, nil
		},
	}
	submissions := &mockSubmissionRepo{
		GetByTeamAndEventFn: func(ctx context.Context, exec repositories.SQLExecutor, teamID, eventID int) (*models.Submission, error) {
			return &models.Submission{ID: 1, TeamID: teamID, EventID: eventID, Status: submissionStatus}, nil
		},
	}
	return events, profiles, teams, submissions
}

func TestCertificateIssueGates(t *testing.T) {
	t.Run("event not completed", func(t *testing.T) {
		events := &mockEventRepo{
			GetByIDFn: func(ctx context.Context, id int) (*models.Event, error) {
				e := completedEvent(id)
				e.Status = models.EventStatusActive
				return e, nil
			},
		}
		svc := NewCertificateService(&mockCertificateRepo{}, events, &mockProfileRepo{}, &mockTeamRepo{}, &mockSubmissionRepo{}, &mockUploader{}, testLogger())
		if _, err := svc.Issue(context.Background(), 1, 2); !errors.Is(err, ErrEventNotCompleted) {
			t.Fatalf("expected ErrEventNotCompleted, got %v", err)
		}
	})

	t.Run("not a team member", func(t *testing.T) {
		events, profiles, _, submissions := certificateFixture(models.SubmissionStatusSubmitted)
		svc := NewCertificateService(&mockCertificateRepo{}, events, profiles, &mockTeamRepo{}, submissions, &mockUploader{}, testLogger())
		if _, err := svc.Issue(context.Background(), 1, 2); !errors.Is(err, ErrNoSubmittedProject) {
			t.Fatalf("expected ErrNoSubmittedProject, got %v", err)
		}
	})

	t.Run("team never submitted", func(t *testing.T) {
		events, profiles, teams, _ := certificateFixture(models.SubmissionStatusSubmitted)
		svc := NewCertificateService(&mockCertificateRepo{}, events, profiles, teams, &mockSubmissionRepo{}, &mockUploader{}, testLogger())
		if _, err := svc.Issue(context.Background(), 1, 2); !errors.Is(err, ErrNoSubmittedProject) {
			t.Fatalf("expected ErrNoSubmittedProject, got %v", err)
		}
	})

	t.Run("draft submission does not qualify", func(t *testing.T) {
		events, profiles, teams, submissions := certificateFixture(models.SubmissionStatusDraft)
		svc := NewCertificateService(&mockCertificateRepo{}, events, profiles, teams, submissions, &mockUploader{}, testLogger())
		if _, err := svc.Issue(context.Background(), 1, 2); !errors.Is(err, ErrNoSubmittedProject) {
			t.Fatalf("expected ErrNoSubmittedProject, got %v", err)
		}
	})

	t.Run("duplicate issue rejected", func(t *testing.T) {
		events, profiles, teams, submissions := certificateFixture(models.SubmissionStatusSubmitted)
		certificates := &mockCertificateRepo{
			CreateFn: func(ctx context.Context, certificate *models.Certificate) error {
				return repositories.ErrCertificateConflict
			},
		}
		svc := NewCertificateService(certificates, events, profiles, teams, submissions, &mockUploader{}, testLogger())
		if _, err := svc.Issue(context.Background(), 1, 2); !errors.Is(err, ErrCertificateExists) {
			t.Fatalf("expected ErrCertificateExists, got %v", err)
		}
	})
}

func TestCertificateIssueSuccess(t *testing.T) {
	events, profiles, teams, submissions := certificateFixture(models.SubmissionStatusEvaluated)
	var documentKey string
	certificates := &mockCertificateRepo{
		CreateFn: func(ctx context.Context, certificate *models.Certificate) error {
			certificate.ID = 7
			certificate.IssuedAt = time.Now()
			return nil
		},
		UpdateDocumentKeyFn: func(ctx context.Context, id int, key string) error {
			documentKey = key
			return nil
		},
	}
	uploader := &mockUploader{BaseURL: "https://cdn.example.com"}
	svc := NewCertificateService(certificates, events, profiles, teams, submissions, uploader, testLogger())

	certificate, err := svc.Issue(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if certificate.Serial == "" {
		t.Error("expected non-empty serial")
	}
	if certificate.TeamID != 3 {
		t.Errorf("expected team id 3, got %d", certificate.TeamID)
	}
	if documentKey == "" || !strings.HasPrefix(documentKey, "certificates/") {
		t.Errorf("expected document under certificates/, got %q", documentKey)
	}
	if certificate.DocumentURL == nil || !strings.Contains(*certificate.DocumentURL, certificate.Serial) {
		t.Errorf("expected document URL containing serial, got %v", certificate.DocumentURL)
	}
	if len(uploader.Uploaded) != 1 {
		t.Errorf("expected one uploaded document, got %d", len(uploader.Uploaded))
	}
}

func TestCertificateIssueSurvivesDocumentFailure(t *testing.T) {
	events, profiles, teams, submissions := certificateFixture(models.SubmissionStatusSubmitted)
	failing := &mockUploader{
		UploadFn: func(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
			return nil, errors.New("storage unavailable")
		},
	}
	svc := NewCertificateService(&mockCertificateRepo{}, events, profiles, teams, submissions, failing, testLogger())

	certificate, err := svc.Issue(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if certificate.DocumentKey != nil {
		t.Error("expected no document key when upload fails")
	}
}

func TestCertificateGetBySerial(t *testing.T) {
	svc := NewCertificateService(&mockCertificateRepo{}, &mockEventRepo{}, &mockProfileRepo{}, &mockTeamRepo{}, &mockSubmissionRepo{}, &mockUploader{}, testLogger())
	if _, err := svc.GetBySerial(context.Background(), "unknown"); !errors.Is(err, ErrCertificateNotFound) {
		t.Fatalf("expected ErrCertificateNotFound, got %v", err)
	}
}
