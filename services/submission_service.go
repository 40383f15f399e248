package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hackingtorch/hackingtorch/models"
	"github.com/hackingtorch/hackingtorch/repositories"
	"github.com/hackingtorch/hackingtorch/storage"
)

type SubmissionService interface {
	Create(ctx context.Context, currentUserID int, input SubmissionInput) (*models.Submission, error)
	GetByID(ctx context.Context, id int) (*models.Submission, error)
	ListByEvent(ctx context.Context, eventID int) ([]models.Submission, error)
	Update(ctx context.Context, currentUserID, submissionID int, input SubmissionInput) (*models.Submission, error)
	Submit(ctx context.Context, currentUserID, submissionID int) error
	AttachFile(ctx context.Context, currentUserID, submissionID int, kind models.SubmissionFileKind, fileName, contentType string, reader io.Reader) (*models.SubmissionFile, error)
	Delete(ctx context.Context, currentUserID, submissionID int) error
}

type SubmissionInput struct {
	EventID          int      `json:"event_id"`
	TeamID           int      `json:"team_id"`
	Name             string   `json:"name"`
	ShortDescription *string  `json:"short_description,omitempty"`
	Description      *string  `json:"description,omitempty"`
	RepositoryURL    *string  `json:"repository_url,omitempty"`
	DemoURL          *string  `json:"demo_url,omitempty"`
	VideoURL         *string  `json:"video_url,omitempty"`
	Categories       []string `json:"categories,omitempty"`
}

type submissionService struct {
	tx             txRunner
	submissionRepo repositories.SubmissionRepository
	teamRepo       repositories.TeamRepository
	categoryRepo   repositories.CategoryRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewSubmissionService(
	db *sql.DB,
	submissionRepo repositories.SubmissionRepository,
	teamRepo repositories.TeamRepository,
	categoryRepo repositories.CategoryRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) SubmissionService {
	return &submissionService{
		tx:             sqlTxRunner{db: db},
		submissionRepo: submissionRepo,
		teamRepo:       teamRepo,
		categoryRepo:   categoryRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

// Create создаёт заявку и связи с категориями в одной транзакции.
// Правило "одна заявка на команду в событии" проверяется внутри той же
// транзакции и дополнительно закрыто уникальным ограничением схемы.
func (s *submissionService) Create(ctx context.Context, currentUserID int, input SubmissionInput) (*models.Submission, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrSubmissionNameRequired
	}

	if err := s.requireMembership(ctx, input.TeamID, currentUserID); err != nil {
		return nil, err
	}

	var categoryIDs []int
	if len(input.Categories) > 0 {
		resolved, err := s.categoryRepo.ResolveByNames(ctx, input.Categories)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve categories: %w", err)
		}
		for _, c := range resolved {
			categoryIDs = append(categoryIDs, c.ID)
		}
	}

	submission := &models.Submission{
		EventID:          input.EventID,
		TeamID:           input.TeamID,
		Name:             input.Name,
		ShortDescription: input.ShortDescription,
		Description:      input.Description,
		RepositoryURL:    input.RepositoryURL,
		DemoURL:          input.DemoURL,
		VideoURL:         input.VideoURL,
		Status:           models.SubmissionStatusDraft,
	}

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.submissionRepo.GetByTeamAndEvent(ctx, exec, input.TeamID, input.EventID); err == nil {
			return ErrSubmissionExists
		} else if !errors.Is(err, repositories.ErrSubmissionNotFound) {
			return fmt.Errorf("failed to check existing submission: %w", err)
		}

		if err := s.submissionRepo.Create(ctx, exec, submission); err != nil {
			if errors.Is(err, repositories.ErrSubmissionConflict) {
				return ErrSubmissionExists
			}
			return fmt.Errorf("failed to create submission: %w", err)
		}

		if len(categoryIDs) > 0 {
			if err := s.categoryRepo.AttachToSubmission(ctx, exec, submission.ID, categoryIDs); err != nil {
				return fmt.Errorf("failed to attach submission categories: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return submission, nil
}

func (s *submissionService) GetByID(ctx context.Context, id int) (*models.Submission, error) {
	submission, err := s.submissionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission %d: %w", id, err)
	}

	files, err := s.submissionRepo.ListFiles(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission files: %w", err)
	}
	for i := range files {
		if s.uploader != nil {
			files[i].URL = s.uploader.GetPublicURL(files[i].StorageKey)
		}
		if files[i].Kind == models.SubmissionFileImage {
			submission.Images = append(submission.Images, files[i])
		} else {
			submission.Files = append(submission.Files, files[i])
		}
	}

	categories, err := s.categoryRepo.ListBySubmission(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission categories: %w", err)
	}
	submission.Categories = categories

	return submission, nil
}

func (s *submissionService) ListByEvent(ctx context.Context, eventID int) ([]models.Submission, error) {
	submissions, err := s.submissionRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions for event %d: %w", eventID, err)
	}
	return submissions, nil
}

func (s *submissionService) Update(ctx context.Context, currentUserID, submissionID int, input SubmissionInput) (*models.Submission, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrSubmissionNameRequired
	}

	submission, err := s.requireDraftMembership(ctx, currentUserID, submissionID)
	if err != nil {
		return nil, err
	}

	submission.Name = input.Name
	submission.ShortDescription = input.ShortDescription
	submission.Description = input.Description
	submission.RepositoryURL = input.RepositoryURL
	submission.DemoURL = input.DemoURL
	submission.VideoURL = input.VideoURL

	if err := s.submissionRepo.Update(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to update submission %d: %w", submissionID, err)
	}
	return submission, nil
}

func (s *submissionService) Submit(ctx context.Context, currentUserID, submissionID int) error {
	submission, err := s.requireDraftMembership(ctx, currentUserID, submissionID)
	if err != nil {
		return err
	}

	if submission.ShortDescription == nil || strings.TrimSpace(*submission.ShortDescription) == "" {
		return ErrSubmissionIncomplete
	}
	if submission.RepositoryURL == nil {
		return ErrSubmissionIncomplete
	}
	if parsed, err := url.Parse(*submission.RepositoryURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ErrRepositoryURLInvalid
	}

	now := time.Now()
	if err := s.submissionRepo.UpdateStatus(ctx, submissionID, models.SubmissionStatusSubmitted, &now); err != nil {
		return fmt.Errorf("failed to submit submission %d: %w", submissionID, err)
	}
	return nil
}

func (s *submissionService) AttachFile(ctx context.Context, currentUserID, submissionID int, kind models.SubmissionFileKind, fileName, contentType string, reader io.Reader) (*models.SubmissionFile, error) {
	if _, err := s.requireDraftMembership(ctx, currentUserID, submissionID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("submissions/%d/%s-%s", submissionID, kind, uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload submission file: %w", err)
	}

	file := &models.SubmissionFile{
		SubmissionID: submissionID,
		Kind:         kind,
		FileName:     fileName,
		ContentType:  contentType,
		StorageKey:   result.Key,
	}
	if err := s.submissionRepo.AddFile(ctx, file); err != nil {
		// Запись в БД не удалась: объект в хранилище осиротел, убираем его.
		if delErr := s.uploader.Delete(ctx, result.Key); delErr != nil {
			s.logger.Warn("failed to delete orphaned upload",
				slog.String("key", result.Key), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to record submission file: %w", err)
	}

	file.URL = result.Location
	return file, nil
}

func (s *submissionService) Delete(ctx context.Context, currentUserID, submissionID int) error {
	if _, err := s.requireDraftMembership(ctx, currentUserID, submissionID); err != nil {
		return err
	}
	if err := s.submissionRepo.Delete(ctx, submissionID); err != nil {
		return fmt.Errorf("failed to delete submission %d: %w", submissionID, err)
	}
	return nil
}

func (s *submissionService) requireMembership(ctx context.Context, teamID, profileID int) error {
	if _, err := s.teamRepo.GetMember(ctx, teamID, profileID); err != nil {
		if errors.Is(err, repositories.ErrTeamMemberNotFound) {
			return ErrForbiddenOperation
		}
		return fmt.Errorf("failed to check team membership: %w", err)
	}
	return nil
}

func (s *submissionService) requireDraftMembership(ctx context.Context, currentUserID, submissionID int) (*models.Submission, error) {
	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission %d: %w", submissionID, err)
	}
	if submission.Status != models.SubmissionStatusDraft {
		return nil, ErrSubmissionNotDraft
	}
	if err := s.requireMembership(ctx, submission.TeamID, currentUserID); err != nil {
		return nil, err
	}
	return submission, nil
}
