package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/hackingtorch/hackingtorch/metrics"
	"github.com/hackingtorch/hackingtorch/models"
	"github.com/hackingtorch/hackingtorch/realtime"
	"github.com/hackingtorch/hackingtorch/repositories"
)

const (
	minScore = 0
	maxScore = 10
)

type EvaluationService interface {
	Create(ctx context.Context, currentUserID int, input EvaluationInput) (*models.Evaluation, error)
	Update(ctx context.Context, currentUserID, evaluationID int, input EvaluationInput) (*models.Evaluation, error)
	ListBySubmission(ctx context.Context, submissionID int) ([]models.Evaluation, error)
	StatsByEvent(ctx context.Context, eventID int) (models.EvaluationStats, error)
}

type EvaluationInput struct {
	SubmissionID int     `json:"submission_id"`
	Innovation   int     `json:"innovation"`
	Execution    int     `json:"execution"`
	Impact       int     `json:"impact"`
	Presentation int     `json:"presentation"`
	Comments     *string `json:"comments,omitempty"`
}

type evaluationService struct {
	evaluationRepo repositories.EvaluationRepository
	submissionRepo repositories.SubmissionRepository
	profileRepo    repositories.ProfileRepository
	hub            *realtime.Hub
	logger         *slog.Logger
}

func NewEvaluationService(
	evaluationRepo repositories.EvaluationRepository,
	submissionRepo repositories.SubmissionRepository,
	profileRepo repositories.ProfileRepository,
	hub *realtime.Hub,
	logger *slog.Logger,
) EvaluationService {
	return &evaluationService{
		evaluationRepo: evaluationRepo,
		submissionRepo: submissionRepo,
		profileRepo:    profileRepo,
		hub:            hub,
		logger:         logger,
	}
}

func validateScores(input EvaluationInput) error {
	for _, score := range []int{input.Innovation, input.Execution, input.Impact, input.Presentation} {
		if score < minScore || score > maxScore {
			return ErrScoreOutOfRange
		}
	}
	return nil
}

func (s *evaluationService) Create(ctx context.Context, currentUserID int, input EvaluationInput) (*models.Evaluation, error) {
	// Диапазон проверяется до любой записи: UI ограничивает ползунок,
	// но сервис границам интерфейса не доверяет.
	if err := validateScores(input); err != nil {
		return nil, err
	}

	if err := s.requireEvaluator(ctx, currentUserID); err != nil {
		return nil, err
	}

	submission, err := s.submissionRepo.GetByID(ctx, input.SubmissionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission %d: %w", input.SubmissionID, err)
	}

	evaluation := &models.Evaluation{
		SubmissionID: input.SubmissionID,
		EvaluatorID:  currentUserID,
		Innovation:   input.Innovation,
		Execution:    input.Execution,
		Impact:       input.Impact,
		Presentation: input.Presentation,
		Comments:     input.Comments,
	}
	if err := s.evaluationRepo.Create(ctx, evaluation); err != nil {
		if errors.Is(err, repositories.ErrEvaluationConflict) {
			return nil, ErrEvaluationExists
		}
		return nil, fmt.Errorf("failed to create evaluation: %w", err)
	}

	if submission.Status == models.SubmissionStatusSubmitted {
		if err := s.submissionRepo.UpdateStatus(ctx, submission.ID, models.SubmissionStatusEvaluated, submission.SubmittedAt); err != nil {
			s.logger.Warn("failed to mark submission evaluated",
				slog.Int("submission_id", submission.ID), slog.Any("error", err))
		}
	}

	metrics.Evaluations.Inc()
	s.broadcastStats(ctx, submission.EventID)
	return evaluation, nil
}

func (s *evaluationService) Update(ctx context.Context, currentUserID, evaluationID int, input EvaluationInput) (*models.Evaluation, error) {
	if err := validateScores(input); err != nil {
		return nil, err
	}

	evaluation, err := s.evaluationRepo.GetByID(ctx, evaluationID)
	if err != nil {
		if errors.Is(err, repositories.ErrEvaluationNotFound) {
			return nil, ErrEvaluationNotFound
		}
		return nil, fmt.Errorf("failed to get evaluation %d: %w", evaluationID, err)
	}
	if evaluation.EvaluatorID != currentUserID {
		return nil, ErrForbiddenOperation
	}

	evaluation.Innovation = input.Innovation
	evaluation.Execution = input.Execution
	evaluation.Impact = input.Impact
	evaluation.Presentation = input.Presentation
	evaluation.Comments = input.Comments

	if err := s.evaluationRepo.Update(ctx, evaluation); err != nil {
		return nil, fmt.Errorf("failed to update evaluation %d: %w", evaluationID, err)
	}

	if submission, err := s.submissionRepo.GetByID(ctx, evaluation.SubmissionID); err == nil {
		s.broadcastStats(ctx, submission.EventID)
	}
	return evaluation, nil
}

func (s *evaluationService) ListBySubmission(ctx context.Context, submissionID int) ([]models.Evaluation, error) {
	evaluations, err := s.evaluationRepo.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations for submission %d: %w", submissionID, err)
	}
	return evaluations, nil
}

// StatsByEvent считает средние по каждой подшкале и общий балл: среднее
// четырёх подшкал внутри оценки, затем среднее по оценкам. Ноль заявок или
// ноль оценок — явное пустое состояние, не ошибка.
func (s *evaluationService) StatsByEvent(ctx context.Context, eventID int) (models.EvaluationStats, error) {
	stats := models.EvaluationStats{EventID: eventID}

	submissionIDs, err := s.submissionRepo.ListIDsByEvent(ctx, eventID)
	if err != nil {
		return stats, fmt.Errorf("failed to list submission ids for event %d: %w", eventID, err)
	}
	if len(submissionIDs) == 0 {
		return stats, nil
	}

	evaluations, err := s.evaluationRepo.ListBySubmissionIDs(ctx, submissionIDs)
	if err != nil {
		return stats, fmt.Errorf("failed to list evaluations for event %d: %w", eventID, err)
	}
	if len(evaluations) == 0 {
		return stats, nil
	}

	var sumInnovation, sumExecution, sumImpact, sumPresentation, sumOverall float64
	for _, e := range evaluations {
		sumInnovation += float64(e.Innovation)
		sumExecution += float64(e.Execution)
		sumImpact += float64(e.Impact)
		sumPresentation += float64(e.Presentation)
		sumOverall += float64(e.Innovation+e.Execution+e.Impact+e.Presentation) / 4
	}

	n := float64(len(evaluations))
	stats.TotalEvaluations = len(evaluations)
	stats.AverageScores = models.AverageScores{
		Innovation:   sumInnovation / n,
		Execution:    sumExecution / n,
		Impact:       sumImpact / n,
		Presentation: sumPresentation / n,
		Overall:      sumOverall / n,
	}
	return stats, nil
}

func (s *evaluationService) requireEvaluator(ctx context.Context, profileID int) error {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return ErrForbiddenOperation
		}
		return fmt.Errorf("failed to load profile %d: %w", profileID, err)
	}
	if profile.UserType != models.UserTypeOrganizer && profile.UserType != models.UserTypeAdmin {
		return ErrForbiddenOperation
	}
	return nil
}

func (s *evaluationService) broadcastStats(ctx context.Context, eventID int) {
	if s.hub == nil {
		return
	}
	stats, err := s.StatsByEvent(ctx, eventID)
	if err != nil {
		s.logger.Warn("failed to compute stats for broadcast",
			slog.Int("event_id", eventID), slog.Any("error", err))
		return
	}
	s.hub.BroadcastToRoom("event_"+strconv.Itoa(eventID), realtime.Message{
		Type:    realtime.MessageEvaluationStatsUpdated,
		Payload: stats,
	})
}
