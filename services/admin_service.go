package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hackingtorch/hackingtorch/models"
	"github.com/hackingtorch/hackingtorch/repositories"
)

type AdminService interface {
	ListProfiles(ctx context.Context, filter models.ProfileFilter) (*models.ProfileListResponse, error)
	SetProfileStatus(ctx context.Context, profileID int, status models.ProfileStatus) error
	SetUserType(ctx context.Context, profileID int, userType models.UserType) error
	DeleteProfile(ctx context.Context, profileID int) error
	ListEvents(ctx context.Context, filter models.EventFilter) (*models.EventListResponse, error)
	SetEventFeatured(ctx context.Context, eventID int, featured bool) error
	DeleteEvent(ctx context.Context, eventID int) error
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

type adminService struct {
	profileRepo    repositories.ProfileRepository
	eventRepo      repositories.EventRepository
	teamRepo       repositories.TeamRepository
	submissionRepo repositories.SubmissionRepository
	evaluationRepo repositories.EvaluationRepository
	logger         *slog.Logger
}

func NewAdminService(
	profileRepo repositories.ProfileRepository,
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	submissionRepo repositories.SubmissionRepository,
	evaluationRepo repositories.EvaluationRepository,
	logger *slog.Logger,
) AdminService {
	return &adminService{
		profileRepo:    profileRepo,
		eventRepo:      eventRepo,
		teamRepo:       teamRepo,
		submissionRepo: submissionRepo,
		evaluationRepo: evaluationRepo,
		logger:         logger,
	}
}

func (s *adminService) ListProfiles(ctx context.Context, filter models.ProfileFilter) (*models.ProfileListResponse, error) {
	profiles, total, err := s.profileRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	for i := range profiles {
		profiles[i].PasswordHash = ""
	}
	return &models.ProfileListResponse{
		Profiles:   profiles,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *adminService) SetProfileStatus(ctx context.Context, profileID int, status models.ProfileStatus) error {
	switch status {
	case models.ProfileStatusActive, models.ProfileStatusSuspended, models.ProfileStatusPending:
	default:
		return ErrValidationFailed
	}
	if err := s.profileRepo.UpdateStatus(ctx, profileID, status); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to update profile %d status: %w", profileID, err)
	}
	s.logger.Info("profile status changed",
		slog.Int("profile_id", profileID), slog.String("status", string(status)))
	return nil
}

func (s *adminService) SetUserType(ctx context.Context, profileID int, userType models.UserType) error {
	switch userType {
	case models.UserTypeParticipant, models.UserTypeOrganizer, models.UserTypeAdmin:
	default:
		return ErrValidationFailed
	}
	if err := s.profileRepo.UpdateUserType(ctx, profileID, userType); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to update profile %d type: %w", profileID, err)
	}
	s.logger.Info("profile type changed",
		slog.Int("profile_id", profileID), slog.String("user_type", string(userType)))
	return nil
}

func (s *adminService) DeleteProfile(ctx context.Context, profileID int) error {
	if err := s.profileRepo.Delete(ctx, profileID); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to delete profile %d: %w", profileID, err)
	}
	s.logger.Info("profile deleted", slog.Int("profile_id", profileID))
	return nil
}

func (s *adminService) ListEvents(ctx context.Context, filter models.EventFilter) (*models.EventListResponse, error) {
	events, total, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return &models.EventListResponse{
		Events:     events,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *adminService) SetEventFeatured(ctx context.Context, eventID int, featured bool) error {
	if err := s.eventRepo.SetFeatured(ctx, eventID, featured); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to set event %d featured: %w", eventID, err)
	}
	return nil
}

func (s *adminService) DeleteEvent(ctx context.Context, eventID int) error {
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event %d: %w", eventID, err)
	}
	s.logger.Info("event deleted", slog.Int("event_id", eventID))
	return nil
}

// DashboardStats собирает счётчики параллельно, любая ошибка отменяет
// остальные запросы через контекст группы.
func (s *adminService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.profileRepo.Count(gCtx, nil)
		if err != nil {
			return fmt.Errorf("failed to count profiles: %w", err)
		}
		stats.ProfilesTotal = count
		return nil
	})
	g.Go(func() error {
		suspended := models.ProfileStatusSuspended
		count, err := s.profileRepo.Count(gCtx, &suspended)
		if err != nil {
			return fmt.Errorf("failed to count suspended profiles: %w", err)
		}
		stats.SuspendedProfiles = count
		return nil
	})
	g.Go(func() error {
		count, err := s.eventRepo.Count(gCtx, nil)
		if err != nil {
			return fmt.Errorf("failed to count events: %w", err)
		}
		stats.EventsTotal = count
		return nil
	})
	g.Go(func() error {
		active := models.EventStatusActive
		count, err := s.eventRepo.Count(gCtx, &active)
		if err != nil {
			return fmt.Errorf("failed to count active events: %w", err)
		}
		stats.ActiveEvents = count
		return nil
	})
	g.Go(func() error {
		count, err := s.teamRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count teams: %w", err)
		}
		stats.TeamsTotal = count
		return nil
	})
	g.Go(func() error {
		count, err := s.submissionRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count submissions: %w", err)
		}
		stats.SubmissionsTotal = count
		return nil
	})
	g.Go(func() error {
		count, err := s.evaluationRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count evaluations: %w", err)
		}
		stats.EvaluationsTotal = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
