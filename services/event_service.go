package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hackingtorch/hackingtorch/models"
	"github.com/hackingtorch/hackingtorch/realtime"
	"github.com/hackingtorch/hackingtorch/repositories"
	"github.com/hackingtorch/hackingtorch/storage"
)

const minEventNameLength = 3

type EventService interface {
	Create(ctx context.Context, currentUserID int, input EventInput) (*models.Event, error)
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) (models.EventListResponse, error)
	Update(ctx context.Context, currentUserID, eventID int, input EventInput) (*models.Event, error)
	Publish(ctx context.Context, currentUserID, eventID int) error
	Cancel(ctx context.Context, currentUserID, eventID int) error
	UploadCover(ctx context.Context, currentUserID, eventID int, contentType string, reader io.Reader) (string, error)
	// UpdateStatusesByDates вызывается планировщиком: published -> active -> completed.
	UpdateStatusesByDates(ctx context.Context) error
}

type EventInput struct {
	Name            string             `json:"name"`
	Description     *string            `json:"description,omitempty"`
	EventType       string             `json:"event_type"`
	Format          models.EventFormat `json:"format"`
	Location        *string            `json:"location,omitempty"`
	OnlineURL       *string            `json:"online_url,omitempty"`
	StartDate       time.Time          `json:"start_date"`
	EndDate         time.Time          `json:"end_date"`
	MaxParticipants *int               `json:"max_participants,omitempty"`
	MaxTeamSize     *int               `json:"max_team_size,omitempty"`
	RegistrationFee float64            `json:"registration_fee"`
}

type eventService struct {
	eventRepo   repositories.EventRepository
	profileRepo repositories.ProfileRepository
	uploader    storage.FileUploader
	hub         *realtime.Hub
	logger      *slog.Logger
}

func NewEventService(
	eventRepo repositories.EventRepository,
	profileRepo repositories.ProfileRepository,
	uploader storage.FileUploader,
	hub *realtime.Hub,
	logger *slog.Logger,
) EventService {
	return &eventService{
		eventRepo:   eventRepo,
		profileRepo: profileRepo,
		uploader:    uploader,
		hub:         hub,
		logger:      logger,
	}
}

func validateEventInput(input EventInput) error {
	if len(strings.TrimSpace(input.Name)) < minEventNameLength {
		return ErrEventNameTooShort
	}
	if input.EndDate.Before(input.StartDate) {
		return ErrEventInvalidDateRange
	}
	if input.MaxParticipants != nil && *input.MaxParticipants <= 0 {
		return ErrEventInvalidCapacity
	}
	return nil
}

func (s *eventService) Create(ctx context.Context, currentUserID int, input EventInput) (*models.Event, error) {
	// Валидация до любой записи.
	if err := validateEventInput(input); err != nil {
		return nil, err
	}

	organizer, err := s.profileRepo.GetByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load organizer: %w", err)
	}
	if organizer.UserType != models.UserTypeOrganizer && organizer.UserType != models.UserTypeAdmin {
		return nil, ErrForbiddenOperation
	}

	event := &models.Event{
		OrganizerID:     currentUserID,
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		EventType:       input.EventType,
		Format:          input.Format,
		Location:        input.Location,
		OnlineURL:       input.OnlineURL,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		MaxParticipants: input.MaxParticipants,
		MaxTeamSize:     input.MaxTeamSize,
		RegistrationFee: input.RegistrationFee,
		Status:          models.EventStatusDraft,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventNameConflict) {
			return nil, ErrEventNameConflict
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetByID(ctx context.Context, id int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", id, err)
	}
	s.fillCoverURL(event)
	return event, nil
}

func (s *eventService) List(ctx context.Context, filter models.EventFilter) (models.EventListResponse, error) {
	events, total, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return models.EventListResponse{}, fmt.Errorf("failed to list events: %w", err)
	}
	for i := range events {
		s.fillCoverURL(&events[i])
	}
	return models.EventListResponse{
		Events:     events,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *eventService) Update(ctx context.Context, currentUserID, eventID int, input EventInput) (*models.Event, error) {
	if err := validateEventInput(input); err != nil {
		return nil, err
	}

	event, err := s.authorizeEventChange(ctx, currentUserID, eventID)
	if err != nil {
		return nil, err
	}

	event.Name = strings.TrimSpace(input.Name)
	event.Description = input.Description
	event.EventType = input.EventType
	event.Format = input.Format
	event.Location = input.Location
	event.OnlineURL = input.OnlineURL
	event.StartDate = input.StartDate
	event.EndDate = input.EndDate
	event.MaxParticipants = input.MaxParticipants
	event.MaxTeamSize = input.MaxTeamSize
	event.RegistrationFee = input.RegistrationFee

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		if errors.Is(err, repositories.ErrEventNameConflict) {
			return nil, ErrEventNameConflict
		}
		return nil, fmt.Errorf("failed to update event %d: %w", eventID, err)
	}
	return event, nil
}

func (s *eventService) Publish(ctx context.Context, currentUserID, eventID int) error {
	return s.transition(ctx, currentUserID, eventID, models.EventStatusPublished, map[models.EventStatus]bool{
		models.EventStatusDraft: true,
	})
}

func (s *eventService) Cancel(ctx context.Context, currentUserID, eventID int) error {
	return s.transition(ctx, currentUserID, eventID, models.EventStatusCancelled, map[models.EventStatus]bool{
		models.EventStatusDraft:     true,
		models.EventStatusPublished: true,
		models.EventStatusActive:    true,
	})
}

func (s *eventService) transition(ctx context.Context, currentUserID, eventID int, to models.EventStatus, allowedFrom map[models.EventStatus]bool) error {
	event, err := s.authorizeEventChange(ctx, currentUserID, eventID)
	if err != nil {
		return err
	}
	if !allowedFrom[event.Status] {
		return ErrEventInvalidStatusTransition
	}
	if err := s.eventRepo.UpdateStatus(ctx, eventID, to); err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	s.broadcastStatus(eventID, to)
	return nil
}

func (s *eventService) UploadCover(ctx context.Context, currentUserID, eventID int, contentType string, reader io.Reader) (string, error) {
	event, err := s.authorizeEventChange(ctx, currentUserID, eventID)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("events/%d/cover-%s", eventID, uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return "", fmt.Errorf("failed to upload event cover: %w", err)
	}

	if err := s.eventRepo.UpdateCoverKey(ctx, eventID, &result.Key); err != nil {
		return "", fmt.Errorf("failed to store cover key: %w", err)
	}

	// Старая обложка больше не нужна; ошибка удаления не фатальна.
	if event.CoverKey != nil {
		if delErr := s.uploader.Delete(ctx, *event.CoverKey); delErr != nil {
			s.logger.Warn("failed to delete previous event cover",
				slog.String("key", *event.CoverKey), slog.Any("error", delErr))
		}
	}

	return result.Location, nil
}

func (s *eventService) UpdateStatusesByDates(ctx context.Context) error {
	now := time.Now()

	activated, err := s.eventRepo.ActivateDue(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to activate due events: %w", err)
	}
	for _, id := range activated {
		s.broadcastStatus(id, models.EventStatusActive)
	}

	completed, err := s.eventRepo.CompleteDue(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to complete due events: %w", err)
	}
	for _, id := range completed {
		s.broadcastStatus(id, models.EventStatusCompleted)
	}

	if len(activated)+len(completed) > 0 {
		s.logger.Info("event statuses updated by dates",
			slog.Int("activated", len(activated)),
			slog.Int("completed", len(completed)))
	}
	return nil
}

func (s *eventService) authorizeEventChange(ctx context.Context, currentUserID, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}

	if event.OrganizerID == currentUserID {
		return event, nil
	}

	profile, err := s.profileRepo.GetByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrForbiddenOperation
		}
		return nil, fmt.Errorf("failed to load profile %d: %w", currentUserID, err)
	}
	if profile.UserType != models.UserTypeAdmin {
		return nil, ErrForbiddenOperation
	}
	return event, nil
}

func (s *eventService) fillCoverURL(event *models.Event) {
	if event.CoverKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*event.CoverKey)
		event.CoverURL = &url
	}
}

func (s *eventService) broadcastStatus(eventID int, status models.EventStatus) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom("event_"+strconv.Itoa(eventID), realtime.Message{
		Type: realtime.MessageEventStatusUpdated,
		Payload: map[string]interface{}{
			"event_id": eventID,
			"status":   status,
		},
	})
}
