package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hackingtorch/hackingtorch/models"
	"github.com/hackingtorch/hackingtorch/services"
)

type stubEventService struct {
	ListFn func(ctx context.Context, filter models.EventFilter) (models.EventListResponse, error)
}

func (s *stubEventService) Create(ctx context.Context, currentUserID int, input services.EventInput) (*models.Event, error) {
	return nil, nil
}

func (s *stubEventService) GetByID(ctx context.Context, id int) (*models.Event, error) {
	return nil, nil
}

func (s *stubEventService) List(ctx context.Context, filter models.EventFilter) (models.EventListResponse, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, filter)
	}
	return models.EventListResponse{}, nil
}

func (s *stubEventService) Update(ctx context.Context, currentUserID, eventID int, input services.EventInput) (*models.Event, error) {
	return nil, nil
}

func (s *stubEventService) Publish(ctx context.Context, currentUserID, eventID int) error {
	return nil
}

func (s *stubEventService) Cancel(ctx context.Context, currentUserID, eventID int) error {
	return nil
}

func (s *stubEventService) UploadCover(ctx context.Context, currentUserID, eventID int, contentType string, reader io.Reader) (string, error) {
	return "", nil
}

func (s *stubEventService) UpdateStatusesByDates(ctx context.Context) error {
	return nil
}

func TestEventListFilters(t *testing.T) {
	var captured models.EventFilter
	svc := &stubEventService{
		ListFn: func(ctx context.Context, filter models.EventFilter) (models.EventListResponse, error) {
			captured = filter
			return models.EventListResponse{Page: filter.Page, Limit: filter.Limit}, nil
		},
	}
	h := NewEventHandler(svc)

	t.Run("organizer filter parsed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/events?organizer=5", nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if captured.OrganizerID == nil || *captured.OrganizerID != 5 {
			t.Errorf("expected organizer filter 5, got %v", captured.OrganizerID)
		}
	})

	t.Run("invalid organizer ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/events?organizer=abc", nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if captured.OrganizerID != nil {
			t.Errorf("expected nil organizer filter, got %d", *captured.OrganizerID)
		}
	})

	t.Run("status and pagination parsed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/events?status=published&page=2&limit=10", nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)

		if captured.Status == nil || *captured.Status != models.EventStatusPublished {
			t.Errorf("expected status filter published, got %v", captured.Status)
		}
		if captured.Page != 2 || captured.Limit != 10 {
			t.Errorf("expected page 2 limit 10, got page %d limit %d", captured.Page, captured.Limit)
		}
	})
}
