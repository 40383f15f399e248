package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/hackingtorch/hackingtorch/auth"
	"github.com/hackingtorch/hackingtorch/models"
	"github.com/hackingtorch/hackingtorch/repositories"
)

const guardTestSecret = "0123456789abcdef0123456789abcdef"

type stubProfileStore struct {
	profile *models.Profile
	err     error
}

func (s *stubProfileStore) GetByID(ctx context.Context, id int) (*models.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

func newGuard(store ProfileStore) (*RouteGuard, *auth.SessionManager) {
	sessions := auth.NewSessionManager(guardTestSecret, time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouteGuard(sessions, store, logger), sessions
}

func issueCookie(t *testing.T, sessions *auth.SessionManager, userType models.UserType) *http.Cookie {
	t.Helper()
	token, err := sessions.Issue(&models.Profile{ID: 1, FirstName: "Olya", UserType: userType})
	if err != nil {
		t.Fatalf("failed to issue session: %v", err)
	}
	return &http.Cookie{Name: auth.SessionCookieName, Value: token}
}

func serveGuarded(guard *RouteGuard, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler := guard.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGuardRedirectsAnonymousFromProtectedPages(t *testing.T) {
	guard, _ := newGuard(&stubProfileStore{})

	paths := []string{
		"/dashboard",
		"/profile",
		"/settings",
		"/admin",
		"/event/team/3",
		"/event/submission/1",
		"/event/certificate/abc",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := serveGuarded(guard, req)

			if rec.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", rec.Code)
			}
			location := rec.Header().Get("Location")
			if location != "/auth/login?redirect="+url.QueryEscape(path) {
				t.Errorf("unexpected redirect location %q", location)
			}
		})
	}
}

func TestGuardPassesPublicPages(t *testing.T) {
	guard, _ := newGuard(&stubProfileStore{})

	for _, path := range []string{"/", "/events", "/event/3", "/auth/login"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := serveGuarded(guard, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected pass-through for %s, got %d", path, rec.Code)
			}
		})
	}
}

func TestGuardBouncesAuthenticatedFromAuthPages(t *testing.T) {
	guard, sessions := newGuard(&stubProfileStore{})

	for _, path := range []string{"/auth/login", "/auth/register"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.AddCookie(issueCookie(t, sessions, models.UserTypeParticipant))
			rec := serveGuarded(guard, req)

			if rec.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", rec.Code)
			}
			if location := rec.Header().Get("Location"); location != "/dashboard" {
				t.Errorf("expected /dashboard, got %q", location)
			}
		})
	}
}

func TestGuardAdminRoleIsRecheckedPerRequest(t *testing.T) {
	t.Run("admin passes", func(t *testing.T) {
		store := &stubProfileStore{profile: &models.Profile{ID: 1, UserType: models.UserTypeAdmin}}
		guard, sessions := newGuard(store)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(issueCookie(t, sessions, models.UserTypeAdmin))
		rec := serveGuarded(guard, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected pass-through, got %d", rec.Code)
		}
	})

	t.Run("demoted admin is bounced despite valid token", func(t *testing.T) {
		// Роль в токене — admin, но в БД уже participant.
		store := &stubProfileStore{profile: &models.Profile{ID: 1, UserType: models.UserTypeParticipant}}
		guard, sessions := newGuard(store)

		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		req.AddCookie(issueCookie(t, sessions, models.UserTypeAdmin))
		rec := serveGuarded(guard, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if location := rec.Header().Get("Location"); location != "/dashboard" {
			t.Errorf("expected /dashboard, got %q", location)
		}
	})

	t.Run("missing profile falls through to dashboard", func(t *testing.T) {
		store := &stubProfileStore{err: repositories.ErrProfileNotFound}
		guard, sessions := newGuard(store)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(issueCookie(t, sessions, models.UserTypeAdmin))
		rec := serveGuarded(guard, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if location := rec.Header().Get("Location"); location != "/dashboard" {
			t.Errorf("expected /dashboard, got %q", location)
		}
	})

	t.Run("lookup failure fails closed to error page", func(t *testing.T) {
		store := &stubProfileStore{err: errors.New("connection refused")}
		guard, sessions := newGuard(store)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(issueCookie(t, sessions, models.UserTypeAdmin))
		rec := serveGuarded(guard, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if location := rec.Header().Get("Location"); location != "/error" {
			t.Errorf("expected /error, got %q", location)
		}
	})
}

func TestGuardInvalidCookieTreatedAsAnonymous(t *testing.T) {
	guard, _ := newGuard(&stubProfileStore{})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "garbage"})
	rec := serveGuarded(guard, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
}

func TestGuardPrefixMatchingIsSegmentAware(t *testing.T) {
	guard, _ := newGuard(&stubProfileStore{})

	// /dashboard-public не под защитой, /dashboard/stats — под ней.
	req := httptest.NewRequest(http.MethodGet, "/dashboard-public", nil)
	if rec := serveGuarded(guard, req); rec.Code != http.StatusOK {
		t.Errorf("expected /dashboard-public to pass, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)
	if rec := serveGuarded(guard, req); rec.Code != http.StatusSeeOther {
		t.Errorf("expected /dashboard/stats to redirect, got %d", rec.Code)
	}
}
