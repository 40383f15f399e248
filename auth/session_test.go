package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hackingtorch/hackingtorch/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testProfile() *models.Profile {
	return &models.Profile{
		ID:        42,
		FirstName: "Ana",
		UserType:  models.UserTypeOrganizer,
	}
}

func TestSessionManager(t *testing.T) {
	t.Run("issue then parse round trip", func(t *testing.T) {
		m := NewSessionManager(testSecret, time.Hour)

		token, err := m.Issue(testProfile())
		if err != nil {
			t.Fatalf("Issue() returned error: %v", err)
		}

		session, err := m.Parse(token)
		if err != nil {
			t.Fatalf("Parse() returned error: %v", err)
		}
		if session.ProfileID != 42 {
			t.Errorf("expected profile id 42, got %d", session.ProfileID)
		}
		if session.Role != models.UserTypeOrganizer {
			t.Errorf("expected organizer role, got %s", session.Role)
		}
		if session.Name != "Ana" {
			t.Errorf("expected name Ana, got %q", session.Name)
		}
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		other := NewSessionManager("another-secret-another-secret-xx", time.Hour)
		token, err := other.Issue(testProfile())
		if err != nil {
			t.Fatalf("Issue() returned error: %v", err)
		}

		m := NewSessionManager(testSecret, time.Hour)
		if _, err := m.Parse(token); err == nil {
			t.Fatal("expected error for foreign signature")
		}
	})

	t.Run("rejects expired token", func(t *testing.T) {
		m := NewSessionManager(testSecret, -time.Minute)
		token, err := m.Issue(testProfile())
		if err != nil {
			t.Fatalf("Issue() returned error: %v", err)
		}

		if _, err := m.Parse(token); err == nil {
			t.Fatal("expected error for expired token")
		}
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		m := NewSessionManager(testSecret, time.Hour)
		if _, err := m.Parse("not-a-token"); err == nil {
			t.Fatal("expected error for malformed token")
		}
	})

	t.Run("from request prefers bearer header", func(t *testing.T) {
		m := NewSessionManager(testSecret, time.Hour)
		token, _ := m.Issue(testProfile())

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"})

		session, err := m.FromRequest(r)
		if err != nil {
			t.Fatalf("FromRequest() returned error: %v", err)
		}
		if session.ProfileID != 42 {
			t.Errorf("expected profile id 42, got %d", session.ProfileID)
		}
	})

	t.Run("from request falls back to cookie", func(t *testing.T) {
		m := NewSessionManager(testSecret, time.Hour)
		token, _ := m.Issue(testProfile())

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})

		if _, err := m.FromRequest(r); err != nil {
			t.Fatalf("FromRequest() returned error: %v", err)
		}
	})

	t.Run("from request without credentials", func(t *testing.T) {
		m := NewSessionManager(testSecret, time.Hour)
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		if _, err := m.FromRequest(r); err != ErrNoSession {
			t.Fatalf("expected ErrNoSession, got %v", err)
		}
	})

	t.Run("cookie write and clear", func(t *testing.T) {
		m := NewSessionManager(testSecret, time.Hour)
		w := httptest.NewRecorder()
		m.WriteCookie(w, "tok")

		cookies := w.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != SessionCookieName {
			t.Fatalf("expected one session cookie, got %v", cookies)
		}
		if !cookies[0].HttpOnly {
			t.Error("session cookie must be HttpOnly")
		}

		w = httptest.NewRecorder()
		m.ClearCookie(w)
		cookies = w.Result().Cookies()
		if len(cookies) != 1 || cookies[0].MaxAge != -1 {
			t.Fatalf("expected clearing cookie, got %v", cookies)
		}
	})
}
