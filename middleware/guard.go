package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hackingtorch/hackingtorch/auth"
	"github.com/hackingtorch/hackingtorch/metrics"
	"github.com/hackingtorch/hackingtorch/models"
	"github.com/hackingtorch/hackingtorch/repositories"
)

// Защищённые страницы и страницы входа. Таблица статическая: маршрут
// попадает под правило по префиксу пути.
var (
	protectedPrefixes = []string{
		"/dashboard",
		"/profile",
		"/settings",
		"/admin",
		"/event/team",
		"/event/submission",
		"/event/certificate",
	}
	authPagePrefixes = []string{
		"/auth/login",
		"/auth/register",
	}
)

// ProfileStore — минимум, который нужен guard'у: роль берётся из БД на
// каждый запрос к /admin, токену здесь не верят.
type ProfileStore interface {
	GetByID(ctx context.Context, id int) (*models.Profile, error)
}

type RouteGuard struct {
	sessions *auth.SessionManager
	profiles ProfileStore
	logger   *slog.Logger
}

func NewRouteGuard(sessions *auth.SessionManager, profiles ProfileStore, logger *slog.Logger) *RouteGuard {
	return &RouteGuard{
		sessions: sessions,
		profiles: profiles,
		logger:   logger,
	}
}

func (g *RouteGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			// Любой сбой при проверке доступа не должен открывать страницу.
			if rec := recover(); rec != nil {
				g.logger.Error("route guard panic", slog.Any("panic", rec), slog.String("path", r.URL.Path))
				g.redirect(w, r, "/error", "guard_failure")
			}
		}()

		path := r.URL.Path
		session := g.resolveSession(r)

		if hasPrefix(path, authPagePrefixes) && session != nil {
			g.redirect(w, r, "/dashboard", "already_authenticated")
			return
		}

		if hasPrefix(path, protectedPrefixes) {
			if session == nil {
				target := "/auth/login?redirect=" + url.QueryEscape(path)
				g.redirect(w, r, target, "unauthenticated")
				return
			}

			if hasPrefix(path, []string{"/admin"}) {
				profile, err := g.profiles.GetByID(r.Context(), session.ProfileID)
				if errors.Is(err, repositories.ErrProfileNotFound) {
					// Профиль исчез: уводим на /dashboard, не на страницу ошибки.
					g.redirect(w, r, "/dashboard", "admin_lookup_failed")
					return
				}
				if err != nil {
					g.logger.Error("route guard role lookup failed",
						slog.Int("profile_id", session.ProfileID), slog.Any("error", err))
					g.redirect(w, r, "/error", "guard_failure")
					return
				}
				if profile.UserType != models.UserTypeAdmin {
					g.redirect(w, r, "/dashboard", "not_admin")
					return
				}
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (g *RouteGuard) resolveSession(r *http.Request) *auth.Session {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil {
		return nil
	}
	session, err := g.sessions.Parse(cookie.Value)
	if err != nil {
		return nil
	}
	return session
}

func (g *RouteGuard) redirect(w http.ResponseWriter, r *http.Request, target, reason string) {
	metrics.GuardRedirects.WithLabelValues(reason).Inc()
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func hasPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
