package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hackingtorch/hackingtorch/auth"
	"github.com/hackingtorch/hackingtorch/models"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Authenticate проверяет сессию (Bearer или cookie) и кладёт её в контекст.
// Для API-маршрутов: без сессии — 401 JSON, без редиректов.
func Authenticate(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := sessions.FromRequest(r)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает только перечисленные роли. Ставится после Authenticate.
func RequireRole(roles ...models.UserType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := SessionFromContext(r.Context())
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			for _, role := range roles {
				if session.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeAuthError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

func SessionFromContext(ctx context.Context) (*auth.Session, error) {
	session, ok := ctx.Value(sessionContextKey).(*auth.Session)
	if !ok || session == nil {
		return nil, errors.New("session not found in context")
	}
	return session, nil
}

func UserIDFromContext(ctx context.Context) (int, error) {
	session, err := SessionFromContext(ctx)
	if err != nil {
		return 0, err
	}
	return session.ProfileID, nil
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
