package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/hackingtorch/hackingtorch/models"
)

const (
	// SessionCookieName — HttpOnly cookie с сессионным токеном.
	SessionCookieName = "ht_session"

	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"
	jwtClaimName   = "name"
)

var (
	ErrNoSession      = errors.New("no session present")
	ErrInvalidSession = errors.New("session token is invalid or expired")
)

// Session — разобранное состояние "кто сейчас вошёл".
type Session struct {
	ProfileID int
	Role      models.UserType
	Name      string
}

// SessionManager подписывает и проверяет сессионные токены. Создаётся один
// раз в main и передаётся явно — никакого глобального состояния.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (m *SessionManager) Issue(profile *models.Profile) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		jwtClaimUserID: profile.ID,
		jwtClaimRole:   string(profile.UserType),
		jwtClaimName:   profile.FirstName,
		"iat":          now.Unix(),
		"exp":          now.Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

func (m *SessionManager) Parse(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidSession
	}

	idFloat, ok := claims[jwtClaimUserID].(float64)
	if !ok || idFloat != float64(int(idFloat)) || int(idFloat) <= 0 {
		return nil, ErrInvalidSession
	}

	roleStr, ok := claims[jwtClaimRole].(string)
	if !ok {
		return nil, ErrInvalidSession
	}
	role := models.UserType(roleStr)
	switch role {
	case models.UserTypeParticipant, models.UserTypeOrganizer, models.UserTypeAdmin:
	default:
		return nil, ErrInvalidSession
	}

	name, _ := claims[jwtClaimName].(string)

	return &Session{
		ProfileID: int(idFloat),
		Role:      role,
		Name:      name,
	}, nil
}

// FromRequest достаёт сессию из запроса: сначала заголовок Authorization,
// затем cookie. Отсутствие и той и другой — ErrNoSession.
func (m *SessionManager) FromRequest(r *http.Request) (*Session, error) {
	if header := r.Header.Get("Authorization"); len(header) > 7 && header[:7] == "Bearer " {
		return m.Parse(header[7:])
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}
	return m.Parse(cookie.Value)
}

func (m *SessionManager) WriteCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
