package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/core/ports"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName имя cookie с подписанным токеном сессии.
const CookieName = "protomap_session"

// ErrNoSession запрос без действующей сессии.
var ErrNoSession = errors.New("no active session")

// Manager выдаёт и проверяет сессии. Cookie хранит HS256 JWT (sub = пользователь, jti = сессия),
// а сама сессия живёт в SessionStore, поэтому выход из системы сразу отзывает токен.
type Manager struct {
	store  ports.SessionStore
	secret []byte
	ttl    time.Duration
	secure bool
}

// NewManager создаёт Manager.
func NewManager(store ports.SessionStore, secret string, ttl time.Duration, secureCookie bool) *Manager {
	return &Manager{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		secure: secureCookie,
	}
}

// Issue открывает новую сессию для userID и ставит cookie.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, userID uuid.UUID) error {
	sessionID := uuid.NewString()
	now := time.Now()

	if err := m.store.Save(ctx, sessionID, userID, m.ttl); err != nil {
		return fmt.Errorf("ошибка сохранения сессии: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("ошибка подписи токена сессии: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(m.ttl),
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Current возвращает пользователя текущей сессии.
// Без cookie, с испорченным или отозванным токеном возвращается ErrNoSession.
func (m *Manager) Current(r *http.Request) (uuid.UUID, error) {
	claims, err := m.parse(r)
	if err != nil {
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrNoSession
	}

	stored, ok, err := m.store.Lookup(r.Context(), claims.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("ошибка чтения сессии: %w", err)
	}
	if !ok || stored != userID {
		return uuid.Nil, ErrNoSession
	}
	return userID, nil
}

// Clear отзывает сессию (если она есть) и удаляет cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	var err error
	if claims, parseErr := m.parse(r); parseErr == nil {
		err = m.store.Delete(r.Context(), claims.ID)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления сессии: %w", err)
	}
	return nil
}

func (m *Manager) parse(r *http.Request) (*jwt.RegisteredClaims, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || claims.ID == "" {
		return nil, ErrNoSession
	}
	return claims, nil
}
