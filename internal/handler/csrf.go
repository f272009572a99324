package handler

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
)

// Double-submit: токен лежит в cookie и должен прийти ещё раз в заголовке или поле формы.
const (
	csrfCookieName = "_csrf"
	csrfHeaderName = "X-CSRF-Token"
	csrfFormField  = "csrf_token"
	csrfTokenBytes = 32
)

type csrfContextKey struct{}

func csrfToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfContextKey{}).(string)
	return token
}

// csrfProtect ставит cookie с токеном и проверяет его на небезопасных методах.
func (h *Handler) csrfProtect(next http.Handler) http.Handler {
	if !h.opts.CSRFEnabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, fromCookie := "", false
		if c, err := r.Cookie(csrfCookieName); err == nil && validCSRFToken(c.Value) {
			token, fromCookie = c.Value, true
		} else {
			token = newCSRFToken()
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: false, // читается скриптом карты
				Secure:   h.opts.CookieSecure,
				SameSite: http.SameSiteStrictMode,
			})
		}
		r = r.WithContext(context.WithValue(r.Context(), csrfContextKey{}, token))

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			next.ServeHTTP(w, r)
			return
		}

		submitted := r.Header.Get(csrfHeaderName)
		if submitted == "" {
			submitted = r.PostFormValue(csrfFormField)
		}
		if !fromCookie || subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
			h.logger.Warn("csrf token rejected", "method", r.Method, "path", r.URL.Path, "has_cookie", fromCookie)
			if wantsJSON(r) {
				respondWithError(w, http.StatusForbidden, "Недействительный CSRF-токен.", h.logger)
				return
			}
			http.Error(w, "Недействительный CSRF-токен. Обновите страницу и попробуйте снова.", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func newCSRFToken() string {
	buf := make([]byte, csrfTokenBytes)
	// crypto/rand.Read не возвращает ошибок на поддерживаемых платформах
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}

func validCSRFToken(token string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	return err == nil && len(raw) == csrfTokenBytes
}

// wantsJSON запрос пришёл от скрипта, а не от HTML-формы.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.URL.Path, "/api/")
}
