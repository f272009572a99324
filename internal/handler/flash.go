package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/goccy/go-json"
)

const flashCookieName = "protomap_flash"

// Категории флеш-сообщений совпадают с классами alert-* на страницах.
const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashDanger  = "danger"
)

type flashMessage struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// setFlash сохраняет сообщение до следующей страницы (обычно после редиректа).
func setFlash(w http.ResponseWriter, category, message string) {
	raw, err := json.Marshal([]flashMessage{{Category: category, Message: message}})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes читает сообщения и сразу удаляет cookie.
func popFlashes(w http.ResponseWriter, r *http.Request) []flashMessage {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var msgs []flashMessage
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil
	}
	return msgs
}
