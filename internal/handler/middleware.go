package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/metrics"
	"github.com/GoArmGo/ProtogenMap/internal/session"
	"github.com/go-chi/chi/v5"
)

// RequestLogger middleware для логирования HTTP-запросов и метрик.
func RequestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Оборачиваем ResponseWriter, чтобы знать статус
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			route := routePattern(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", ww.statusCode,
				"duration_ms", duration.Milliseconds(),
			)
		})
	}
}

// routePattern шаблон маршрута chi; метки метрик не должны зависеть от имени пользователя в пути.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// responseWriter нужен, чтобы перехватывать код ответа
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loadUser определяет пользователя по cookie сессии и кладёт его в контекст запроса.
// Ошибка сессии не прерывает запрос: он продолжается как анонимный.
func (h *Handler) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := h.sessions.Current(r)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				h.logger.Error("failed to resolve session", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		user, err := h.auth.GetUser(r.Context(), userID)
		if err != nil {
			h.logger.Error("failed to load session user", "user_id", userID, "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if user == nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(session.WithUser(r.Context(), user)))
	})
}

// requireUser для HTML-страниц: анонимного пользователя отправляет на вход.
func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.UserFromContext(r.Context()); !ok {
			setFlash(w, flashWarning, "Пожалуйста, войдите для доступа.")
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireUserJSON для JSON-эндпоинтов: анонимному отвечает 401.
func (h *Handler) requireUserJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.UserFromContext(r.Context()); !ok {
			respondWithError(w, http.StatusUnauthorized, "Пожалуйста, войдите для доступа.", h.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// safeNext пропускает только локальный путь, чтобы ?next= не уводил на чужой сайт.
func safeNext(next string) string {
	if next == "" || next[0] != '/' || len(next) > 1 && (next[1] == '/' || next[1] == '\\') {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
