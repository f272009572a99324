package handler

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/ProtogenMap/internal/session"
	"github.com/GoArmGo/ProtogenMap/internal/usecase"
	"github.com/goccy/go-json"
)

// HealthChecker проверка зависимостей для /health (база данных).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Options параметры HTTP-слоя из конфигурации.
type Options struct {
	CSRFEnabled  bool
	CookieSecure bool
}

// Handler обработчики HTML-страниц и JSON API карты.
type Handler struct {
	auth      usecase.AuthUseCase
	profiles  usecase.ProfileUseCase
	locations usecase.LocationUseCase
	activity  usecase.ActivityUseCase
	sessions  *session.Manager
	health    HealthChecker
	pages     map[string]*template.Template
	opts      Options
	logger    *slog.Logger
}

// NewHandler создаёт Handler и разбирает шаблоны страниц. health может быть nil.
func NewHandler(
	auth usecase.AuthUseCase,
	profiles usecase.ProfileUseCase,
	locations usecase.LocationUseCase,
	activity usecase.ActivityUseCase,
	sessions *session.Manager,
	health HealthChecker,
	opts Options,
	logger *slog.Logger,
) (*Handler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора шаблонов: %w", err)
	}

	return &Handler{
		auth:      auth,
		profiles:  profiles,
		locations: locations,
		activity:  activity,
		sessions:  sessions,
		health:    health,
		pages:     pages,
		opts:      opts,
		logger:    logger,
	}, nil
}

// statusResponse ответ JSON-эндпоинтов меток.
type statusResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message,omitempty"`
	FoundCity string   `json:"foundCity,omitempty"`
	PlaceLat  *float64 `json:"placeLat,omitempty"`
	PlaceLng  *float64 `json:"placeLng,omitempty"`
}

// respondWithJSON отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload any, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, statusResponse{Status: "error", Message: message}, logger)
}
