package handler

import (
	"net/http"
	"strconv"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/GoArmGo/ProtogenMap/internal/usecase"
)

// Index GET /, карта со всеми метками.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	markers, err := h.locations.ListMarkers(r.Context())
	if err != nil {
		h.logger.Error("failed to list markers", "error", err)
		markers = []domain.Marker{}
		h.render(w, r, http.StatusOK, "index", pageData{Title: "Карта", Markers: markers},
			flashMessage{flashDanger, "Не удалось загрузить метки."})
		return
	}
	h.render(w, r, http.StatusOK, "index", pageData{Title: "Карта", Markers: markers})
}

// ListLocations GET /api/locations
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	markers, err := h.locations.ListMarkers(r.Context())
	if err != nil {
		h.logger.Error("failed to list markers", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Ошибка получения меток.", h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, markers, h.logger)
}

// RecentActivity GET /api/activity?limit=N
func (h *Handler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	limit := usecase.DefaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "Некорректный limit.", h.logger)
			return
		}
		limit = n
	}

	events, err := h.activity.RecentActivity(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to load activity feed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Ошибка получения ленты активности.", h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, events, h.logger)
}

// Health GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.logger.Error("health check failed", "error", err)
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}, h.logger)
			return
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}
