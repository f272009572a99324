package handler

import (
	"errors"
	"net/http"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/GoArmGo/ProtogenMap/internal/geocoding"
	"github.com/GoArmGo/ProtogenMap/internal/session"
	"github.com/GoArmGo/ProtogenMap/internal/validation"
	"github.com/goccy/go-json"
)

// AddLocation POST /add_location ставит или переносит метку текущего пользователя.
func (h *Handler) AddLocation(w http.ResponseWriter, r *http.Request) {
	user, _ := session.UserFromContext(r.Context())

	var coords validation.Coordinates
	if err := json.NewDecoder(r.Body).Decode(&coords); err != nil {
		h.logger.Warn("invalid add_location body", "user_id", user.ID, "error", err)
		respondWithError(w, http.StatusBadRequest, "Некорректные координаты.", h.logger)
		return
	}
	if err := validation.ValidateStruct(coords); err != nil {
		h.logger.Warn("invalid coordinates", "user_id", user.ID, "error", err)
		respondWithError(w, http.StatusBadRequest, "Некорректные координаты.", h.logger)
		return
	}

	res, err := h.locations.PlaceMarker(r.Context(), user, *coords.Lat, *coords.Lng)
	switch {
	case errors.Is(err, geocoding.ErrUnresolved):
		kind, _ := geocoding.KindOf(err)
		h.logger.Info("place not resolved", "user_id", user.ID, "kind", kind, "lat", *coords.Lat, "lng", *coords.Lng)
		respondWithError(w, http.StatusBadRequest, "Не удалось определить место.", h.logger)
		return
	case errors.Is(err, domain.ErrInvalidCoordinate):
		respondWithError(w, http.StatusBadRequest, "Некорректные координаты.", h.logger)
		return
	case err != nil:
		h.logger.Error("failed to place marker", "user_id", user.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Ошибка сервера при сохранении метки.", h.logger)
		return
	}

	status, message := http.StatusOK, "Ваша метка обновлена!"
	if res.Created {
		status, message = http.StatusCreated, "Ваша метка добавлена!"
	}

	h.logger.Info("marker saved",
		"user_id", user.ID,
		"city", res.Place.Name,
		"lat", res.Place.Lat,
		"lng", res.Place.Lng,
		"created", res.Created,
	)
	respondWithJSON(w, status, statusResponse{
		Status:    "success",
		Message:   message,
		FoundCity: res.Place.Name,
		PlaceLat:  &res.Place.Lat,
		PlaceLng:  &res.Place.Lng,
	}, h.logger)
}

// DeleteLocation POST /delete_location отвечает успехом и тогда, когда метки не было.
func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	user, _ := session.UserFromContext(r.Context())

	removed, err := h.locations.RemoveMarker(r.Context(), user)
	if err != nil {
		h.logger.Error("failed to remove marker", "user_id", user.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Ошибка сервера при удалении.", h.logger)
		return
	}

	message := "Метка не найдена."
	if removed {
		message = "Ваша метка удалена."
	}
	h.logger.Info("marker delete requested", "user_id", user.ID, "removed", removed)
	respondWithJSON(w, http.StatusOK, statusResponse{Status: "success", Message: message}, h.logger)
}
