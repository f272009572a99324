package payloads

import (
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/google/uuid"
)

// MarkerEventPayload сообщение об изменении метки, которое уходит в RabbitMQ.
type MarkerEventPayload struct {
	EventID    uuid.UUID `json:"event_id"`
	UserID     uuid.UUID `json:"user_id"`
	Username   string    `json:"username"`
	Action     string    `json:"action"`
	City       string    `json:"city"`
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lng"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewMarkerEventPayload собирает сообщение из доменного события.
func NewMarkerEventPayload(e domain.MarkerEvent) MarkerEventPayload {
	return MarkerEventPayload{
		EventID:    e.ID,
		UserID:     e.UserID,
		Username:   e.Username,
		Action:     e.Action,
		City:       e.City,
		Latitude:   e.Latitude,
		Longitude:  e.Longitude,
		OccurredAt: e.OccurredAt,
	}
}

// Event обратное преобразование, используется воркером.
func (p MarkerEventPayload) Event() domain.MarkerEvent {
	return domain.MarkerEvent{
		ID:         p.EventID,
		UserID:     p.UserID,
		Username:   p.Username,
		Action:     p.Action,
		City:       p.City,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		OccurredAt: p.OccurredAt,
	}
}
