package domain

import (
	"time"

	"github.com/google/uuid"
)

// Действия с меткой, которые попадают в ленту активности
const (
	MarkerPlaced  = "placed"
	MarkerMoved   = "moved"
	MarkerRemoved = "removed"
)

// MarkerEvent запись ленты активности, соответствует таблице marker_events.
type MarkerEvent struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Username   string    `json:"username" db:"username"`
	Action     string    `json:"action" db:"action"`
	City       string    `json:"city" db:"city"`
	Latitude   float64   `json:"latitude" db:"latitude"`
	Longitude  float64   `json:"longitude" db:"longitude"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}
