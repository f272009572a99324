package domain

import (
	"time"

	"github.com/google/uuid"
)

// Location представляет метку пользователя на карте,
// соответствует таблице locations в бд. У пользователя не больше одной метки.
type Location struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	City      string    `json:"city" db:"city"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Marker это метка вместе с именем владельца, в том виде, в каком её рисует карта.
type Marker struct {
	Lat      float64 `json:"lat" db:"latitude"`
	Lng      float64 `json:"lng" db:"longitude"`
	City     string  `json:"city" db:"city"`
	Username string  `json:"user" db:"username"`
}
