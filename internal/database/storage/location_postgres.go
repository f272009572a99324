package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LocationStorage реализует интерфейс ports.LocationStorage.
type LocationStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewLocationStorage создает новый экземпляр LocationStorage.
func NewLocationStorage(db *sqlx.DB, logger *slog.Logger) *LocationStorage {
	return &LocationStorage{db: db, logger: logger}
}

// UpsertLocation создаёт или обновляет единственную метку пользователя одним запросом.
// created = true, если строки раньше не было. xmax = 0 только у только что вставленной строки.
func (s *LocationStorage) UpsertLocation(ctx context.Context, loc *domain.Location) (bool, error) {
	start := time.Now()

	if loc.ID == uuid.Nil {
		loc.ID = uuid.New()
	}

	query := `
	INSERT INTO locations (id, user_id, latitude, longitude, city, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	ON CONFLICT (user_id) DO UPDATE
		SET latitude = EXCLUDED.latitude,
		    longitude = EXCLUDED.longitude,
		    city = EXCLUDED.city,
		    updated_at = NOW()
	RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
	`

	var created bool
	err := s.db.QueryRowxContext(ctx, query, loc.ID, loc.UserID, loc.Latitude, loc.Longitude, loc.City).
		Scan(&loc.ID, &loc.CreatedAt, &loc.UpdatedAt, &created)
	if err != nil {
		s.logger.Error("failed to upsert location", "user_id", loc.UserID, "error", err)
		return false, fmt.Errorf("ошибка при сохранении метки: %w", err)
	}

	s.logger.Info("location upserted",
		"user_id", loc.UserID,
		"city", loc.City,
		"created", created,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return created, nil
}

// GetLocationByUserID возвращает метку пользователя или (nil, nil).
func (s *LocationStorage) GetLocationByUserID(ctx context.Context, userID uuid.UUID) (*domain.Location, error) {
	var loc domain.Location
	query := `SELECT id, user_id, latitude, longitude, city, created_at, updated_at FROM locations WHERE user_id = $1`

	err := s.db.GetContext(ctx, &loc, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.Error("failed to get location", "user_id", userID, "error", err)
		return nil, fmt.Errorf("ошибка при получении метки: %w", err)
	}
	return &loc, nil
}

// DeleteLocation удаляет метку пользователя и возвращает удалённую строку.
// Если метки не было, возвращает (nil, nil): повторное удаление не ошибка.
func (s *LocationStorage) DeleteLocation(ctx context.Context, userID uuid.UUID) (*domain.Location, error) {
	start := time.Now()

	var loc domain.Location
	query := `DELETE FROM locations WHERE user_id = $1
	RETURNING id, user_id, latitude, longitude, city, created_at, updated_at`

	err := s.db.GetContext(ctx, &loc, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("no location to delete", "user_id", userID)
			return nil, nil
		}
		s.logger.Error("failed to delete location", "user_id", userID, "error", err)
		return nil, fmt.Errorf("ошибка при удалении метки: %w", err)
	}

	s.logger.Info("location deleted",
		"user_id", userID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &loc, nil
}

// ListMarkers возвращает все метки вместе с именами владельцев.
func (s *LocationStorage) ListMarkers(ctx context.Context) ([]domain.Marker, error) {
	start := time.Now()

	markers := []domain.Marker{}
	query := `
	SELECT l.latitude, l.longitude, l.city, u.username
	FROM locations l
	JOIN users u ON u.id = l.user_id
	ORDER BY l.updated_at DESC
	`

	if err := s.db.SelectContext(ctx, &markers, query); err != nil {
		s.logger.Error("failed to list markers", "error", err)
		return nil, fmt.Errorf("ошибка при получении списка меток: %w", err)
	}

	s.logger.Debug("markers listed",
		"count", len(markers),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return markers, nil
}
