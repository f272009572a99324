package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// EventStorage хранит ленту активности меток.
type EventStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewEventStorage создает новый экземпляр EventStorage.
func NewEventStorage(db *sqlx.DB, logger *slog.Logger) *EventStorage {
	return &EventStorage{db: db, logger: logger}
}

// SaveEvent сохраняет событие. Повторная доставка того же события из очереди ничего не меняет.
func (s *EventStorage) SaveEvent(ctx context.Context, event *domain.MarkerEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO marker_events (id, user_id, username, action, city, latitude, longitude, occurred_at)
		VALUES (:id, :user_id, :username, :action, :city, :latitude, :longitude, :occurred_at)
		ON CONFLICT (id) DO NOTHING
	`, event)
	if err != nil {
		s.logger.Error("failed to save marker event", "event_id", event.ID, "error", err)
		return fmt.Errorf("ошибка при сохранении события метки: %w", err)
	}

	s.logger.Debug("marker event saved", "event_id", event.ID, "action", event.Action)
	return nil
}

// ListRecentEvents возвращает последние limit событий, новые первыми.
func (s *EventStorage) ListRecentEvents(ctx context.Context, limit int) ([]domain.MarkerEvent, error) {
	events := []domain.MarkerEvent{}
	query := `
	SELECT id, user_id, username, action, city, latitude, longitude, occurred_at
	FROM marker_events
	ORDER BY occurred_at DESC
	LIMIT $1
	`

	if err := s.db.SelectContext(ctx, &events, query, limit); err != nil {
		s.logger.Error("failed to list marker events", "error", err)
		return nil, fmt.Errorf("ошибка при получении ленты активности: %w", err)
	}
	return events, nil
}
