package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/core/ports"
	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/GoArmGo/ProtogenMap/internal/messaging/payloads"
	"github.com/GoArmGo/ProtogenMap/internal/metrics"
	"github.com/google/uuid"
)

const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
)

// activityUseCase implements ActivityUseCase
type activityUseCase struct {
	events    ports.EventStorage
	publisher ports.MarkerEventPublisher // nil: события пишутся в базу сразу
	logger    *slog.Logger
}

// NewActivityUseCase создает новый экземпляр ActivityUseCase. publisher может быть nil.
func NewActivityUseCase(events ports.EventStorage, publisher ports.MarkerEventPublisher, logger *slog.Logger) ActivityUseCase {
	return &activityUseCase{
		events:    events,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *activityUseCase) Record(ctx context.Context, event domain.MarkerEvent) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	if uc.publisher != nil {
		err := uc.publisher.PublishMarkerEvent(ctx, payloads.NewMarkerEventPayload(event))
		if err == nil {
			metrics.MarkerEventsPublished.WithLabelValues(event.Action, "queued").Inc()
			return
		}
		// брокер недоступен: событие не теряем, пишем напрямую
		uc.logger.Warn("failed to publish marker event, saving inline", "event_id", event.ID, "error", err)
	}

	if err := uc.events.SaveEvent(ctx, &event); err != nil {
		metrics.MarkerEventsPublished.WithLabelValues(event.Action, "failed").Inc()
		uc.logger.Error("failed to record marker event", "event_id", event.ID, "error", err)
		return
	}
	metrics.MarkerEventsPublished.WithLabelValues(event.Action, "saved").Inc()
}

func (uc *activityUseCase) HandleMarkerEvent(ctx context.Context, payload payloads.MarkerEventPayload) error {
	event := payload.Event()
	if err := uc.events.SaveEvent(ctx, &event); err != nil {
		return fmt.Errorf("usecase: ошибка сохранения события %s: %w", event.ID, err)
	}
	uc.logger.Info("marker event stored",
		"event_id", event.ID,
		"username", event.Username,
		"action", event.Action,
		"city", event.City,
	)
	return nil
}

func (uc *activityUseCase) RecentActivity(ctx context.Context, limit int) ([]domain.MarkerEvent, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}

	events, err := uc.events.ListRecentEvents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения ленты активности: %w", err)
	}
	return events, nil
}
