package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/ProtogenMap/internal/core/ports"
	"github.com/GoArmGo/ProtogenMap/internal/messaging/payloads"
	"github.com/GoArmGo/ProtogenMap/internal/usecase"
)

var (
	// ErrWorkerWithoutBroker воркеру нечего потреблять без RabbitMQ.
	ErrWorkerWithoutBroker = errors.New("worker mode requires RABBITMQ_URL")
	// ErrConsumerStopped потребитель завершился, хотя воркер не останавливали.
	ErrConsumerStopped = errors.New("marker event consumer stopped")
)

// runWorker потребляет события меток из RabbitMQ и пишет их в ленту активности.
func runWorker(
	ctx context.Context,
	consumer ports.MarkerEventConsumer,
	activity usecase.ActivityUseCase,
	logger *slog.Logger,
) error {
	if consumer == nil {
		return ErrWorkerWithoutBroker
	}

	handle := func(ctx context.Context, payload payloads.MarkerEventPayload) error {
		if err := activity.HandleMarkerEvent(ctx, payload); err != nil {
			logger.Error("failed to handle marker event", "event_id", payload.EventID, "error", err)
			return err
		}
		return nil
	}

	stopped, err := consumer.StartConsumingMarkerEvents(ctx, handle)
	if err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}
	logger.Info("worker started, waiting for marker events")

	select {
	case <-ctx.Done():
	case err := <-stopped:
		if ctx.Err() == nil {
			logger.Error("marker event consumer stopped unexpectedly", "error", err)
			if err == nil {
				return ErrConsumerStopped
			}
			return fmt.Errorf("%w: %w", ErrConsumerStopped, err)
		}
	}
	logger.Info("worker stopping")
	return nil
}
