package ports

import (
	"context"

	"github.com/GoArmGo/ProtogenMap/internal/messaging/payloads"
)

// MarkerEventPublisher публикует события меток для ленты активности.
type MarkerEventPublisher interface {
	PublishMarkerEvent(ctx context.Context, payload payloads.MarkerEventPayload) error
}

// MarkerEventConsumer используется воркером: handler вызывается для каждого сообщения,
// ошибка handler возвращает сообщение в очередь. Возвращённый канал получает ошибку,
// если потребление прекратилось до отмены ctx, и закрывается при остановке.
type MarkerEventConsumer interface {
	StartConsumingMarkerEvents(ctx context.Context, handler func(context.Context, payloads.MarkerEventPayload) error) (<-chan error, error)
}
