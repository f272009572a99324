package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/config"
	"github.com/GoArmGo/ProtogenMap/internal/messaging/payloads"
	"github.com/goccy/go-json"

	amqp "github.com/rabbitmq/amqp091-go"
)

// publishTimeout сколько ждать брокер при публикации одного сообщения.
const publishTimeout = 5 * time.Second

// ErrDeliveriesClosed брокер закрыл канал доставки, например при разрыве соединения.
var ErrDeliveriesClosed = errors.New("RabbitMQ delivery channel closed")

// Client клиент RabbitMQ для событий меток.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *slog.Logger
}

// NewClient подключается к RabbitMQ и объявляет очередь событий.
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	client := &Client{logger: logger}

	conn, err := amqp.Dial(cfg.RabbitMQ.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	client.conn = conn

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	client.channel = ch

	// очередь durable: события не теряются при перезапуске брокера
	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.RabbitMQQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}
	client.queue = q

	logger.Info("RabbitMQ connected", "queue", q.Name, "messages", q.Messages)
	return client, nil
}

// Close закрывает канал и соединение.
func (c *Client) Close() {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error("error closing RabbitMQ channel", "error", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error("error closing RabbitMQ connection", "error", err)
			return
		}
	}
	c.logger.Info("RabbitMQ connection closed")
}

// PublishMarkerEvent реализует ports.MarkerEventPublisher.
func (c *Client) PublishMarkerEvent(ctx context.Context, payload payloads.MarkerEventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload to JSON: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		publishCtx,
		"",           // exchange
		c.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    payload.EventID.String(),
			Timestamp:    payload.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}

	c.logger.Debug("marker event published",
		"queue", c.queue.Name,
		"event_id", payload.EventID,
		"action", payload.Action,
	)
	return nil
}

// StartConsumingMarkerEvents реализует ports.MarkerEventConsumer.
// Сообщения обрабатываются в отдельной горутине до отмены ctx или закрытия канала.
// Закрытие канала доставки со стороны брокера приходит в stopped как ErrDeliveriesClosed.
func (c *Client) StartConsumingMarkerEvents(ctx context.Context, handler func(context.Context, payloads.MarkerEventPayload) error) (<-chan error, error) {
	msgs, err := c.channel.Consume(
		c.queue.Name,
		"",    // consumer
		false, // auto-ack, подтверждаем вручную
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.Info("consumer registered, waiting for messages", "queue", c.queue.Name)

	stopped := make(chan error, 1)
	go func() {
		defer close(stopped)
		stopped <- consumeDeliveries(ctx, msgs, func(msg amqp.Delivery) {
			c.handleDelivery(ctx, msg, handler)
		}, c.logger)
	}()

	return stopped, nil
}

// consumeDeliveries читает сообщения до отмены ctx (nil) или закрытия msgs (ErrDeliveriesClosed).
func consumeDeliveries(ctx context.Context, msgs <-chan amqp.Delivery, handle func(amqp.Delivery), logger *slog.Logger) error {
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				logger.Error("RabbitMQ delivery channel closed, stopping consumer")
				return ErrDeliveriesClosed
			}
			handle(msg)
		case <-ctx.Done():
			logger.Info("context cancelled, stopping RabbitMQ consumer")
			return nil
		}
	}
}

// handleDelivery разбирает одно сообщение и подтверждает его.
// Битое сообщение отбрасывается, ошибка обработки возвращает сообщение в очередь.
func (c *Client) handleDelivery(ctx context.Context, msg amqp.Delivery, handler func(context.Context, payloads.MarkerEventPayload) error) {
	var payload payloads.MarkerEventPayload
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.logger.Error("error unmarshalling message", "error", err, "body", string(msg.Body))
		if err := msg.Nack(false, false); err != nil {
			c.logger.Error("error NACKing malformed message", "error", err)
		}
		return
	}

	start := time.Now()
	if err := handler(ctx, payload); err != nil {
		c.logger.Error("error processing marker event", "event_id", payload.EventID, "error", err)
		// повторно доставленное сообщение не отдаём обратно, иначе оно будет крутиться вечно
		if err := msg.Nack(false, !msg.Redelivered); err != nil {
			c.logger.Error("error NACKing message", "error", err)
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		c.logger.Error("error ACKing message", "error", err)
		return
	}
	c.logger.Debug("marker event processed",
		"event_id", payload.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
