package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/database/memory"
	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/GoArmGo/ProtogenMap/internal/logger"
	"github.com/GoArmGo/ProtogenMap/internal/messaging/payloads"
	"github.com/GoArmGo/ProtogenMap/internal/usecase"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replayConsumer сразу отдаёт обработчику заранее заданные сообщения.
// Непустой stopErr имитирует разрыв соединения с брокером.
type replayConsumer struct {
	messages []payloads.MarkerEventPayload
	errs     []error
	stopErr  error
}

func (c *replayConsumer) StartConsumingMarkerEvents(ctx context.Context, handler func(context.Context, payloads.MarkerEventPayload) error) (<-chan error, error) {
	for _, m := range c.messages {
		c.errs = append(c.errs, handler(ctx, m))
	}
	stopped := make(chan error, 1)
	if c.stopErr != nil {
		stopped <- c.stopErr
		close(stopped)
	}
	return stopped, nil
}

func cancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestRun_WorkerStoresEvents(t *testing.T) {
	store := memory.NewStore()
	activity := usecase.NewActivityUseCase(store, nil, logger.Discard())
	event := domain.MarkerEvent{ID: uuid.New(), Username: "alice", Action: domain.MarkerPlaced, City: "Mitino"}
	consumer := &replayConsumer{messages: []payloads.MarkerEventPayload{payloads.NewMarkerEventPayload(event)}}

	closed := false
	a := NewApp(nil, logger.Discard(), nil, activity, consumer, nil, []func() error{
		func() error { closed = true; return nil },
	})

	require.NoError(t, a.Run(cancelledContext(), ModeWorker))
	assert.Equal(t, []error{nil}, consumer.errs)
	require.Len(t, store.Events(), 1)
	assert.Equal(t, "Mitino", store.Events()[0].City)
	assert.True(t, closed)
}

func TestRun_WorkerExitsWhenConsumerStops(t *testing.T) {
	brokerGone := errors.New("connection reset")
	activity := usecase.NewActivityUseCase(memory.NewStore(), nil, logger.Discard())
	a := NewApp(nil, logger.Discard(), nil, activity, &replayConsumer{stopErr: brokerGone}, nil, nil)

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background(), ModeWorker) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrConsumerStopped)
		assert.ErrorIs(t, err, brokerGone)
	case <-time.After(time.Second):
		t.Fatal("worker kept running without a consumer")
	}
}

func TestRun_WorkerRequiresBroker(t *testing.T) {
	a := NewApp(nil, logger.Discard(), nil, nil, nil, nil, nil)
	err := a.Run(cancelledContext(), ModeWorker)
	assert.ErrorIs(t, err, ErrWorkerWithoutBroker)
}

func TestRun_UnknownMode(t *testing.T) {
	a := NewApp(nil, logger.Discard(), nil, nil, nil, nil, nil)
	assert.Error(t, a.Run(cancelledContext(), "batch"))
}

func TestRun_StartsBackgroundTasks(t *testing.T) {
	started := make(chan struct{})
	task := func(ctx context.Context) { close(started) }
	srv := NewServer("0", http.NotFoundHandler(), time.Second, logger.Discard())

	a := NewApp(nil, logger.Discard(), srv, nil, nil, []BackgroundTask{task}, nil)
	require.NoError(t, a.Run(cancelledContext(), ModeServer))

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("background task was not started")
	}
}

func TestShutdown_ClosesInReverseOrder(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	a := NewApp(nil, logger.Discard(), nil, nil, nil, nil, []func() error{
		func() error { order = append(order, "db"); return nil },
		func() error { order = append(order, "broker"); return boom },
	})

	err := a.Shutdown()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"broker", "db"}, order)

	// повторный вызов ничего не закрывает
	assert.NoError(t, a.Shutdown())
}
