package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/ProtogenMap/internal/config"
	"github.com/GoArmGo/ProtogenMap/internal/core/ports"
	"github.com/GoArmGo/ProtogenMap/internal/usecase"
)

// Режимы запуска бинарника.
const (
	ModeServer = "server"
	ModeWorker = "worker"
)

// BackgroundTask фоновая задача, живущая до отмены контекста (например, очистка сессий).
type BackgroundTask func(ctx context.Context)

type App struct {
	Config   *config.Config
	logger   *slog.Logger
	server   *Server
	activity usecase.ActivityUseCase
	consumer ports.MarkerEventConsumer // nil, если RabbitMQ не настроен
	tasks    []BackgroundTask
	closers  []func() error
}

func NewApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *Server,
	activity usecase.ActivityUseCase,
	consumer ports.MarkerEventConsumer,
	tasks []BackgroundTask,
	closers []func() error,
) *App {
	return &App{
		Config:   cfg,
		logger:   logger,
		server:   server,
		activity: activity,
		consumer: consumer,
		tasks:    tasks,
		closers:  closers,
	}
}

// LoggerIns возвращает основной логгер приложения.
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

func (a *App) Run(ctx context.Context, mode string) error {
	// канал для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting", "mode", mode)

	for _, task := range a.tasks {
		go task(ctx)
	}

	var err error
	switch mode {
	case ModeServer:
		err = a.server.Run(ctx)
	case ModeWorker:
		err = runWorker(ctx, a.consumer, a.activity, a.logger)
	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'worker')", mode)
	}

	// аккуратно закрываем ресурсы
	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown finished with errors", "error", closeErr)
	}

	if err != nil {
		return err
	}
	a.logger.Info("stopped gracefully")
	return nil
}

// Shutdown закрывает все ресурсы приложения в обратном порядке создания.
func (a *App) Shutdown() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
