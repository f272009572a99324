package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// shutdownTimeout сколько ждать завершения текущих запросов.
// Добавление метки может занять несколько секунд из-за пауз геокодера.
const shutdownTimeout = 30 * time.Second

// Server HTTP-сервер приложения.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer создаёт сервер на порту port с обработчиком handler.
func NewServer(port string, handler http.Handler, requestTimeout time.Duration, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			// запись ответа должна пережить middleware.Timeout
			WriteTimeout: requestTimeout + 5*time.Second,
			IdleTimeout:  2 * time.Minute,
		},
		logger: logger,
	}
}

// Run обслуживает запросы до отмены ctx, затем завершает сервер.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("ошибка при запуске сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutdown signal received, stopping HTTP server")

	ctxServer, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctxServer); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}
