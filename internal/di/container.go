package di

import (
	"context"
	"fmt"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/adapter/cache"
	"github.com/GoArmGo/ProtogenMap/internal/adapter/nominatim"
	"github.com/GoArmGo/ProtogenMap/internal/adapter/storage/minio"
	"github.com/GoArmGo/ProtogenMap/internal/app"
	"github.com/GoArmGo/ProtogenMap/internal/config"
	"github.com/GoArmGo/ProtogenMap/internal/core/ports"
	"github.com/GoArmGo/ProtogenMap/internal/database/client"
	"github.com/GoArmGo/ProtogenMap/internal/database/postgres"
	"github.com/GoArmGo/ProtogenMap/internal/database/storage"
	"github.com/GoArmGo/ProtogenMap/internal/geocoding"
	"github.com/GoArmGo/ProtogenMap/internal/handler"
	"github.com/GoArmGo/ProtogenMap/internal/logger"
	"github.com/GoArmGo/ProtogenMap/internal/rabbitmq"
	"github.com/GoArmGo/ProtogenMap/internal/session"
	"github.com/GoArmGo/ProtogenMap/internal/usecase"
)

// sessionCleanupInterval как часто чистить истёкшие сессии в памяти.
const sessionCleanupInterval = 10 * time.Minute

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
// Redis, MinIO и RabbitMQ необязательны: без них соответствующие возможности выключаются.
func BuildApp() (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	if cfg.SessionSecretGenerated() {
		slogger.Warn("SESSION_SECRET is not set, using a random one: sessions will not survive a restart")
	}

	var closers []func() error
	fail := func(err error) (*app.App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	// 2. PostgreSQL: общий пул для sqlx, GORM и миграций
	dbClient, err := client.NewClient(cfg, slogger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, dbClient.Close)

	gormDB, err := postgres.NewGormDB(dbClient.DB.DB, slogger)
	if err != nil {
		return fail(err)
	}

	// 3. Хранилища
	userStorage := storage.NewUserStorage(dbClient.DB, slogger)
	locationStorage := storage.NewLocationStorage(dbClient.DB, slogger)
	eventStorage := storage.NewEventStorage(dbClient.DB, slogger)
	profileStorage := postgres.NewGormProfileStorage(gormDB, slogger)

	// 4. Redis: кэш меток и сессии
	var (
		markerCache  ports.MarkerCache
		sessionStore ports.SessionStore
		tasks        []app.BackgroundTask
	)
	if cfg.RedisEnabled() {
		redisClient, err := cache.NewRedisClient(cfg, slogger)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, redisClient.Close)
		markerCache = cache.NewRedisMarkerCache(redisClient, cfg.Redis.MarkersTTL)
		sessionStore = cache.NewRedisSessionStore(redisClient)
	} else {
		slogger.Info("REDIS_URL is not set: sessions are kept in memory, marker cache disabled")
		memStore := session.NewMemoryStore()
		sessionStore = memStore
		tasks = append(tasks, func(ctx context.Context) {
			memStore.RunCleanup(ctx, sessionCleanupInterval)
		})
	}

	// 5. MinIO: загрузка аватаров
	var fileStorage ports.FileStorage
	if cfg.MinioEnabled() {
		minioClient, err := minio.NewMinioClient(cfg, slogger)
		if err != nil {
			return fail(err)
		}
		fileStorage = minioClient
	} else {
		slogger.Info("MINIO_ENDPOINT is not set: avatar file upload disabled")
	}

	// 6. RabbitMQ: лента активности через очередь
	var (
		publisher ports.MarkerEventPublisher
		consumer  ports.MarkerEventConsumer
	)
	if cfg.RabbitMQEnabled() {
		rabbitMQClient, err := rabbitmq.NewClient(cfg, slogger)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() error { rabbitMQClient.Close(); return nil })
		publisher = rabbitMQClient
		consumer = rabbitMQClient
	} else {
		slogger.Info("RABBITMQ_URL is not set: marker events are stored inline")
	}

	// 7. Геокодер: Nominatim за автоматическим выключателем
	provider := geocoding.NewBreakerProvider(
		nominatim.NewClient(cfg, slogger),
		geocoding.BreakerSettings{Name: "nominatim"},
		slogger,
	)
	resolver := geocoding.NewResolver(provider, cfg.Nominatim.RequestDelay, slogger)

	// 8. Бизнес-логика (usecases)
	authUseCase := usecase.NewAuthUseCase(userStorage, cfg.BcryptCost, slogger)
	profileUseCase := usecase.NewProfileUseCase(userStorage, profileStorage, locationStorage, fileStorage, cfg.BaseURL, slogger)
	activityUseCase := usecase.NewActivityUseCase(eventStorage, publisher, slogger)
	locationUseCase := usecase.NewLocationUseCase(resolver, locationStorage, markerCache, activityUseCase, slogger)

	// 9. HTTP
	sessions := session.NewManager(sessionStore, cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure)
	h, err := handler.NewHandler(
		authUseCase,
		profileUseCase,
		locationUseCase,
		activityUseCase,
		sessions,
		dbClient,
		handler.Options{CSRFEnabled: cfg.CSRFEnabled, CookieSecure: cfg.CookieSecure},
		slogger,
	)
	if err != nil {
		return fail(fmt.Errorf("ошибка инициализации HTTP-обработчиков: %w", err))
	}
	server := app.NewServer(cfg.ServerPort, h.Routes(cfg.RequestTimeout), cfg.RequestTimeout, slogger)

	// 10. Сборка итогового приложения
	application := app.NewApp(cfg, slogger, server, activityUseCase, consumer, tasks, closers)

	slogger.Info("all dependencies initialized",
		"redis", cfg.RedisEnabled(),
		"minio", cfg.MinioEnabled(),
		"rabbitmq", cfg.RabbitMQEnabled(),
	)
	return application, nil
}

