package client

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/config"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Client держит общий пул соединений с PostgreSQL.
// Его *sql.DB используют и sqlx-хранилища, и GORM, и мигратор.
type Client struct {
	DB     *sqlx.DB
	logger *slog.Logger
}

// NewClient открывает подключение к PostgreSQL и применяет миграции.
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	start := time.Now()

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open PostgreSQL connection", "error", err)
		return nil, fmt.Errorf("ошибка открытия соединения с БД: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		_ = db.Close()
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}

	logger.Info("PostgreSQL connection established successfully",
		"duration_ms", time.Since(start).Milliseconds(),
	)

	c := &Client{DB: db, logger: logger}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ошибка при применении миграций: %w", err)
	}
	return c, nil
}

// migrate применяет встроенные в бинарник миграции.
func (c *Client) migrate() error {
	start := time.Now()

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("не удалось открыть встроенные миграции: %w", err)
	}

	driver, err := migratepg.WithInstance(c.DB.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("не удалось создать драйвер миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("не удалось создать экземпляр мигратора: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		c.logger.Info("migrations not required, schema is up to date")
	case err != nil:
		return fmt.Errorf("ошибка выполнения миграций: %w", err)
	default:
		version, _, _ := m.Version()
		c.logger.Info("migrations applied",
			"version", version,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return nil
}

// Ping проверяет доступность базы; используется в /health.
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *Client) Close() error {
	start := time.Now()
	err := c.DB.Close()
	if err != nil {
		c.logger.Error("failed to close database connection", "error", err)
		return err
	}
	c.logger.Info("database connection closed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
