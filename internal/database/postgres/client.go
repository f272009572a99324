package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewGormDB поднимает GORM поверх уже открытого пула соединений,
// чтобы sqlx-хранилища и GORM делили одни и те же подключения.
func NewGormDB(sqlDB *sql.DB, logger *slog.Logger) (*gorm.DB, error) {
	start := time.Now()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		logger.Error("failed to initialize GORM", "error", err)
		return nil, fmt.Errorf("ошибка инициализации GORM: %w", err)
	}

	logger.Info("GORM initialized", "duration_ms", time.Since(start).Milliseconds())
	return db, nil
}
