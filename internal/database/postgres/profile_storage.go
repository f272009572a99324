package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProfileStorage реализует интерфейс ports.ProfileStorage с использованием GORM.
type GormProfileStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormProfileStorage создает новый экземпляр GormProfileStorage.
func NewGormProfileStorage(db *gorm.DB, logger *slog.Logger) *GormProfileStorage {
	return &GormProfileStorage{db: db, logger: logger}
}

// UpdateProfile перезаписывает поля профиля. Пустое значение сохраняется как NULL.
func (s *GormProfileStorage) UpdateProfile(ctx context.Context, userID uuid.UUID, p domain.Profile) error {
	start := time.Now()

	updates := map[string]any{
		"avatar_url":  nullable(p.AvatarURL),
		"social_link": nullable(p.SocialLink),
		"about_me":    nullable(p.AboutMe),
		"updated_at":  time.Now().UTC(),
	}

	result := s.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		s.logger.Error("failed to update profile", "user_id", userID, "error", result.Error)
		return fmt.Errorf("ошибка при обновлении профиля с помощью GORM: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}

	s.logger.Info("profile updated",
		"user_id", userID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
