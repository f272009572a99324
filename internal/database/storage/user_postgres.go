package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// pgUniqueViolation код ошибки PostgreSQL для нарушения UNIQUE.
const pgUniqueViolation = "23505"

// userColumns необязательные поля профиля хранятся как NULL, в модель они попадают пустой строкой.
const userColumns = `id, username, password_hash,
	COALESCE(avatar_url, '') AS avatar_url,
	COALESCE(social_link, '') AS social_link,
	COALESCE(about_me, '') AS about_me,
	created_at, updated_at`

// UserStorage реализует интерфейс ports.UserStorage поверх sqlx.
type UserStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewUserStorage создает новый экземпляр UserStorage.
func NewUserStorage(db *sqlx.DB, logger *slog.Logger) *UserStorage {
	return &UserStorage{db: db, logger: logger}
}

// CreateUser сохраняет нового пользователя. Занятое имя возвращается как domain.ErrUsernameTaken.
func (s *UserStorage) CreateUser(ctx context.Context, user *domain.User) error {
	start := time.Now()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, created_at, updated_at)
		VALUES (:id, :username, :password_hash, :created_at, :updated_at)
	`, user)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			s.logger.Warn("username already taken", "username", user.Username)
			return domain.ErrUsernameTaken
		}
		s.logger.Error("failed to insert user", "username", user.Username, "error", err)
		return fmt.Errorf("ошибка при сохранении пользователя: %w", err)
	}

	s.logger.Info("user created",
		"user_id", user.ID,
		"username", user.Username,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// GetUserByUsername возвращает пользователя по имени или (nil, nil), если его нет.
func (s *UserStorage) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUser(ctx, "username", username)
}

// GetUserByID возвращает пользователя по ID или (nil, nil), если его нет.
func (s *UserStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *UserStorage) getUser(ctx context.Context, column string, value any) (*domain.User, error) {
	start := time.Now()

	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1 LIMIT 1`

	err := s.db.GetContext(ctx, &user, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("user not found", column, value)
			return nil, nil
		}
		s.logger.Error("failed to get user", column, value, "error", err)
		return nil, fmt.Errorf("ошибка при получении пользователя по %s: %w", column, err)
	}

	s.logger.Debug("user retrieved",
		"user_id", user.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &user, nil
}
