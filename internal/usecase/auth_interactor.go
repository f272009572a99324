package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/ProtogenMap/internal/core/ports"
	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// authUseCase implements AuthUseCase
type authUseCase struct {
	users      ports.UserStorage
	bcryptCost int
	// dummyHash сравнивается, когда пользователя нет, чтобы время ответа не выдавало существующие имена
	dummyHash []byte
	logger    *slog.Logger
}

// NewAuthUseCase создает новый экземпляр AuthUseCase.
func NewAuthUseCase(users ports.UserStorage, bcryptCost int, logger *slog.Logger) AuthUseCase {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("protomap-dummy-password"), bcryptCost)

	return &authUseCase{
		users:      users,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
		logger:     logger,
	}
}

func (uc *authUseCase) Register(ctx context.Context, username, password string) (*domain.User, error) {
	existing, err := uc.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка проверки имени пользователя: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка хеширования пароля: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
	}
	// между проверкой и вставкой имя могли занять: хранилище вернёт ErrUsernameTaken
	if err := uc.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("usecase: ошибка создания пользователя: %w", err)
	}

	uc.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (uc *authUseCase) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := uc.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения пользователя: %w", err)
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(uc.dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		uc.logger.Info("failed login attempt", "username", username)
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (uc *authUseCase) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := uc.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения пользователя %s: %w", id, err)
	}
	return user, nil
}
